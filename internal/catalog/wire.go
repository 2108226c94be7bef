package catalog

// releasesIndex is releases-index.json.
type releasesIndex struct {
	Channels []channelSummary `json:"releases-index"`
}

type channelFields struct {
	ChannelVersion string `json:"channel-version"`
	LatestRelease  string `json:"latest-release"`
	LatestRuntime  string `json:"latest-runtime"`
	LatestSDK      string `json:"latest-sdk"`
	SupportPhase   string `json:"support-phase"`
	ReleaseType    string `json:"release-type"`
}

type channelSummary struct {
	channelFields
	ReleasesJSON string `json:"releases.json"`
}

// channelDocument is a channel's releases.json.
type channelDocument struct {
	channelFields
	Releases []releaseRecord `json:"releases"`
}

type releaseRecord struct {
	ReleaseVersion string       `json:"release-version"`
	Runtime        *runtimeInfo `json:"runtime"`
	SDK            *sdkRecord   `json:"sdk"`
	SDKs           []sdkRecord  `json:"sdks"`
}

type runtimeInfo struct {
	Version        string `json:"version"`
	DisplayVersion string `json:"version-display"`
}

type sdkRecord struct {
	Version        string       `json:"version"`
	DisplayVersion string       `json:"version-display"`
	RuntimeVersion string       `json:"runtime-version"`
	Files          []fileRecord `json:"files"`
}

type fileRecord struct {
	Name string `json:"name"`
	RID  string `json:"rid"`
	URL  string `json:"url"`
	Hash string `json:"hash"`
}
