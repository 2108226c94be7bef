package catalog

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SupportPhase is a channel's lifecycle stage as published in the release index.
type SupportPhase string

// Support phases published by the release index.
const (
	SupportPhaseActive      SupportPhase = "active"
	SupportPhaseMaintenance SupportPhase = "maintenance"
	SupportPhaseEOL         SupportPhase = "eol"
	SupportPhasePreview     SupportPhase = "preview"
	SupportPhaseGoLive      SupportPhase = "go-live"
)

// ReleaseType distinguishes long-term from standard-term support channels.
type ReleaseType string

// Release types published by the release index.
const (
	ReleaseTypeLTS ReleaseType = "lts"
	ReleaseTypeSTS ReleaseType = "sts"
)

// Channel is a release line and the SDK builds it contains.
type Channel struct {
	Version       string
	LatestRelease string
	LatestRuntime string
	LatestSDK     string
	SupportPhase  SupportPhase
	ReleaseType   ReleaseType
	ReleasesURL   string
	// Builds lists every SDK build of the channel in catalog order. Builds from a
	// release's primary sdk slot have Secondary=false.
	Builds []Build
}

// IsActive reports whether the channel is in the active support phase.
func (c Channel) IsActive() bool {
	return SupportPhase(strings.ToLower(string(c.SupportPhase))) == SupportPhaseActive
}

// IsLTS reports whether the channel is a long-term support release line.
func (c Channel) IsLTS() bool {
	return ReleaseType(strings.ToLower(string(c.ReleaseType))) == ReleaseTypeLTS
}

// Build is one installable SDK build.
type Build struct {
	Version        *semver.Version
	DisplayVersion string
	RuntimeVersion string
	Channel        string
	Secondary      bool
	Files          []PlatformFile
}

// VersionString returns the version exactly as the catalog spells it.
func (b Build) VersionString() string {
	if b.Version == nil {
		return ""
	}
	return b.Version.Original()
}

// FileFor returns the file for platform. When a platform has several files (an
// installer package next to the archive), the compressed tar archive wins.
func (b Build) FileFor(platform string) (PlatformFile, bool) {
	var found PlatformFile
	ok := false
	for _, f := range b.Files {
		if f.Platform != platform {
			continue
		}
		if f.IsTarGz() {
			return f, true
		}
		if !ok {
			found, ok = f, true
		}
	}
	return found, ok
}

// PlatformFile is the downloadable artifact of a build for one platform.
type PlatformFile struct {
	Platform string
	URL      string
	Digest   string
	Name     string
}

// IsTarGz reports whether the file is a gzip-compressed tar archive.
func (f PlatformFile) IsTarGz() bool {
	name := strings.ToLower(f.URL)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz")
}
