package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FileFixture is one platform file of an SDK fixture.
type FileFixture struct {
	RID  string
	Name string
	Data []byte
	// Hash overrides the published digest; by default it is SHA512Hex(Data).
	Hash string
}

// SDKFixture is an SDK record inside a release.
type SDKFixture struct {
	Version        string
	DisplayVersion string
	RuntimeVersion string
	Files          []FileFixture
}

// ReleaseFixture is one release of a channel.
type ReleaseFixture struct {
	Version        string
	RuntimeVersion string
	SDK            SDKFixture
	SDKs           []SDKFixture
}

// ChannelFixture is a channel summary plus its releases.
type ChannelFixture struct {
	Version      string
	LatestSDK    string
	SupportPhase string
	ReleaseType  string
	Releases     []ReleaseFixture
}

// ReleaseServer serves a releases index, channel documents and artifacts.
type ReleaseServer struct {
	*httptest.Server

	mu        sync.Mutex
	channels  []ChannelFixture
	artifacts map[string][]byte
	hits      map[string]int
	// OmitLength makes HEAD requests report no content length.
	OmitLength bool
	// Corrupt flips one byte of artifact bodies served by GET.
	Corrupt bool
	// FailChannel makes the named channel document return 500.
	FailChannel string
}

// NewReleaseServer starts a server for channels and closes it on test cleanup.
func NewReleaseServer(t *testing.T, channels ...ChannelFixture) *ReleaseServer {
	t.Helper()
	s := &ReleaseServer{
		channels:  channels,
		artifacts: map[string][]byte{},
		hits:      map[string]int{},
	}
	for _, ch := range channels {
		for _, rel := range ch.Releases {
			for _, sdk := range append([]SDKFixture{rel.SDK}, rel.SDKs...) {
				for _, f := range sdk.Files {
					s.artifacts[f.Name] = f.Data
				}
			}
		}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// IndexURL is the URL of releases-index.json.
func (s *ReleaseServer) IndexURL() string {
	return s.URL + "/releases-index.json"
}

// FileURL is the URL an artifact fixture is served from.
func (s *ReleaseServer) FileURL(name string) string {
	return s.URL + "/files/" + name
}

// Hits returns the number of requests served so far.
func (s *ReleaseServer) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// HitsFor returns the number of requests for one path.
func (s *ReleaseServer) HitsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *ReleaseServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	switch {
	case r.URL.Path == "/releases-index.json":
		s.writeJSON(w, s.index())
	case strings.HasSuffix(r.URL.Path, "/releases.json"):
		version := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/releases.json")
		if version == s.FailChannel {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		for _, ch := range s.channels {
			if ch.Version == version {
				s.writeJSON(w, s.channelDoc(ch))
				return
			}
		}
		http.NotFound(w, r)
	case strings.HasPrefix(r.URL.Path, "/files/"):
		data, ok := s.artifacts[strings.TrimPrefix(r.URL.Path, "/files/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodHead {
			if !s.OmitLength {
				w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			}
			return
		}
		body := data
		if s.Corrupt && len(body) > 0 {
			body = append([]byte(nil), data...)
			body[len(body)/2] ^= 0xff
		}
		_, _ = w.Write(body)
	default:
		http.NotFound(w, r)
	}
}

func (s *ReleaseServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *ReleaseServer) index() map[string]any {
	entries := make([]map[string]any, 0, len(s.channels))
	for _, ch := range s.channels {
		entry := s.channelFields(ch)
		entry["releases.json"] = s.URL + "/" + ch.Version + "/releases.json"
		entries = append(entries, entry)
	}
	return map[string]any{"releases-index": entries}
}

func (s *ReleaseServer) channelFields(ch ChannelFixture) map[string]any {
	latestRuntime := ""
	latestRelease := ""
	if len(ch.Releases) > 0 {
		latestRuntime = ch.Releases[0].RuntimeVersion
		latestRelease = ch.Releases[0].Version
	}
	return map[string]any{
		"channel-version": ch.Version,
		"latest-release":  latestRelease,
		"latest-runtime":  latestRuntime,
		"latest-sdk":      ch.LatestSDK,
		"support-phase":   ch.SupportPhase,
		"release-type":    ch.ReleaseType,
	}
}

func (s *ReleaseServer) channelDoc(ch ChannelFixture) map[string]any {
	doc := s.channelFields(ch)
	releases := make([]map[string]any, 0, len(ch.Releases))
	for _, rel := range ch.Releases {
		sdks := make([]map[string]any, 0, len(rel.SDKs))
		for _, sdk := range rel.SDKs {
			sdks = append(sdks, s.sdkRecord(sdk))
		}
		releases = append(releases, map[string]any{
			"release-version": rel.Version,
			"runtime": map[string]any{
				"version":         rel.RuntimeVersion,
				"version-display": rel.RuntimeVersion,
				"files":           []any{},
			},
			"sdk":  s.sdkRecord(rel.SDK),
			"sdks": sdks,
		})
	}
	doc["releases"] = releases
	return doc
}

func (s *ReleaseServer) sdkRecord(sdk SDKFixture) map[string]any {
	files := make([]map[string]any, 0, len(sdk.Files))
	for _, f := range sdk.Files {
		hash := f.Hash
		if hash == "" {
			hash = SHA512Hex(f.Data)
		}
		files = append(files, map[string]any{
			"name": f.Name,
			"rid":  f.RID,
			"url":  s.FileURL(f.Name),
			"hash": hash,
		})
	}
	display := sdk.DisplayVersion
	if display == "" {
		display = sdk.Version
	}
	return map[string]any{
		"version":         sdk.Version,
		"version-display": display,
		"runtime-version": sdk.RuntimeVersion,
		"files":           files,
	}
}
