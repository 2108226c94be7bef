package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndnm/ndnm/internal/testutil"
	"github.com/ndnm/ndnm/internal/transport"
)

func fixtureChannels() []testutil.ChannelFixture {
	return []testutil.ChannelFixture{
		{
			Version:      "9.0",
			LatestSDK:    "9.0.101",
			SupportPhase: "active",
			ReleaseType:  "sts",
			Releases: []testutil.ReleaseFixture{{
				Version:        "9.0.0",
				RuntimeVersion: "9.0.0",
				SDK: testutil.SDKFixture{Version: "9.0.101", RuntimeVersion: "9.0.0", Files: []testutil.FileFixture{
					{RID: "linux-x64", Name: "dotnet-sdk-9.0.101-linux-x64.tar.gz", Data: []byte("a")},
					{RID: "osx-x64", Name: "dotnet-sdk-9.0.101-osx-x64.pkg", Data: []byte("b")},
					{RID: "osx-x64", Name: "dotnet-sdk-9.0.101-osx-x64.tar.gz", Data: []byte("c")},
				}},
				SDKs: []testutil.SDKFixture{
					{Version: "9.0.101", RuntimeVersion: "9.0.0"},
					{Version: "9.0.200", DisplayVersion: "9.0.200", RuntimeVersion: "9.0.0"},
				},
			}},
		},
		{
			Version:      "8.0",
			LatestSDK:    "8.0.400",
			SupportPhase: "active",
			ReleaseType:  "lts",
			Releases: []testutil.ReleaseFixture{{
				Version:        "8.0.8",
				RuntimeVersion: "8.0.8",
				SDK:            testutil.SDKFixture{Version: "8.0.400"},
			}},
		},
	}
}

func newTestClient(server *testutil.ReleaseServer) *Client {
	return NewClient(transport.New(5*time.Second, transport.WithRetries(0)), server.IndexURL())
}

func TestFetchCatalogFlattensChannels(t *testing.T) {
	server := testutil.NewReleaseServer(t, fixtureChannels()...)

	channels, err := newTestClient(server).FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)

	nine := channels[0]
	assert.Equal(t, "9.0", nine.Version)
	assert.Equal(t, "9.0.101", nine.LatestSDK)
	assert.True(t, nine.IsActive())
	assert.False(t, nine.IsLTS())
	assert.Equal(t, server.URL+"/9.0/releases.json", nine.ReleasesURL)

	require.Len(t, nine.Builds, 2, "duplicate of the primary sdk must be dropped")
	assert.Equal(t, "9.0.101", nine.Builds[0].VersionString())
	assert.False(t, nine.Builds[0].Secondary)
	assert.Equal(t, "9.0.0", nine.Builds[0].RuntimeVersion)
	assert.Equal(t, "9.0.200", nine.Builds[1].VersionString())
	assert.True(t, nine.Builds[1].Secondary)

	eight := channels[1]
	assert.True(t, eight.IsLTS())
	require.Len(t, eight.Builds, 1)
	assert.Equal(t, "8.0.8", eight.Builds[0].RuntimeVersion, "runtime falls back to the release runtime")
}

func TestFileForPrefersTarGz(t *testing.T) {
	server := testutil.NewReleaseServer(t, fixtureChannels()...)
	channels, err := newTestClient(server).FetchCatalog(context.Background())
	require.NoError(t, err)

	build := channels[0].Builds[0]
	f, ok := build.FileFor("osx-x64")
	require.True(t, ok)
	assert.Equal(t, "dotnet-sdk-9.0.101-osx-x64.tar.gz", f.Name)
	assert.Equal(t, testutil.SHA512Hex([]byte("c")), f.Digest)

	_, ok = build.FileFor("linux-arm64")
	assert.False(t, ok)
}

func TestFetchCatalogIndexFailure(t *testing.T) {
	server := testutil.NewReleaseServer(t)
	client := NewClient(transport.New(5*time.Second, transport.WithRetries(0)), server.URL+"/missing.json")

	_, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

func TestFetchCatalogChannelFailureAborts(t *testing.T) {
	server := testutil.NewReleaseServer(t, fixtureChannels()...)
	server.FailChannel = "8.0"

	_, err := newTestClient(server).FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.Contains(t, err.Error(), "8.0")
}

type stubGetter map[string]any

func (s stubGetter) GetJSON(_ context.Context, url string, v any) error {
	doc, ok := s[url]
	if !ok {
		return errors.New("not found")
	}
	switch target := v.(type) {
	case *releasesIndex:
		*target = doc.(releasesIndex)
	case *channelDocument:
		*target = doc.(channelDocument)
	}
	return nil
}

func TestFetchCatalogInvalidVersion(t *testing.T) {
	getter := stubGetter{
		"https://example.test/index.json": releasesIndex{Channels: []channelSummary{{
			channelFields: channelFields{ChannelVersion: "9.0"},
			ReleasesJSON:  "9.0/releases.json",
		}}},
		"https://example.test/9.0/releases.json": channelDocument{Releases: []releaseRecord{{
			SDK: &sdkRecord{Version: "nine"},
		}}},
	}

	_, err := NewClient(getter, "https://example.test/index.json").FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.Contains(t, err.Error(), "invalid SDK version")
}

func TestFetchCatalogMissingChannelURL(t *testing.T) {
	getter := stubGetter{
		"https://example.test/index.json": releasesIndex{Channels: []channelSummary{{
			channelFields: channelFields{ChannelVersion: "9.0"},
		}}},
	}

	_, err := NewClient(getter, "https://example.test/index.json").FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

func TestIsTarGz(t *testing.T) {
	assert.True(t, PlatformFile{URL: "https://x/dotnet-sdk.tar.gz"}.IsTarGz())
	assert.True(t, PlatformFile{URL: "https://x/dotnet-sdk.TGZ?sig=1"}.IsTarGz())
	assert.False(t, PlatformFile{URL: "https://x/dotnet-sdk.zip"}.IsTarGz())
	assert.False(t, PlatformFile{URL: "https://x/dotnet-sdk.pkg"}.IsTarGz())
}
