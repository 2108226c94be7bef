// Package catalog fetches the remote .NET release index and flattens it into
// channels of SDK builds.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ndnm/ndnm/internal/messages"
)

// ErrCatalogUnavailable reports that the index or a channel document could not be
// retrieved or parsed.
var ErrCatalogUnavailable = errors.New(messages.CatalogUnavailable)

const defaultConcurrency = 4

// JSONGetter fetches a JSON document into v.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Client reads the two-level release catalog.
type Client struct {
	getter      JSONGetter
	indexURL    string
	concurrency int
}

// NewClient returns a Client reading indexURL through getter.
func NewClient(getter JSONGetter, indexURL string) *Client {
	return &Client{getter: getter, indexURL: indexURL, concurrency: defaultConcurrency}
}

// FetchCatalog fetches the index and every channel document it references.
// Channels keep the index order; a single failure aborts the whole fetch.
func (c *Client) FetchCatalog(ctx context.Context) ([]Channel, error) {
	var index releasesIndex
	if err := c.getter.GetJSON(ctx, c.indexURL, &index); err != nil {
		return nil, fmt.Errorf("%w: "+messages.CatalogFetchIndexFmt, ErrCatalogUnavailable, c.indexURL, err)
	}

	channels := make([]Channel, len(index.Channels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, summary := range index.Channels {
		g.Go(func() error {
			ch, err := c.fetchChannel(gctx, summary)
			if err != nil {
				return err
			}
			channels[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *Client) fetchChannel(ctx context.Context, summary channelSummary) (Channel, error) {
	if strings.TrimSpace(summary.ReleasesJSON) == "" {
		return Channel{}, fmt.Errorf("%w: "+messages.CatalogMissingChannelURLFmt, ErrCatalogUnavailable, summary.ChannelVersion)
	}
	docURL := c.resolveURL(summary.ReleasesJSON)

	var doc channelDocument
	if err := c.getter.GetJSON(ctx, docURL, &doc); err != nil {
		return Channel{}, fmt.Errorf("%w: "+messages.CatalogFetchChannelFmt, ErrCatalogUnavailable, summary.ChannelVersion, docURL, err)
	}

	builds, err := flattenReleases(summary.ChannelVersion, doc.Releases)
	if err != nil {
		return Channel{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	return Channel{
		Version:       summary.ChannelVersion,
		LatestRelease: summary.LatestRelease,
		LatestRuntime: summary.LatestRuntime,
		LatestSDK:     summary.LatestSDK,
		SupportPhase:  SupportPhase(strings.ToLower(summary.SupportPhase)),
		ReleaseType:   ReleaseType(strings.ToLower(summary.ReleaseType)),
		ReleasesURL:   docURL,
		Builds:        builds,
	}, nil
}

// resolveURL resolves a channel document reference against the index URL.
func (c *Client) resolveURL(ref string) string {
	base, err := url.Parse(c.indexURL)
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

// flattenReleases turns release records into builds: each release's primary sdk
// first, then any additional sdks that differ from it.
func flattenReleases(channel string, releases []releaseRecord) ([]Build, error) {
	var builds []Build
	for _, rel := range releases {
		runtimeVersion := ""
		if rel.Runtime != nil {
			runtimeVersion = rel.Runtime.Version
		}

		primary := ""
		if rel.SDK != nil && strings.TrimSpace(rel.SDK.Version) != "" {
			b, err := newBuild(channel, *rel.SDK, runtimeVersion, false)
			if err != nil {
				return nil, err
			}
			primary = b.VersionString()
			builds = append(builds, b)
		}
		for _, sdk := range rel.SDKs {
			if strings.TrimSpace(sdk.Version) == "" || sdk.Version == primary {
				continue
			}
			b, err := newBuild(channel, sdk, runtimeVersion, true)
			if err != nil {
				return nil, err
			}
			builds = append(builds, b)
		}
	}
	return builds, nil
}

func newBuild(channel string, sdk sdkRecord, releaseRuntime string, secondary bool) (Build, error) {
	v, err := semver.NewVersion(strings.TrimSpace(sdk.Version))
	if err != nil {
		return Build{}, fmt.Errorf(messages.CatalogInvalidVersionFmt, channel, sdk.Version, err)
	}
	runtimeVersion := sdk.RuntimeVersion
	if runtimeVersion == "" {
		runtimeVersion = releaseRuntime
	}
	files := make([]PlatformFile, 0, len(sdk.Files))
	for _, f := range sdk.Files {
		if f.RID == "" {
			continue
		}
		files = append(files, PlatformFile{
			Platform: f.RID,
			URL:      f.URL,
			Digest:   strings.TrimSpace(f.Hash),
			Name:     f.Name,
		})
	}
	return Build{
		Version:        v,
		DisplayVersion: sdk.DisplayVersion,
		RuntimeVersion: runtimeVersion,
		Channel:        channel,
		Secondary:      secondary,
		Files:          files,
	}, nil
}
