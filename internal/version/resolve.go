package version

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/ndnm/ndnm/internal/catalog"
	"github.com/ndnm/ndnm/internal/messages"
)

// ErrNoMatchingBuild is returned when no build in the catalog satisfies an expression.
var ErrNoMatchingBuild = errors.New(messages.VersionNoMatchingBuild)

// Resolve selects the build that expr refers to. Channels are expected in catalog
// order, newest first, as FetchCatalog returns them.
func Resolve(expr Expression, channels []catalog.Channel) (catalog.Build, error) {
	switch expr.Kind {
	case KindExact:
		if b, ok := matchExact(expr, channels); ok {
			return b, nil
		}
	case KindLatest:
		return matchLatestActive(expr, channels, false)
	case KindLTS:
		return matchLatestActive(expr, channels, true)
	case KindMajor:
		if b, ok := firstDescending(channels, func(v *semver.Version) bool {
			return v.Major() == expr.Major
		}); ok {
			return b, nil
		}
	case KindMinorWildcard:
		if b, ok := firstDescending(channels, func(v *semver.Version) bool {
			return v.Major() == expr.Major && v.Minor() == expr.Minor
		}); ok {
			return b, nil
		}
	case KindFeatureBand:
		if b, ok := firstDescending(channels, func(v *semver.Version) bool {
			return v.Major() == expr.Major && v.Minor() == expr.Minor && v.Patch()/100 == expr.Band
		}); ok {
			return b, nil
		}
	default:
		return catalog.Build{}, fmt.Errorf("%w: "+messages.VersionExpressionShapeFmt, ErrInvalidExpression, expr.Raw)
	}
	return catalog.Build{}, noMatch(expr)
}

func noMatch(expr Expression) error {
	return fmt.Errorf("%w: "+messages.VersionNoMatchFmt, ErrNoMatchingBuild, expr.Raw)
}

// matchExact prefers builds from a release's primary sdk slot, then builds listed
// only under sdks, then builds whose display version spells the request.
func matchExact(expr Expression, channels []catalog.Channel) (catalog.Build, bool) {
	for _, secondary := range []bool{false, true} {
		for _, ch := range channels {
			for _, b := range ch.Builds {
				if b.Secondary == secondary && b.Version != nil && b.Version.Equal(expr.Exact) {
					return b, true
				}
			}
		}
	}
	for _, ch := range channels {
		for _, b := range ch.Builds {
			if displayMatches(b.DisplayVersion, expr) {
				return b, true
			}
		}
	}
	return catalog.Build{}, false
}

func displayMatches(display string, expr Expression) bool {
	if display == "" {
		return false
	}
	if display == expr.Raw {
		return true
	}
	v, err := semver.NewVersion(display)
	if err != nil {
		return false
	}
	return v.Equal(expr.Exact)
}

// matchLatestActive picks the first active channel (LTS only when ltsOnly is set)
// and returns the build named by its latest-sdk field.
func matchLatestActive(expr Expression, channels []catalog.Channel, ltsOnly bool) (catalog.Build, error) {
	for _, ch := range channels {
		if !ch.IsActive() || (ltsOnly && !ch.IsLTS()) {
			continue
		}
		if b, ok := buildByVersion(ch, ch.LatestSDK); ok {
			return b, nil
		}
		return catalog.Build{}, fmt.Errorf("%w: "+messages.VersionLatestSDKMissingFmt, ErrNoMatchingBuild, ch.Version, ch.LatestSDK)
	}
	return catalog.Build{}, fmt.Errorf("%w: "+messages.VersionNoActiveChannelFmt, ErrNoMatchingBuild, expr.Raw)
}

func buildByVersion(ch catalog.Channel, version string) (catalog.Build, bool) {
	want, err := semver.NewVersion(version)
	if err != nil {
		return catalog.Build{}, false
	}
	for _, b := range ch.Builds {
		if b.Version != nil && b.Version.Equal(want) {
			return b, true
		}
	}
	return catalog.Build{}, false
}

// firstDescending returns the highest-precedence build whose version satisfies match.
func firstDescending(channels []catalog.Channel, match func(*semver.Version) bool) (catalog.Build, bool) {
	builds := SortedBuilds(channels)
	for _, b := range builds {
		if match(b.Version) {
			return b, true
		}
	}
	return catalog.Build{}, false
}

// SortedBuilds returns every build of channels ordered by descending version
// precedence. Builds without a version are dropped.
func SortedBuilds(channels []catalog.Channel) []catalog.Build {
	var builds []catalog.Build
	for _, ch := range channels {
		for _, b := range ch.Builds {
			if b.Version != nil {
				builds = append(builds, b)
			}
		}
	}
	sort.SliceStable(builds, func(i, j int) bool {
		return builds[i].Version.GreaterThan(builds[j].Version)
	})
	return builds
}
