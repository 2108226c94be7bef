// Package version parses SDK version expressions and resolves them against a catalog.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ndnm/ndnm/internal/messages"
)

// ErrInvalidExpression is returned when a version expression does not match any
// supported shape.
var ErrInvalidExpression = errors.New(messages.VersionInvalidExpression)

// Kind identifies the shape of a version expression.
type Kind int

// Expression kinds.
const (
	KindExact Kind = iota + 1
	KindLatest
	KindLTS
	KindMajor
	KindMinorWildcard
	KindFeatureBand
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindLatest:
		return "latest"
	case KindLTS:
		return "lts"
	case KindMajor:
		return "major"
	case KindMinorWildcard:
		return "minor-wildcard"
	case KindFeatureBand:
		return "feature-band"
	default:
		return "unknown"
	}
}

// minSDKPatch is the lowest patch number an SDK version carries. Anything below
// it is a runtime version.
const minSDKPatch = 100

var (
	majorPattern         = regexp.MustCompile(`^(\d+)$`)
	minorWildcardPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.[xX]$`)
	featureBandPattern   = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)[xX]{2}$`)
)

// Expression is a parsed version request.
type Expression struct {
	Kind Kind
	Raw  string
	// Exact is set for KindExact.
	Exact *semver.Version
	Major uint64
	Minor uint64
	// Band is the hundreds digit(s) of the patch for KindFeatureBand, so 9.0.1xx has Band 1.
	Band uint64
}

func (e Expression) String() string {
	return e.Raw
}

// ParseExpression parses one of: an exact SDK version (9.0.100), a major version (9),
// a minor wildcard (9.0.x), a feature band (9.0.1xx), latest, or lts.
func ParseExpression(raw string) (Expression, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Expression{}, fmt.Errorf("%w: %s", ErrInvalidExpression, messages.VersionExpressionRequired)
	}

	switch strings.ToLower(text) {
	case "latest":
		return Expression{Kind: KindLatest, Raw: text}, nil
	case "lts":
		return Expression{Kind: KindLTS, Raw: text}, nil
	}

	if m := majorPattern.FindStringSubmatch(text); m != nil {
		nums, err := parseNumbers(text, m[1:])
		if err != nil {
			return Expression{}, err
		}
		return Expression{Kind: KindMajor, Raw: text, Major: nums[0]}, nil
	}
	if m := minorWildcardPattern.FindStringSubmatch(text); m != nil {
		nums, err := parseNumbers(text, m[1:])
		if err != nil {
			return Expression{}, err
		}
		return Expression{Kind: KindMinorWildcard, Raw: text, Major: nums[0], Minor: nums[1]}, nil
	}
	if m := featureBandPattern.FindStringSubmatch(text); m != nil {
		nums, err := parseNumbers(text, m[1:])
		if err != nil {
			return Expression{}, err
		}
		return Expression{Kind: KindFeatureBand, Raw: text, Major: nums[0], Minor: nums[1], Band: nums[2]}, nil
	}

	exact, err := semver.StrictNewVersion(strings.TrimPrefix(text, "v"))
	if err != nil {
		return Expression{}, fmt.Errorf("%w: "+messages.VersionExpressionShapeFmt, ErrInvalidExpression, text)
	}
	if exact.Patch() < minSDKPatch {
		return Expression{}, fmt.Errorf("%w: "+messages.VersionRuntimeNotSDKFmt, ErrInvalidExpression, text)
	}
	return Expression{Kind: KindExact, Raw: text, Exact: exact}, nil
}

func parseNumbers(text string, groups []string) ([]uint64, error) {
	out := make([]uint64, 0, len(groups))
	for _, g := range groups {
		n, err := strconv.ParseUint(g, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: "+messages.VersionNumberOutOfRangeFmt, ErrInvalidExpression, text)
		}
		out = append(out, n)
	}
	return out, nil
}
