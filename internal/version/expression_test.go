package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpressionShapes(t *testing.T) {
	tests := []struct {
		in    string
		kind  Kind
		major uint64
		minor uint64
		band  uint64
	}{
		{in: "latest", kind: KindLatest},
		{in: "LATEST", kind: KindLatest},
		{in: "lts", kind: KindLTS},
		{in: "Lts", kind: KindLTS},
		{in: "9", kind: KindMajor, major: 9},
		{in: "10", kind: KindMajor, major: 10},
		{in: "9.0.x", kind: KindMinorWildcard, major: 9},
		{in: "8.0.X", kind: KindMinorWildcard, major: 8},
		{in: "9.0.1xx", kind: KindFeatureBand, major: 9, band: 1},
		{in: "9.0.3XX", kind: KindFeatureBand, major: 9, band: 3},
		{in: "9.0.10xx", kind: KindFeatureBand, major: 9, band: 10},
		{in: " 9.0.100 ", kind: KindExact},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			expr, err := ParseExpression(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, expr.Kind)
			assert.Equal(t, tt.major, expr.Major)
			assert.Equal(t, tt.minor, expr.Minor)
			assert.Equal(t, tt.band, expr.Band)
		})
	}
}

func TestParseExpressionExact(t *testing.T) {
	expr, err := ParseExpression("9.0.100-rc.2.24474.11")
	require.NoError(t, err)
	assert.Equal(t, KindExact, expr.Kind)
	require.NotNil(t, expr.Exact)
	assert.Equal(t, "rc.2.24474.11", expr.Exact.Prerelease())
	assert.Equal(t, "9.0.100-rc.2.24474.11", expr.String())
}

func TestParseExpressionRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"9.0",
		"9.0.1x",
		"9.x",
		"9.0.x.1",
		"newest",
		"9.0.100.1",
		"abc",
		"99999999999999999999999",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseExpression(in)
			if !errors.Is(err, ErrInvalidExpression) {
				t.Fatalf("expected ErrInvalidExpression for %q, got %v", in, err)
			}
		})
	}
}

func TestParseExpressionRejectsRuntimeVersion(t *testing.T) {
	_, err := ParseExpression("9.0.1")
	require.ErrorIs(t, err, ErrInvalidExpression)
	assert.Contains(t, err.Error(), "runtime version")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "feature-band", KindFeatureBand.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
