package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndnm/ndnm/internal/root"
)

func writeGlobalJSON(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, root.ProjectConfigName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write global.json: %v", err)
	}
	return path
}

func TestExpressionFromProject(t *testing.T) {
	dir := t.TempDir()
	want := writeGlobalJSON(t, dir, `{"sdk":{"version":"9.0.100","rollForward":"latestFeature"}}`)
	sub := filepath.Join(dir, "src", "app")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	expr, path, err := ExpressionFromProject(sub)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, KindExact, expr.Kind)
	assert.Equal(t, "9.0.100", expr.Raw)
}

func TestExpressionFromProjectNotFound(t *testing.T) {
	_, _, err := ExpressionFromProject(t.TempDir())
	require.ErrorIs(t, err, root.ErrProjectConfigNotFound)
}

func TestExpressionFromProjectMissingSDK(t *testing.T) {
	dir := t.TempDir()
	writeGlobalJSON(t, dir, `{"msbuild-sdks":{}}`)
	_, _, err := ExpressionFromProject(dir)
	require.ErrorIs(t, err, ErrInvalidExpression)
}

func TestExpressionFromProjectMalformed(t *testing.T) {
	dir := t.TempDir()
	writeGlobalJSON(t, dir, `{"sdk":`)
	_, _, err := ExpressionFromProject(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestExpressionFromProjectRuntimeVersion(t *testing.T) {
	dir := t.TempDir()
	writeGlobalJSON(t, dir, `{"sdk":{"version":"9.0.1"}}`)
	_, _, err := ExpressionFromProject(dir)
	require.ErrorIs(t, err, ErrInvalidExpression)
}
