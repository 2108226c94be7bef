package version

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ndnm/ndnm/internal/messages"
	"github.com/ndnm/ndnm/internal/root"
)

type projectConfig struct {
	SDK struct {
		Version string `json:"version"`
	} `json:"sdk"`
}

// ExpressionFromProject reads the nearest global.json at or above start and parses
// its sdk.version. It returns the parsed expression and the file it came from.
func ExpressionFromProject(start string) (Expression, string, error) {
	path, err := root.RequireProjectConfig(start)
	if err != nil {
		return Expression{}, "", err
	}
	expr, err := ParseProjectConfig(path)
	if err != nil {
		return Expression{}, path, err
	}
	return expr, path, nil
}

// ParseProjectConfig parses the sdk.version field of the global.json at path.
func ParseProjectConfig(path string) (Expression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Expression{}, fmt.Errorf(messages.VersionProjectConfigReadFmt, path, err)
	}
	var cfg projectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Expression{}, fmt.Errorf(messages.VersionProjectConfigParseFmt, path, err)
	}
	if strings.TrimSpace(cfg.SDK.Version) == "" {
		return Expression{}, fmt.Errorf("%w: "+messages.VersionProjectConfigNoSDKFmt, ErrInvalidExpression, path)
	}
	return ParseExpression(cfg.SDK.Version)
}
