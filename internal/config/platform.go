package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ndnm/ndnm/internal/messages"
)

var (
	goos   = runtime.GOOS
	goarch = runtime.GOARCH
)

// DetectPlatform returns the release platform identifier (for example linux-x64)
// of the running host.
func DetectPlatform() (string, error) {
	return platformFor(goos, goarch)
}

func platformFor(osName string, arch string) (string, error) {
	var ridOS string
	switch osName {
	case "linux":
		ridOS = "linux"
	case "darwin":
		ridOS = "osx"
	default:
		return "", fmt.Errorf("%w: "+messages.ConfigUnsupportedOSFmt, ErrUnsupportedPlatform, osName)
	}

	var ridArch string
	switch arch {
	case "amd64":
		ridArch = "x64"
	case "386":
		ridArch = "x86"
	case "arm64":
		ridArch = "arm64"
	case "arm":
		ridArch = "arm"
	default:
		return "", fmt.Errorf("%w: "+messages.ConfigUnsupportedArchFmt, ErrUnsupportedPlatform, arch)
	}

	return ridOS + "-" + ridArch, nil
}

// ValidatePlatform checks that id has the <os>-<arch> shape used by the release index.
// Qualified identifiers such as linux-musl-x64 are accepted.
func ValidatePlatform(id string) error {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return fmt.Errorf(messages.ConfigInvalidPlatformFmt, id)
	}
	for _, part := range parts {
		if part == "" || strings.TrimSpace(part) != part {
			return fmt.Errorf(messages.ConfigInvalidPlatformFmt, id)
		}
	}
	return nil
}
