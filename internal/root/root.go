// Package root locates project-level configuration by walking up the directory tree.
package root

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ndnm/ndnm/internal/messages"
)

// ProjectConfigName is the project-local file that pins an SDK version.
const ProjectConfigName = "global.json"

// ErrProjectConfigNotFound reports that no project config exists between the start
// directory and the filesystem root.
var ErrProjectConfigNotFound = errors.New(messages.RootProjectConfigNotFound)

// FindProjectConfig searches start and its parents for global.json. It returns the
// path of the nearest file and whether one was found.
func FindProjectConfig(start string) (string, bool, error) {
	if start == "" {
		return "", false, errors.New(messages.RootStartPathRequired)
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf(messages.RootResolvePathFmt, start, err)
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.Mode().IsRegular():
			return candidate, true, nil
		case err == nil:
			return "", false, fmt.Errorf(messages.RootPathNotFileFmt, candidate)
		case !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf(messages.RootCheckPathFmt, candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// RequireProjectConfig is FindProjectConfig with a missing file reported as
// ErrProjectConfigNotFound.
func RequireProjectConfig(start string) (string, error) {
	path, found, err := FindProjectConfig(start)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: "+messages.RootProjectConfigNotFoundFmt, ErrProjectConfigNotFound, start)
	}
	return path, nil
}
