package extract

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/ndnm/ndnm/internal/messages"
)

type mergeAction int

const (
	actionCreate mergeAction = iota
	actionOverwrite
	actionKeep
)

type mergeStep struct {
	rel    string
	action mergeAction
}

// merge moves staged files into targetDir following the overwrite policy.
func (in *Installer) merge(targetDir string, isNewer bool) (MergeReport, error) {
	var report MergeReport
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return report, failure(messages.ExtractCreateDirFmt, targetDir, err)
	}
	steps, err := planMerge(in.StagingDir, targetDir, isNewer)
	if err != nil {
		return report, err
	}

	for _, step := range steps {
		src := filepath.Join(in.StagingDir, step.rel)
		dst := filepath.Join(targetDir, step.rel)
		switch step.action {
		case actionKeep:
			report.Kept++
			continue
		case actionOverwrite:
			if info, err := os.Lstat(dst); err == nil && info.IsDir() {
				if err := osRemoveAll(dst); err != nil {
					return report, failure(messages.ExtractRemoveFmt, dst, err)
				}
			}
			report.Overwritten++
		case actionCreate:
			report.Created++
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return report, failure(messages.ExtractCreateDirFmt, filepath.Dir(dst), err)
		}
		if err := osRename(src, dst); err != nil {
			return report, failure(messages.ExtractMoveFmt, step.rel, err)
		}
	}
	return report, nil
}

// planMerge walks the staged tree and decides, per file, whether it is created,
// overwritten, or left alone. Target directories are created during the walk, empty
// ones included.
func planMerge(stagingDir, targetDir string, isNewer bool) ([]mergeStep, error) {
	var steps []mergeStep
	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dst := filepath.Join(targetDir, rel)
		if d.IsDir() {
			if info, err := os.Lstat(dst); err == nil && !info.IsDir() {
				if !isNewer {
					kept, err := keepSubtree(stagingDir, path)
					if err != nil {
						return err
					}
					log.Debugf("keeping file %s; %d staged files under it are not installed", dst, len(kept))
					steps = append(steps, kept...)
					return fs.SkipDir
				}
				if err := os.Remove(dst); err != nil {
					return err
				}
			}
			return os.MkdirAll(dst, 0o755)
		}
		_, err = os.Lstat(dst)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			steps = append(steps, mergeStep{rel: rel, action: actionCreate})
		case err != nil:
			return err
		case isNewer:
			steps = append(steps, mergeStep{rel: rel, action: actionOverwrite})
		default:
			steps = append(steps, mergeStep{rel: rel, action: actionKeep})
		}
		return nil
	})
	if err != nil {
		return nil, failure(messages.ExtractWalkFmt, err)
	}
	return steps, nil
}

// keepSubtree records every staged file under dir as kept.
func keepSubtree(stagingDir, dir string) ([]mergeStep, error) {
	var steps []mergeStep
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		steps = append(steps, mergeStep{rel: rel, action: actionKeep})
		return nil
	})
	return steps, err
}
