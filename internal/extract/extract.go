// Package extract unpacks SDK archives into a staging directory and merges the
// staged tree into the shared per-platform installation directory.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/hashicorp/go-multierror"
	"github.com/mholt/archives"

	"github.com/ndnm/ndnm/internal/messages"
)

// ErrExtractionFailure is returned for unsupported, corrupt, or unsafe archives and
// for failures while placing files.
var ErrExtractionFailure = errors.New(messages.ExtractFailure)

const gzipMIME = "application/gzip"

var (
	osRename    = os.Rename
	osRemoveAll = os.RemoveAll
	osSymlink   = os.Symlink
)

// MergeReport counts what the merge did with each staged file.
type MergeReport struct {
	Created     int
	Overwritten int
	Kept        int
}

// Moved is the number of files placed into the target tree.
func (r MergeReport) Moved() int {
	return r.Created + r.Overwritten
}

// Installer extracts archives under StagingDir and merges them into
// InstallRoot/<platform>.
type Installer struct {
	StagingDir  string
	InstallRoot string
}

// NewInstaller returns an Installer for the given staging and install roots.
func NewInstaller(stagingDir, installRoot string) *Installer {
	return &Installer{StagingDir: stagingDir, InstallRoot: installRoot}
}

// SupportedURL reports whether url names an archive the installer can unpack.
func SupportedURL(url string) error {
	name := strings.ToLower(url)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return nil
	}
	return fmt.Errorf("%w: "+messages.ExtractUnsupportedURLFmt, ErrExtractionFailure, url)
}

// ExtractAndMerge unpacks archivePath into the staging directory and moves the staged
// files into the platform directory. When isNewer is set every staged file replaces
// its counterpart; otherwise only files missing from the target are added. The staging
// directory is removed on every exit path.
func (in *Installer) ExtractAndMerge(ctx context.Context, archivePath, platform string, isNewer bool) (report MergeReport, err error) {
	if err := in.resetStaging(); err != nil {
		return report, err
	}
	defer func() {
		if rmErr := osRemoveAll(in.StagingDir); rmErr != nil {
			err = multierror.Append(err, fmt.Errorf(messages.ExtractCleanupFmt, in.StagingDir, rmErr)).ErrorOrNil()
		}
	}()

	if err := in.unpack(ctx, archivePath); err != nil {
		return report, err
	}
	return in.merge(filepath.Join(in.InstallRoot, platform), isNewer)
}

func (in *Installer) resetStaging() error {
	if err := osRemoveAll(in.StagingDir); err != nil {
		return fmt.Errorf(messages.ExtractResetStagingFmt, in.StagingDir, err)
	}
	if err := os.MkdirAll(in.StagingDir, 0o755); err != nil {
		return fmt.Errorf(messages.ExtractResetStagingFmt, in.StagingDir, err)
	}
	return nil
}

func (in *Installer) unpack(ctx context.Context, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return failure(messages.ExtractOpenArchiveFmt, archivePath, err)
	}
	defer func() { _ = f.Close() }()

	kind, err := filetype.MatchReader(f)
	if err != nil {
		return failure(messages.ExtractSniffFmt, archivePath, err)
	}
	if kind.MIME.Value != gzipMIME {
		return failure(messages.ExtractUnsupportedFormatFmt, kind.Extension)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return failure(messages.ExtractReadFmt, archivePath, err)
	}

	decoder, err := archives.Gz{}.OpenReader(f)
	if err != nil {
		return failure(messages.ExtractDecompressFmt, archivePath, err)
	}
	defer func() { _ = decoder.Close() }()

	if err := (archives.Tar{}).Extract(ctx, decoder, in.handleEntry); err != nil {
		if errors.Is(err, ErrExtractionFailure) || errors.Is(err, context.Canceled) {
			return err
		}
		return failure(messages.ExtractReadFmt, archivePath, err)
	}
	return nil
}

func (in *Installer) handleEntry(ctx context.Context, info archives.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, skip, err := stagedPath(in.StagingDir, info.NameInArchive)
	if err != nil || skip {
		return err
	}

	mode := info.Mode()
	switch {
	case info.IsDir():
		if err := os.MkdirAll(target, dirPerm(mode)); err != nil {
			return failure(messages.ExtractCreateDirFmt, target, err)
		}
		return nil
	case mode&fs.ModeSymlink != 0:
		return in.writeSymlink(target, info.LinkTarget)
	case info.LinkTarget != "":
		return in.writeHardLink(target, info.LinkTarget)
	case !mode.IsRegular():
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return failure(messages.ExtractCreateDirFmt, filepath.Dir(target), err)
	}
	src, err := info.Open()
	if err != nil {
		return failure(messages.ExtractReadFmt, info.NameInArchive, err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm(mode))
	if err != nil {
		return failure(messages.ExtractWriteFileFmt, target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return failure(messages.ExtractWriteFileFmt, target, err)
	}
	if err := out.Close(); err != nil {
		return failure(messages.ExtractWriteFileFmt, target, err)
	}
	return nil
}

// writeSymlink creates a link whose relative target stays inside the staging tree, so
// it keeps resolving once the tree is merged into the platform directory.
func (in *Installer) writeSymlink(target, linkTarget string) error {
	if filepath.IsAbs(linkTarget) {
		return failure(messages.ExtractIllegalPathFmt, linkTarget)
	}
	resolved := filepath.Join(filepath.Dir(target), linkTarget)
	if !within(in.StagingDir, resolved) {
		return failure(messages.ExtractIllegalPathFmt, linkTarget)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return failure(messages.ExtractCreateDirFmt, filepath.Dir(target), err)
	}
	_ = os.Remove(target)
	if err := osSymlink(linkTarget, target); err != nil {
		return failure(messages.ExtractSymlinkFmt, target, err)
	}
	return nil
}

func (in *Installer) writeHardLink(target, linkName string) error {
	source, _, err := stagedPath(in.StagingDir, linkName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return failure(messages.ExtractCreateDirFmt, filepath.Dir(target), err)
	}
	_ = os.Remove(target)
	if err := os.Link(source, target); err != nil {
		return failure(messages.ExtractWriteFileFmt, target, err)
	}
	return nil
}

// stagedPath maps an archive entry name to a path under root. Entries that would land
// outside root are rejected; the archive root itself is skipped.
func stagedPath(root, name string) (string, bool, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if clean == "." || clean == "" {
		return "", true, nil
	}
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", false, failure(messages.ExtractIllegalPathFmt, name)
	}
	target := filepath.Join(root, clean)
	if !within(root, target) {
		return "", false, failure(messages.ExtractIllegalPathFmt, name)
	}
	return target, false, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func failure(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrExtractionFailure, fmt.Errorf(format, args...))
}

func filePerm(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm | 0o200
	}
	return 0o644
}

func dirPerm(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm | 0o700
	}
	return 0o755
}
