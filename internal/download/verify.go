// Package download streams release artifacts to disk and verifies their SHA-512 digest.
package download

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ndnm/ndnm/internal/catalog"
	"github.com/ndnm/ndnm/internal/messages"
)

var (
	// ErrSizeUnknown is returned when the server reports no size for an artifact.
	ErrSizeUnknown = errors.New(messages.DownloadSizeUnknown)
	// ErrDestinationConflict is returned when the download path is already occupied.
	ErrDestinationConflict = errors.New(messages.DownloadDestinationConflict)
	// ErrIntegrityMismatch is returned when the computed digest differs from the published one.
	ErrIntegrityMismatch = errors.New(messages.DownloadIntegrityMismatch)
)

var (
	osMkdirAll = os.MkdirAll
	osOpenFile = os.OpenFile
	osRemove   = os.Remove
)

// Fetcher is the transport surface the verifier needs.
type Fetcher interface {
	ContentLength(ctx context.Context, url string) (int64, error)
	GetStream(ctx context.Context, url string) (io.ReadCloser, error)
}

// Reporter receives transfer progress. Start is called once with the expected size,
// Add after every chunk, and Finish when the stream ends.
type Reporter interface {
	Start(total int64)
	Add(n int64)
	Finish()
}

// Result describes a completed download.
type Result struct {
	Path     string
	Size     int64
	Written  int64
	Expected string
	Actual   string
}

// MismatchError carries both digests of a failed integrity check.
type MismatchError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf(messages.DownloadMismatchFmt, e.Name, e.Expected, e.Actual)
}

// Unwrap makes errors.Is(err, ErrIntegrityMismatch) hold.
func (e *MismatchError) Unwrap() error {
	return ErrIntegrityMismatch
}

// Verifier downloads artifacts and checks them against their published digest.
type Verifier struct {
	fetcher  Fetcher
	reporter Reporter
}

// NewVerifier returns a Verifier backed by fetcher. reporter may be nil.
func NewVerifier(fetcher Fetcher, reporter Reporter) *Verifier {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Verifier{fetcher: fetcher, reporter: reporter}
}

// FetchAndVerify streams file.URL into dest, hashing it in the same pass. dest must not
// exist. The file stays on disk after a mismatch; removing it is the caller's job.
func (v *Verifier) FetchAndVerify(ctx context.Context, file catalog.PlatformFile, dest string) (Result, error) {
	result := Result{Path: dest, Expected: file.Digest}
	if strings.TrimSpace(file.Digest) == "" {
		return result, fmt.Errorf("%w: "+messages.DownloadEmptyDigestFmt, ErrIntegrityMismatch, file.URL)
	}

	size, err := v.fetcher.ContentLength(ctx, file.URL)
	if err != nil {
		return result, err
	}
	if size <= 0 {
		return result, fmt.Errorf("%w: "+messages.DownloadSizeUnknownFmt, ErrSizeUnknown, file.URL)
	}
	result.Size = size

	if err := osMkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return result, fmt.Errorf(messages.DownloadCreateDirFmt, err)
	}
	out, err := osOpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return result, fmt.Errorf("%w: "+messages.DownloadDestinationExistsFmt, ErrDestinationConflict, dest)
		}
		return result, fmt.Errorf(messages.DownloadCreateFileFmt, dest, err)
	}

	written, digest, err := v.copyAndHash(ctx, file.URL, out, size)
	result.Written = written
	if err != nil {
		_ = out.Close()
		return result, err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return result, fmt.Errorf(messages.DownloadSyncFmt, dest, err)
	}
	if err := out.Close(); err != nil {
		return result, fmt.Errorf(messages.DownloadCloseFmt, dest, err)
	}

	result.Actual = digest
	if !strings.EqualFold(strings.TrimSpace(file.Digest), digest) {
		return result, &MismatchError{Name: fileName(file), Expected: file.Digest, Actual: digest}
	}
	return result, nil
}

func (v *Verifier) copyAndHash(ctx context.Context, url string, out io.Writer, size int64) (int64, string, error) {
	body, err := v.fetcher.GetStream(ctx, url)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = body.Close() }()

	hasher := sha512.New()
	v.reporter.Start(size)
	defer v.reporter.Finish()

	src := &countingReader{ctx: ctx, r: body, report: v.reporter.Add}
	n, err := io.Copy(io.MultiWriter(out, hasher), src)
	if err != nil {
		return n, "", fmt.Errorf(messages.DownloadWriteFmt, url, err)
	}
	return n, hex.EncodeToString(hasher.Sum(nil)), nil
}

func fileName(file catalog.PlatformFile) string {
	if file.Name != "" {
		return file.Name
	}
	return file.URL
}

// Discard removes a downloaded file, ignoring a missing one.
func Discard(path string) error {
	if err := osRemove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type countingReader struct {
	ctx    context.Context
	r      io.Reader
	report func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if n > 0 {
		c.report(int64(n))
	}
	return n, err
}

type nopReporter struct{}

func (nopReporter) Start(int64) {}
func (nopReporter) Add(int64)   {}
func (nopReporter) Finish()     {}
