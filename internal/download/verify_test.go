package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndnm/ndnm/internal/catalog"
	"github.com/ndnm/ndnm/internal/testutil"
	"github.com/ndnm/ndnm/internal/transport"
)

var payload = bytes.Repeat([]byte("dotnet-sdk-payload "), 4096)

func newServer(t *testing.T) *testutil.ReleaseServer {
	t.Helper()
	return testutil.NewReleaseServer(t, testutil.ChannelFixture{
		Version:      "9.0",
		LatestSDK:    "9.0.100",
		SupportPhase: "active",
		ReleaseType:  "sts",
		Releases: []testutil.ReleaseFixture{{
			Version:        "9.0.0",
			RuntimeVersion: "9.0.0",
			SDK: testutil.SDKFixture{
				Version:        "9.0.100",
				RuntimeVersion: "9.0.0",
				Files: []testutil.FileFixture{
					{RID: "linux-x64", Name: "dotnet-sdk-linux-x64.tar.gz", Data: payload},
				},
			},
		}},
	})
}

func newClient() *transport.Client {
	return transport.New(0, transport.WithRetries(0), transport.WithBackOff(func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	}))
}

func fileFor(server *testutil.ReleaseServer) catalog.PlatformFile {
	return catalog.PlatformFile{
		Platform: "linux-x64",
		Name:     "dotnet-sdk-linux-x64.tar.gz",
		URL:      server.FileURL("dotnet-sdk-linux-x64.tar.gz"),
		Digest:   testutil.SHA512Hex(payload),
	}
}

type recordingReporter struct {
	total    int64
	added    int64
	finished int
}

func (r *recordingReporter) Start(total int64) { r.total = total }
func (r *recordingReporter) Add(n int64)       { r.added += n }
func (r *recordingReporter) Finish()           { r.finished++ }

func TestFetchAndVerifySuccess(t *testing.T) {
	server := newServer(t)
	reporter := &recordingReporter{}
	dest := filepath.Join(t.TempDir(), "dotnet.tar.gz")

	result, err := NewVerifier(newClient(), reporter).FetchAndVerify(context.Background(), fileFor(server), dest)
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), result.Size)
	assert.Equal(t, int64(len(payload)), result.Written)
	assert.Equal(t, testutil.SHA512Hex(payload), result.Actual)
	assert.Equal(t, int64(len(payload)), reporter.total)
	assert.Equal(t, int64(len(payload)), reporter.added)
	assert.Equal(t, 1, reporter.finished)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, 2, server.HitsFor("/files/dotnet-sdk-linux-x64.tar.gz"), "expected one HEAD and one GET")
}

func TestFetchAndVerifyDigestIsCaseInsensitive(t *testing.T) {
	server := newServer(t)
	file := fileFor(server)
	file.Digest = strings.ToUpper(file.Digest)
	dest := filepath.Join(t.TempDir(), "dotnet.tar.gz")

	_, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), file, dest)
	require.NoError(t, err)
}

func TestFetchAndVerifyMismatch(t *testing.T) {
	server := newServer(t)
	server.Corrupt = true
	dest := filepath.Join(t.TempDir(), "dotnet.tar.gz")

	result, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), fileFor(server), dest)
	if !errors.Is(err, ErrIntegrityMismatch) {
		t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
	}
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, testutil.SHA512Hex(payload), mismatch.Expected)
	assert.NotEqual(t, mismatch.Expected, mismatch.Actual)
	assert.Equal(t, mismatch.Actual, result.Actual)
	assert.Contains(t, err.Error(), "dotnet-sdk-linux-x64.tar.gz")
}

func TestFetchAndVerifySizeUnknown(t *testing.T) {
	server := newServer(t)
	server.OmitLength = true
	dest := filepath.Join(t.TempDir(), "dotnet.tar.gz")

	_, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), fileFor(server), dest)
	require.ErrorIs(t, err, ErrSizeUnknown)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no file should be created")
	assert.Equal(t, 1, server.HitsFor("/files/dotnet-sdk-linux-x64.tar.gz"), "no GET after a failed HEAD")
}

func TestFetchAndVerifyDestinationConflict(t *testing.T) {
	server := newServer(t)
	dest := filepath.Join(t.TempDir(), "dotnet.tar.gz")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	_, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), fileFor(server), dest)
	require.ErrorIs(t, err, ErrDestinationConflict)
	assert.Equal(t, "stale", testutil.ReadFile(t, dest))
}

func TestFetchAndVerifyEmptyDigest(t *testing.T) {
	server := newServer(t)
	file := fileFor(server)
	file.Digest = ""

	_, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), file, filepath.Join(t.TempDir(), "x"))
	require.ErrorIs(t, err, ErrIntegrityMismatch)
	assert.Equal(t, 0, server.Hits())
}

func TestFetchAndVerifyCreateFileError(t *testing.T) {
	server := newServer(t)
	orig := osOpenFile
	osOpenFile = func(string, int, os.FileMode) (*os.File, error) {
		return nil, os.ErrPermission
	}
	t.Cleanup(func() { osOpenFile = orig })

	_, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), fileFor(server), filepath.Join(t.TempDir(), "x"))
	require.ErrorIs(t, err, os.ErrPermission)
}

func TestFetchAndVerifyCreateDirError(t *testing.T) {
	server := newServer(t)
	orig := osMkdirAll
	osMkdirAll = func(string, os.FileMode) error { return os.ErrPermission }
	t.Cleanup(func() { osMkdirAll = orig })

	_, err := NewVerifier(newClient(), nil).FetchAndVerify(context.Background(), fileFor(server), filepath.Join(t.TempDir(), "x"))
	require.ErrorIs(t, err, os.ErrPermission)
}

type stubFetcher struct {
	size   int64
	body   io.Reader
	getErr error
}

func (s stubFetcher) ContentLength(context.Context, string) (int64, error) { return s.size, nil }

func (s stubFetcher) GetStream(context.Context, string) (io.ReadCloser, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return io.NopCloser(s.body), nil
}

func TestFetchAndVerifyStreamError(t *testing.T) {
	boom := errors.New("connection reset")
	fetcher := stubFetcher{size: 10, getErr: boom}
	file := catalog.PlatformFile{URL: "https://example.test/a.tar.gz", Digest: "00"}

	_, err := NewVerifier(fetcher, nil).FetchAndVerify(context.Background(), file, filepath.Join(t.TempDir(), "a"))
	require.ErrorIs(t, err, boom)
}

func TestFetchAndVerifyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := stubFetcher{size: int64(len(payload)), body: bytes.NewReader(payload)}
	file := catalog.PlatformFile{URL: "https://example.test/a.tar.gz", Digest: testutil.SHA512Hex(payload)}

	_, err := NewVerifier(fetcher, nil).FetchAndVerify(ctx, file, filepath.Join(t.TempDir(), "a"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, Discard(path))
	require.NoError(t, Discard(path))
}
