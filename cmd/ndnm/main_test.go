package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/ndnm/ndnm/internal/download"
	"github.com/ndnm/ndnm/internal/install"
)

func TestMainVersion(t *testing.T) {
	var out bytes.Buffer
	if err := execute([]string{"ndnm", "--version"}, &out, &out); err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestMainHelp(t *testing.T) {
	var out bytes.Buffer
	if err := execute([]string{"ndnm"}, &out, &out); err != nil {
		t.Fatalf("execute error: %v", err)
	}
	for _, want := range []string{"install", "resolve", "list"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected help to mention %q, got %q", want, out.String())
		}
	}
	if strings.Contains(out.String(), "--hash") {
		t.Fatalf("--hash should be hidden")
	}
}

func TestRunMainSuccess(t *testing.T) {
	var out bytes.Buffer
	called := false
	runMain([]string{"ndnm", "--version"}, &out, &out, func(int) {
		called = true
	})
	if called {
		t.Fatalf("unexpected exit")
	}
}

func TestRunMainUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	code := 0
	runMain([]string{"ndnm", "unknown"}, &out, &out, func(exitCode int) {
		code = exitCode
	})
	if code != exitFailure {
		t.Fatalf("expected exit code %d, got %d", exitFailure, code)
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("expected error output, got %q", out.String())
	}
}

func TestRunMainMapsIntegrityMismatch(t *testing.T) {
	orig := executeFunc
	t.Cleanup(func() { executeFunc = orig })
	executeFunc = func([]string, io.Writer, io.Writer) error {
		return &download.MismatchError{Name: "dotnet.tar.gz", Expected: "aa", Actual: "bb"}
	}

	var out bytes.Buffer
	code := 0
	runMain([]string{"ndnm", "install"}, &out, &out, func(c int) { code = c })
	if code != exitIntegrityMismatch {
		t.Fatalf("expected exit %d, got %d", exitIntegrityMismatch, code)
	}
	if !strings.Contains(out.String(), "sha512 mismatch") {
		t.Fatalf("expected mismatch message, got %q", out.String())
	}
}

func TestExitCode(t *testing.T) {
	mismatch := &download.MismatchError{Expected: "aa", Actual: "bb"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "mismatch", err: mismatch, want: exitIntegrityMismatch},
		{name: "wrapped mismatch", err: fmt.Errorf("install: %w", mismatch), want: exitIntegrityMismatch},
		{name: "mismatch with cleanup error", err: multierror.Append(mismatch, errors.New("cleanup")), want: exitIntegrityMismatch},
		{name: "already installed", err: install.ErrAlreadyInstalled, want: exitFailure},
		{name: "other", err: errors.New("boom"), want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	Version, Commit, BuildDate = "v1.0.0", "unknown", "unknown"
	if got := versionString(); got != "v1.0.0" {
		t.Fatalf("unexpected version string %q", got)
	}
	Commit, BuildDate = "abc123", "2026-01-02"
	if got := versionString(); got != "v1.0.0 (commit abc123, built 2026-01-02)" {
		t.Fatalf("unexpected version string %q", got)
	}
}

func TestMainCallsExecute(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	os.Args = []string{"ndnm", "--version"}
	main()
}
