package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ndnm/ndnm/internal/messages"
)

// DefaultIndexURL is the official .NET release metadata index.
const DefaultIndexURL = "https://builds.dotnet.microsoft.com/dotnet/release-metadata/releases-index.json"

const (
	// DefaultHTTPTimeout bounds each catalog or artifact request.
	DefaultHTTPTimeout = 60 * time.Second
	// DefaultRetries is the number of retries after a transient transport failure.
	DefaultRetries = 1

	ledgerFileName = "ndnm.json"
	tempDirName    = "temp"
	archiveName    = "dotnet"
)

// ErrUnsupportedPlatform reports an OS or architecture without SDK builds.
var ErrUnsupportedPlatform = errors.New(messages.ConfigUnsupportedPlatform)

// Config is the resolved runtime configuration. It is passed explicitly to every
// component instead of being read from process state.
type Config struct {
	InstallRoot string
	Platform    string
	IndexURL    string
	HTTPTimeout time.Duration
	Retries     int
}

// LedgerPath returns the path of the install ledger document.
func (c Config) LedgerPath() string {
	return filepath.Join(c.InstallRoot, ledgerFileName)
}

// TempDir returns the staging directory used while extracting an archive.
func (c Config) TempDir() string {
	return filepath.Join(c.InstallRoot, tempDirName)
}

// ArchivePath returns where a downloaded archive with the given extension is written.
func (c Config) ArchivePath(ext string) string {
	return filepath.Join(c.InstallRoot, archiveName+ext)
}

// PlatformDir returns the shared installation tree for platform.
func (c Config) PlatformDir(platform string) string {
	return filepath.Join(c.InstallRoot, platform)
}

// Validate checks that every field needed by the install pipeline is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InstallRoot) == "" {
		return errors.New(messages.ConfigInstallRootRequired)
	}
	if strings.TrimSpace(c.IndexURL) == "" {
		return errors.New(messages.ConfigIndexURLRequired)
	}
	if err := ValidatePlatform(c.Platform); err != nil {
		return err
	}
	if c.Retries < 0 {
		return fmt.Errorf(messages.ConfigInvalidRetriesFmt, c.Retries)
	}
	return nil
}
