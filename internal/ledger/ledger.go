// Package ledger records which SDK versions are installed per platform and which one
// is primary. The ledger is a JSON file guarded by an exclusive file lock.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ndnm/ndnm/internal/messages"
)

var (
	osRename     = os.Rename
	osCreateTemp = os.CreateTemp
	osReadFile   = os.ReadFile
)

// Document is the on-disk ledger.
type Document struct {
	// PrimaryVersion is the highest version installed so far, or nil before the first install.
	PrimaryVersion *string `json:"primaryVersion"`
	// PerPlatform maps platform -> SDK version -> runtime version.
	PerPlatform map[string]map[string]string `json:"perPlatform"`
}

// NewDocument returns an empty ledger with an entry for platform.
func NewDocument(platform string) Document {
	doc := Document{PerPlatform: map[string]map[string]string{}}
	if platform != "" {
		doc.PerPlatform[platform] = map[string]string{}
	}
	return doc
}

// Primary returns the primary version and whether one is set.
func (d Document) Primary() (string, bool) {
	if d.PrimaryVersion == nil || *d.PrimaryVersion == "" {
		return "", false
	}
	return *d.PrimaryVersion, true
}

// Has reports whether version is recorded for platform. Versions match by exact
// spelling or by semantic-version equality.
func (d Document) Has(platform, version string) bool {
	installed := d.PerPlatform[platform]
	if _, ok := installed[version]; ok {
		return true
	}
	want, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	for key := range installed {
		if v, err := semver.NewVersion(key); err == nil && v.Equal(want) {
			return true
		}
	}
	return false
}

// WithInstall returns a copy of d with version recorded for platform and, when
// makesPrimary is set, promoted to primary.
func (d Document) WithInstall(platform, version, runtime string, makesPrimary bool) Document {
	out := Document{PerPlatform: make(map[string]map[string]string, len(d.PerPlatform)+1)}
	for p, versions := range d.PerPlatform {
		copied := make(map[string]string, len(versions))
		for v, r := range versions {
			copied[v] = r
		}
		out.PerPlatform[p] = copied
	}
	if d.PrimaryVersion != nil {
		primary := *d.PrimaryVersion
		out.PrimaryVersion = &primary
	}
	if out.PerPlatform[platform] == nil {
		out.PerPlatform[platform] = map[string]string{}
	}
	out.PerPlatform[platform][version] = runtime
	if makesPrimary {
		primary := version
		out.PrimaryVersion = &primary
	}
	return out
}

// Platforms returns the recorded platforms in sorted order.
func (d Document) Platforms() []string {
	out := make([]string, 0, len(d.PerPlatform))
	for p := range d.PerPlatform {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Versions returns the versions recorded for platform, highest first.
func (d Document) Versions(platform string) []string {
	out := make([]string, 0, len(d.PerPlatform[platform]))
	for v := range d.PerPlatform[platform] {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, errI := semver.NewVersion(out[i])
		vj, errJ := semver.NewVersion(out[j])
		if errI != nil || errJ != nil {
			return out[i] > out[j]
		}
		return vi.GreaterThan(vj)
	})
	return out
}

// Render returns the indented JSON form of the ledger with a trailing newline.
func (d Document) Render() ([]byte, error) {
	if d.PerPlatform == nil {
		d.PerPlatform = map[string]map[string]string{}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// MakesPrimary reports whether candidate should become primary given the current
// primary. An empty current always yields true.
func MakesPrimary(current, candidate string) (bool, error) {
	next, err := semver.NewVersion(candidate)
	if err != nil {
		return false, fmt.Errorf(messages.LedgerInvalidVersionFmt, candidate, err)
	}
	if strings.TrimSpace(current) == "" {
		return true, nil
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf(messages.LedgerInvalidVersionFmt, current, err)
	}
	return next.GreaterThan(cur), nil
}

// Ledger is a handle on the ledger file at Path.
type Ledger struct {
	path string
}

// Open returns the ledger at path, creating it with an empty entry for platform
// when it does not exist yet.
func Open(path, platform string) (*Ledger, error) {
	if strings.TrimSpace(platform) == "" {
		return nil, errors.New(messages.LedgerPlatformRequired)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf(messages.LedgerCreateDirFmt, err)
	}
	l := &Ledger{path: path}
	err := l.locked(fmt.Sprintf(messages.LedgerOpCreateFmt, platform), func() error {
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(messages.LedgerReadFmt, path, err)
		}
		return l.write(NewDocument(platform))
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Snapshot reads the current ledger.
func (l *Ledger) Snapshot() (Document, error) {
	var doc Document
	err := l.locked(messages.LedgerOpRead, func() error {
		var err error
		doc, err = l.read()
		return err
	})
	return doc, err
}

// IsInstalled reports whether version is recorded for platform.
func (l *Ledger) IsInstalled(platform, version string) (bool, error) {
	doc, err := l.Snapshot()
	if err != nil {
		return false, err
	}
	return doc.Has(platform, version), nil
}

// Primary returns the primary version and whether one is set.
func (l *Ledger) Primary() (string, bool, error) {
	doc, err := l.Snapshot()
	if err != nil {
		return "", false, err
	}
	primary, ok := doc.Primary()
	return primary, ok, nil
}

// RecordInstall adds version to platform and, when makesPrimary is set, makes it
// primary. The read-modify-write runs under the ledger lock.
func (l *Ledger) RecordInstall(platform, version, runtime string, makesPrimary bool) (Document, error) {
	if strings.TrimSpace(platform) == "" {
		return Document{}, errors.New(messages.LedgerPlatformRequired)
	}
	var updated Document
	err := l.locked(fmt.Sprintf(messages.LedgerOpRecordFmt, version, platform), func() error {
		doc, err := l.read()
		if err != nil {
			return err
		}
		updated = doc.WithInstall(platform, version, runtime, makesPrimary)
		return l.write(updated)
	})
	return updated, err
}

func (l *Ledger) read() (Document, error) {
	data, err := osReadFile(l.path)
	if err != nil {
		return Document{}, fmt.Errorf(messages.LedgerReadFmt, l.path, err)
	}
	if err := validate(data); err != nil {
		return Document{}, fmt.Errorf(messages.LedgerSchemaFmt, l.path, err)
	}
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf(messages.LedgerParseFmt, l.path, err)
	}
	if doc.PerPlatform == nil {
		doc.PerPlatform = map[string]map[string]string{}
	}
	return doc, nil
}

// write replaces the ledger file atomically via a temp file in the same directory.
func (l *Ledger) write(doc Document) error {
	data, err := doc.Render()
	if err != nil {
		return fmt.Errorf(messages.LedgerWriteFmt, l.path, err)
	}
	tmp, err := osCreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf(messages.LedgerWriteFmt, l.path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.LedgerWriteFmt, l.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.LedgerWriteFmt, l.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf(messages.LedgerWriteFmt, l.path, err)
	}
	if err := osRename(tmpName, l.path); err != nil {
		return fmt.Errorf(messages.LedgerWriteFmt, l.path, err)
	}
	committed = true
	return nil
}
