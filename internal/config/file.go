package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/ndnm/ndnm/internal/messages"
)

// EnvPrefix namespaces environment overrides (NDNM_INSTALL_ROOT and friends).
const EnvPrefix = "ndnm"

const (
	keyInstallRoot = "install_root"
	keyPlatform    = "platform"
	keyIndexURL    = "index_url"
	keyHTTPTimeout = "http_timeout"
	keyRetries     = "retries"
)

// File is the on-disk config.toml layout. Every field is optional.
type File struct {
	InstallRoot string `toml:"install_root"`
	Platform    string `toml:"platform"`
	IndexURL    string `toml:"index_url"`
	HTTPTimeout string `toml:"http_timeout"`
	Retries     *int   `toml:"retries"`
}

// LoadOptions controls where Load reads configuration from.
type LoadOptions struct {
	// Path is an explicit config file. When empty, the default user config file is
	// used if it exists.
	Path string
	// Env supplies environment lookups; nil uses the process environment.
	Env func(key string) (string, bool)
}

var userConfigDir = os.UserConfigDir

// DefaultPath returns the default config.toml location.
func DefaultPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolveUserConfigFmt, err)
	}
	return filepath.Join(dir, "ndnm", "config.toml"), nil
}

// DefaultInstallRoot returns ~/.local/share/ndnm.
func DefaultInstallRoot() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolveHomeFmt, err)
	}
	return filepath.Join(home, ".local", "share", "ndnm"), nil
}

// Load merges defaults, the config file and NDNM_* environment overrides, in that
// order of increasing precedence.
func Load(opts LoadOptions) (Config, error) {
	file, err := readFile(opts.Path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if opts.Env != nil {
		bindEnv(v, opts.Env)
	}

	root, err := DefaultInstallRoot()
	if err != nil {
		return Config{}, err
	}
	v.SetDefault(keyInstallRoot, root)
	v.SetDefault(keyIndexURL, DefaultIndexURL)
	v.SetDefault(keyHTTPTimeout, DefaultHTTPTimeout.String())
	v.SetDefault(keyRetries, DefaultRetries)
	if file.InstallRoot != "" {
		v.SetDefault(keyInstallRoot, file.InstallRoot)
	}
	if file.Platform != "" {
		v.SetDefault(keyPlatform, file.Platform)
	}
	if file.IndexURL != "" {
		v.SetDefault(keyIndexURL, file.IndexURL)
	}
	if file.HTTPTimeout != "" {
		v.SetDefault(keyHTTPTimeout, file.HTTPTimeout)
	}
	if file.Retries != nil {
		v.SetDefault(keyRetries, *file.Retries)
	}

	cfg := Config{
		IndexURL: strings.TrimSpace(v.GetString(keyIndexURL)),
		Platform: strings.TrimSpace(v.GetString(keyPlatform)),
		Retries:  v.GetInt(keyRetries),
	}
	cfg.InstallRoot, err = ExpandPath(v.GetString(keyInstallRoot))
	if err != nil {
		return Config{}, err
	}
	rawTimeout := strings.TrimSpace(v.GetString(keyHTTPTimeout))
	cfg.HTTPTimeout, err = time.ParseDuration(rawTimeout)
	if err != nil {
		return Config{}, fmt.Errorf(messages.ConfigInvalidTimeoutFmt, rawTimeout, err)
	}
	if cfg.Platform == "" {
		cfg.Platform, err = DetectPlatform()
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// ExpandPath expands a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, path, err)
	}
	if expanded == "" {
		return "", nil
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, path, err)
	}
	return abs, nil
}

// ParseFile decodes config.toml data, rejecting unknown keys.
// source is used in error messages.
func ParseFile(data []byte, source string) (File, error) {
	var file File
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return File{}, fmt.Errorf(messages.ConfigInvalidFmt, source, err)
	}
	return file, nil
}

func readFile(path string) (File, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			// No user config dir (for example HOME unset): run on defaults.
			return File{}, nil //nolint:nilerr
		}
		path = defaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf(messages.ConfigReadFileFmt, path, err)
	}
	return ParseFile(data, path)
}

// bindEnv feeds injected environment values into v so tests need not touch the
// process environment.
func bindEnv(v *viper.Viper, lookup func(string) (string, bool)) {
	for _, key := range []string{keyInstallRoot, keyPlatform, keyIndexURL, keyHTTPTimeout, keyRetries} {
		name := strings.ToUpper(EnvPrefix + "_" + key)
		if value, ok := lookup(name); ok {
			v.Set(key, value)
		}
	}
}
