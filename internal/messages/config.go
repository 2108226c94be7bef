package messages

// Config messages.
const (
	ConfigReadFileFmt          = "failed to read config %s: %w"
	ConfigInvalidFmt           = "invalid config %s: %w"
	ConfigResolveHomeFmt       = "resolve home dir: %w"
	ConfigExpandPathFmt        = "expand path %q: %w"
	ConfigResolveUserConfigFmt = "resolve user config dir: %w"
	ConfigInvalidTimeoutFmt    = "invalid http timeout %q: %w"
	ConfigInvalidRetriesFmt    = "invalid retry count %d: must not be negative"
	ConfigInstallRootRequired  = "install root is required"
	ConfigIndexURLRequired     = "release index URL is required"
	ConfigInvalidPlatformFmt   = "invalid platform identifier %q: expected <os>-<arch>"
	ConfigUnsupportedPlatform  = "unsupported platform"
	ConfigUnsupportedOSFmt     = "unsupported OS %q"
	ConfigUnsupportedArchFmt   = "unsupported architecture %q"
)
