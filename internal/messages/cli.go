package messages

// CLI messages for user-facing commands and status output.
const (
	// RootUse is the CLI command name.
	RootUse = "ndnm"
	// RootShort is the short description for the root command.
	RootShort           = ".NET SDK installer"
	RootLong            = "ndnm installs .NET SDK builds from the official release index into a shared per-platform tree."
	RootFlagDebug       = "Enable debug level logging"
	RootFlagConfig      = "Path to a config.toml file"
	RootFlagPlatform    = "Platform identifier to install for (for example linux-x64)"
	RootFlagInstallRoot = "Directory that holds installed SDKs and the install ledger"
	RootFlagIndexURL    = "Release index URL"
	RootGetwdFmt        = "resolve working directory: %w"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	// InstallUse is the install command usage.
	InstallUse           = "install [version]"
	InstallShort         = "Installs a .NET SDK version."
	InstallLong          = "Installs a .NET SDK version. The version may be exact (9.0.100), a major version (9), a minor wildcard (9.0.x), a feature band (9.0.1xx), latest, or lts. When omitted, the version is read from the nearest global.json."
	InstallExample       = "  ndnm install 10.0.100\n  ndnm install 9.0.1xx\n  ndnm install lts"
	InstallFlagHash      = "Show the expected and calculated hash of the downloaded file"
	InstallFlagDryRun    = "Resolve the version and show the ledger change without downloading"
	InstallFlagDiffLines = "Maximum number of ledger diff lines shown by --dry-run"

	// ResolveUse is the resolve command usage.
	ResolveUse   = "resolve [version]"
	ResolveShort = "Shows which SDK build a version expression selects."

	// ListUse is the list command usage.
	ListUse   = "list"
	ListShort = "Lists installed SDK versions."

	StatusFetchingCatalog     = "Fetching release information..."
	StatusDone                = " Done."
	StatusDownloadCompleted   = "Download completed successfully!"
	StatusHashVerified        = "Hash verified successfully!"
	StatusHashMismatch        = "Hash mismatch!"
	StatusExtractionCompleted = "Extraction completed successfully!"
	StatusInstalledFmt        = "Installed .NET SDK %s (runtime %s) for %s\n"
	StatusPrimaryFmt          = "%s is now the primary SDK version\n"
	StatusMergeSummaryFmt     = "Merged %d files (%d overwritten, %d kept)\n"

	HashOriginalFmt   = "Original hash:   %s\n"
	HashCalculatedFmt = "Calculated hash: %s\n"

	ResolveVersionFmt  = "SDK version:     %s\n"
	ResolveDisplayFmt  = "Display version: %s\n"
	ResolveRuntimeFmt  = "Runtime version: %s\n"
	ResolvePlatformFmt = "Platform:        %s\n"
	ResolveURLFmt      = "URL:             %s\n"
	ResolveHashFmt     = "SHA-512:         %s\n"
	ResolveChannelFmt  = "Channel:         %s (%s, %s)\n"
	ResolveLatestFmt   = "Channel latest:  release %s, runtime %s, SDK %s\n"
	ResolveReleasesFmt = "Channel data:    %s\n"

	ListEmpty       = "No SDK versions are installed."
	ListPrimaryFmt  = "Primary: %s\n"
	ListPlatformFmt = "%s:\n"
	ListEntryFmt    = "  %s (runtime %s)%s\n"
	ListPrimaryMark = " *"

	DryRunHeader       = "Install plan (dry-run): nothing was downloaded or installed."
	DryRunTargetFmt    = "Would install .NET SDK %s (runtime %s) for %s from %s\n"
	DryRunTruncatedFmt = "... (truncated to %d lines; rerun with %s <n> to see more)"
	DryRunNoChange     = "The ledger would not change."

	ProgressDownloadLabel = "Downloading .NET SDK"
	ProgressSpeedFmt      = "%s %s %5.1f MB/s"
)
