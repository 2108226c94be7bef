package messages

// Messages for the catalog, resolver, transfer, archive and ledger internals.
const (
	// TransportCreateRequestFmt formats request construction failures.
	TransportCreateRequestFmt        = "create request %s: %w"
	TransportRequestFailedFmt        = "request %s: %w"
	TransportUnexpectedStatusFmt     = "request %s: unexpected status %s"
	TransportDecodeFmt               = "decode %s: %w"
	TransportRequestTimeoutFmt       = "request %s: timed out"
	TransportInvalidContentLengthFmt = "request %s: invalid content length %q"

	// CatalogUnavailable is the error kind for index or channel retrieval failures.
	CatalogUnavailable          = "release catalog unavailable"
	CatalogFetchIndexFmt        = "fetch release index %s: %w"
	CatalogFetchChannelFmt      = "fetch channel %s (%s): %w"
	CatalogMissingChannelURLFmt = "channel %s has no releases.json URL"
	CatalogInvalidVersionFmt    = "channel %s: invalid SDK version %q: %w"

	// VersionInvalidExpression is the error kind for malformed version expressions.
	VersionInvalidExpression     = "invalid version expression"
	VersionExpressionRequired    = "a version is required"
	VersionExpressionShapeFmt    = "%q is not an exact version, a major version, <major>.<minor>.x, <major>.<minor>.<band>xx, latest, or lts"
	VersionRuntimeNotSDKFmt      = "%s looks like a runtime version; only SDK versions (patch 100 or higher) can be installed"
	VersionNumberOutOfRangeFmt   = "%q contains a number that is out of range"
	VersionNoMatchingBuild       = "no matching SDK build"
	VersionNoMatchFmt            = "could not find an SDK matching %q"
	VersionNoActiveChannelFmt    = "could not find an active channel for %q"
	VersionLatestSDKMissingFmt   = "channel %s declares latest SDK %s but the build is not in the catalog"
	VersionNoPlatformFileFmt     = "SDK %s has no file for platform %s"
	VersionProjectConfigReadFmt  = "read %s: %w"
	VersionProjectConfigParseFmt = "parse %s: %w"
	VersionProjectConfigNoSDKFmt = "%s does not declare sdk.version"

	// RootStartPathRequired indicates start path is required for project config lookup.
	RootStartPathRequired        = "start path is required"
	RootResolvePathFmt           = "resolve path %s: %w"
	RootCheckPathFmt             = "check %s: %w"
	RootPathNotFileFmt           = "%s exists but is not a file"
	RootProjectConfigNotFound    = "no global.json found"
	RootProjectConfigNotFoundFmt = "searched from %s to the filesystem root"

	// DownloadSizeUnknown is the error kind for a missing or zero content length.
	DownloadSizeUnknown          = "download size unknown"
	DownloadSizeUnknownFmt       = "server did not report a size for %s"
	DownloadDestinationConflict  = "download destination already exists"
	DownloadDestinationExistsFmt = "%s already exists"
	DownloadIntegrityMismatch    = "integrity check failed"
	DownloadMismatchFmt          = "sha512 mismatch for %s (expected %s, got %s)"
	DownloadCreateDirFmt         = "create download dir: %w"
	DownloadCreateFileFmt        = "create %s: %w"
	DownloadWriteFmt             = "download %s: %w"
	DownloadSyncFmt              = "sync %s: %w"
	DownloadCloseFmt             = "close %s: %w"
	DownloadEmptyDigestFmt       = "no digest declared for %s"

	// ExtractFailure is the error kind for unsupported or corrupt archives.
	ExtractFailure              = "archive extraction failed"
	ExtractUnsupportedFormatFmt = "unsupported archive format %q"
	ExtractUnsupportedURLFmt    = "unsupported archive %s: only .tar.gz files are supported"
	ExtractOpenArchiveFmt       = "open archive %s: %w"
	ExtractSniffFmt             = "detect archive type of %s: %w"
	ExtractDecompressFmt        = "decompress %s: %w"
	ExtractReadFmt              = "read %s: %w"
	ExtractIllegalPathFmt       = "illegal path %q in archive"
	ExtractResetStagingFmt      = "reset staging dir %s: %w"
	ExtractCreateDirFmt         = "create directory %s: %w"
	ExtractWriteFileFmt         = "write %s: %w"
	ExtractSymlinkFmt           = "symlink %s: %w"
	ExtractWalkFmt              = "scan staged files: %w"
	ExtractMoveFmt              = "move %s into place: %w"
	ExtractRemoveFmt            = "remove %s: %w"
	ExtractCleanupFmt           = "clean up %s: %w"

	// LedgerOpenLockFmt formats lock file open failures.
	LedgerOpenLockFmt       = "open lock for ledger %s: %w"
	LedgerLockFmt           = "lock ledger %s to %s: %w"
	LedgerLockBusy          = "ledger is locked by another process"
	LedgerLockTimeoutFmt    = "gave up after %s waiting to %s in ledger %s"
	LedgerReleaseLockFmt    = "release lock on ledger %s: %w"
	LedgerOpCreateFmt       = "create the %s entry"
	LedgerOpRead            = "read installed versions"
	LedgerOpRecordFmt       = "record %s for %s"
	LedgerReadFmt           = "read ledger %s: %w"
	LedgerParseFmt          = "parse ledger %s: %w"
	LedgerSchemaFmt         = "ledger %s does not match its schema: %w"
	LedgerWriteFmt          = "write ledger %s: %w"
	LedgerCreateDirFmt      = "create ledger dir: %w"
	LedgerInvalidVersionFmt = "invalid version %q: %w"
	LedgerPlatformRequired  = "platform identifier is required"

	// InstallAlreadyInstalled is the error kind for a version already in the ledger.
	InstallAlreadyInstalled    = "already installed"
	InstallAlreadyInstalledFmt = ".NET SDK %s is already installed for %s"
	InstallInvalidConfigFmt    = "invalid install config: %w"
	InstallTransportRequired   = "install transport is required"
	InstallCleanupFmt          = "clean up %s: %w"
	InstallRenderLedgerFmt     = "render ledger: %w"
)
