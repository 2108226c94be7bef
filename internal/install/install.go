// Package install runs the SDK installation pipeline: resolve a version expression,
// download and verify the archive, merge it into the platform tree, and record it.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/ndnm/ndnm/internal/catalog"
	"github.com/ndnm/ndnm/internal/config"
	"github.com/ndnm/ndnm/internal/download"
	"github.com/ndnm/ndnm/internal/extract"
	"github.com/ndnm/ndnm/internal/ledger"
	"github.com/ndnm/ndnm/internal/messages"
	"github.com/ndnm/ndnm/internal/version"
)

// ErrAlreadyInstalled is returned when the ledger already records the requested version.
var ErrAlreadyInstalled = errors.New(messages.InstallAlreadyInstalled)

// Transport is the network surface the pipeline needs.
type Transport interface {
	catalog.JSONGetter
	download.Fetcher
}

// Options controls a pipeline run.
type Options struct {
	Config config.Config
	// Version is the version expression. When empty it is read from the nearest
	// global.json at or above WorkDir.
	Version   string
	WorkDir   string
	Transport Transport
	// Reporter receives download progress; nil disables it.
	Reporter download.Reporter
	// Out receives status lines; nil discards them.
	Out          io.Writer
	ShowHash     bool
	DryRun       bool
	DiffMaxLines int
	System       System
}

// Result describes what a run resolved and did.
type Result struct {
	Expression version.Expression
	// ProjectFile is the global.json the expression came from, if any.
	ProjectFile string
	Build       catalog.Build
	// Channel is the release line Build belongs to, without its builds.
	Channel     catalog.Channel
	File        catalog.PlatformFile
	Download    download.Result
	Merge       extract.MergeReport
	Primary     bool
	Ledger      ledger.Document
	Preview     *DiffPreview
}

type pipeline struct {
	opts   Options
	cfg    config.Config
	sys    System
	out    io.Writer
	ledger *ledger.Ledger
}

// Run installs the SDK build selected by opts.Version for opts.Config.Platform.
func Run(ctx context.Context, opts Options) (Result, error) {
	p, err := newPipeline(opts)
	if err != nil {
		return Result{}, err
	}
	return p.run(ctx)
}

// Resolve runs the resolution stages of the pipeline without touching the ledger or
// downloading anything.
func Resolve(ctx context.Context, opts Options) (Result, error) {
	p, err := newPipeline(opts)
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := p.parse(&result); err != nil {
		return result, err
	}
	if err := p.resolve(ctx, &result); err != nil {
		return result, err
	}
	return result, nil
}

func newPipeline(opts Options) (*pipeline, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf(messages.InstallInvalidConfigFmt, err)
	}
	if opts.Transport == nil {
		return nil, errors.New(messages.InstallTransportRequired)
	}
	p := &pipeline{opts: opts, cfg: opts.Config, sys: opts.System, out: opts.Out}
	if p.sys == nil {
		p.sys = RealSystem{}
	}
	if p.out == nil {
		p.out = io.Discard
	}
	return p, nil
}

func (p *pipeline) run(ctx context.Context) (result Result, err error) {
	if err := p.parse(&result); err != nil {
		return result, err
	}

	p.ledger, err = ledger.Open(p.cfg.LedgerPath(), p.cfg.Platform)
	if err != nil {
		return result, err
	}
	if result.Expression.Kind == version.KindExact {
		if err := p.checkInstalled(result.Expression.Raw); err != nil {
			return result, err
		}
	}

	if err := p.resolve(ctx, &result); err != nil {
		return result, err
	}
	if err := p.checkInstalled(result.Build.VersionString()); err != nil {
		return result, err
	}

	current, err := p.ledger.Snapshot()
	if err != nil {
		return result, err
	}
	primary, _ := current.Primary()
	result.Primary, err = ledger.MakesPrimary(primary, result.Build.VersionString())
	if err != nil {
		return result, err
	}
	log.Debugf("install %s over primary %q: primary=%v", result.Build.VersionString(), primary, result.Primary)

	if p.opts.DryRun {
		return p.preview(result, current)
	}

	archivePath := p.cfg.ArchivePath(".tar.gz")
	if err := p.cleanup(archivePath); err != nil {
		return result, err
	}
	defer func() {
		if cleanupErr := p.cleanup(archivePath); cleanupErr != nil {
			if err == nil {
				err = cleanupErr
				return
			}
			err = multierror.Append(err, cleanupErr)
		}
	}()

	result.Download, err = download.NewVerifier(p.opts.Transport, p.opts.Reporter).FetchAndVerify(ctx, result.File, archivePath)
	if err != nil {
		var mismatch *download.MismatchError
		if errors.As(err, &mismatch) {
			p.printHashes(mismatch.Expected, mismatch.Actual)
			_, _ = color.New(color.FgRed).Fprintln(p.out, messages.StatusHashMismatch)
		}
		return result, err
	}
	_, _ = color.New(color.FgGreen).Fprintln(p.out, messages.StatusDownloadCompleted)
	p.printHashes(result.File.Digest, result.Download.Actual)
	_, _ = color.New(color.FgGreen).Fprintln(p.out, messages.StatusHashVerified)

	installer := extract.NewInstaller(p.cfg.TempDir(), p.cfg.InstallRoot)
	result.Merge, err = installer.ExtractAndMerge(ctx, archivePath, p.cfg.Platform, result.Primary)
	if err != nil {
		return result, err
	}
	_, _ = color.New(color.FgGreen).Fprintln(p.out, messages.StatusExtractionCompleted)
	log.Debugf("merged into %s: %+v", p.cfg.PlatformDir(p.cfg.Platform), result.Merge)

	result.Ledger, err = p.ledger.RecordInstall(p.cfg.Platform, result.Build.VersionString(), result.Build.RuntimeVersion, result.Primary)
	if err != nil {
		return result, err
	}

	_, _ = fmt.Fprintf(p.out, messages.StatusMergeSummaryFmt, result.Merge.Moved(), result.Merge.Overwritten, result.Merge.Kept)
	_, _ = color.New(color.FgGreen).Fprintf(p.out, messages.StatusInstalledFmt, result.Build.VersionString(), result.Build.RuntimeVersion, p.cfg.Platform)
	if result.Primary {
		_, _ = fmt.Fprintf(p.out, messages.StatusPrimaryFmt, result.Build.VersionString())
	}
	return result, nil
}

// parse reads the version expression from opts or from the project's global.json.
func (p *pipeline) parse(result *Result) error {
	if strings.TrimSpace(p.opts.Version) != "" {
		expr, err := version.ParseExpression(p.opts.Version)
		if err != nil {
			return err
		}
		result.Expression = expr
		return nil
	}

	start := p.opts.WorkDir
	if start == "" {
		wd, err := p.sys.Getwd()
		if err != nil {
			return fmt.Errorf(messages.RootGetwdFmt, err)
		}
		start = wd
	}
	expr, path, err := version.ExpressionFromProject(start)
	if err != nil {
		return err
	}
	log.Debugf("using version %s from %s", expr.Raw, path)
	result.Expression = expr
	result.ProjectFile = path
	return nil
}

// resolve fetches the catalog, selects the build, and picks its file for the platform.
func (p *pipeline) resolve(ctx context.Context, result *Result) error {
	_, _ = color.New(color.FgYellow).Fprint(p.out, messages.StatusFetchingCatalog)
	channels, err := catalog.NewClient(p.opts.Transport, p.cfg.IndexURL).FetchCatalog(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(p.out)
		return err
	}
	_, _ = color.New(color.FgGreen).Fprintln(p.out, messages.StatusDone)
	log.Debugf("catalog has %d channels", len(channels))

	build, err := version.Resolve(result.Expression, channels)
	if err != nil {
		return err
	}
	result.Build = build
	for _, ch := range channels {
		if ch.Version == build.Channel {
			ch.Builds = nil
			result.Channel = ch
			break
		}
	}
	log.Debugf("resolved %s to %s (channel %s)", result.Expression.Raw, build.VersionString(), build.Channel)

	file, ok := build.FileFor(p.cfg.Platform)
	if !ok {
		return fmt.Errorf("%w: "+messages.VersionNoPlatformFileFmt, version.ErrNoMatchingBuild, build.VersionString(), p.cfg.Platform)
	}
	if err := extract.SupportedURL(file.URL); err != nil {
		return err
	}
	result.File = file
	log.Debugf("artifact %s", file.URL)
	return nil
}

func (p *pipeline) checkInstalled(v string) error {
	installed, err := p.ledger.IsInstalled(p.cfg.Platform, v)
	if err != nil {
		return err
	}
	if installed {
		return fmt.Errorf("%w: "+messages.InstallAlreadyInstalledFmt, ErrAlreadyInstalled, v, p.cfg.Platform)
	}
	return nil
}

func (p *pipeline) preview(result Result, current ledger.Document) (Result, error) {
	next := current.WithInstall(p.cfg.Platform, result.Build.VersionString(), result.Build.RuntimeVersion, result.Primary)
	preview, err := ledgerDiffPreview(p.cfg.LedgerPath(), current, next, p.opts.DiffMaxLines)
	if err != nil {
		return result, err
	}
	result.Ledger = next
	result.Preview = &preview

	_, _ = fmt.Fprintln(p.out, messages.DryRunHeader)
	_, _ = fmt.Fprintf(p.out, messages.DryRunTargetFmt, result.Build.VersionString(), result.Build.RuntimeVersion, p.cfg.Platform, result.File.URL)
	if preview.UnifiedDiff == "" {
		_, _ = fmt.Fprintln(p.out, messages.DryRunNoChange)
		return result, nil
	}
	_, _ = fmt.Fprint(p.out, preview.UnifiedDiff)
	return result, nil
}

func (p *pipeline) printHashes(expected, actual string) {
	if !p.opts.ShowHash {
		return
	}
	_, _ = fmt.Fprintf(p.out, messages.HashOriginalFmt, strings.ToUpper(expected))
	_, _ = fmt.Fprintf(p.out, messages.HashCalculatedFmt, strings.ToUpper(actual))
}

// cleanup removes the downloaded archive and the staging directory.
func (p *pipeline) cleanup(archivePath string) error {
	var result *multierror.Error
	if err := p.sys.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf(messages.InstallCleanupFmt, archivePath, err))
	}
	if err := p.sys.RemoveAll(p.cfg.TempDir()); err != nil {
		result = multierror.Append(result, fmt.Errorf(messages.InstallCleanupFmt, p.cfg.TempDir(), err))
	}
	return result.ErrorOrNil()
}
