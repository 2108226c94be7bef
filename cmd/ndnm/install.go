package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ndnm/ndnm/internal/download"
	"github.com/ndnm/ndnm/internal/install"
	"github.com/ndnm/ndnm/internal/messages"
	"github.com/ndnm/ndnm/internal/progress"
	"github.com/ndnm/ndnm/internal/terminal"
)

var isTerminalWriter = terminal.IsTerminalWriter

func newInstallCmd(flags *rootFlags) *cobra.Command {
	var showHash bool
	var dryRun bool
	var diffLines int

	cmd := &cobra.Command{
		Use:     messages.InstallUse,
		Short:   messages.InstallShort,
		Long:    messages.InstallLong,
		Example: messages.InstallExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pipelineOptions(flags, args)
			if err != nil {
				return err
			}
			opts.Out = cmd.OutOrStdout()
			opts.ShowHash = showHash
			opts.DryRun = dryRun
			opts.DiffMaxLines = diffLines
			if !dryRun {
				opts.Reporter = newReporter(cmd.ErrOrStderr())
			}
			_, err = install.Run(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().BoolVar(&showHash, "hash", false, messages.InstallFlagHash)
	_ = cmd.Flags().MarkHidden("hash")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, messages.InstallFlagDryRun)
	cmd.Flags().IntVar(&diffLines, "diff-lines", install.DefaultDiffMaxLines, messages.InstallFlagDiffLines)
	return cmd
}

// pipelineOptions builds the options shared by install and resolve.
func pipelineOptions(flags *rootFlags, args []string) (install.Options, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return install.Options{}, err
	}
	wd, err := getwd()
	if err != nil {
		return install.Options{}, fmt.Errorf(messages.RootGetwdFmt, err)
	}
	opts := install.Options{
		Config:    cfg,
		WorkDir:   wd,
		Transport: newTransport(cfg),
	}
	if len(args) == 1 {
		opts.Version = args[0]
	}
	return opts, nil
}

// newReporter returns a progress bar when out is a terminal.
func newReporter(out io.Writer) download.Reporter {
	if !isTerminalWriter(out) {
		return nil
	}
	return progress.New(out, terminal.Width(out))
}
