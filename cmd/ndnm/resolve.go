package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndnm/ndnm/internal/install"
	"github.com/ndnm/ndnm/internal/messages"
)

func newResolveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ResolveUse,
		Short: messages.ResolveShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pipelineOptions(flags, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			opts.Out = cmd.ErrOrStderr()
			result, err := install.Resolve(cmd.Context(), opts)
			if err != nil {
				return err
			}
			build := result.Build
			_, _ = fmt.Fprintf(out, messages.ResolveVersionFmt, build.VersionString())
			if build.DisplayVersion != "" && build.DisplayVersion != build.VersionString() {
				_, _ = fmt.Fprintf(out, messages.ResolveDisplayFmt, build.DisplayVersion)
			}
			_, _ = fmt.Fprintf(out, messages.ResolveRuntimeFmt, build.RuntimeVersion)
			_, _ = fmt.Fprintf(out, messages.ResolvePlatformFmt, result.File.Platform)
			_, _ = fmt.Fprintf(out, messages.ResolveURLFmt, result.File.URL)
			_, _ = fmt.Fprintf(out, messages.ResolveHashFmt, result.File.Digest)
			if ch := result.Channel; ch.Version != "" {
				_, _ = fmt.Fprintf(out, messages.ResolveChannelFmt, ch.Version, ch.ReleaseType, ch.SupportPhase)
				_, _ = fmt.Fprintf(out, messages.ResolveLatestFmt, ch.LatestRelease, ch.LatestRuntime, ch.LatestSDK)
				_, _ = fmt.Fprintf(out, messages.ResolveReleasesFmt, ch.ReleasesURL)
			}
			return nil
		},
	}
}
