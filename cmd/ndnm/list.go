package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndnm/ndnm/internal/ledger"
	"github.com/ndnm/ndnm/internal/messages"
)

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ListUse,
		Short: messages.ListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.LedgerPath()); errors.Is(err, os.ErrNotExist) {
				_, _ = fmt.Fprintln(out, messages.ListEmpty)
				return nil
			}
			l, err := ledger.Open(cfg.LedgerPath(), cfg.Platform)
			if err != nil {
				return err
			}
			doc, err := l.Snapshot()
			if err != nil {
				return err
			}
			printLedger(out, doc)
			return nil
		},
	}
}

func printLedger(out io.Writer, doc ledger.Document) {
	primary, hasPrimary := doc.Primary()
	if !hasPrimary {
		_, _ = fmt.Fprintln(out, messages.ListEmpty)
		return
	}
	_, _ = fmt.Fprintf(out, messages.ListPrimaryFmt, primary)
	for _, platform := range doc.Platforms() {
		versions := doc.Versions(platform)
		if len(versions) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(out, messages.ListPlatformFmt, platform)
		for _, v := range versions {
			mark := ""
			if v == primary {
				mark = messages.ListPrimaryMark
			}
			_, _ = fmt.Fprintf(out, messages.ListEntryFmt, v, doc.PerPlatform[platform][v], mark)
		}
	}
}
