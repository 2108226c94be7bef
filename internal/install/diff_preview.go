package install

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/ndnm/ndnm/internal/ledger"
	"github.com/ndnm/ndnm/internal/messages"
)

const (
	// DefaultDiffMaxLines is the default maximum number of ledger diff lines shown.
	DefaultDiffMaxLines = 40
	diffLineCapFlagName = "--diff-lines"
)

// DiffPreview is the rendered ledger change of a dry run.
type DiffPreview struct {
	Path        string
	UnifiedDiff string
	Truncated   bool
}

func normalizeDiffMaxLines(value int) int {
	if value <= 0 {
		return DefaultDiffMaxLines
	}
	return value
}

// ledgerDiffPreview renders the change from before to after as a unified diff of the
// ledger file at path.
func ledgerDiffPreview(path string, before, after ledger.Document, maxLines int) (DiffPreview, error) {
	from, err := before.Render()
	if err != nil {
		return DiffPreview{}, fmt.Errorf(messages.InstallRenderLedgerFmt, err)
	}
	to, err := after.Render()
	if err != nil {
		return DiffPreview{}, fmt.Errorf(messages.InstallRenderLedgerFmt, err)
	}
	rendered, truncated := renderTruncatedUnifiedDiff(path+" (current)", path+" (after install)", string(from), string(to), maxLines)
	return DiffPreview{Path: path, UnifiedDiff: rendered, Truncated: truncated}, nil
}

func renderTruncatedUnifiedDiff(fromName string, toName string, fromContent string, toContent string, maxLines int) (string, bool) {
	limit := normalizeDiffMaxLines(maxLines)
	diff := udiff.Unified(fromName, toName, fromContent, toContent)
	lines := splitDiffLines(diff)
	if len(lines) <= limit {
		return ensureTrailingNewline(strings.Join(lines, "\n")), false
	}
	truncated := lines[:limit]
	truncated = append(truncated, fmt.Sprintf(messages.DryRunTruncatedFmt, limit, diffLineCapFlagName))
	return ensureTrailingNewline(strings.Join(truncated, "\n")), true
}

func splitDiffLines(content string) []string {
	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

func ensureTrailingNewline(content string) string {
	if content == "" {
		return ""
	}
	if strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
