// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/resume"
	"github.com/jonathan/hirezaa/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintShortlistPreview lists the candidates a bulk run would pick.
func (p *Printer) PrintShortlistPreview(target int, candidates []types.Application) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Target: %d   Selected: %d\n", target, len(candidates)))
	if len(candidates) > 0 {
		sb.WriteString("\n")
	}

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("#%d  %s  (CGPA %.2f)\n", i+1, displayName(c.CandidateName, c.ID.String()), c.CGPA))
	}
	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(candidates)-maxItemsToShow))
	}

	p.printBox("SHORTLIST PREVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatchResult summarizes a bulk shortlist run. Failed candidates are
// always listed; successful ones only up to maxItemsToShow.
func (p *Printer) PrintBatchResult(result *dispatch.BatchResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:        %s\n", result.JobID))
	sb.WriteString(fmt.Sprintf("Target:     %d (eligible %d)\n", result.Target, result.Eligible))
	sb.WriteString(fmt.Sprintf("Succeeded:  %d of %d\n", result.Succeeded, result.Attempted))

	var failed, sent []dispatch.Outcome
	for _, o := range result.Outcomes {
		if o.Succeeded {
			sent = append(sent, o)
		} else {
			failed = append(failed, o)
		}
	}

	if len(sent) > 0 {
		sb.WriteString("\nSent:\n")
		count := min(len(sent), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  ✓ %s\n", displayName(sent[i].CandidateName, sent[i].ApplicationID.String())))
		}
		if len(sent) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(sent)-maxItemsToShow))
		}
	}

	if len(failed) > 0 {
		sb.WriteString("\nFailed:\n")
		for _, o := range failed {
			reason := string(o.Collaborator)
			if o.Skipped {
				reason = "skipped"
			}
			sb.WriteString(fmt.Sprintf("  ✗ %s [%s]\n", displayName(o.CandidateName, o.ApplicationID.String()), reason))
		}
	}

	p.printBox("SHORTLIST RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBackfillReport summarizes a resume backfill run.
func (p *Printer) PrintBackfillReport(report *resume.BackfillReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scanned:    %d\n", report.Scanned))
	sb.WriteString(fmt.Sprintf("Updated:    %d\n", report.Updated))
	sb.WriteString(fmt.Sprintf("Not found:  %d\n", report.NotFound))
	sb.WriteString(fmt.Sprintf("Invalid:    %d\n", report.Invalid))
	sb.WriteString(fmt.Sprintf("Failed:     %d", report.Failed))

	p.printBox("RESUME BACKFILL", sb.String())
}

func displayName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
