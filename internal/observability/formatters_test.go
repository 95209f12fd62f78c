package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/resume"
	"github.com/jonathan/hirezaa/internal/types"
)

func TestPrintShortlistPreview(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var candidates []types.Application
	for i := 0; i < 7; i++ {
		candidates = append(candidates, types.Application{ID: uuid.New(), CandidateName: fmt.Sprintf("Candidate %d", i), CGPA: 9 - float64(i)/10})
	}
	candidates[1].CandidateName = ""

	p.PrintShortlistPreview(7, candidates)
	output := buf.String()

	assert.Contains(t, output, "SHORTLIST PREVIEW")
	assert.Contains(t, output, "Target: 7   Selected: 7")
	assert.Contains(t, output, "#1  Candidate 0  (CGPA 9.00)")
	assert.Contains(t, output, candidates[1].ID.String())
	assert.Contains(t, output, "... and 2 more")
	assert.NotContains(t, output, "Candidate 6")
}

func TestPrintBatchResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBatchResult(&dispatch.BatchResult{
		JobID:     uuid.New(),
		Target:    3,
		Eligible:  5,
		Attempted: 3,
		Succeeded: 1,
		Failed:    2,
		Outcomes: []dispatch.Outcome{
			{CandidateName: "Asha", Succeeded: true},
			{CandidateName: "Bo", Collaborator: dispatch.CollaboratorNotifier},
			{CandidateName: "Cy", Skipped: true},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "SHORTLIST RESULT")
	assert.Contains(t, output, "Succeeded:  1 of 3")
	assert.Contains(t, output, "✓ Asha")
	assert.Contains(t, output, "✗ Bo [notifier]")
	assert.Contains(t, output, "✗ Cy [skipped]")
}

func TestPrintBatchResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBatchResult(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBackfillReport(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBackfillReport(&resume.BackfillReport{Scanned: 4, Updated: 2, NotFound: 1, Invalid: 1})
	output := buf.String()

	assert.Contains(t, output, "RESUME BACKFILL")
	assert.Contains(t, output, "Updated:    2")
	assert.Contains(t, output, "Not found:  1")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 100))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Len(t, lines, 5)
	assert.Contains(t, lines[3], "...")
	for _, line := range lines {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
}
