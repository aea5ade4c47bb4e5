package output

import (
	"encoding/csv"
	"strconv"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// CSVWriter writes one row per attempt, tagged with the run ID.
type CSVWriter struct {
	out   *Target
	w     *csv.Writer
	runID string
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(out *Target, runID string) *CSVWriter {
	return &CSVWriter{out: out, w: csv.NewWriter(out), runID: runID}
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"run_id", "index", "candidate", "result", "status", "length", "size", "redirect", "error"})
}

func (c *CSVWriter) WriteAttempt(a *scanner.Attempt) error {
	errText := ""
	if a.Error != nil {
		errText = a.Error.Error()
	}
	return c.w.Write([]string{
		c.runID,
		strconv.Itoa(a.Index),
		a.Candidate,
		a.Class().String(),
		strconv.Itoa(a.StatusCode),
		strconv.Itoa(a.Length),
		strconv.FormatInt(a.Size, 10),
		a.RedirectURL,
		errText,
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	return c.out.Close()
}
