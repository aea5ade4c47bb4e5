package output

import (
	"encoding/json"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

type jsonAttempt struct {
	Index       int          `json:"index"`
	Candidate   string       `json:"candidate"`
	Result      string       `json:"result"`
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	StatusCode  int          `json:"status,omitempty"`
	Length      int          `json:"length"`
	Size        int64        `json:"size"`
	RedirectURL string       `json:"redirect,omitempty"`
	Confirm     *jsonConfirm `json:"follow_up,omitempty"`
	DurationMS  int64        `json:"duration_ms"`
	Error       string       `json:"error,omitempty"`
}

type jsonConfirm struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status,omitempty"`
	Length     int    `json:"length"`
	Size       int64  `json:"size"`
	Error      string `json:"error,omitempty"`
}

type jsonReport struct {
	RunID    string        `json:"run_id"`
	Found    []string      `json:"found"`
	Summary  jsonSummary   `json:"summary"`
	Attempts []jsonAttempt `json:"attempts"`
}

type jsonSummary struct {
	Candidates  int     `json:"candidates"`
	Attempts    int     `json:"attempts"`
	Failed      int     `json:"failed"`
	Errors      int     `json:"errors"`
	Interrupted bool    `json:"interrupted"`
	DurationMS  int64   `json:"duration_ms"`
	Rate        float64 `json:"requests_per_sec"`
}

// JSONWriter buffers attempts and writes a single report on WriteFooter.
type JSONWriter struct {
	out     *Target
	entries []jsonAttempt
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(out *Target) *JSONWriter {
	return &JSONWriter{out: out, entries: []jsonAttempt{}}
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteAttempt(a *scanner.Attempt) error {
	e := jsonAttempt{
		Index:       a.Index,
		Candidate:   a.Candidate,
		Result:      a.Class().String(),
		Method:      a.Method,
		URL:         a.URL,
		StatusCode:  a.StatusCode,
		Length:      a.Length,
		Size:        a.Size,
		RedirectURL: a.RedirectURL,
		DurationMS:  a.Duration.Milliseconds(),
	}
	if a.Error != nil {
		e.Error = a.Error.Error()
	}
	if c := a.Confirm; c != nil {
		e.Confirm = &jsonConfirm{URL: c.URL, StatusCode: c.StatusCode, Length: c.Length, Size: c.Size}
		if c.Error != nil {
			e.Confirm.Error = c.Error.Error()
		}
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	found := stats.Found
	if found == nil {
		found = []string{}
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		RunID: stats.RunID,
		Found: found,
		Summary: jsonSummary{
			Candidates:  stats.Candidates,
			Attempts:    stats.Attempts,
			Failed:      stats.Failed,
			Errors:      stats.Errors,
			Interrupted: stats.Interrupted,
			DurationMS:  stats.Duration.Milliseconds(),
			Rate:        stats.RequestsPerSec,
		},
		Attempts: j.entries,
	})
}

func (j *JSONWriter) Close() error {
	return j.out.Close()
}
