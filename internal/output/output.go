package output

import (
	"io"
	"os"
	"time"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// Stats holds aggregate run statistics.
type Stats struct {
	RunID          string
	Candidates     int
	Attempts       int
	Failed         int
	Errors         int
	Found          []string // candidates that satisfied the success predicate
	Interrupted    bool
	Duration       time.Duration
	RequestsPerSec float64
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteAttempt(a *scanner.Attempt) error
	WriteFooter(stats Stats) error
	Close() error
}

// Target is the destination of a Writer: a created file, or a fallback
// writer such as stdout or the progress bar.
type Target struct {
	io.Writer
	closer io.Closer
}

// OpenTarget creates path, or wraps fallback when path is empty.
func OpenTarget(path string, fallback io.Writer) (*Target, error) {
	if path == "" {
		if fallback == nil {
			fallback = os.Stdout
		}
		return &Target{Writer: fallback}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Target{Writer: f, closer: f}, nil
}

// IsFile reports whether output goes to a file created by OpenTarget.
func (t *Target) IsFile() bool { return t.closer != nil }

// Redirect swaps the fallback writer, for example once a progress bar that
// was receiving the output has stopped. Files are left alone.
func (t *Target) Redirect(w io.Writer) {
	if t.closer == nil {
		t.Writer = w
	}
}

// Close closes the file, if any.
func (t *Target) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
