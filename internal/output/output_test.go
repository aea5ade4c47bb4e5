package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

func sampleAttempts() []*scanner.Attempt {
	return []*scanner.Attempt{
		{Index: 0, Candidate: "wrong1", Method: "POST", URL: "https://x.test/login", StatusCode: 200, Length: 19, Size: 19},
		{Index: 1, Candidate: "boom", Method: "POST", URL: "https://x.test/login", Error: errors.New("connection refused")},
		{
			Index: 2, Candidate: "correct", Method: "POST", URL: "https://x.test/login",
			StatusCode: 302, RedirectURL: "/dashboard", Success: true,
			Confirm: &scanner.Confirmation{URL: "https://x.test/dashboard", StatusCode: 200, Length: 7, Size: 7},
		},
	}
}

func sampleStats() Stats {
	return Stats{
		RunID:          "run-1",
		Candidates:     5,
		Attempts:       3,
		Failed:         1,
		Errors:         1,
		Found:          []string{"correct"},
		Duration:       1500 * time.Millisecond,
		RequestsPerSec: 2,
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	target, err := OpenTarget("", &buf)
	require.NoError(t, err)
	w := NewTextWriter(target, false)

	require.NoError(t, w.WriteHeader())
	for _, a := range sampleAttempts() {
		require.NoError(t, w.WriteAttempt(a))
	}
	require.NoError(t, w.WriteFooter(sampleStats()))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[-] wrong1 | [200] length=19 | size=19", lines[0])
	assert.Equal(t, "[!] error with 'boom': connection refused", lines[1])
	assert.Equal(t, "[+] FOUND: correct | [302] redirected to: /dashboard | length=0 | size=0 | follow-up [200] length=7 size=7", lines[2])
	assert.Contains(t, lines[3], "3/5 attempted")
	assert.Contains(t, lines[3], "found: correct")
	assert.NotContains(t, buf.String(), "\x1b[", "no ANSI escapes without color")
}

func TestTextWriter_ConfirmError(t *testing.T) {
	var buf bytes.Buffer
	target, _ := OpenTarget("", &buf)
	w := NewTextWriter(target, false)

	require.NoError(t, w.WriteAttempt(&scanner.Attempt{
		Candidate: "pw", StatusCode: 302, Success: true,
		Confirm: &scanner.Confirmation{Error: errors.New("timeout")},
	}))
	assert.Equal(t, "[+] FOUND: pw | [302] | length=0 | size=0 | follow-up error: timeout\n", buf.String())
}

func TestSummary(t *testing.T) {
	s := Summary(Stats{Candidates: 3, Attempts: 3, Failed: 3})
	assert.True(t, strings.HasPrefix(s, "[*] done: 3/3 attempted"), s)
	assert.Contains(t, s, "found: none")

	s = Summary(Stats{Candidates: 3, Attempts: 1, Interrupted: true})
	assert.True(t, strings.HasPrefix(s, "[*] interrupted:"), s)
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	target, _ := OpenTarget("", &buf)
	w := NewJSONWriter(target)

	require.NoError(t, w.WriteHeader())
	for _, a := range sampleAttempts() {
		require.NoError(t, w.WriteAttempt(a))
	}
	require.NoError(t, w.WriteFooter(sampleStats()))

	var report jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []string{"correct"}, report.Found)
	assert.Equal(t, 3, report.Summary.Attempts)
	require.Len(t, report.Attempts, 3)
	assert.Equal(t, "failed", report.Attempts[0].Result)
	assert.Equal(t, "connection refused", report.Attempts[1].Error)
	assert.Equal(t, "found", report.Attempts[2].Result)
	require.NotNil(t, report.Attempts[2].Confirm)
	assert.Equal(t, 200, report.Attempts[2].Confirm.StatusCode)
}

func TestJSONWriter_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	target, _ := OpenTarget("", &buf)
	w := NewJSONWriter(target)
	require.NoError(t, w.WriteFooter(Stats{RunID: "r"}))

	assert.Contains(t, buf.String(), `"found": []`)
	assert.Contains(t, buf.String(), `"attempts": []`)
}

func TestCSVWriter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	target, err := OpenTarget(path, nil)
	require.NoError(t, err)
	assert.True(t, target.IsFile())

	w := NewCSVWriter(target, "run-1")
	require.NoError(t, w.WriteHeader())
	for _, a := range sampleAttempts() {
		require.NoError(t, w.WriteAttempt(a))
	}
	require.NoError(t, w.WriteFooter(sampleStats()))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, []string{"run-1", "2", "correct", "found", "302", "0", "0", "/dashboard", ""}, rows[3])
	assert.Equal(t, "connection refused", rows[2][8])
}

func TestOpenTarget_BadPath(t *testing.T) {
	_, err := OpenTarget(filepath.Join(t.TempDir(), "missing", "out.txt"), nil)
	assert.Error(t, err)
}

// stopWithin fails the test when Stop does not return in time.
func stopWithin(t *testing.T, p *Progress) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestProgress_StopShortOfTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(4, &buf)
	_, err := p.Write([]byte("line above the bar\n"))
	require.NoError(t, err)
	p.Increment()
	p.Increment()
	stopWithin(t, p)
}

func TestProgress_StopWithoutOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(4, &buf)
	p.Increment()
	stopWithin(t, p)
}

func TestProgress_StopAtTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(2, &buf)
	p.Increment()
	p.Increment()
	stopWithin(t, p)
}
