package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/chainreactors/logs"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// Timeout bounds a single hook invocation.
const Timeout = 30 * time.Second

// payload is the JSON document sent to the hook command via stdin.
type payload struct {
	RunID       string `json:"run_id"`
	Candidate   string `json:"candidate"`
	Method      string `json:"method"`
	URL         string `json:"url"`
	StatusCode  int    `json:"status"`
	Length      int    `json:"length"`
	Size        int64  `json:"size"`
	RedirectURL string `json:"location,omitempty"`
}

// Runner executes a shell command for each successful attempt.
type Runner struct {
	cmd     string
	runID   string
	timeout time.Duration
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd, runID string) *Runner {
	return &Runner{cmd: cmd, runID: runID, timeout: Timeout}
}

// Expand substitutes the attempt's fields into the command template.
// String fields come from the wordlist and the target, so each one is
// quoted as a single shell word.
func (r *Runner) Expand(a *scanner.Attempt) string {
	return strings.NewReplacer(
		"{candidate}", quoteArg(a.Candidate),
		"{url}", quoteArg(a.URL),
		"{status}", strconv.Itoa(a.StatusCode),
		"{location}", quoteArg(a.RedirectURL),
		"{length}", strconv.Itoa(a.Length),
		"{size}", strconv.FormatInt(a.Size, 10),
		"{method}", quoteArg(a.Method),
	).Replace(r.cmd)
}

// environ exposes the attempt to the hook as CREDFUZZ_* variables.
func (r *Runner) environ(a *scanner.Attempt) []string {
	return append(os.Environ(),
		"CREDFUZZ_RUN_ID="+r.runID,
		"CREDFUZZ_CANDIDATE="+a.Candidate,
		"CREDFUZZ_URL="+a.URL,
		"CREDFUZZ_METHOD="+a.Method,
		"CREDFUZZ_STATUS="+strconv.Itoa(a.StatusCode),
		"CREDFUZZ_LOCATION="+a.RedirectURL,
		"CREDFUZZ_LENGTH="+strconv.Itoa(a.Length),
		"CREDFUZZ_SIZE="+strconv.FormatInt(a.Size, 10),
	)
}

// Run executes the hook command with the attempt as JSON on stdin and
// returns its stdout. Failures are logged and never halt the run.
func (r *Runner) Run(a *scanner.Attempt) []byte {
	data, err := json.Marshal(payload{
		RunID:       r.runID,
		Candidate:   a.Candidate,
		Method:      a.Method,
		URL:         a.URL,
		StatusCode:  a.StatusCode,
		Length:      a.Length,
		Size:        a.Size,
		RedirectURL: a.RedirectURL,
	})
	if err != nil {
		logs.Log.Errorf("[hook] marshal error: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.Expand(a))...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Env = r.environ(a)
	cmd.Stderr = os.Stderr
	cmd.WaitDelay = time.Second

	output, err := cmd.Output()
	if err != nil {
		logs.Log.Warnf("[hook] error: %v", err)
		return output
	}
	if len(output) > 0 {
		logs.Log.Infof("[hook] %s", strings.TrimRight(string(output), "\n"))
	}
	return output
}

// quoteArg renders s as one literal word for the hook shell.
func quoteArg(s string) string {
	if runtime.GOOS == "windows" {
		return quoteCmd(s)
	}
	return quoteSh(s)
}

// quoteSh wraps s in single quotes; an embedded quote closes the string,
// emits an escaped quote and reopens it.
func quoteSh(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quoteCmd caret-escapes the characters cmd.exe treats specially.
func quoteCmd(s string) string {
	var b strings.Builder
	for _, c := range s {
		if strings.ContainsRune(`^&|<>()%!"`, c) {
			b.WriteByte('^')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
