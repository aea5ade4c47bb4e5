package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chainreactors/logs"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/maxvaer/credfuzz/internal/config"
	"github.com/maxvaer/credfuzz/internal/curlimport"
	"github.com/maxvaer/credfuzz/internal/hook"
	"github.com/maxvaer/credfuzz/internal/match"
	"github.com/maxvaer/credfuzz/internal/output"
	"github.com/maxvaer/credfuzz/internal/reqparse"
	"github.com/maxvaer/credfuzz/internal/scanner"
	"github.com/maxvaer/credfuzz/internal/template"
	"github.com/maxvaer/credfuzz/internal/wordlist"
	"github.com/maxvaer/credfuzz/pkg/version"
)

// ErrNoSuccessCondition is returned when every success option is empty.
var ErrNoSuccessCondition = errors.New("no success condition configured")

// Run executes the full pipeline: load or generate the request template,
// load the wordlist, replay the template once per candidate and report.
// Setup failures are returned before any request is sent.
func Run(ctx context.Context, opts *config.Options) error {
	// 1. Request template.
	tmpl, err := loadTemplate(opts)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return nil
	}

	// 2. Candidates.
	candidates, err := wordlist.Source{Path: opts.WordlistPath, Dedupe: opts.Dedupe}.Load()
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}

	clientCfg := scanner.ClientConfig{
		Type:      opts.Client,
		Timeout:   opts.Timeout,
		Proxy:     opts.Proxy,
		UserAgent: opts.UserAgent,
	}

	// 3. Success policy.
	var extra []match.Matcher
	if opts.Calibrate {
		m, err := calibrate(ctx, tmpl, clientCfg, opts.CalibrateThreshold)
		if err != nil {
			return err
		}
		extra = append(extra, m)
	}
	chain, err := buildChain(opts, extra...)
	if err != nil {
		return err
	}

	runID := uuid.NewString()

	// 4. Output.
	target, err := output.OpenTarget(opts.OutputFile, os.Stdout)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	color := !opts.NoColor && !target.IsFile() && term.IsTerminal(int(os.Stdout.Fd()))
	out := createWriter(opts, target, runID, color)
	defer out.Close()

	if !opts.Quiet {
		printBanner(opts, tmpl, len(candidates), chain)
	}
	if err := out.WriteHeader(); err != nil {
		return err
	}

	var progress *output.Progress
	if opts.Progress && !opts.Quiet && len(candidates) > 0 {
		progress = output.NewProgress(len(candidates), os.Stderr)
		logs.Log.SetOutput(progress)
		target.Redirect(progress)
	}
	if len(candidates) == 0 {
		logs.Log.Warnf("wordlist %s has no candidates", opts.WordlistPath)
	}

	// 5. Pacing and hooks.
	throttler := scanner.NewThrottler(opts.Delay, opts.AdaptiveThrottle)
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	var pauser *scanner.Pauser
	if opts.WordlistPath != "-" && len(candidates) > 0 {
		p, cleanup := startStdinToggle()
		defer cleanup()
		pauser = p
	}
	var hookRunner *hook.Runner
	if opts.OnSuccessCmd != "" {
		hookRunner = hook.NewRunner(opts.OnSuccessCmd, runID)
	}

	// 6. Worker pool.
	start := time.Now()
	results, stop, err := scanner.RunWorkerPool(ctx, tmpl, candidates, scanner.WorkerConfig{
		Threads: opts.Threads,
		NewRequester: func() (scanner.Requester, error) {
			return scanner.NewClient(clientCfg)
		},
		IsSuccess: chain.Func(),
		Confirm:   !opts.NoConfirm,
		Throttler: throttler,
		Limiter:   limiter,
		Pauser:    pauser,
	})
	if err != nil {
		stopProgress(progress, target)
		return err
	}

	stats := output.Stats{RunID: runID, Candidates: len(candidates)}
	var writeErr error
	for attempt := range results {
		tally(&stats, &attempt)
		if progress != nil {
			progress.Increment()
		}
		// Keep draining on a write error so workers never block on send.
		if writeErr == nil {
			writeErr = out.WriteAttempt(&attempt)
		}
		if attempt.Success && hookRunner != nil {
			hookRunner.Run(&attempt)
		}
	}
	stopProgress(progress, target)
	if writeErr != nil {
		return fmt.Errorf("writing results: %w", writeErr)
	}

	// 7. Summary.
	stats.Duration = time.Since(start)
	stats.Interrupted = ctx.Err() != nil && !stop.Fired()
	active := stats.Duration
	if pauser != nil {
		active -= pauser.PausedDuration()
	}
	if active.Seconds() > 0 {
		stats.RequestsPerSec = float64(stats.Attempts) / active.Seconds()
	}
	if winner, ok := stop.Winner(); ok {
		logs.Log.Debugf("stop signal fired by %q", winner)
	}
	if opts.OutputFormat != config.FormatText || target.IsFile() {
		logs.Log.Important(output.Summary(stats))
	}
	return out.WriteFooter(stats)
}

// stopProgress finishes the bar and points logs and attempt output back at
// stdout.
func stopProgress(progress *output.Progress, target *output.Target) {
	if progress == nil {
		return
	}
	progress.Stop()
	logs.Log.SetOutput(os.Stdout)
	target.Redirect(os.Stdout)
}

// loadTemplate returns the template to replay. With a curl file it first
// renders the import to the request file; a nil template means the run
// ends after generation.
func loadTemplate(opts *config.Options) (*template.Template, error) {
	path := opts.RequestFile
	if path == "" {
		path = config.DefaultRequestFile
	}

	if opts.CurlFile != "" {
		imported, err := curlimport.ImportFile(opts.CurlFile)
		if err != nil {
			return nil, fmt.Errorf("importing curl command: %w", err)
		}
		if err := reqparse.WriteFile(path, imported); err != nil {
			return nil, fmt.Errorf("writing request template: %w", err)
		}
		logs.Log.Importantf("request template written to %s", path)
		if withPlaceholder(imported, opts).PlaceholderCount() == 0 {
			logs.Log.Warnf("edit %s and put %s where the candidate goes", path, placeholderOf(opts))
		}
		if opts.GenerateOnly {
			return nil, nil
		}
	}

	tmpl, err := reqparse.ParseFile(path)
	if err != nil {
		return nil, err
	}
	tmpl = withPlaceholder(tmpl, opts)
	if opts.Scheme != "" {
		if tmpl, err = tmpl.WithScheme(opts.Scheme); err != nil {
			return nil, err
		}
	}
	if tmpl.PlaceholderCount() == 0 {
		logs.Log.Warnf("%s has no %s in its body, every attempt sends the same request", path, tmpl.Placeholder())
	}
	return tmpl, nil
}

func placeholderOf(opts *config.Options) string {
	if opts.Placeholder != "" {
		return opts.Placeholder
	}
	return template.DefaultPlaceholder
}

func withPlaceholder(t *template.Template, opts *config.Options) *template.Template {
	if opts.Placeholder == "" || opts.Placeholder == t.Placeholder() {
		return t
	}
	return t.WithPlaceholder(opts.Placeholder)
}

// calibrate probes the target with random candidates before the run.
func calibrate(ctx context.Context, tmpl *template.Template, cfg scanner.ClientConfig, threshold int) (*match.BaselineMatcher, error) {
	client, err := scanner.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating requester: %w", err)
	}
	logs.Log.Infof("calibrating with %d random candidates", match.DefaultProbes)
	m, err := match.Calibrate(ctx, client, tmpl, match.DefaultProbes, threshold)
	if err != nil {
		return nil, fmt.Errorf("calibrating: %w", err)
	}
	logs.Log.Importantf("failure baseline: %s", m.Describe())
	return m, nil
}

// buildChain turns the success options into one predicate. Every
// configured matcher must accept a response for it to count as a success.
func buildChain(opts *config.Options, extra ...match.Matcher) (*match.Chain, error) {
	chain := match.NewChain()
	if len(opts.SuccessStatus) > 0 {
		chain.Add(match.NewStatusMatcher(opts.SuccessStatus))
	}
	if len(opts.SuccessSize) > 0 {
		chain.Add(match.NewSizeMatcher(opts.SuccessSize))
	}
	if opts.MatchBody != "" {
		chain.Add(match.NewBodyMatcher(opts.MatchBody))
	}
	if opts.ExcludeBody != "" {
		chain.Add(match.NewBodyExcluder(opts.ExcludeBody))
	}
	if opts.MatchExpr != "" {
		m, err := match.NewExprMatcher(opts.MatchExpr)
		if err != nil {
			return nil, err
		}
		chain.Add(m)
	}
	for _, m := range extra {
		chain.Add(m)
	}
	if chain.Len() == 0 {
		return nil, ErrNoSuccessCondition
	}
	return chain, nil
}

func tally(stats *output.Stats, a *scanner.Attempt) {
	stats.Attempts++
	switch a.Class() {
	case scanner.ClassSuccess:
		stats.Found = append(stats.Found, a.Candidate)
	case scanner.ClassError:
		stats.Errors++
	default:
		stats.Failed++
	}
}

func createWriter(opts *config.Options, target *output.Target, runID string, color bool) output.Writer {
	switch opts.OutputFormat {
	case config.FormatJSON:
		return output.NewJSONWriter(target)
	case config.FormatCSV:
		return output.NewCSVWriter(target, runID)
	default:
		return output.NewTextWriter(target, color)
	}
}

func printBanner(opts *config.Options, tmpl *template.Template, candidates int, chain *match.Chain) {
	r := lipgloss.NewRenderer(os.Stderr)
	if opts.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	label := r.NewStyle().Faint(true).Width(10)
	value := r.NewStyle().Foreground(lipgloss.Color("15"))

	ver := version.Version
	if ver != "dev" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	rows := [][2]string{
		{"Request", fmt.Sprintf("%s %s", tmpl.Method(), tmpl.URL())},
		{"Host", tmpl.Host()},
		{"Wordlist", fmt.Sprintf("%d candidates", candidates)},
		{"Threads", fmt.Sprint(opts.Threads)},
		{"Client", opts.Client},
		{"Success", strings.Join(chain.Names(), " && ")},
	}
	lines := []string{title.Render("credfuzz " + ver)}
	for _, row := range rows {
		lines = append(lines, label.Render(row[0]+":")+" "+value.Render(row[1]))
	}
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	logs.Log.Console(box + "\n")
}
