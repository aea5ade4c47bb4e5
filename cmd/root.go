package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/chainreactors/logs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/maxvaer/credfuzz/internal/config"
	"github.com/maxvaer/credfuzz/internal/runner"
	"github.com/maxvaer/credfuzz/internal/scanner"
	"github.com/maxvaer/credfuzz/pkg/version"
)

var opts = config.Defaults()

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"INPUT", []string{"request", "curl", "generate-only", "wordlist", "dedupe", "placeholder", "scheme"}},
	{"SUCCESS", []string{"success-status", "success-size", "match-body", "exclude-body", "match", "calibrate", "calibrate-threshold", "no-confirm"}},
	{"RATE-LIMIT", []string{"threads", "timeout", "delay", "rate-limit", "adaptive-throttle"}},
	{"HTTP", []string{"client", "proxy", "user-agent"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "progress", "debug", "on-success"}},
	{"CONFIGURATION", []string{"config"}},
}

var rootCmd = &cobra.Command{
	Use:     "credfuzz -r <request.txt> -w <wordlist> [flags]",
	Short:   "Replay a captured login request once per password candidate",
	Version: version.Version,
	Long: `credfuzz replays a captured HTTP login request against its target,
substituting one wordlist candidate per attempt for the <PASS> placeholder.
Workers stop as soon as one candidate is accepted (a 302 by default).`,
	Example: `  credfuzz -r request.txt -w passwords.txt
  credfuzz --curl login.curl --generate-only
  credfuzz --curl login.curl -w passwords.txt -t 20
  credfuzz -r request.txt -w passwords.txt --success-status 200 --match-body "Welcome"
  credfuzz -r request.txt -w passwords.txt --match 'status == 302 && location contains "/home"'
  credfuzz -r request.txt -w - --client fast --rate-limit 50 < passwords.txt
  credfuzz -r request.txt -w passwords.txt -o results.json --format json
  credfuzz -r request.txt -w passwords.txt --on-success "notify-send {candidate}"`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if opts.ConfigFile != "" {
			if err := config.ApplyFile(opts.ConfigFile, cmd.Flags()); err != nil {
				return err
			}
		}
		setupLogs()

		// An expression or calibration replaces the default status check
		// unless the status was asked for explicitly.
		if (opts.MatchExpr != "" || opts.Calibrate) && !cmd.Flags().Changed("success-status") {
			opts.SuccessStatus = nil
		}

		if !anyChanged(cmd.Flags(), "request", "curl", "wordlist") && term.IsTerminal(int(os.Stdin.Fd())) {
			if err := promptOptions(os.Stdin, os.Stderr, &opts); err != nil {
				return err
			}
		}
		return validate(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func setupLogs() {
	if opts.Debug {
		logs.Log.SetLevel(logs.Debug)
	}
	if opts.NoColor {
		logs.Log.SetColor(false)
	}
	if opts.Quiet {
		logs.Log.SetQuiet(true)
		logs.Log.SetColor(false)
	}
}

func validate(cmd *cobra.Command) error {
	if opts.WordlistPath == "" && !opts.GenerateOnly {
		_ = cmd.Help()
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("wordlist required: use -w (or --generate-only with --curl)")
	}
	if opts.GenerateOnly && opts.CurlFile == "" {
		return fmt.Errorf("--generate-only needs --curl")
	}
	if opts.Threads < 1 {
		return fmt.Errorf("--threads must be at least 1")
	}
	switch opts.OutputFormat {
	case config.FormatText, config.FormatJSON, config.FormatCSV:
	default:
		return fmt.Errorf("--format must be one of: text, json, csv")
	}
	switch opts.Client {
	case scanner.ClientStandard, scanner.ClientFast:
	default:
		return fmt.Errorf("--client must be one of: %s, %s", scanner.ClientStandard, scanner.ClientFast)
	}
	if opts.Scheme != "" && opts.Scheme != "http" && opts.Scheme != "https" {
		return fmt.Errorf("--scheme must be http or https")
	}
	if opts.Placeholder == "" {
		return fmt.Errorf("--placeholder must not be empty")
	}
	return nil
}

func anyChanged(fs *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

func init() {
	f := rootCmd.Flags()
	d := config.Defaults()

	// Input
	f.StringVarP(&opts.RequestFile, "request", "r", d.RequestFile, "Raw HTTP request template (written to when importing --curl)")
	f.StringVar(&opts.CurlFile, "curl", "", "File with a curl command to import as the request template")
	f.BoolVar(&opts.GenerateOnly, "generate-only", false, "Write the imported template and exit")
	f.StringVarP(&opts.WordlistPath, "wordlist", "w", "", "Candidate wordlist, one per line (- for stdin)")
	f.BoolVar(&opts.Dedupe, "dedupe", false, "Drop repeated candidates, keeping first-seen order")
	f.StringVar(&opts.Placeholder, "placeholder", d.Placeholder, "Token replaced by each candidate")
	f.StringVar(&opts.Scheme, "scheme", "", "Override the template scheme (http or https)")

	// Success
	f.Var(&intSliceValue{target: &opts.SuccessStatus}, "success-status", "Status codes that mean success (comma-separated)")
	f.Var(&intSliceValue{target: &opts.SuccessSize}, "success-size", "Response sizes that mean success (comma-separated)")
	f.StringVar(&opts.MatchBody, "match-body", "", "Success requires the body to contain this string")
	f.StringVar(&opts.ExcludeBody, "exclude-body", "", "Success requires the body not to contain this string")
	f.StringVar(&opts.MatchExpr, "match", "", "Success expression over status, length, size, location, body, headers")
	f.BoolVar(&opts.Calibrate, "calibrate", false, "Learn the failure response from random probes and treat anything else as success")
	f.IntVar(&opts.CalibrateThreshold, "calibrate-threshold", d.CalibrateThreshold, "Size tolerance in bytes for calibration")
	f.BoolVar(&opts.NoConfirm, "no-confirm", false, "Skip the follow-up GET to the redirect target of a success")

	// Performance
	f.IntVarP(&opts.Threads, "threads", "t", d.Threads, "Number of concurrent workers")
	f.DurationVar(&opts.Timeout, "timeout", d.Timeout, "Per-request timeout")
	f.DurationVar(&opts.Delay, "delay", 0, "Delay between requests per worker")
	f.IntVar(&opts.RateLimit, "rate-limit", 0, "Maximum requests per second across all workers")
	f.BoolVar(&opts.AdaptiveThrottle, "adaptive-throttle", false, "Back off on 429/503 and repeated errors")

	// HTTP
	f.StringVar(&opts.Client, "client", d.Client, "HTTP client: standard or fast")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP or SOCKS5 proxy URL")
	f.StringVar(&opts.UserAgent, "user-agent", "", "User-Agent sent when the template has none")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path")
	f.StringVar(&opts.OutputFormat, "format", d.OutputFormat, "Output format: text, json, csv")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Only print attempts and the summary")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVar(&opts.Progress, "progress", false, "Show a progress bar")
	f.BoolVar(&opts.Debug, "debug", false, "Debug logging")
	f.StringVar(&opts.OnSuccessCmd, "on-success", "", "Shell command run for each success (JSON on stdin, CREDFUZZ_* env vars)")

	f.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML or JSON file with flag defaults")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// intSliceValue implements pflag.Value for comma-separated int slices. The
// first Set replaces the default; later ones append.
type intSliceValue struct {
	target  *[]int
	changed bool
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	if !v.changed {
		*v.target = nil
		v.changed = true
	}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}
	if typ := f.Value.Type(); typ != "bool" {
		left += " " + typ
	}
	const col = 34
	if len(left) < col {
		left += strings.Repeat(" ", col-len(left))
	}

	right := f.Usage
	switch def := f.DefValue; def {
	case "", "false", "0", "0s", "[]":
	default:
		right += fmt.Sprintf(" (default %s)", def)
	}
	return "   " + left + right
}
