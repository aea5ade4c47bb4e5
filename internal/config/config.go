package config

import "time"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DefaultRequestFile is where a curl import writes the generated template.
const DefaultRequestFile = "request.txt"

// Options holds all configuration for a credfuzz run.
type Options struct {
	// Input
	RequestFile  string // raw HTTP request template (also the curl import destination)
	CurlFile     string // curl command to import
	GenerateOnly bool   // stop after writing RequestFile from CurlFile
	WordlistPath string // "-" reads stdin
	Dedupe       bool
	Placeholder  string
	Scheme       string // overrides the template scheme when set

	// Performance
	Threads          int
	Timeout          time.Duration
	Delay            time.Duration
	RateLimit        int // requests per second across all workers, 0 = off
	AdaptiveThrottle bool

	// Success policy
	SuccessStatus []int
	SuccessSize   []int
	MatchBody     string
	ExcludeBody   string
	MatchExpr     string
	NoConfirm     bool

	// Calibrate learns the failure response from random probes; anything
	// else counts as success.
	Calibrate          bool
	CalibrateThreshold int // byte tolerance when failure pages vary

	// HTTP
	Client    string
	Proxy     string
	UserAgent string

	// Output
	OutputFile   string
	OutputFormat string
	Quiet        bool
	NoColor      bool
	Progress     bool
	Debug        bool

	// Hooks
	OnSuccessCmd string

	ConfigFile string
}

// Defaults returns Options with every default applied.
func Defaults() Options {
	return Options{
		RequestFile:        DefaultRequestFile,
		Placeholder:        "<PASS>",
		Threads:            10,
		Timeout:            5 * time.Second,
		SuccessStatus:      []int{302},
		CalibrateThreshold: 50,
		Client:             "standard",
		OutputFormat:       FormatText,
	}
}
