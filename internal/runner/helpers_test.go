package runner

import (
	"errors"
	"testing"

	"github.com/maxvaer/credfuzz/internal/config"
	"github.com/maxvaer/credfuzz/internal/output"
	"github.com/maxvaer/credfuzz/internal/scanner"
)

func TestBuildChain(t *testing.T) {
	tests := []struct {
		name  string
		opts  config.Options
		names []string
	}{
		{
			name:  "default status",
			opts:  config.Options{SuccessStatus: []int{302}},
			names: []string{"status[302]"},
		},
		{
			name: "all matchers",
			opts: config.Options{
				SuccessStatus: []int{200},
				SuccessSize:   []int{10},
				MatchBody:     "Welcome",
				ExcludeBody:   "error",
				MatchExpr:     "length > 0",
			},
			names: []string{"status[200]", "size", "body-match", "body-exclude", "expr(length > 0)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := buildChain(&tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			got := chain.Names()
			if len(got) != len(tt.names) {
				t.Fatalf("names = %v, want %v", got, tt.names)
			}
			for i := range got {
				if got[i] != tt.names[i] {
					t.Errorf("names[%d] = %q, want %q", i, got[i], tt.names[i])
				}
			}
		})
	}

	if _, err := buildChain(&config.Options{}); !errors.Is(err, ErrNoSuccessCondition) {
		t.Errorf("empty options: got %v", err)
	}
}

func TestTally(t *testing.T) {
	var stats output.Stats
	for _, a := range []scanner.Attempt{
		{Candidate: "a", StatusCode: 200},
		{Candidate: "b", Error: errors.New("refused")},
		{Candidate: "c", StatusCode: 302, Success: true},
	} {
		tally(&stats, &a)
	}
	if stats.Attempts != 3 || stats.Failed != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Found) != 1 || stats.Found[0] != "c" {
		t.Errorf("found = %v", stats.Found)
	}
}

func TestWithPlaceholder(t *testing.T) {
	srvOpts := &config.Options{Placeholder: "FUZZ"}
	if got := placeholderOf(srvOpts); got != "FUZZ" {
		t.Errorf("placeholderOf = %q", got)
	}
	if got := placeholderOf(&config.Options{}); got != "<PASS>" {
		t.Errorf("default placeholder = %q", got)
	}
}
