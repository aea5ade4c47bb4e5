package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntVarP(&opts.Threads, "threads", "t", 10, "")
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "")
	fs.StringVar(&opts.MatchBody, "match-body", "", "")
	fs.StringVar(&opts.Client, "client", "standard", "")
	fs.BoolVar(&opts.NoConfirm, "no-confirm", false, "")
	fs.StringSliceVar(new([]string), "tags", nil, "")
	fs.StringVar(&opts.ConfigFile, "config", "", "")
	return fs
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApplyFile_YAML(t *testing.T) {
	var opts Options
	fs := testFlags(&opts)
	require.NoError(t, fs.Parse([]string{"--threads", "3"}))

	path := writeConfig(t, "cfg.yaml", "threads: 50\ntimeout: 2s\nmatch-body: Welcome\nno-confirm: true\ntags:\n  - a\n  - b\n")
	require.NoError(t, ApplyFile(path, fs))

	assert.Equal(t, 3, opts.Threads, "command-line flag wins")
	assert.Equal(t, 2*time.Second, opts.Timeout)
	assert.Equal(t, "Welcome", opts.MatchBody)
	assert.True(t, opts.NoConfirm)
	tags, _ := fs.GetStringSlice("tags")
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestApplyFile_JSON(t *testing.T) {
	var opts Options
	fs := testFlags(&opts)
	require.NoError(t, fs.Parse(nil))

	path := writeConfig(t, "cfg.json", `{"client": "fast", "threads": 4}`)
	require.NoError(t, ApplyFile(path, fs))
	assert.Equal(t, "fast", opts.Client)
	assert.Equal(t, 4, opts.Threads)
}

func TestApplyFile_UnknownKey(t *testing.T) {
	var opts Options
	fs := testFlags(&opts)
	require.NoError(t, fs.Parse(nil))

	path := writeConfig(t, "cfg.yaml", "bogus: 1\n")
	assert.ErrorContains(t, ApplyFile(path, fs), `unknown option "bogus"`)
}

func TestApplyFile_BadValue(t *testing.T) {
	var opts Options
	fs := testFlags(&opts)
	require.NoError(t, fs.Parse(nil))

	path := writeConfig(t, "cfg.yaml", "threads: many\n")
	assert.Error(t, ApplyFile(path, fs))
}

func TestApplyFile_Missing(t *testing.T) {
	var opts Options
	fs := testFlags(&opts)
	assert.Error(t, ApplyFile(filepath.Join(t.TempDir(), "nope.yaml"), fs))
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 10, d.Threads)
	assert.Equal(t, 5*time.Second, d.Timeout)
	assert.Equal(t, []int{302}, d.SuccessStatus)
	assert.Equal(t, "<PASS>", d.Placeholder)
	assert.Equal(t, DefaultRequestFile, d.RequestFile)
}
