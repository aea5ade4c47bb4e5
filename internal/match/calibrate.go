package match

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/maxvaer/credfuzz/internal/scanner"
	"github.com/maxvaer/credfuzz/internal/template"
)

// DefaultProbes is the number of calibration requests sent by Calibrate.
const DefaultProbes = 5

type matchMode int

const (
	matchHashExact   matchMode = iota // all probe bodies were byte-identical
	matchFuzzyLength                  // bodies varied but lengths converged
)

// baseline is the shape of a rejected login for one status code.
type baseline struct {
	statusCode int
	size       int64
	bodyHash   [16]byte
	wordCount  int
	lineCount  int
	location   string // set when every probe redirected to the same place
	mode       matchMode
}

// BaselineMatcher accepts responses that do not look like the failure
// responses observed during calibration.
type BaselineMatcher struct {
	baselines []baseline
	threshold int // byte tolerance for fuzzy length matching
}

type probeResult struct {
	statusCode int
	size       int64
	bodyHash   [16]byte
	wordCount  int
	lineCount  int
	location   string
}

func probeOf(resp *scanner.Response) probeResult {
	return probeResult{
		statusCode: resp.StatusCode,
		size:       resp.Size,
		bodyHash:   md5.Sum(resp.Body),
		wordCount:  len(bytes.Fields(resp.Body)),
		lineCount:  bytes.Count(resp.Body, []byte("\n")) + 1,
		location:   resp.Location,
	}
}

// Calibrate sends probes requests built from tmpl with random candidates
// that cannot be the password, and learns what a rejected login looks like.
// It fails when fewer than two probes get a response.
func Calibrate(ctx context.Context, req scanner.Requester, tmpl *template.Template, probes, threshold int) (*BaselineMatcher, error) {
	if probes < 2 {
		probes = DefaultProbes
	}
	var results []probeResult
	for _, candidate := range generateProbes(probes) {
		resp, err := req.Do(ctx, tmpl.Instantiate(candidate))
		if err != nil {
			continue
		}
		results = append(results, probeOf(resp))
	}
	return buildBaselineMatcher(results, probes, threshold)
}

func buildBaselineMatcher(results []probeResult, probeCount, threshold int) (*BaselineMatcher, error) {
	if len(results) < 2 {
		return nil, fmt.Errorf("only %d/%d calibration probes succeeded, need at least 2", len(results), probeCount)
	}

	groups := make(map[int][]probeResult)
	for _, r := range results {
		groups[r.statusCode] = append(groups[r.statusCode], r)
	}

	m := &BaselineMatcher{threshold: threshold}
	codes := make([]int, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		group := groups[code]
		if len(group) < 2 {
			continue
		}

		location := group[0].location
		sameHash := true
		for _, g := range group[1:] {
			if g.bodyHash != group[0].bodyHash {
				sameHash = false
			}
			if g.location != location {
				location = ""
			}
		}

		if sameHash {
			m.baselines = append(m.baselines, baseline{
				statusCode: code,
				size:       group[0].size,
				bodyHash:   group[0].bodyHash,
				wordCount:  group[0].wordCount,
				lineCount:  group[0].lineCount,
				location:   location,
				mode:       matchHashExact,
			})
			continue
		}

		sizes := make([]int64, len(group))
		words := make([]int, len(group))
		lines := make([]int, len(group))
		for i, g := range group {
			sizes[i] = g.size
			words[i] = g.wordCount
			lines[i] = g.lineCount
		}
		medianSize := median(sizes)

		converges := true
		for _, s := range sizes {
			if abs(s-medianSize) > int64(threshold) {
				converges = false
				break
			}
		}
		if converges {
			m.baselines = append(m.baselines, baseline{
				statusCode: code,
				size:       medianSize,
				wordCount:  median(words),
				lineCount:  median(lines),
				location:   location,
				mode:       matchFuzzyLength,
			})
		}
	}

	if len(m.baselines) == 0 {
		return nil, fmt.Errorf("calibration could not establish a failure baseline")
	}
	return m, nil
}

func (m *BaselineMatcher) Name() string { return "calibrated" }

// Describe summarizes the learned baselines for the log.
func (m *BaselineMatcher) Describe() string {
	parts := make([]string, len(m.baselines))
	for i, b := range m.baselines {
		kind := "exact"
		if b.mode == matchFuzzyLength {
			kind = fmt.Sprintf("~%d bytes", m.threshold)
		}
		parts[i] = fmt.Sprintf("[%d] size=%d (%s)", b.statusCode, b.size, kind)
		if b.location != "" {
			parts[i] += " -> " + b.location
		}
	}
	return strings.Join(parts, ", ")
}

// Match reports whether resp differs from every failure baseline.
func (m *BaselineMatcher) Match(resp *scanner.Response) bool {
	return !m.isFailure(probeOf(resp))
}

func (m *BaselineMatcher) isFailure(r probeResult) bool {
	for _, b := range m.baselines {
		if r.statusCode != b.statusCode {
			continue
		}
		if b.location != "" && r.location != b.location {
			return false
		}

		switch b.mode {
		case matchHashExact:
			return r.bodyHash == b.bodyHash

		case matchFuzzyLength:
			// At least two of size, word count and line count must agree,
			// which tolerates pages that echo the submitted candidate.
			sizeOK := abs(r.size-b.size) <= int64(m.threshold)
			wordOK := abs(r.wordCount-b.wordCount) <= max(5, b.wordCount/20)
			lineOK := abs(r.lineCount-b.lineCount) <= max(2, b.lineCount/10)

			agree := 0
			for _, ok := range []bool{sizeOK, wordOK, lineOK} {
				if ok {
					agree++
				}
			}
			return agree >= 2
		}
	}
	return false
}

// generateProbes creates random candidates that no real account uses.
func generateProbes(n int) []string {
	probes := make([]string, n)
	for i := range probes {
		buf := make([]byte, 8)
		_, _ = rand.Read(buf)
		probes[i] = "credfuzz_probe_" + hex.EncodeToString(buf)
	}
	return probes
}

func median[T int | int64](vals []T) T {
	sorted := make([]T, len(vals))
	copy(sorted, vals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

func abs[T int | int64](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
