package match

import "github.com/maxvaer/credfuzz/internal/scanner"

// SizeMatcher accepts responses whose raw body size is one of the given
// values. Useful when failure and success share a status code.
type SizeMatcher struct {
	sizes map[int64]struct{}
}

// NewSizeMatcher creates a body size matcher.
func NewSizeMatcher(sizes []int) *SizeMatcher {
	m := &SizeMatcher{sizes: make(map[int64]struct{}, len(sizes))}
	for _, s := range sizes {
		m.sizes[int64(s)] = struct{}{}
	}
	return m
}

func (m *SizeMatcher) Name() string { return "size" }

func (m *SizeMatcher) Match(resp *scanner.Response) bool {
	_, ok := m.sizes[resp.Size]
	return ok
}
