package match

import (
	"fmt"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// StatusMatcher accepts responses with one of the given status codes.
type StatusMatcher struct {
	codes map[int]struct{}
	name  string
}

// NewStatusMatcher creates a status code matcher.
func NewStatusMatcher(codes []int) *StatusMatcher {
	m := &StatusMatcher{
		codes: make(map[int]struct{}, len(codes)),
		name:  fmt.Sprintf("status%v", codes),
	}
	for _, code := range codes {
		m.codes[code] = struct{}{}
	}
	return m
}

func (m *StatusMatcher) Name() string { return m.name }

func (m *StatusMatcher) Match(resp *scanner.Response) bool {
	_, ok := m.codes[resp.StatusCode]
	return ok
}
