package match

import (
	"bytes"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// BodyMatcher accepts responses whose body contains needle.
type BodyMatcher struct {
	needle []byte
}

// NewBodyMatcher creates a matcher that requires the body to contain needle.
func NewBodyMatcher(needle string) *BodyMatcher {
	return &BodyMatcher{needle: []byte(needle)}
}

func (m *BodyMatcher) Name() string { return "body-match" }

func (m *BodyMatcher) Match(resp *scanner.Response) bool {
	return bytes.Contains(resp.Body, m.needle)
}

// BodyExcluder rejects responses whose body contains needle, typically the
// login form's error message.
type BodyExcluder struct {
	needle []byte
}

// NewBodyExcluder creates a matcher that rejects bodies containing needle.
func NewBodyExcluder(needle string) *BodyExcluder {
	return &BodyExcluder{needle: []byte(needle)}
}

func (m *BodyExcluder) Name() string { return "body-exclude" }

func (m *BodyExcluder) Match(resp *scanner.Response) bool {
	return !bytes.Contains(resp.Body, m.needle)
}
