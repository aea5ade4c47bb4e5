package match

import "github.com/maxvaer/credfuzz/internal/scanner"

// Matcher decides whether a response counts as a successful login.
type Matcher interface {
	Name() string
	Match(resp *scanner.Response) bool
}

// Chain requires every matcher to accept. An empty chain accepts nothing.
type Chain struct {
	matchers []Matcher
}

// NewChain returns an empty matcher chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a matcher to the chain.
func (c *Chain) Add(m Matcher) {
	c.matchers = append(c.matchers, m)
}

// Len returns the number of matchers.
func (c *Chain) Len() int { return len(c.matchers) }

// Names lists the matchers in order, for the banner.
func (c *Chain) Names() []string {
	names := make([]string, len(c.matchers))
	for i, m := range c.matchers {
		names[i] = m.Name()
	}
	return names
}

// Match reports whether every matcher accepts resp.
func (c *Chain) Match(resp *scanner.Response) bool {
	if len(c.matchers) == 0 {
		return false
	}
	for _, m := range c.matchers {
		if !m.Match(resp) {
			return false
		}
	}
	return true
}

// Func adapts the chain to the worker pool's success predicate.
func (c *Chain) Func() scanner.SuccessFunc {
	return c.Match
}
