package match

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

func TestStatusMatcher(t *testing.T) {
	m := NewStatusMatcher([]int{301, 302})

	assert.True(t, m.Match(&scanner.Response{StatusCode: 302}))
	assert.False(t, m.Match(&scanner.Response{StatusCode: 200}))
	assert.Equal(t, "status[301 302]", m.Name())
}

func TestSizeMatcher(t *testing.T) {
	m := NewSizeMatcher([]int{0, 1234})

	assert.True(t, m.Match(&scanner.Response{Size: 1234}))
	assert.False(t, m.Match(&scanner.Response{Size: 5678}))
}

func TestBodyMatchers(t *testing.T) {
	resp := &scanner.Response{Body: []byte("<h1>Welcome back, admin</h1>")}

	assert.True(t, NewBodyMatcher("Welcome").Match(resp))
	assert.False(t, NewBodyMatcher("Invalid").Match(resp))
	assert.True(t, NewBodyExcluder("Invalid password").Match(resp))
	assert.False(t, NewBodyExcluder("admin").Match(resp))
}

func TestChainRequiresAll(t *testing.T) {
	chain := NewChain()
	chain.Add(NewStatusMatcher([]int{200}))
	chain.Add(NewBodyExcluder("Invalid password"))

	assert.True(t, chain.Match(&scanner.Response{StatusCode: 200, Body: []byte("hi admin")}))
	assert.False(t, chain.Match(&scanner.Response{StatusCode: 200, Body: []byte("Invalid password")}))
	assert.False(t, chain.Match(&scanner.Response{StatusCode: 302}))
	assert.Equal(t, []string{"status[200]", "body-exclude"}, chain.Names())
}

func TestEmptyChainMatchesNothing(t *testing.T) {
	chain := NewChain()
	assert.Zero(t, chain.Len())
	assert.False(t, chain.Func()(&scanner.Response{StatusCode: 302}))
}

func TestExprMatcher(t *testing.T) {
	m, err := NewExprMatcher(`status == 302 && location contains "/dashboard" && "set-cookie" in headers`)
	require.NoError(t, err)

	hdr := http.Header{}
	hdr.Set("Set-Cookie", "sid=1")
	assert.True(t, m.Match(&scanner.Response{StatusCode: 302, Location: "/dashboard", Header: hdr}))
	assert.False(t, m.Match(&scanner.Response{StatusCode: 302, Location: "/login?error=1", Header: hdr}))
	assert.False(t, m.Match(&scanner.Response{StatusCode: 302, Location: "/dashboard"}))
}

func TestExprMatcherBodyAndSize(t *testing.T) {
	m, err := NewExprMatcher(`status == 200 && !(body contains "Invalid") && size > 10`)
	require.NoError(t, err)

	assert.True(t, m.Match(&scanner.Response{StatusCode: 200, Body: []byte("dashboard page"), Size: 14}))
	assert.False(t, m.Match(&scanner.Response{StatusCode: 200, Body: []byte("Invalid login"), Size: 13}))
}

func TestExprMatcherRejectsNonBoolean(t *testing.T) {
	_, err := NewExprMatcher(`status + 1`)
	assert.Error(t, err)

	_, err = NewExprMatcher(`nosuchvar == 1`)
	assert.Error(t, err)
}
