package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginTemplate(t *testing.T, body string) *Template {
	t.Helper()
	tmpl, err := New("POST", "https://x.test/login", Headers{
		{Name: "Host", Value: "x.test"},
		{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
	}, body)
	require.NoError(t, err)
	return tmpl
}

func TestInstantiateReplacesEveryOccurrence(t *testing.T) {
	tmpl := loginTemplate(t, "user=<PASS>&pass=<PASS>")

	req := tmpl.Instantiate("hunter2")
	assert.Equal(t, "user=hunter2&pass=hunter2", req.Body)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https://x.test/login", req.URL)
	assert.Equal(t, 2, tmpl.PlaceholderCount())
}

func TestInstantiateLeavesTemplateUntouched(t *testing.T) {
	tmpl := loginTemplate(t, "user=admin&pass=<PASS>")
	before := *tmpl
	before.headers = tmpl.Headers()

	req := tmpl.Instantiate("a")
	req.Headers[0].Value = "evil.test"

	assert.Equal(t, &before, tmpl)
	assert.Equal(t, "x.test", tmpl.Host())
	assert.Equal(t, "user=admin&pass=<PASS>", tmpl.Body())
}

func TestInstantiateWithoutPlaceholder(t *testing.T) {
	tmpl := loginTemplate(t, "user=admin&pass=static")
	for _, c := range []string{"a", "b", "<PASS>", ""} {
		assert.Equal(t, "user=admin&pass=static", tmpl.Instantiate(c).Body)
	}
	assert.Zero(t, tmpl.PlaceholderCount())
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New("GET", "https://x.test/", Headers{{Name: "Accept", Value: "*/*"}}, "")
	assert.True(t, errors.Is(err, ErrMissingHostHeader))

	_, err = New("GET", "https://x.test/", Headers{{Name: "Host", Value: "  "}}, "")
	assert.ErrorIs(t, err, ErrMissingHostHeader)
}

func TestNewRejectsDuplicateHost(t *testing.T) {
	_, err := New("GET", "https://x.test/", Headers{
		{Name: "Host", Value: "x.test"},
		{Name: "host", Value: "y.test"},
	}, "")
	assert.ErrorIs(t, err, ErrDuplicateHostHeader)
}

func TestNewValidatesMethodAndURL(t *testing.T) {
	hdrs := Headers{{Name: "Host", Value: "x.test"}}

	_, err := New("BREW", "https://x.test/", hdrs, "")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = New("GET", "/relative", hdrs, "")
	assert.ErrorIs(t, err, ErrInvalidURL)

	tmpl, err := New("post", "https://x.test", hdrs, "")
	require.NoError(t, err)
	assert.Equal(t, "POST", tmpl.Method())
	assert.Equal(t, "https://x.test/", tmpl.URL())
}

func TestHeadersCaseInsensitive(t *testing.T) {
	h := Headers{{Name: "Content-Type", Value: "application/json"}}
	v, ok := h.Get("content-type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", v)
	assert.Equal(t, "Content-Type", h[h.Index("CONTENT-TYPE")].Name)
	assert.False(t, h.Has("Host"))
}

func TestWithScheme(t *testing.T) {
	tmpl := loginTemplate(t, "")
	plain, err := tmpl.WithScheme("http")
	require.NoError(t, err)
	assert.Equal(t, "http://x.test/login", plain.URL())
	assert.Equal(t, "https://x.test/login", tmpl.URL())

	_, err = tmpl.WithScheme("ftp")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestWithPlaceholder(t *testing.T) {
	tmpl := loginTemplate(t, "pass=FUZZ")
	assert.Equal(t, "pass=FUZZ", tmpl.Instantiate("x").Body)
	assert.Equal(t, "pass=x", tmpl.WithPlaceholder("FUZZ").Instantiate("x").Body)
}

func TestRender(t *testing.T) {
	tmpl := loginTemplate(t, "user=admin&pass=<PASS>")
	want := "POST /login HTTP/1.1\n" +
		"Host: x.test\n" +
		"Content-Type: application/x-www-form-urlencoded\n" +
		"\n" +
		"user=admin&pass=<PASS>"
	assert.Equal(t, want, tmpl.Render())

	plain, err := tmpl.WithScheme("http")
	require.NoError(t, err)
	assert.Contains(t, plain.Render(), "POST http://x.test/login HTTP/1.1\n")
}
