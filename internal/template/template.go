package template

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultPlaceholder is the token replaced by each candidate.
const DefaultPlaceholder = "<PASS>"

// Setup errors shared by every template producer.
var (
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrMissingHostHeader    = errors.New("missing Host header")
	ErrDuplicateHostHeader  = errors.New("more than one Host header")
	ErrUnsupportedMethod    = errors.New("unsupported HTTP method")
	ErrInvalidURL           = errors.New("invalid target URL")
)

var methods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"OPTIONS": {},
}

// Template is an immutable HTTP request with a substitutable placeholder.
// It is built once per run and shared read-only by all workers.
type Template struct {
	method      string
	url         string
	headers     Headers
	body        string
	placeholder string
}

// Request is one concrete request derived from a Template.
type Request struct {
	Method  string
	URL     string
	Headers Headers
	Body    string
}

// New validates the fields and returns a Template. Both the raw-request
// parser and the curl importer go through here.
func New(method, rawURL string, headers Headers, body string) (*Template, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if _, ok := methods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	hosts := 0
	for _, h := range headers {
		if strings.EqualFold(h.Name, "Host") {
			if strings.TrimSpace(h.Value) == "" {
				return nil, ErrMissingHostHeader
			}
			hosts++
		}
	}
	switch {
	case hosts == 0:
		return nil, ErrMissingHostHeader
	case hosts > 1:
		return nil, ErrDuplicateHostHeader
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w %q", ErrInvalidURL, rawURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment, u.RawFragment = "", ""

	return &Template{
		method:      method,
		url:         u.String(),
		headers:     headers.Clone(),
		body:        body,
		placeholder: DefaultPlaceholder,
	}, nil
}

func (t *Template) Method() string      { return t.method }
func (t *Template) URL() string         { return t.url }
func (t *Template) Body() string        { return t.body }
func (t *Template) Placeholder() string { return t.placeholder }

// Headers returns a copy of the ordered header list.
func (t *Template) Headers() Headers { return t.headers.Clone() }

// Host returns the Host header value.
func (t *Template) Host() string {
	v, _ := t.headers.Get("Host")
	return v
}

// PlaceholderCount reports how many times the placeholder occurs in the body.
func (t *Template) PlaceholderCount() int {
	if t.placeholder == "" {
		return 0
	}
	return strings.Count(t.body, t.placeholder)
}

// Instantiate returns a request whose body has every placeholder occurrence
// replaced by candidate. Method, URL and headers are copied unchanged.
func (t *Template) Instantiate(candidate string) Request {
	body := t.body
	if t.placeholder != "" {
		body = strings.ReplaceAll(body, t.placeholder, candidate)
	}
	return Request{
		Method:  t.method,
		URL:     t.url,
		Headers: t.headers.Clone(),
		Body:    body,
	}
}

// WithPlaceholder returns a copy using token as the placeholder.
func (t *Template) WithPlaceholder(token string) *Template {
	c := *t
	c.headers = t.headers.Clone()
	c.placeholder = token
	return &c
}

// WithScheme returns a copy whose URL uses scheme (http or https).
func (t *Template) WithScheme(scheme string) (*Template, error) {
	scheme = strings.ToLower(scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, scheme)
	}
	u, err := url.Parse(t.url)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, t.url, err)
	}
	u.Scheme = scheme
	c := *t
	c.headers = t.headers.Clone()
	c.url = u.String()
	return &c, nil
}

// Render formats the template as a raw HTTP/1.1 request. The request target
// is origin-form when the URL is https on the Host header's authority and
// absolute-form otherwise, so that parsing the output yields the same URL.
func (t *Template) Render() string {
	var b strings.Builder
	target := t.url
	if u, err := url.Parse(t.url); err == nil {
		if u.Scheme == "https" && strings.EqualFold(u.Host, t.Host()) {
			target = u.RequestURI()
		}
	}
	fmt.Fprintf(&b, "%s %s HTTP/1.1\n", t.method, target)
	for _, h := range t.headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	b.WriteString("\n")
	b.WriteString(t.body)
	return b.String()
}
