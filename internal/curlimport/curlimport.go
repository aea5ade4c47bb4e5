package curlimport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/maxvaer/credfuzz/internal/template"
)

// ErrCurlURLNotFound is returned when the command has no quoted URL argument.
var ErrCurlURLNotFound = errors.New("no quoted URL found in curl command")

// Options that consume the following word. Only the ones that change the
// request are interpreted, the rest are skipped with their value.
var valueOptions = map[string]string{
	"-H":       "header",
	"--header": "header",
	"-b":       "cookie",
	"--cookie": "cookie",

	"-d":               "data",
	"--data":           "data",
	"--data-raw":       "data",
	"--data-binary":    "data",
	"--data-ascii":     "data",
	"--data-urlencode": "data",

	"-A":           "user-agent",
	"--user-agent": "user-agent",
	"-u":           "user",
	"--user":       "user",
	"--url":        "url",
}

// skipOptions take a value that does not affect the template.
var skipOptions = []string{
	"-X", "--request", "-e", "--referer", "-o", "--output", "-m", "--max-time",
	"--connect-timeout", "-x", "--proxy", "-w", "--write-out", "-F", "--form",
	"--resolve", "--cacert", "-E", "--cert", "--key", "--retry", "-r", "--range",
}

func init() {
	for _, opt := range skipOptions {
		valueOptions[opt] = "skip"
	}
}

type command struct {
	url       string
	headers   template.Headers
	cookie    string
	hasCookie bool
	data      []string
	hasData   bool
	userAgent string
	user      string
}

// Import converts a curl invocation into a request template. The method is
// POST when a data option is present and GET otherwise. A Cookie header is
// synthesized from -b after the explicit headers, and a Host header taken
// from the URL is inserted first when none was given.
func Import(text string) (*template.Template, error) {
	words, err := splitWords(joinContinuations(text))
	if err != nil {
		return nil, fmt.Errorf("tokenizing curl command: %w", err)
	}

	start := -1
	for i, w := range words {
		if !w.quoted && (w.text == "curl" || strings.HasSuffix(w.text, "/curl")) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, ErrCurlURLNotFound
	}

	cmd := &command{}
	for i := start; i < len(words); i++ {
		w := words[i]
		if w.quoted || !strings.HasPrefix(w.text, "-") || w.text == "-" {
			// A quoted word right after curl is always the URL. Later
			// ones may be values of options not listed above.
			if cmd.url == "" && w.quoted && (i == start || looksLikeURL(w.text)) {
				cmd.url = w.text
			}
			continue
		}

		name, value, attached := splitAttached(w.text)
		kind, ok := valueOptions[name]
		if !ok {
			continue
		}
		if !attached {
			if i+1 >= len(words) {
				break
			}
			i++
			value = words[i].text
		}
		cmd.apply(kind, value)
	}

	if cmd.url == "" {
		return nil, ErrCurlURLNotFound
	}
	return cmd.template()
}

// ImportFile reads a file holding one curl command and imports it.
func ImportFile(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curl file: %w", err)
	}
	tmpl, err := Import(string(data))
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	return tmpl, nil
}

// looksLikeURL reports whether s has a scheme or a host part with a dot,
// a port or the name localhost.
func looksLikeURL(s string) bool {
	if strings.Contains(s, "://") {
		return true
	}
	host := s
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return host == "localhost" || (strings.ContainsAny(host, ".:") && !strings.ContainsAny(host, " \t="))
}

// splitAttached handles short options glued to their value, e.g. -XPOST.
func splitAttached(word string) (name, value string, attached bool) {
	if strings.HasPrefix(word, "--") || len(word) <= 2 {
		return word, "", false
	}
	if _, ok := valueOptions[word[:2]]; ok {
		return word[:2], word[2:], true
	}
	return word, "", false
}

func (c *command) apply(kind, value string) {
	switch kind {
	case "header":
		colonIdx := strings.Index(value, ":")
		if colonIdx < 0 {
			return
		}
		c.headers = append(c.headers, template.Header{
			Name:  strings.TrimSpace(value[:colonIdx]),
			Value: strings.TrimSpace(value[colonIdx+1:]),
		})
	case "cookie":
		if !c.hasCookie {
			c.cookie, c.hasCookie = value, true
		}
	case "data":
		c.data = append(c.data, value)
		c.hasData = true
	case "user-agent":
		c.userAgent = value
	case "user":
		c.user = value
	case "url":
		if c.url == "" {
			c.url = value
		}
	}
}

func (c *command) template() (*template.Template, error) {
	rawURL := c.url
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	method := "GET"
	if c.hasData {
		method = "POST"
	}

	headers := c.headers.Clone()
	if c.userAgent != "" && !headers.Has("User-Agent") {
		headers = append(headers, template.Header{Name: "User-Agent", Value: c.userAgent})
	}
	if c.user != "" && !headers.Has("Authorization") {
		token := base64.StdEncoding.EncodeToString([]byte(c.user))
		headers = append(headers, template.Header{Name: "Authorization", Value: "Basic " + token})
	}
	if c.hasCookie {
		headers = append(headers, template.Header{Name: "Cookie", Value: c.cookie})
	}
	if !headers.Has("Host") {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w %q", template.ErrInvalidURL, c.url)
		}
		headers = append(template.Headers{{Name: "Host", Value: u.Host}}, headers...)
	}

	body := strings.Join(c.data, "&")
	body = strings.TrimSpace(strings.ReplaceAll(body, `\n`, ""))

	return template.New(method, rawURL, headers, body)
}
