package reqparse

import (
	"fmt"
	"os"
	"strings"

	"github.com/maxvaer/credfuzz/internal/template"
)

// Parse reads a raw HTTP request (e.g. a Burp Suite export) and returns the
// request template. The first line must be "METHOD TARGET VERSION", headers
// run until the first blank line and every remaining line is concatenated,
// without separators, into the body.
func Parse(text string) (*template.Template, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	requestLine := lines[0]
	parts := strings.Fields(requestLine)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", template.ErrMalformedRequestLine, requestLine)
	}
	method, target := parts[0], parts[1]

	var headers template.Headers
	bodyStart := len(lines)
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			bodyStart = i + 1
			break
		}
		colonIdx := strings.Index(line, ":")
		if colonIdx < 0 {
			continue
		}
		headers = append(headers, template.Header{
			Name:  strings.TrimSpace(line[:colonIdx]),
			Value: strings.TrimSpace(line[colonIdx+1:]),
		})
	}

	var body string
	if bodyStart < len(lines) {
		body = strings.TrimSpace(strings.Join(lines[bodyStart:], ""))
	}

	// Some proxies write absolute-form targets; use them verbatim.
	rawURL := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		host, _ := headers.Get("Host")
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		rawURL = "https://" + host + target
	}

	return template.New(method, rawURL, headers, body)
}

// ParseFile reads and parses a raw request file.
func ParseFile(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	tmpl, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tmpl, nil
}

// WriteFile stores tmpl as raw request text so it can be reviewed and
// edited before a run.
func WriteFile(path string, tmpl *template.Template) error {
	if err := os.WriteFile(path, []byte(tmpl.Render()), 0644); err != nil {
		return fmt.Errorf("writing request file: %w", err)
	}
	return nil
}
