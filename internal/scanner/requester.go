package scanner

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
	"golang.org/x/net/html/charset"

	"github.com/maxvaer/credfuzz/internal/template"
)

// Client backends.
const (
	ClientStandard = "standard"
	ClientFast     = "fast"
)

const defaultUserAgent = "credfuzz/1.0"

// Response holds the parsed HTTP response data.
type Response struct {
	StatusCode int
	Length     int   // characters after charset decoding
	Size       int64 // raw body bytes
	Body       []byte
	Header     http.Header
	Location   string
	URL        string
	Duration   time.Duration
}

// Requester sends one request. Each worker owns its own Requester so no
// connection state is shared between workers.
type Requester interface {
	Do(ctx context.Context, req template.Request) (*Response, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Type      string // ClientStandard or ClientFast
	Timeout   time.Duration
	Proxy     string
	UserAgent string // sent when the request carries no User-Agent
}

// Client is a Requester backed by net/http or fasthttp. Redirects are never
// followed.
type Client struct {
	standard  *http.Client
	fast      *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

// NewClient creates a Client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	c := &Client{timeout: cfg.Timeout, userAgent: ua}

	switch cfg.Type {
	case "", ClientStandard:
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			DialContext: (&net.Dialer{
				Timeout: cfg.Timeout,
			}).DialContext,
			MaxIdleConnsPerHost: 1,
		}
		if cfg.Proxy != "" {
			proxyURL, err := url.Parse(cfg.Proxy)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		c.standard = &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}

	case ClientFast:
		fc := &fasthttp.Client{
			TLSConfig:                     &tls.Config{InsecureSkipVerify: true},
			ReadTimeout:                   cfg.Timeout,
			WriteTimeout:                  cfg.Timeout,
			MaxConnsPerHost:               1,
			MaxIdleConnDuration:           cfg.Timeout,
			NoDefaultUserAgentHeader:      true,
			DisablePathNormalizing:        true,
			DisableHeaderNamesNormalizing: true,
		}
		if cfg.Proxy != "" {
			dial, err := fastProxyDialer(cfg.Proxy, cfg.Timeout)
			if err != nil {
				return nil, err
			}
			fc.Dial = dial
		}
		c.fast = fc

	default:
		return nil, fmt.Errorf("unknown client type %q (want %s or %s)", cfg.Type, ClientStandard, ClientFast)
	}
	return c, nil
}

func fastProxyDialer(proxy string, timeout time.Duration) (fasthttp.DialFunc, error) {
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
	}
	switch u.Scheme {
	case "socks5", "socks5h":
		return fasthttpproxy.FasthttpSocksDialer(proxy), nil
	case "http", "":
		addr := u.Host
		if u.User != nil {
			addr = u.User.String() + "@" + u.Host
		}
		return fasthttpproxy.FasthttpHTTPDialerTimeout(addr, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q for the fast client", u.Scheme)
	}
}

// skipHeader reports headers that are derived by the transport and must
// not be replayed from the template.
func skipHeader(name string) bool {
	switch strings.ToLower(name) {
	case "content-length", "accept-encoding", "connection", "transfer-encoding":
		return true
	}
	return false
}

// Do sends req and returns the parsed response.
func (c *Client) Do(ctx context.Context, req template.Request) (*Response, error) {
	if c.fast != nil {
		return c.doFast(ctx, req)
	}
	return c.doStandard(ctx, req)
}

func (c *Client) doStandard(ctx context.Context, r template.Request) (*Response, error) {
	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}

	for _, h := range r.Headers {
		switch {
		case strings.EqualFold(h.Name, "Host"):
			req.Host = h.Value
		case skipHeader(h.Name):
		default:
			req.Header.Add(h.Name, h.Value)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.standard.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Length:     decodedLength(data, resp.Header.Get("Content-Type")),
		Size:       int64(len(data)),
		Body:       data,
		Header:     resp.Header,
		Location:   resp.Header.Get("Location"),
		URL:        r.URL,
		Duration:   time.Since(start),
	}, nil
}

func (c *Client) doFast(ctx context.Context, r template.Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.URL)
	req.Header.SetMethod(r.Method)
	req.Header.DisableNormalizing()
	hasUA := false
	for _, h := range r.Headers {
		switch {
		case strings.EqualFold(h.Name, "Host"):
			req.UseHostHeader = true
			req.Header.SetHost(h.Value)
		case skipHeader(h.Name):
		default:
			if strings.EqualFold(h.Name, "User-Agent") {
				hasUA = true
			}
			req.Header.Add(h.Name, h.Value)
		}
	}
	if !hasUA {
		req.Header.SetUserAgent(c.userAgent)
	}
	if r.Body != "" {
		req.SetBodyString(r.Body)
	}

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}

	start := time.Now()
	if err := c.fast.DoTimeout(req, resp, timeout); err != nil {
		return nil, err
	}

	data := append([]byte(nil), resp.Body()...)
	header := make(http.Header)
	resp.Header.VisitAll(func(k, v []byte) {
		header.Add(string(k), string(v))
	})

	return &Response{
		StatusCode: resp.StatusCode(),
		Length:     decodedLength(data, string(resp.Header.ContentType())),
		Size:       int64(len(data)),
		Body:       data,
		Header:     header,
		Location:   string(resp.Header.Peek("Location")),
		URL:        r.URL,
		Duration:   time.Since(start),
	}, nil
}

// decodedLength counts characters in body after decoding it with the
// charset declared in contentType (or sniffed from the body).
func decodedLength(body []byte, contentType string) int {
	if len(body) == 0 {
		return 0
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return utf8.RuneCount(body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return utf8.RuneCount(body)
	}
	return utf8.RuneCount(decoded)
}
