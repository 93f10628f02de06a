package request

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// HTTP client configuration timeouts
	TCPDialTimeout       = 5 * time.Second
	TCPKeepAliveInterval = 30 * time.Second
	TLSHandshakeTimeout  = 5 * time.Second
	IdleConnTimeout      = 90 * time.Second

	expectContinueTimeout = 1 * time.Second
)

// Header is one name/value pair. Templates carry headers as an ordered
// slice rather than a map so duplicate names survive and ordering matches
// what the user typed.
type Header struct {
	Name  string
	Value string
}

// BasicAuth carries credentials for the Authorization header.
type BasicAuth struct {
	Username string
	Password string
}

// Template is the immutable description of the request every worker
// replays. It is built once by the CLI layer and shared read-only across
// all in-flight executions; nothing mutates it after construction.
type Template struct {
	Method    string
	URL       string
	Headers   []Header
	Body      []byte
	UserAgent string
	Auth      *BasicAuth
	ProxyURL  string
	Timeout   time.Duration

	DisableCompression bool
	DisableKeepalive   bool
	DisableRedirects   bool
}

// ParseHeaderLine splits a "Name: value" header argument.
func ParseHeaderLine(line string) (Header, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return Header{}, fmt.Errorf("invalid header %q, expected 'Name: value'", line)
	}
	return Header{Name: strings.TrimSpace(parts[0]), Value: strings.TrimSpace(parts[1])}, nil
}

// ParseBasicAuth splits a "user:password" argument.
func ParseBasicAuth(arg string) (*BasicAuth, error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid basic auth %q, expected 'user:password'", arg)
	}
	return &BasicAuth{Username: parts[0], Password: parts[1]}, nil
}

// LoadBodyFile reads a request body from disk.
func LoadBodyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body file: %w", err)
	}
	return data, nil
}

// NewHTTPRequest materializes one http.Request from the template. Each
// execution gets its own request value and body reader; the template
// itself is never touched.
func (t *Template) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if len(t.Body) > 0 {
		body = bytes.NewReader(t.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, t.Method, t.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.UserAgent)
	for _, h := range t.Headers {
		req.Header.Add(h.Name, h.Value)
	}
	if t.Auth != nil {
		req.SetBasicAuth(t.Auth.Username, t.Auth.Password)
	}
	if t.DisableKeepalive {
		req.Close = true
	}

	return req, nil
}

// BuildClient creates the shared HTTP client used by all workers, with the
// connection pool sized to the concurrency level so keep-alive reuse keeps
// up with the permit pool.
func (t *Template) BuildClient(concurrency int) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        concurrency,
		MaxIdleConnsPerHost: concurrency,
		MaxConnsPerHost:     concurrency * 2,
		IdleConnTimeout:     IdleConnTimeout,
		DisableKeepAlives:   t.DisableKeepalive,
		DisableCompression:  t.DisableCompression,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
	}

	if t.ProxyURL != "" {
		// http, https and socks5 schemes are all handled by the transport
		proxyURL, err := url.Parse(t.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{Transport: transport}
	if t.DisableRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}
