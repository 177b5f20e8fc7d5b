package main

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
)

const fourpdaBaseURL = "https://4pda.to"

// pseudoHeaderOrder is the HTTP/2 pseudo-header order for all requests.
var pseudoHeaderOrder = []string{
	":method",
	":authority",
	":scheme",
	":path",
}

// RequestOptions carries the per-request knobs. The zero value is a plain
// GET with fingerprint headers only and no redirect following.
type RequestOptions struct {
	// Headers override or extend the fingerprint set; a caller value wins
	// over the fingerprint value at the same position.
	Headers map[string]string
	// Cookies are rendered into the Cookie header. The stored clearance
	// cookie is injected into a non-empty set, overwriting a same-name entry.
	Cookies map[string]string
	// Form, when set, turns the request into a URL-encoded form submission.
	Form url.Values
	// FollowRedirects enables redirect following for this one request.
	FollowRedirects bool
}

// Response is the typed result handed to the protocol layers: status, headers,
// the cookies the server set, and the fully read body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Cookies    map[string]string
	Body       []byte
}

// transport is the request surface the authentication engine and link
// resolver run on. Session is the production implementation; tests use stubs.
type transport interface {
	Request(method, rawURL string, opts RequestOptions) (*Response, error)
}

// Session is the single point of outbound HTTP: one fingerprinted client,
// ordered headers on every request, and block classification before any
// response reaches business logic. Not safe for concurrent use.
type Session struct {
	client tls_client.HttpClient
	config *Config
	fp     *fingerprint
	logger Logger
}

// NewSession opens a session over the credential store. Callers must Close
// it; pair with defer for release on all paths.
func NewSession(cfg *Config, logger Logger, proxyURL string) (*Session, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	client, err := NewClient(nil, proxyURL)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Session{
		client: client,
		config: cfg,
		fp:     newFingerprint(),
		logger: logger,
	}, nil
}

// Request performs one HTTP round-trip and classifies the response for a
// Cloudflare block before returning it.
func (s *Session) Request(method, rawURL string, opts RequestOptions) (*Response, error) {
	if s.client == nil {
		return nil, ErrSessionClosed
	}

	var body io.Reader
	if opts.Form != nil {
		body = strings.NewReader(opts.Form.Encode())
	}

	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return nil, err
	}

	header, order := s.buildHeaders(opts)
	if opts.Form != nil {
		header["Content-Type"] = []string{"application/x-www-form-urlencoded"}
		// Keep the Cookie header last, the way the browser sends it.
		if n := len(order); n > 0 && order[n-1] == "Cookie" {
			order = append(order[:n-1], "Content-Type", "Content-Length", "Cookie")
		} else {
			order = append(order, "Content-Type", "Content-Length")
		}
	}
	header[http.HeaderOrderKey] = order
	header[http.PHeaderOrderKey] = pseudoHeaderOrder
	req.Header = header

	s.client.SetFollowRedirect(opts.FollowRedirects)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debugf("%s %s -> error: %v", method, req.URL.Path, err)
		return nil, err
	}
	defer resp.Body.Close()
	s.logger.Debugf("%s %s -> %d", method, req.URL.Path, resp.StatusCode)

	if err := s.checkBlocked(resp); err != nil {
		// The raw response is worthless once Cloudflare has intercepted
		// it; discard instead of returning a half-usable body.
		io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	bodyBytes, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}

	cookies := map[string]string{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Cookies:    cookies,
		Body:       bodyBytes,
	}, nil
}

// Get performs a GET request.
func (s *Session) Get(rawURL string, opts RequestOptions) (*Response, error) {
	return s.Request(http.MethodGet, rawURL, opts)
}

// Post performs a POST request.
func (s *Session) Post(rawURL string, opts RequestOptions) (*Response, error) {
	return s.Request(http.MethodPost, rawURL, opts)
}

// Close releases the underlying client. A second Close is a lifecycle error.
func (s *Session) Close() error {
	if s.client == nil {
		return ErrSessionClosed
	}
	s.client.CloseIdleConnections()
	s.client = nil
	return nil
}

// buildHeaders merges the fingerprint's ordered header set with the caller's
// overrides (caller wins, position kept) and renders the cookie header.
func (s *Session) buildHeaders(opts RequestOptions) (http.Header, []string) {
	pairs := s.fp.Headers()

	header := make(http.Header, len(pairs)+len(opts.Headers)+1)
	order := make([]string, 0, len(pairs)+len(opts.Headers)+1)
	for _, p := range pairs {
		header[p.name] = []string{p.value}
		order = append(order, p.name)
	}
	for name, value := range opts.Headers {
		if _, ok := header[name]; !ok {
			order = append(order, name)
		}
		header[name] = []string{value}
	}

	if cookie := s.cookieHeader(opts.Cookies); cookie != "" {
		header["Cookie"] = []string{cookie}
		order = append(order, "Cookie")
	}

	return header, order
}

// cookieHeader renders the outgoing cookie set, injecting the stored
// clearance token into any non-empty set.
func (s *Session) cookieHeader(cookies map[string]string) string {
	if len(cookies) == 0 {
		return ""
	}

	merged := make(map[string]string, len(cookies)+1)
	for k, v := range cookies {
		merged[k] = v
	}
	if cf := s.config.GetCookie(clearanceCookie, ""); cf != "" {
		s.logger.Debugf("injecting %s from config", clearanceCookie)
		merged[clearanceCookie] = cf
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(merged[name])
	}
	return b.String()
}

// checkBlocked applies the block detector rule: 403 plus the Cf-Mitigated
// challenge marker means Cloudflare dropped the request before the forum saw
// it. The hint depends on whether a clearance token is configured at all.
func (s *Session) checkBlocked(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden || resp.Header.Get("Cf-Mitigated") != "challenge" {
		return nil
	}

	if strings.TrimSpace(s.config.GetCookie(clearanceCookie, "")) != "" {
		return &BlockedError{Hint: "the configured " + clearanceCookie + " no longer works; obtain a fresh one or remove it from the config"}
	}
	return &BlockedError{Hint: "obtain a " + clearanceCookie + " token in a real browser and add it to the config"}
}

// readResponseBody decompresses and reads the full response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	body := http.DecompressBody(resp)
	defer body.Close()
	return io.ReadAll(body)
}
