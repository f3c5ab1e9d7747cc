package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
)

// MaxResponseSize limits response body reads.
const MaxResponseSize = 10 * 1024 * 1024

// Client performs HTTP exchanges against a Discuit instance. It keeps a
// persistent cookie jar for the lifetime of the instance; cookies named
// explicitly on a request take precedence over jar cookies of the same name.
type Client struct {
	client    *http.Client
	jar       http.CookieJar
	BaseURL   *url.URL
	UserAgent string
}

// Response is a completed HTTP exchange with its body fully read.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient returns a new transport for the given base URL. Trailing slashes
// are stripped from the base URL. If a nil httpClient is provided,
// http.DefaultClient is used. The transport manages cookies itself, so any Jar
// set on httpClient is ignored.
func NewClient(httpClient *http.Client, baseURL string, userAgent string) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	trimmed := strings.TrimRight(baseURL, "/")
	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "BaseURL", Message: err.Error()}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, &pkgerrs.ConfigError{Field: "BaseURL", Message: fmt.Sprintf("unsupported scheme %q", parsedURL.Scheme)}
	}
	if parsedURL.Host == "" {
		return nil, &pkgerrs.ConfigError{Field: "BaseURL", Message: "host is required"}
	}

	jar, err := newJar()
	if err != nil {
		return nil, err
	}

	// Copy so the caller's client keeps its own jar and we never send cookies twice.
	hc := *httpClient
	hc.Jar = nil

	return &Client{
		client:    &hc,
		jar:       jar,
		BaseURL:   parsedURL,
		UserAgent: userAgent,
	}, nil
}

func newJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "HTTPClient", Message: "failed to create cookie jar: " + err.Error()}
	}
	return jar, nil
}

// URL resolves path and query against the base URL. path is in escaped
// form, with each dynamic segment passed through url.PathEscape.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.BaseURL
	raw := c.BaseURL.EscapedPath() + path
	if unescaped, err := url.PathUnescape(raw); err == nil {
		u.Path = unescaped
		u.RawPath = raw
	} else {
		u.Path = c.BaseURL.Path + path
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// NewRequest creates an API request for path (which must start with "/")
// relative to the base URL. Headers are copied onto the request; jar cookies
// are appended unless the headers already name a cookie of the same name.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, headers http.Header) (*http.Request, error) {
	target := c.URL(path, query)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &pkgerrs.TransportError{URL: target, Err: err}
	}

	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	explicit := make(map[string]bool)
	for _, cookie := range req.Cookies() {
		explicit[cookie.Name] = true
	}
	for _, cookie := range c.jar.Cookies(req.URL) {
		if !explicit[cookie.Name] {
			req.AddCookie(cookie)
		}
	}

	return req, nil
}

// Do sends the request and reads the whole response body. Any status code is
// a completed exchange; only failures to send or read are returned as errors.
func (c *Client) Do(req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &pkgerrs.TransportError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &pkgerrs.TransportError{URL: req.URL.String(), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	cookies := resp.Cookies()
	if len(cookies) > 0 {
		c.jar.SetCookies(req.URL, cookies)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Cookies:    cookies,
		Body:       body,
	}, nil
}

// Cookies returns the jar's cookies for the base URL.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.BaseURL)
}

// ResetCookies discards every stored cookie.
func (c *Client) ResetCookies() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	c.jar = jar
	return nil
}
