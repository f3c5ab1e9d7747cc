package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ChaosMode defines the type of chaos to inject
type ChaosMode int

const (
	// ChaosNone forwards requests untouched
	ChaosNone ChaosMode = iota

	// ChaosConnectionReset fails the round trip outright
	ChaosConnectionReset

	// ChaosPartialRead forwards the request but cuts the body off mid-read
	ChaosPartialRead

	// ChaosSlowResponse delays the response by Config.Delay
	ChaosSlowResponse

	// ChaosMalformedResponse answers 200 with a body that is not JSON
	ChaosMalformedResponse

	// ChaosEmptyBody answers 200 with an empty body
	ChaosEmptyBody

	// ChaosOversizedBody answers 200 with a body larger than the client reads
	ChaosOversizedBody

	// ChaosWrongShape answers 200 with valid JSON of an unexpected shape
	ChaosWrongShape

	// ChaosProxyError answers 502 with an HTML error page
	ChaosProxyError

	// ChaosIntermittent randomly applies one of the modes above
	ChaosIntermittent
)

// OversizedBodySize is the body size produced by ChaosOversizedBody.
const OversizedBodySize = 15 * 1024 * 1024

// ChaosConfig configures the chaos transport behavior
type ChaosConfig struct {
	// Mode determines which type of chaos to inject
	Mode ChaosMode

	// FailureRate determines probability of failure (0.0 to 1.0)
	// Only used for ChaosIntermittent mode
	FailureRate float64

	// Delay is used by ChaosSlowResponse
	Delay time.Duration

	// PartialReadBytes specifies how many bytes to deliver before failing
	// Only used for ChaosPartialRead mode
	PartialReadBytes int

	// Seed makes ChaosIntermittent deterministic
	Seed int64
}

// ChaosTransport wraps an http.RoundTripper and injects failures
type ChaosTransport struct {
	next       http.RoundTripper
	config     ChaosConfig
	requestNum atomic.Uint64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewChaosTransport creates a chaos transport in front of next. A nil next
// uses http.DefaultTransport.
func NewChaosTransport(next http.RoundTripper, config ChaosConfig) *ChaosTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &ChaosTransport{
		next:   next,
		config: config,
		rnd:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Client returns an http.Client using the chaos transport
func (c *ChaosTransport) Client() *http.Client {
	return &http.Client{Transport: c, Timeout: 30 * time.Second}
}

// Requests returns the number of round trips attempted
func (c *ChaosTransport) Requests() uint64 {
	return c.requestNum.Load()
}

func (c *ChaosTransport) pickMode() ChaosMode {
	if c.config.Mode != ChaosIntermittent {
		return c.config.Mode
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rnd.Float64() >= c.config.FailureRate {
		return ChaosNone
	}
	modes := []ChaosMode{
		ChaosConnectionReset,
		ChaosPartialRead,
		ChaosMalformedResponse,
		ChaosEmptyBody,
		ChaosWrongShape,
		ChaosProxyError,
	}
	return modes[c.rnd.Intn(len(modes))]
}

// RoundTrip implements http.RoundTripper
func (c *ChaosTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requestNum.Add(1)

	switch c.pickMode() {
	case ChaosConnectionReset:
		return nil, errors.New("connection reset by peer")

	case ChaosPartialRead:
		resp, err := c.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		partialSize := c.config.PartialReadBytes
		if partialSize <= 0 || partialSize >= len(bodyBytes) {
			partialSize = len(bodyBytes) / 2
		}
		resp.Body = &partialReadCloser{reader: bytes.NewReader(bodyBytes[:partialSize]), failAfter: partialSize}
		resp.ContentLength = -1
		return resp, nil

	case ChaosSlowResponse:
		select {
		case <-time.After(c.config.Delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
		return c.next.RoundTrip(req)

	case ChaosMalformedResponse:
		return NewMockResponseBuilder().WithBody("This is not JSON\x00\x01\x02").Build(req), nil

	case ChaosEmptyBody:
		return NewMockResponseBuilder().Build(req), nil

	case ChaosOversizedBody:
		large := make([]byte, OversizedBodySize)
		for i := range large {
			large[i] = byte('A' + (i % 26))
		}
		return NewMockResponseBuilder().WithBodyBytes(large).Build(req), nil

	case ChaosWrongShape:
		return NewMockResponseBuilder().
			WithHeader("Content-Type", "application/json").
			WithBody(`{"kind": "Listing", "data": {"children": []}}`).
			Build(req), nil

	case ChaosProxyError:
		return NewMockResponseBuilder().
			WithStatus(http.StatusBadGateway).
			WithHeader("Content-Type", "text/html").
			WithBody("<html><body><h1>502 Bad Gateway</h1></body></html>").
			Build(req), nil

	default:
		return c.next.RoundTrip(req)
	}
}

// partialReadCloser is an io.ReadCloser that fails after reading a certain amount
type partialReadCloser struct {
	reader    io.Reader
	failAfter int
	totalRead int
}

func (p *partialReadCloser) Read(buf []byte) (int, error) {
	if p.totalRead >= p.failAfter {
		return 0, errors.New("connection reset during read")
	}

	n, err := p.reader.Read(buf)
	p.totalRead += n

	if p.totalRead >= p.failAfter {
		return n, errors.New("connection reset during read")
	}

	return n, err
}

func (p *partialReadCloser) Close() error {
	return nil
}

// MockResponseBuilder helps build custom mock responses
type MockResponseBuilder struct {
	status  int
	body    []byte
	headers map[string]string
}

// NewMockResponseBuilder creates a new mock response builder
func NewMockResponseBuilder() *MockResponseBuilder {
	return &MockResponseBuilder{
		status:  http.StatusOK,
		headers: make(map[string]string),
	}
}

// WithStatus sets the HTTP status code
func (b *MockResponseBuilder) WithStatus(code int) *MockResponseBuilder {
	b.status = code
	return b
}

// WithBody sets the response body
func (b *MockResponseBuilder) WithBody(body string) *MockResponseBuilder {
	b.body = []byte(body)
	return b
}

// WithBodyBytes sets the response body without copying
func (b *MockResponseBuilder) WithBodyBytes(body []byte) *MockResponseBuilder {
	b.body = body
	return b
}

// WithHeader adds a header to the response
func (b *MockResponseBuilder) WithHeader(key, value string) *MockResponseBuilder {
	b.headers[key] = value
	return b
}

// Build creates the HTTP response
func (b *MockResponseBuilder) Build(req *http.Request) *http.Response {
	header := make(http.Header)
	for k, v := range b.headers {
		header.Set(k, v)
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", b.status, http.StatusText(b.status)),
		StatusCode:    b.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Body:          io.NopCloser(bytes.NewReader(b.body)),
		ContentLength: int64(len(b.body)),
		Request:       req,
		Header:        header,
	}
}

