package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.Client(), server.URL+"/", "test-agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c, server
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{name: "unparseable", baseURL: "://bad"},
		{name: "unsupported scheme", baseURL: "ftp://discuit.org"},
		{name: "missing host", baseURL: "https://"},
		{name: "empty", baseURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(nil, tt.baseURL, "agent")
			if err == nil {
				t.Fatal("expected error for invalid base URL")
			}
			var configErr *pkgerrs.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if configErr.Field != "BaseURL" {
				t.Errorf("expected field BaseURL, got %q", configErr.Field)
			}
		})
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient(nil, "https://discuit.org///", "agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.BaseURL.String(); got != "https://discuit.org" {
		t.Errorf("expected trailing slashes trimmed, got %q", got)
	}
	if got := c.URL("/api/_initial", nil); got != "https://discuit.org/api/_initial" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestNewClient_DoesNotMutateCallerClient(t *testing.T) {
	callerJar := &recordingJar{}
	hc := &http.Client{Jar: callerJar, Timeout: 5 * time.Second}

	c, err := NewClient(hc, "https://discuit.org", "agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if hc.Jar != callerJar {
		t.Error("caller's jar was replaced")
	}
	if c.client.Jar != nil {
		t.Error("transport copy should not carry a jar")
	}
	if c.client.Timeout != 5*time.Second {
		t.Errorf("expected timeout to be preserved, got %v", c.client.Timeout)
	}
}

func TestClient_URLWithBasePathAndQuery(t *testing.T) {
	c, err := NewClient(nil, "http://localhost:8080/discuit/", "agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	got := c.URL("/api/posts", url.Values{"sort": {"hot"}, "limit": {"10"}})
	want := "http://localhost:8080/discuit/api/posts?limit=10&sort=hot"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestClient_URLKeepsEscapedSegments(t *testing.T) {
	c, err := NewClient(nil, "https://discuit.org/base%20dir", "agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	tests := []struct {
		segment string
		want    string
	}{
		{segment: "previnder", want: "https://discuit.org/base%20dir/api/users/previnder"},
		{segment: "100%", want: "https://discuit.org/base%20dir/api/users/100%25"},
		{segment: "a/b", want: "https://discuit.org/base%20dir/api/users/a%2Fb"},
		{segment: "a b", want: "https://discuit.org/base%20dir/api/users/a%20b"},
	}

	for _, tt := range tests {
		got := c.URL("/api/users/"+url.PathEscape(tt.segment), nil)
		if got != tt.want {
			t.Errorf("segment %q: expected %q, got %q", tt.segment, tt.want, got)
		}

		req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/users/"+url.PathEscape(tt.segment), nil, nil, nil)
		if err != nil {
			t.Fatalf("NewRequest returned error: %v", err)
		}
		if req.URL.String() != tt.want {
			t.Errorf("segment %q: request URL %q, want %q", tt.segment, req.URL.String(), tt.want)
		}
	}
}

func TestClient_NewRequestSetsHeaders(t *testing.T) {
	c, err := NewClient(nil, "https://discuit.org", "my-agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	headers := http.Header{}
	headers.Set("X-Csrf-Token", "tok")
	headers.Set("Cookie", "csrftoken=tok; SID=sid")

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/_user", nil, nil, headers)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}

	if got := req.Header.Get("User-Agent"); got != "my-agent" {
		t.Errorf("expected user agent %q, got %q", "my-agent", got)
	}
	if got := req.Header.Get("Accept"); got != "application/json" {
		t.Errorf("expected JSON accept header, got %q", got)
	}
	if got := req.Header.Get("X-Csrf-Token"); got != "tok" {
		t.Errorf("expected csrf header, got %q", got)
	}
	if got := req.Header.Get("Cookie"); got != "csrftoken=tok; SID=sid" {
		t.Errorf("unexpected cookie header %q", got)
	}
}

func TestClient_ExplicitCookiesWinOverJar(t *testing.T) {
	var gotCookies string
	c, server := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotCookies = r.Header.Get("Cookie")
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "jar-sid", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "theme", Value: "dark", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	// First request populates the jar.
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/_initial", nil, nil, nil)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	if _, err := c.Do(req); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	headers := http.Header{}
	headers.Set("Cookie", "csrftoken=c; SID=explicit")
	req, err = c.NewRequest(context.Background(), http.MethodGet, "/api/_user", nil, nil, headers)
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	if _, err := c.Do(req); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	if strings.Count(gotCookies, "SID=") != 1 {
		t.Errorf("expected exactly one SID cookie, got %q", gotCookies)
	}
	if !strings.Contains(gotCookies, "SID=explicit") {
		t.Errorf("expected explicit SID to win, got %q", gotCookies)
	}
	if !strings.Contains(gotCookies, "theme=dark") {
		t.Errorf("expected unrelated jar cookie to be sent, got %q", gotCookies)
	}

	if len(c.Cookies()) != 2 {
		t.Errorf("expected 2 jar cookies for %s, got %d", server.URL, len(c.Cookies()))
	}
}

func TestClient_ResetCookies(t *testing.T) {
	c, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "s", Path: "/"})
	})

	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/", nil, nil, nil)
	if _, err := c.Do(req); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(c.Cookies()) == 0 {
		t.Fatal("expected jar to hold cookies")
	}

	if err := c.ResetCookies(); err != nil {
		t.Fatalf("ResetCookies returned error: %v", err)
	}
	if n := len(c.Cookies()); n != 0 {
		t.Errorf("expected empty jar after reset, got %d cookies", n)
	}
}

func TestClient_DoReturnsNon2xxAsResponse(t *testing.T) {
	c, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"status":404,"code":"user_not_found","message":"User not found."}`)
	})

	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/api/users/nobody", nil, nil, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp.IsSuccess() {
		t.Error("404 should not be a success")
	}
	if !strings.Contains(string(resp.Body), "user_not_found") {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestClient_DoLimitsBodySize(t *testing.T) {
	c, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("x", 1<<20)
		for i := 0; i < 11; i++ {
			io.WriteString(w, chunk)
		}
	})

	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/", nil, nil, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(resp.Body) != MaxResponseSize {
		t.Errorf("expected body capped at %d bytes, got %d", MaxResponseSize, len(resp.Body))
	}
}

func TestClient_DoTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c, err := NewClient(nil, baseURL, "agent")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/api/_initial", nil, nil, nil)
	_, err = c.Do(req)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var transportErr *pkgerrs.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if !strings.HasSuffix(transportErr.URL, "/api/_initial") {
		t.Errorf("unexpected URL in error %q", transportErr.URL)
	}
}

func TestClient_DoCancelledContext(t *testing.T) {
	c, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, _ := c.NewRequest(ctx, http.MethodGet, "/", nil, nil, nil)
	_, err := c.Do(req)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

type recordingJar struct{}

func (j *recordingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {}
func (j *recordingJar) Cookies(u *url.URL) []*http.Cookie         { return nil }
