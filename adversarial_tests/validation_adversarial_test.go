package adversarial_tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	discuit "github.com/jamesprial/go-discuit-api-wrapper"
	"github.com/jamesprial/go-discuit-api-wrapper/adversarial_tests/helpers"
	"github.com/jamesprial/go-discuit-api-wrapper/internal"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/discuittest"
	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

func newClient(t *testing.T, srv *discuittest.Server) *discuit.Client {
	t.Helper()
	client, err := discuit.NewClient(&discuit.Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func expectConfigError(t *testing.T, label string, err error, field string) {
	t.Helper()
	var configErr *pkgerrs.ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("%s: expected ConfigError, got %T: %v", label, err, err)
		return
	}
	if configErr.Field != field {
		t.Errorf("%s: Field = %q, want %q", label, configErr.Field, field)
	}
}

// TestUsernameFuzzing checks that hostile usernames are rejected before any
// request could splice them into a path.
func TestUsernameFuzzing(t *testing.T) {
	srv := discuittest.New(t)
	client := newClient(t, srv)
	ctx := context.Background()

	for _, name := range helpers.NewFuzzer(42).FuzzUsername() {
		_, err := client.GetUser(ctx, name)
		expectConfigError(t, "GetUser "+name, err, "username")

		_, err = client.GetUserFeed(ctx, &types.FeedRequest{Username: name})
		expectConfigError(t, "GetUserFeed "+name, err, "username")
	}

	if n := srv.RequestCount(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

// TestCommunityFuzzing checks that whitespace in a community filter is
// rejected and that other metacharacters reach the server encoded.
func TestCommunityFuzzing(t *testing.T) {
	srv := discuittest.New(t)
	client := newClient(t, srv)
	ctx := context.Background()
	fuzzer := helpers.NewFuzzer(42)

	for _, community := range fuzzer.FuzzCommunity() {
		_, err := client.GetPosts(ctx, &types.PostsRequest{Community: community})
		expectConfigError(t, "community "+community, err, "community")
	}
	if n := srv.RequestCount(); n != 0 {
		t.Fatalf("server saw %d requests for rejected communities", n)
	}

	for _, community := range fuzzer.FuzzQuerySafeCommunity() {
		result, err := client.GetPosts(ctx, &types.PostsRequest{Community: community})
		if err != nil {
			t.Errorf("community %q: unexpected error: %v", community, err)
			continue
		}
		if result.Page == nil {
			t.Errorf("community %q: expected a page, got %+v", community, result.Error)
		}

		req, ok := srv.LastRequest()
		if !ok {
			t.Fatal("no request recorded")
		}
		if got := req.Query.Get("community"); got != community {
			t.Errorf("community = %q, want %q", got, community)
		}
		if got := req.Query["sort"]; len(got) != 1 || got[0] != "hot" {
			t.Errorf("community %q: sort = %v, want [hot]", community, got)
		}
	}
}

// TestSortFuzzing checks that near-miss sort values are rejected locally.
func TestSortFuzzing(t *testing.T) {
	srv := discuittest.New(t)
	client := newClient(t, srv)

	for _, sort := range helpers.NewFuzzer(42).FuzzSort() {
		_, err := client.GetPosts(context.Background(), &types.PostsRequest{Sort: sort})
		expectConfigError(t, "sort "+sort, err, "sort")
	}
	if n := srv.RequestCount(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

// TestCursorPassthrough checks that cursors are opaque: whatever the server
// issued is sent back verbatim, including the empty string.
func TestCursorPassthrough(t *testing.T) {
	srv := discuittest.New(t)
	client := newClient(t, srv)

	for _, cursor := range helpers.NewFuzzer(42).FuzzCursor() {
		_, err := client.GetPosts(context.Background(), &types.PostsRequest{
			Pagination: types.Pagination{Next: types.StringCursor(cursor)},
		})
		if err != nil {
			t.Errorf("cursor %q: unexpected error: %v", cursor, err)
			continue
		}

		req, _ := srv.LastRequest()
		got, present := req.Query["next"]
		if !present || len(got) != 1 || got[0] != cursor {
			t.Errorf("cursor %.40q: sent %v", cursor, got)
		}
	}
}

// TestUserAgentFuzzing checks header injection through the User-Agent.
func TestUserAgentFuzzing(t *testing.T) {
	validator := internal.NewValidator()

	for _, ua := range helpers.NewFuzzer(42).FuzzUserAgent() {
		label := "user agent " + strings.ReplaceAll(ua[:min(len(ua), 20)], "\n", `\n`)
		expectConfigError(t, label, validator.ValidateUserAgent(ua), "UserAgent")

		if ua == "" {
			// An empty agent selects the default.
			continue
		}
		_, err := discuit.NewClient(&discuit.Config{UserAgent: ua})
		expectConfigError(t, "NewClient "+label, err, "UserAgent")
	}
}

// TestPaginationLimitFuzzing checks out-of-range limits on every listing.
func TestPaginationLimitFuzzing(t *testing.T) {
	srv := discuittest.New(t)
	srv.AddUser("previnder", "secret")
	client := newClient(t, srv)
	ctx := context.Background()

	for _, limit := range helpers.NewFuzzer(42).FuzzPaginationLimit() {
		p := types.Pagination{Limit: limit}

		_, err := client.GetPosts(ctx, &types.PostsRequest{Pagination: p})
		expectConfigError(t, "GetPosts", err, "pagination.Limit")

		_, err = client.GetUserFeed(ctx, &types.FeedRequest{Username: "previnder", Pagination: p})
		expectConfigError(t, "GetUserFeed", err, "pagination.Limit")
	}

	if n := srv.RequestCount(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

// TestIteratorClampsLimit checks that iterators never send an invalid limit.
func TestIteratorClampsLimit(t *testing.T) {
	srv := discuittest.New(t)
	client := newClient(t, srv)

	for _, limit := range helpers.NewFuzzer(42).FuzzPaginationLimit() {
		it := client.NewPostIterator(context.Background(), nil).WithLimit(limit)
		if _, err := it.Collect(1); err != nil {
			t.Errorf("limit %d: unexpected error: %v", limit, err)
			continue
		}

		req, ok := srv.LastRequest()
		if !ok {
			t.Fatal("no request recorded")
		}
		want := "1"
		if limit > 0 {
			want = "100"
		}
		if got := req.Query.Get("limit"); got != want {
			t.Errorf("limit %d: sent limit=%s, want %s", limit, got, want)
		}
	}
}

// TestCredentialFuzzing checks that empty credentials never reach the server
// and hostile ones are sent as inert JSON strings.
func TestCredentialFuzzing(t *testing.T) {
	srv := discuittest.New(t)
	srv.AddUser("previnder", "secret")
	client := newClient(t, srv)
	ctx := context.Background()

	if _, err := client.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	srv.ClearRequests()

	_, err := client.Login(ctx, "", "secret")
	expectConfigError(t, "empty username", err, "username")
	_, err = client.Login(ctx, "previnder", "")
	expectConfigError(t, "empty password", err, "password")
	if n := srv.RequestCount(); n != 0 {
		t.Fatalf("server saw %d requests for empty credentials", n)
	}

	for _, name := range helpers.NewFuzzer(7).FuzzUsername() {
		if name == "" {
			continue
		}
		result, err := client.Login(ctx, name, `secret", "username": "previnder`)
		if err != nil {
			t.Errorf("login %q: unexpected error: %v", name, err)
			continue
		}
		if result.Error == nil || result.Error.CodeValue() != "invalid_credentials" {
			t.Errorf("login %q: expected invalid_credentials, got %+v", name, result)
		}
		if client.IsAuthenticated() {
			t.Fatalf("login %q: client became authenticated", name)
		}
	}
}
