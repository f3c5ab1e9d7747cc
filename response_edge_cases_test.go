package discuit

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/discuittest"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

func TestFeedCursorVariants(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantNext *types.Cursor
	}{
		{name: "null cursor ends pagination", body: `{"feed":[],"next":null}`, wantNext: nil},
		{name: "missing cursor ends pagination", body: `{"feed":[]}`, wantNext: nil},
		{name: "string cursor", body: `{"feed":[],"next":"abc"}`, wantNext: types.StringCursor("abc")},
		{name: "empty string cursor", body: `{"feed":[],"next":""}`, wantNext: types.StringCursor("")},
		{name: "integer cursor", body: `{"feed":[],"next":42}`, wantNext: types.IntCursor(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := discuittest.New(t)
			srv.Override(http.MethodGet, "/api/users/previnder/feed", discuittest.Response{Status: http.StatusOK, Body: tt.body})
			client := newTestClient(t, srv)

			result, err := client.GetUserFeed(context.Background(), &types.FeedRequest{Username: "previnder"})
			require.NoError(t, err)
			require.NotNil(t, result.Feed)
			assert.Empty(t, result.Feed.Items)
			assert.Equal(t, tt.wantNext, result.Feed.Next)
		})
	}
}

func TestFeedCursorIsSentInWireForm(t *testing.T) {
	srv := discuittest.New(t)
	srv.AddUser("previnder", "secret")
	client := newTestClient(t, srv)
	ctx := context.Background()

	_, err := client.GetUserFeed(ctx, &types.FeedRequest{
		Username:   "previnder",
		Pagination: types.Pagination{Limit: 3, Next: types.IntCursor(6)},
	})
	require.NoError(t, err)

	req, _ := srv.LastRequest()
	assert.Equal(t, "/api/users/previnder/feed", req.Path)
	assert.Equal(t, "6", req.Query.Get("next"))
	assert.Equal(t, "3", req.Query.Get("limit"))
}

func TestFeedItemsDiscrimination(t *testing.T) {
	srv := discuittest.New(t)
	srv.Override(http.MethodGet, "/api/users/previnder/feed", discuittest.Response{
		Status: http.StatusOK,
		Body: `{"feed":[
			{"id":"p1","publicId":"6kQ1V1Pv","title":"A post","type":"text","communityName":"general","createdAt":"2024-01-01T00:00:00Z"},
			{"id":"c1","postId":"p1","postPublicId":"6kQ1V1Pv","depth":1,"parentId":"c0","ancestors":["c0"],"body":"reply","createdAt":"2024-01-01T00:00:00Z"}
		],"next":null}`,
	})
	client := newTestClient(t, srv)

	result, err := client.GetUserFeed(context.Background(), &types.FeedRequest{Username: "previnder"})
	require.NoError(t, err)
	require.Len(t, result.Feed.Items, 2)

	post := result.Feed.Items[0]
	require.True(t, post.IsPost())
	assert.False(t, post.IsComment())
	assert.Equal(t, "A post", post.Post.Title)

	comment := result.Feed.Items[1]
	require.True(t, comment.IsComment())
	assert.False(t, comment.IsPost())
	assert.Equal(t, 1, comment.Comment.Depth)
	require.NotNil(t, comment.Comment.ParentID)
	assert.Equal(t, "c0", *comment.Comment.ParentID)
}

func TestFeed_UnknownUser(t *testing.T) {
	srv := discuittest.New(t)
	client := newTestClient(t, srv)

	result, err := client.GetUserFeed(context.Background(), &types.FeedRequest{Username: "nobody_here"})
	require.NoError(t, err)
	require.NotNil(t, result.Error)
	assert.Nil(t, result.Feed)
	assert.Equal(t, "user_not_found", result.Error.CodeValue())
}

func TestFeed_Validation(t *testing.T) {
	srv := discuittest.New(t)
	client := newTestClient(t, srv)
	ctx := context.Background()

	var configErr *pkgerrs.ConfigError

	_, err := client.GetUserFeed(ctx, nil)
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "request", configErr.Field)

	_, err = client.GetUserFeed(ctx, &types.FeedRequest{Username: "x"})
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "username", configErr.Field)

	_, err = client.GetUserFeed(ctx, &types.FeedRequest{Username: "previnder", Pagination: types.Pagination{Limit: 500}})
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "pagination.Limit", configErr.Field)

	assert.Equal(t, 0, srv.RequestCount())
}

func TestUnmatchedBodies(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
	}{
		{name: "html error page", status: http.StatusBadGateway, body: "<html><body>Bad Gateway</body></html>", wantStatus: true},
		{name: "empty 500", status: http.StatusInternalServerError, body: "", wantStatus: true},
		{name: "unexpected json on 404", status: http.StatusNotFound, body: `{"error":"nope"}`, wantStatus: true},
		{name: "unexpected json on 200", status: http.StatusOK, body: `{"hello":"world"}`, wantStatus: false},
		{name: "truncated json on 200", status: http.StatusOK, body: `{"id":"a","user`, wantStatus: false},
		{name: "array on 200", status: http.StatusOK, body: `[1,2,3]`, wantStatus: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := discuittest.New(t)
			srv.Override(http.MethodGet, "/api/users/previnder", discuittest.Response{Status: tt.status, Body: tt.body})
			client := newTestClient(t, srv)

			result, err := client.GetUser(context.Background(), "previnder")
			require.Error(t, err)
			assert.Nil(t, result)

			if tt.wantStatus {
				var statusErr *pkgerrs.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.status, statusErr.StatusCode)
				assert.Equal(t, "GetUser", statusErr.Operation)
				assert.Equal(t, tt.body, statusErr.Body)
				return
			}

			var decodeErr *pkgerrs.DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "GetUser", decodeErr.Operation)
			assert.Equal(t, "UserResult", decodeErr.Target)
			assert.Equal(t, tt.body, decodeErr.Body)
		})
	}
}

func TestAPIErrorOnSuccessStatus(t *testing.T) {
	srv := discuittest.New(t)
	srv.Override(http.MethodGet, "/api/users/previnder", discuittest.Response{
		Status: http.StatusOK,
		Body:   `{"status":403,"code":"banned","message":"You are banned."}`,
	})
	client := newTestClient(t, srv)

	result, err := client.GetUser(context.Background(), "previnder")
	require.NoError(t, err)
	require.NotNil(t, result.Error)
	assert.Equal(t, 403, result.Error.Status)
	assert.Equal(t, "banned", result.Error.CodeValue())
}

func TestUserBodyIsNeverMistakenForAPIError(t *testing.T) {
	srv := discuittest.New(t)
	srv.Override(http.MethodGet, "/api/users/previnder", discuittest.Response{
		Status: http.StatusOK,
		Body:   `{"id":"17692e122def73f25bd757e0","username":"previnder","status":"active","message":"hi"}`,
	})
	client := newTestClient(t, srv)

	result, err := client.GetUser(context.Background(), "previnder")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Nil(t, result.Error)
}

func TestDecodeErrorTruncatesLargeBodies(t *testing.T) {
	srv := discuittest.New(t)
	large := `{"junk":"` + strings.Repeat("x", 4096) + `"}`
	srv.Override(http.MethodGet, "/api/_user", discuittest.Response{Status: http.StatusOK, Body: large})
	client := newTestClient(t, srv)

	_, err := client.Me(context.Background())
	var decodeErr *pkgerrs.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, large, decodeErr.Body, "raw body is preserved")
	assert.Less(t, len(decodeErr.Error()), 1024, "message is truncated")
}
