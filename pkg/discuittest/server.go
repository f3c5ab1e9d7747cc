// Package discuittest provides an in-process Discuit server for tests.
//
// The server implements the handshake, login, logout, current user, user
// profile, user feed and posts listing routes with the same cookie and
// anti-forgery token rules as a real instance, keeps its data in memory, and
// records every request it receives:
//
//	srv := discuittest.New(t)
//	srv.AddUser("previnder", "secret")
//
//	client, _ := discuit.NewClient(&discuit.Config{BaseURL: srv.URL})
package discuittest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

// DefaultPageSize is the page size used when a request sets no limit.
const DefaultPageSize = 10

// RecordedRequest is a request received by the server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a canned response served instead of the real handler.
type Response struct {
	Status  int
	Body    string
	Cookies []*http.Cookie
}

type account struct {
	user     types.User
	password string
}

type session struct {
	csrf     string
	username string // Empty while anonymous
}

// Server is a fake Discuit instance backed by a gin engine.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	accounts  map[string]*account // Keyed by lower-cased username
	posts     []*types.Post
	comments  []*types.Comment
	sessions  map[string]*session // Keyed by SID
	requests  []RecordedRequest
	overrides map[string]Response // Keyed by "METHOD /path"
	pageSize  int
}

// New starts a server and closes it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := NewServer()
	tb.Cleanup(s.Close)
	return s
}

// NewServer starts a server. The caller must Close it.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		accounts:  make(map[string]*account),
		sessions:  make(map[string]*session),
		overrides: make(map[string]Response),
		pageSize:  DefaultPageSize,
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.record())
	r.Use(s.override())

	api := r.Group("/api")
	api.GET("/_initial", s.handleInitial)
	api.POST("/_login", s.requireCSRF(), s.handleLogin)
	api.GET("/_user", s.handleCurrentUser)
	api.GET("/users/:username", s.handleUser)
	api.GET("/users/:username/feed", s.handleUserFeed)
	api.GET("/posts", s.handlePosts)

	return r
}

func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// AddUser registers an account and returns a copy of its user.
func (s *Server) AddUser(username, password string) *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := &account{
		user: types.User{
			ID:        newObjectID(),
			Username:  username,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			HomeFeed:  "all",
		},
		password: password,
	}
	s.accounts[strings.ToLower(username)] = acc

	u := acc.user
	return &u
}

// AddPost stores a post. Missing IDs, public IDs and timestamps are filled
// in, and the author's post count is updated. It returns the stored copy.
func (s *Server) AddPost(post types.Post) *types.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = newObjectID()
	}
	if post.PublicID == "" {
		post.PublicID = post.ID[:8]
	}
	if post.Type == "" {
		post.Type = "text"
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.LastActivityAt.IsZero() {
		post.LastActivityAt = post.CreatedAt
	}
	if acc, ok := s.accounts[strings.ToLower(post.Username)]; ok {
		post.UserID = acc.user.ID
		acc.user.NoPosts++
	}

	s.posts = append(s.posts, &post)
	cp := post
	return &cp
}

// AddComment stores a comment. Missing IDs and timestamps are filled in. It
// returns the stored copy.
func (s *Server) AddComment(comment types.Comment) *types.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = newObjectID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if acc, ok := s.accounts[strings.ToLower(comment.Username)]; ok {
		id := acc.user.ID
		comment.UserID = &id
		acc.user.NoComments++
	}

	s.comments = append(s.comments, &comment)
	cp := comment
	return &cp
}

// SetPageSize changes the page size used when a request sets no limit.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// Override serves resp for every request matching method and path until
// ClearOverrides is called.
func (s *Server) Override(method, path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = resp
}

// ClearOverrides removes every canned response.
func (s *Server) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]Response)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns the number of requests received so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request, or false if none was received.
func (s *Server) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// ClearRequests forgets the recorded requests.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// LoggedInUser returns the username bound to the session sid, or "" if the
// session is unknown or anonymous.
func (s *Server) LoggedInUser(sid string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sid]; ok {
		return sess.username
	}
	return ""
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.Query(),
			Header: c.Request.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		c.Next()
	}
}

func (s *Server) override() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		resp, ok := s.overrides[c.Request.Method+" "+c.Request.URL.Path]
		s.mu.Unlock()
		if !ok {
			c.Next()
			return
		}

		for _, cookie := range resp.Cookies {
			http.SetCookie(c.Writer, cookie)
		}
		c.Data(resp.Status, "application/json", []byte(resp.Body))
		c.Abort()
	}
}
