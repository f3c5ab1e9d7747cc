package discuit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jamesprial/go-discuit-api-wrapper/internal"
	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

const (
	// DefaultBaseURL is the default Discuit instance
	DefaultBaseURL = "https://discuit.org"
	// DefaultUserAgent is the default user agent string
	DefaultUserAgent = "go-discuit-api-wrapper/0.1"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
)

// Config holds the configuration for the Discuit client. Every field is
// optional.
//
// Example:
//
//	config := &Config{
//		BaseURL:   "https://discuit.org",
//		UserAgent: "mybot/1.0",
//		Logger:    slog.Default(),
//	}
type Config struct {
	// BaseURL of the Discuit instance, without the /api suffix.
	// Defaults to DefaultBaseURL. Trailing slashes are stripped.
	BaseURL string

	// UserAgent string to identify your application.
	// Defaults to DefaultUserAgent.
	UserAgent string

	// HTTPClient to use for requests.
	// Defaults to a client with DefaultTimeout if not specified.
	// Its Jar is never used; the client keeps its own cookie jar.
	HTTPClient *http.Client

	// Logger for structured diagnostics.
	// Optional. When set and Observer is nil, request, response and state
	// events are logged through it.
	Logger *slog.Logger

	// Observer receives request, response and state events.
	// Optional. Takes precedence over Logger.
	Observer Observer
}

// State is the lifecycle state of a Client, derived from its session.
type State int

const (
	// StateUninitialized holds no tokens. Initial state, and the state after Reset or Logout.
	StateUninitialized State = iota
	// StateAnonymous holds tokens from the handshake but no user.
	StateAnonymous
	// StateAuthenticated holds tokens and a logged-in user.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Client is a Discuit API client. It owns one session (anti-forgery token,
// session id and logged-in user) and one cookie jar for its whole lifetime.
//
// A Client is not safe for concurrent use: issue one call at a time. Calls
// that change the session (Initialize, Login, Logout, Reset) must not overlap
// with any other call.
//
// Example usage:
//
//	client, err := NewClient(nil)
//	if err != nil {
//		return err
//	}
//
//	if _, err := client.Initialize(ctx); err != nil {
//		return err
//	}
//
//	res, err := client.GetPosts(ctx, &types.PostsRequest{Community: "general"})
type Client struct {
	transport *internal.Client
	session   internal.Session
	decoder   *internal.Decoder
	validator *internal.Validator
	observer  Observer
}

// NewClient creates a new Discuit client with the provided configuration. A
// nil config uses the defaults.
//
// No network call is made; call Initialize to obtain a session.
//
// Returns a *errors.ConfigError if the base URL or user agent is invalid.
func NewClient(config *Config) (*Client, error) {
	var cfg Config
	if config != nil {
		cfg = *config
	}

	// Set defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}

	validator := internal.NewValidator()
	if err := validator.ValidateUserAgent(cfg.UserAgent); err != nil {
		return nil, err
	}

	transport, err := internal.NewClient(cfg.HTTPClient, cfg.BaseURL, cfg.UserAgent)
	if err != nil {
		return nil, err
	}

	decoder, err := internal.NewDecoder()
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "Decoder", Message: err.Error()}
	}

	observer := cfg.Observer
	if observer == nil {
		if cfg.Logger != nil {
			observer = NewLogObserver(cfg.Logger)
		} else {
			observer = nopObserver{}
		}
	}

	return &Client{
		transport: transport,
		decoder:   decoder,
		validator: validator,
		observer:  observer,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}

// State reports the lifecycle state derived from the session.
func (c *Client) State() State {
	switch {
	case c.session.Authenticated():
		return StateAuthenticated
	case c.session.HasTokens():
		return StateAnonymous
	default:
		return StateUninitialized
	}
}

// CSRFToken returns the current anti-forgery token, or "" if none is held.
func (c *Client) CSRFToken() string {
	return c.session.CSRFToken
}

// SessionID returns the current session identifier, or "" if none is held.
func (c *Client) SessionID() string {
	return c.session.SessionID
}

// User returns a copy of the logged-in user, or nil while not authenticated.
func (c *Client) User() *types.User {
	if c.session.User == nil {
		return nil
	}
	u := *c.session.User
	return &u
}

// IsAuthenticated reports whether a user is logged in.
func (c *Client) IsAuthenticated() bool {
	return c.session.Authenticated()
}

// Reset discards the session and every stored cookie, returning the client
// to StateUninitialized. It is safe to call at any time, any number of times.
func (c *Client) Reset() error {
	c.reset("Reset")
	return c.transport.ResetCookies()
}

func (c *Client) reset(op string) {
	from := c.State()
	c.session.Reset()
	c.stateChanged(op, from)
}

func (c *Client) stateChanged(op string, from State) {
	if to := c.State(); to != from {
		c.observer.StateChanged(StateEvent{Operation: op, From: from, To: to})
	}
}

// Initialize performs the unauthenticated handshake with GET /api/_initial
// and stores the csrftoken and SID cookies the server sets. Cookies that are
// absent are not an error; the server may have nothing to issue.
//
// The session's user is replaced by the handshake payload's user, which is
// nil for a fresh session. A payload user is dropped when the server issued
// no session id. Initialize may be called again at any time to obtain a new
// session.
func (c *Client) Initialize(ctx context.Context) (*types.InitialResponse, error) {
	const op = "Initialize"

	resp, err := c.send(ctx, op, http.MethodGet, "/api/_initial", nil, nil, false)
	if err != nil {
		return nil, err
	}

	from := c.State()
	c.session.Absorb(resp.Cookies)

	initial, err := c.decoder.DecodeInitial(op, resp)
	if err != nil {
		c.stateChanged(op, from)
		return nil, err
	}

	c.session.SetUser(initial.User)
	c.stateChanged(op, from)
	return initial, nil
}

// Login authenticates with username and password via POST /api/_login.
//
// On success the returned result holds the user, the session stores a copy
// of it, and any rotated cookies are absorbed. When the server answers with
// an API error (for example wrong credentials) the result holds that error
// and the session is left untouched. A user is only stored while a session
// id is held.
func (c *Client) Login(ctx context.Context, username, password string) (*types.UserResult, error) {
	const op = "Login"

	if err := c.validator.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	payload := &types.LoginRequest{Username: username, Password: password}
	resp, err := c.send(ctx, op, http.MethodPost, "/api/_login", nil, payload, true)
	if err != nil {
		return nil, err
	}

	result, err := c.decoder.DecodeUserResult(op, resp)
	if err != nil {
		return nil, err
	}

	if result.User != nil {
		from := c.State()
		c.session.Absorb(resp.Cookies)
		c.session.SetUser(result.User)
		c.stateChanged(op, from)
	}

	return result, nil
}

// Logout ends the server session via POST /api/_login?action=logout.
//
// If no user is logged in it returns nil without any network call. Otherwise
// the session and cookies are cleared whatever the server answers; only a
// transport failure is returned, after the local state has been cleared.
func (c *Client) Logout(ctx context.Context) error {
	const op = "Logout"

	if !c.session.Authenticated() {
		return nil
	}

	query := url.Values{"action": {"logout"}}
	_, sendErr := c.send(ctx, op, http.MethodPost, "/api/_login", query, nil, true)

	c.reset(op)
	resetErr := c.transport.ResetCookies()

	if sendErr != nil {
		return sendErr
	}
	return resetErr
}

// Me returns the logged-in user via GET /api/_user.
//
// When the server answers with an API error (typically 401 while not logged
// in) the error is returned as a *types.APIError, which can be matched with
// errors.As.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	const op = "Me"

	resp, err := c.send(ctx, op, http.MethodGet, "/api/_user", nil, nil, true)
	if err != nil {
		return nil, err
	}

	result, err := c.decoder.DecodeUserResult(op, resp)
	if err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return result.User, nil
}

// GetUser retrieves a user's public profile via GET /api/users/{username}.
// A missing user yields a result holding an API error with code
// "user_not_found", not a Go error.
func (c *Client) GetUser(ctx context.Context, username string) (*types.UserResult, error) {
	const op = "GetUser"

	if err := c.validator.ValidateUsername(username); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, op, http.MethodGet, "/api/users/"+url.PathEscape(username), nil, nil, true)
	if err != nil {
		return nil, err
	}

	return c.decoder.DecodeUserResult(op, resp)
}

// GetUserFeed retrieves one page of a user's posts and comments via
// GET /api/users/{username}/feed.
//
// Pass the previous page's Next cursor in request.Next to fetch the following
// page. A nil Next in the returned feed means there are no further pages.
func (c *Client) GetUserFeed(ctx context.Context, request *types.FeedRequest) (*types.FeedResult, error) {
	const op = "GetUserFeed"

	if request == nil {
		return nil, &pkgerrs.ConfigError{Field: "request", Message: "feed request cannot be nil"}
	}
	if err := c.validator.ValidateUsername(request.Username); err != nil {
		return nil, err
	}
	if err := c.validator.ValidatePagination(&request.Pagination); err != nil {
		return nil, err
	}

	query := url.Values{}
	addPagination(query, request.Pagination)

	path := "/api/users/" + url.PathEscape(request.Username) + "/feed"
	resp, err := c.send(ctx, op, http.MethodGet, path, query, nil, true)
	if err != nil {
		return nil, err
	}

	return c.decoder.DecodeFeedResult(op, resp)
}

// GetPosts retrieves one page of the posts listing via GET /api/posts.
//
// A nil request fetches the site-wide listing sorted by "hot". An empty
// Community is omitted from the query.
func (c *Client) GetPosts(ctx context.Context, request *types.PostsRequest) (*types.PostsResult, error) {
	const op = "GetPosts"

	var req types.PostsRequest
	if request != nil {
		req = *request
	}
	if req.Sort == "" {
		req.Sort = internal.DefaultSort
	}

	if err := c.validator.ValidateSort(req.Sort); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateCommunity(req.Community); err != nil {
		return nil, err
	}
	if err := c.validator.ValidatePagination(&req.Pagination); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("sort", req.Sort)
	if req.Community != "" {
		query.Set("community", req.Community)
	}
	addPagination(query, req.Pagination)

	resp, err := c.send(ctx, op, http.MethodGet, "/api/posts", query, nil, true)
	if err != nil {
		return nil, err
	}

	return c.decoder.DecodePostsResult(op, resp)
}

func addPagination(query url.Values, p types.Pagination) {
	if p.Next != nil {
		query.Set("next", p.Next.Value())
	}
	if p.Limit > 0 {
		query.Set("limit", strconv.Itoa(p.Limit))
	}
}

// send performs one HTTP exchange and reports it to the observer. When auth
// is set the session headers are attached. Any completed exchange is returned,
// whatever its status code.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, payload any, auth bool) (*internal.Response, error) {
	headers := http.Header{}
	if auth {
		headers = c.session.Headers()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &pkgerrs.TransportError{Operation: op, URL: c.transport.URL(path, query), Err: err}
		}
		body = bytes.NewReader(data)
		headers.Set("Content-Type", "application/json")
	}

	req, err := c.transport.NewRequest(ctx, method, path, query, body, headers)
	if err != nil {
		return nil, withOperation(err, op)
	}

	id := uuid.NewString()
	c.observer.RequestIssued(RequestEvent{ID: id, Operation: op, Method: method, URL: req.URL.String()})

	start := time.Now()
	resp, err := c.transport.Do(req)

	event := ResponseEvent{ID: id, Operation: op, Duration: time.Since(start), Err: err}
	if resp != nil {
		event.StatusCode = resp.StatusCode
		event.Bytes = len(resp.Body)
	}
	c.observer.ResponseReceived(event)

	if err != nil {
		return nil, withOperation(err, op)
	}
	return resp, nil
}

func withOperation(err error, op string) error {
	var transportErr *pkgerrs.TransportError
	if errors.As(err, &transportErr) && transportErr.Operation == "" {
		transportErr.Operation = op
	}
	return err
}
