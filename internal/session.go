package internal

import (
	"net/http"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

const (
	// CSRFCookieName is the cookie carrying the anti-forgery token.
	CSRFCookieName = "csrftoken"
	// SessionCookieName is the cookie carrying the session identifier.
	SessionCookieName = "SID"
	// CSRFHeader echoes the anti-forgery token on every authenticated request.
	CSRFHeader = "X-Csrf-Token"
)

// Session holds the credentials issued by the server. The zero value is an
// empty session. A Session is owned by exactly one client and is not safe for
// concurrent use.
type Session struct {
	CSRFToken string
	SessionID string
	// User is a copy of the authenticated user, nil while anonymous.
	User *types.User
}

// Absorb stores the values of the csrftoken and SID cookies found in cookies.
// Cookies that are absent leave the stored value unchanged. It reports
// whether anything was stored.
func (s *Session) Absorb(cookies []*http.Cookie) bool {
	stored := false
	for _, cookie := range cookies {
		switch cookie.Name {
		case CSRFCookieName:
			s.CSRFToken = cookie.Value
			stored = true
		case SessionCookieName:
			s.SessionID = cookie.Value
			stored = true
		}
	}
	return stored
}

// SetUser stores a copy of u, or clears the user when u is nil. A user is
// only held alongside a session id: without one the user is cleared and
// SetUser reports false.
func (s *Session) SetUser(u *types.User) bool {
	if u == nil || s.SessionID == "" {
		s.User = nil
		return u == nil
	}
	cp := *u
	s.User = &cp
	return true
}

// Headers renders the credentials into request headers. Empty credentials
// are sent as empty values; the server decides whether to accept them.
func (s *Session) Headers() http.Header {
	h := make(http.Header)
	h.Set(CSRFHeader, s.CSRFToken)
	h.Set("Cookie", CSRFCookieName+"="+s.CSRFToken+"; "+SessionCookieName+"="+s.SessionID)
	return h
}

// HasTokens reports whether either credential is held.
func (s *Session) HasTokens() bool {
	return s.CSRFToken != "" || s.SessionID != ""
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.User != nil
}

// Reset clears the tokens and the user together. It is safe to call on an
// empty session.
func (s *Session) Reset() {
	*s = Session{}
}
