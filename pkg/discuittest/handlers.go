package discuittest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

const maxLimit = 100

var reportReasons = []types.ReportReason{
	{ID: 1, Title: "Breaks community rules"},
	{ID: 2, Title: "Copyright violation"},
	{ID: 3, Title: "Spam"},
}

var postSorts = map[string]time.Duration{
	"latest":   0,
	"hot":      0,
	"activity": 0,
	"day":      24 * time.Hour,
	"week":     7 * 24 * time.Hour,
	"month":    30 * 24 * time.Hour,
	"year":     365 * 24 * time.Hour,
	"all":      0,
}

func apiError(c *gin.Context, status int, code, message string) {
	body := types.APIError{Status: status, Message: message}
	if code != "" {
		body.Code = &code
	}
	c.AbortWithStatusJSON(status, body)
}

func setCookie(c *gin.Context, name, value string, httpOnly bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentAccount returns the account bound to the request's SID cookie.
// The caller must hold s.mu.
func (s *Server) currentAccount(c *gin.Context) *account {
	sid, err := c.Cookie("SID")
	if err != nil {
		return nil
	}
	sess, ok := s.sessions[sid]
	if !ok || sess.username == "" {
		return nil
	}
	return s.accounts[strings.ToLower(sess.username)]
}

func (s *Server) handleInitial(c *gin.Context) {
	csrf := uuid.NewString()
	sid := uuid.NewString()

	s.mu.Lock()
	s.sessions[sid] = &session{csrf: csrf}

	seen := make(map[string]bool)
	communities := make([]types.Community, 0)
	for _, p := range s.posts {
		key := strings.ToLower(p.CommunityName)
		if p.CommunityName == "" || seen[key] {
			continue
		}
		seen[key] = true
		communities = append(communities, types.Community{ID: p.CommunityID, Name: p.CommunityName})
	}
	noUsers := len(s.accounts)
	s.mu.Unlock()

	setCookie(c, "csrftoken", csrf, false)
	setCookie(c, "SID", sid, true)

	c.JSON(http.StatusOK, types.InitialResponse{
		ReportReasons: reportReasons,
		Lists:         []types.List{},
		Communities:   communities,
		NoUsers:       noUsers,
		BannedFrom:    []string{},
		Mutes:         types.Mutes{CommunityMutes: []types.Mute{}, UserMutes: []types.Mute{}},
	})
}

// requireCSRF rejects requests whose X-Csrf-Token header does not echo the
// csrftoken cookie.
func (s *Server) requireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-Csrf-Token")
		cookie, err := c.Cookie("csrftoken")
		if err != nil || header == "" || header != cookie {
			apiError(c, http.StatusForbidden, "invalid_csrf_token", "Invalid CSRF token.")
			return
		}
		c.Next()
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	if c.Query("action") == "logout" {
		s.handleLogout(c)
		return
	}

	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid_json", "Invalid request body.")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(req.Username)]
	if !ok || acc.password != req.Password {
		s.mu.Unlock()
		apiError(c, http.StatusUnauthorized, "invalid_credentials", "Username and password do not match.")
		return
	}

	csrf, _ := c.Cookie("csrftoken")
	if oldSID, err := c.Cookie("SID"); err == nil {
		delete(s.sessions, oldSID)
	}
	sid := uuid.NewString()
	s.sessions[sid] = &session{csrf: csrf, username: acc.user.Username}
	user := acc.user
	s.mu.Unlock()

	setCookie(c, "SID", sid, true)
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c *gin.Context) {
	if sid, err := c.Cookie("SID"); err == nil {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	s.mu.Lock()
	acc := s.currentAccount(c)
	var user types.User
	if acc != nil {
		user = acc.user
	}
	s.mu.Unlock()

	if acc == nil {
		apiError(c, http.StatusUnauthorized, "", "Not logged in.")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUser(c *gin.Context) {
	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(c.Param("username"))]
	var user types.User
	if ok {
		user = acc.user
	}
	s.mu.Unlock()

	if !ok {
		apiError(c, http.StatusNotFound, "user_not_found", "User not found.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// pageLimit parses the limit query parameter. It writes an error response
// and returns false when the value is invalid.
func (s *Server) pageLimit(c *gin.Context) (int, bool) {
	s.mu.Lock()
	def := s.pageSize
	s.mu.Unlock()

	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxLimit {
		apiError(c, http.StatusBadRequest, "invalid_limit", "Invalid limit.")
		return 0, false
	}
	if n == 0 {
		return def, true
	}
	return n, true
}

type feedEntry struct {
	createdAt time.Time
	value     any
}

// handleUserFeed serves a user's posts and comments, newest first. The
// cursor is the integer offset of the next page.
func (s *Server) handleUserFeed(c *gin.Context) {
	limit, ok := s.pageLimit(c)
	if !ok {
		return
	}

	offset := 0
	if raw := c.Query("next"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apiError(c, http.StatusBadRequest, "invalid_cursor", "Invalid cursor.")
			return
		}
		offset = n
	}

	s.mu.Lock()
	acc, found := s.accounts[strings.ToLower(c.Param("username"))]
	var entries []feedEntry
	if found {
		for _, p := range s.posts {
			if strings.EqualFold(p.Username, acc.user.Username) {
				cp := *p
				entries = append(entries, feedEntry{createdAt: p.CreatedAt, value: &cp})
			}
		}
		for _, cm := range s.comments {
			if strings.EqualFold(cm.Username, acc.user.Username) {
				cp := *cm
				entries = append(entries, feedEntry{createdAt: cm.CreatedAt, value: &cp})
			}
		}
	}
	s.mu.Unlock()

	if !found {
		apiError(c, http.StatusNotFound, "user_not_found", "User not found.")
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].createdAt.After(entries[j].createdAt)
	})

	items := make([]any, 0, limit)
	for i := offset; i < len(entries) && len(items) < limit; i++ {
		items = append(items, entries[i].value)
	}

	var next any
	if end := offset + limit; end < len(entries) {
		next = end
	}

	c.JSON(http.StatusOK, gin.H{"feed": items, "next": next})
}

func score(p *types.Post) int {
	return p.Upvotes - p.Downvotes
}

// handlePosts serves the posts listing. The cursor is the public ID of the
// first post of the next page.
func (s *Server) handlePosts(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "hot")
	window, known := postSorts[sortBy]
	if !known {
		apiError(c, http.StatusBadRequest, "invalid_sort", "Invalid sort.")
		return
	}

	limit, ok := s.pageLimit(c)
	if !ok {
		return
	}

	community := c.Query("community")
	now := time.Now()

	s.mu.Lock()
	posts := make([]*types.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if community != "" && !strings.EqualFold(p.CommunityName, community) {
			continue
		}
		if window > 0 && now.Sub(p.CreatedAt) > window {
			continue
		}
		cp := *p
		posts = append(posts, &cp)
	}
	s.mu.Unlock()

	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch sortBy {
		case "latest":
			return a.CreatedAt.After(b.CreatedAt)
		case "hot":
			if a.Hotness != b.Hotness {
				return a.Hotness > b.Hotness
			}
			return a.CreatedAt.After(b.CreatedAt)
		case "activity":
			return a.LastActivityAt.After(b.LastActivityAt)
		default:
			return score(a) > score(b)
		}
	})

	start := 0
	if cursor := c.Query("next"); cursor != "" {
		start = -1
		for i, p := range posts {
			if p.PublicID == cursor {
				start = i
				break
			}
		}
		if start < 0 {
			apiError(c, http.StatusBadRequest, "invalid_cursor", "Invalid cursor.")
			return
		}
	}

	end := start + limit
	if end > len(posts) {
		end = len(posts)
	}

	var next *string
	if end < len(posts) {
		id := posts[end].PublicID
		next = &id
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts[start:end], "next": next})
}
