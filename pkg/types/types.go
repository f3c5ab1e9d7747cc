package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// DiscuitObject defines the common behavior of Discuit objects that carry a
// server-assigned identifier.
type DiscuitObject interface {
	GetID() string
}

// Image represents an image stored on the server.
type Image struct {
	ID           string      `json:"id"`
	Format       string      `json:"format"`
	MimeType     string      `json:"mimetype"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Size         int         `json:"size"`
	AverageColor string      `json:"averageColor"`
	URL          string      `json:"url"` // Not prefixed with /api
	Copies       []ImageCopy `json:"copies"`
}

// ImageCopy is a resized copy of an Image.
type ImageCopy struct {
	Name      *string `json:"name"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	BoxWidth  int     `json:"boxWidth"`
	BoxHeight int     `json:"boxHeight"`
	ObjectFit string  `json:"objectFit"` // Matches the CSS object-fit property
	Format    string  `json:"format"`
	URL       string  `json:"url"`
}

// Badge is a badge shown on a user's profile.
type Badge struct {
	ID    int    `json:"id"`
	Title string `json:"badgeTitle"`
}

// User represents a user account.
type User struct {
	ID                      string      `json:"id"`
	Username                string      `json:"username"`
	Email                   *string     `json:"email"`
	EmailConfirmedAt        *time.Time  `json:"emailConfirmedAt"`
	AboutMe                 *string     `json:"aboutMe"`
	Points                  int         `json:"points"`
	IsAdmin                 bool        `json:"isAdmin"`
	ProPic                  *Image      `json:"proPic"`
	Badges                  []Badge     `json:"badges"`
	NoPosts                 int         `json:"noPosts"`
	NoComments              int         `json:"noComments"`
	CreatedAt               time.Time   `json:"createdAt"`
	Deleted                 bool        `json:"isDeleted"`
	DeletedAt               *time.Time  `json:"deletedAt"`
	UpvoteNotificationsOff  bool        `json:"upvoteNotificationsOff"`
	ReplyNotificationsOff   bool        `json:"replyNotificationsOff"`
	HomeFeed                string      `json:"homeFeed"`
	RememberFeedSort        bool        `json:"rememberFeedSort"`
	EmbedsOff               bool        `json:"embedsOff"`
	HideUserProfilePictures bool        `json:"hideUserProfilePictures"`
	BannedAt                *time.Time  `json:"bannedAt"`
	IsBanned                bool        `json:"isBanned"`
	NotificationsNewCount   int         `json:"notificationsNewCount"`
	ModdingList             []Community `json:"moddingList"`
}

// GetID returns the user's ID.
func (u *User) GetID() string { return u.ID }

// Community represents a community.
type Community struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	NSFW          bool            `json:"nsfw"`
	About         *string         `json:"about"`
	NoMembers     int             `json:"noMembers"`
	ProPic        *Image          `json:"proPic"`
	BannerImage   *Image          `json:"bannerImage"`
	CreatedAt     time.Time       `json:"createdAt"`
	DeletedAt     *time.Time      `json:"deletedAt"`
	IsDefault     *bool           `json:"isDefault"`
	UserJoined    *bool           `json:"userJoined"` // Null when not authenticated
	UserMod       *bool           `json:"userMod"`    // Null when not authenticated
	Mods          []User          `json:"mods"`
	Rules         []CommunityRule `json:"rules"`
	ReportDetails *ReportDetails  `json:"reportsDetails"` // Moderators only
}

// GetID returns the community's ID.
func (c *Community) GetID() string { return c.ID }

// CommunityRule is a single rule of a community.
type CommunityRule struct {
	ID          int       `json:"id"`
	Rule        string    `json:"rule"`
	Description *string   `json:"description"`
	CommunityID string    `json:"communityId"`
	ZIndex      int       `json:"zIndex"` // Smaller values sort first
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReportDetails holds report counters visible to moderators.
type ReportDetails struct {
	NoReports        int `json:"noReports"`
	NoPostReports    int `json:"noPostReports"`
	NoCommentReports int `json:"noCommentReports"`
}

// PostLink is the link attached to a link post.
type PostLink struct {
	URL      string `json:"url"`
	Hostname string `json:"hostname"`
	Image    *Image `json:"image"`
}

// Post represents a post. Posts embed their author and community.
type Post struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"` // "text", "image" or "link"
	PublicID         string     `json:"publicId"`
	UserID           string     `json:"userId"`
	Username         string     `json:"username"`
	UserGroup        string     `json:"userGroup"`
	UserDeleted      bool       `json:"userDeleted"`
	IsPinned         bool       `json:"isPinned"`
	IsPinnedSite     bool       `json:"isPinnedSite"`
	CommunityID      string     `json:"communityId"`
	CommunityName    string     `json:"communityName"`
	Title            string     `json:"title"`
	Body             *string    `json:"body"`
	Image            *Image     `json:"image"`
	Images           []Image    `json:"images"`
	Link             *PostLink  `json:"link"`
	Locked           bool       `json:"locked"`
	LockedBy         *string    `json:"lockedBy"`
	LockedAt         *time.Time `json:"lockedAt"`
	Upvotes          int        `json:"upvotes"`
	Downvotes        int        `json:"downvotes"`
	Hotness          int        `json:"hotness"`
	CreatedAt        time.Time  `json:"createdAt"`
	EditedAt         *time.Time `json:"editedAt"`
	LastActivityAt   time.Time  `json:"lastActivityAt"`
	Deleted          bool       `json:"deleted"`
	DeletedAt        *time.Time `json:"deletedAt"`
	DeletedContent   bool       `json:"deletedContent"`
	NoComments       int        `json:"noComments"`
	UserVoted        *bool      `json:"userVoted"`
	UserVotedUp      *bool      `json:"userVotedUp"`
	IsAuthorMuted    bool       `json:"isAuthorMuted"`
	IsCommunityMuted bool       `json:"isCommunityMuted"`
	Community        *Community `json:"community"`
	Author           *User      `json:"author"`
}

// GetID returns the post's ID.
func (p *Post) GetID() string { return p.ID }

// Comment represents a comment on a post.
type Comment struct {
	ID              string     `json:"id"`
	PostID          string     `json:"postId"`
	PostPublicID    string     `json:"postPublicId"`
	CommunityID     string     `json:"communityId"`
	CommunityName   string     `json:"communityName"`
	UserID          *string    `json:"userId"`
	Username        string     `json:"username"`
	UserGroup       string     `json:"userGroup"`
	UserDeleted     bool       `json:"userDeleted"`
	ParentID        *string    `json:"parentId"`
	Depth           int        `json:"depth"`
	NoReplies       int        `json:"noReplies"`
	NoRepliesDirect int        `json:"noRepliesDirect"`
	Ancestors       []string   `json:"ancestors"`
	Body            string     `json:"body"`
	Upvotes         int        `json:"upvotes"`
	Downvotes       int        `json:"downvotes"`
	CreatedAt       time.Time  `json:"createdAt"`
	EditedAt        *time.Time `json:"editedAt"`
	DeletedAt       *time.Time `json:"deletedAt"`
	Author          *User      `json:"author"`
	IsAuthorMuted   bool       `json:"isAuthorMuted"`
	UserVoted       *bool      `json:"userVoted"`
	UserVotedUp     *bool      `json:"userVotedUp"`
	PostTitle       string     `json:"postTitle"`
	PostDeleted     bool       `json:"postDeleted"`
}

// GetID returns the comment's ID.
func (c *Comment) GetID() string { return c.ID }

// List is a user-curated list of posts and comments.
type List struct {
	ID            int       `json:"id"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	DisplayName   string    `json:"displayName"`
	Description   *string   `json:"description"`
	Public        bool      `json:"public"`
	NumItems      int       `json:"numItems"`
	Sort          string    `json:"sort"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Mute records a muted user or community.
type Mute struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"` // "user" or "community"
	MutedUserID      *string    `json:"mutedUserId"`
	MutedCommunityID *string    `json:"mutedCommunityId"`
	CreatedAt        time.Time  `json:"createdAt"`
	MutedUser        *User      `json:"mutedUser"`
	MutedCommunity   *Community `json:"mutedCommunity"`
}

// Mutes groups a user's community and user mutes.
type Mutes struct {
	CommunityMutes []Mute `json:"communityMutes"`
	UserMutes      []Mute `json:"userMutes"`
}

// ReportReason is a reason offered when reporting a post or comment.
type ReportReason struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// InitialResponse is the handshake payload returned by /api/_initial.
type InitialResponse struct {
	ReportReasons  []ReportReason `json:"reportReasons"`
	User           *User          `json:"user"` // Null unless logged in
	Lists          []List         `json:"lists"`
	Communities    []Community    `json:"communities"`
	NoUsers        int            `json:"noUsers"`
	BannedFrom     []string       `json:"bannedFrom"`
	VapidPublicKey string         `json:"vapidPublicKey"`
	Mutes          Mutes          `json:"mutes"`
}

// APIError is an application error reported by the server:
//
//	{"status": 404, "code": "user_not_found", "message": "User not found."}
//
// It is only ever produced by decoding a response body.
type APIError struct {
	Status  int     `json:"status"`
	Code    *string `json:"code"`
	Message string  `json:"message"`
}

// CodeValue returns the machine-readable code, or "" when the server sent none.
func (e *APIError) CodeValue() string {
	if e.Code == nil {
		return ""
	}
	return *e.Code
}

// Error implements the error interface so an APIError can travel as an error
// where an endpoint has no success/error envelope.
func (e *APIError) Error() string {
	if code := e.CodeValue(); code != "" {
		return fmt.Sprintf("discuit API error (status %d, code %s): %s", e.Status, code, e.Message)
	}
	return fmt.Sprintf("discuit API error (status %d): %s", e.Status, e.Message)
}

// CursorKind identifies which variant a Cursor holds.
type CursorKind int

const (
	// CursorString is the cursor used by most sort orders.
	CursorString CursorKind = iota
	// CursorInt is the cursor used by the "activity" sort.
	CursorInt
)

// Cursor is an opaque pagination marker that is either a string or an integer
// on the wire. A nil *Cursor means there are no further pages; an empty string
// cursor is still a cursor.
type Cursor struct {
	Kind   CursorKind
	String string
	Int    int64
}

// StringCursor returns a string-valued cursor.
func StringCursor(s string) *Cursor {
	return &Cursor{Kind: CursorString, String: s}
}

// IntCursor returns an integer-valued cursor.
func IntCursor(n int64) *Cursor {
	return &Cursor{Kind: CursorInt, Int: n}
}

// Value renders the cursor as a query parameter value.
func (c *Cursor) Value() string {
	if c.Kind == CursorInt {
		return strconv.FormatInt(c.Int, 10)
	}
	return c.String
}

// UnmarshalJSON implements json.Unmarshaler to handle the string/integer union.
// JSON null never reaches this method for a *Cursor field; encoding/json
// leaves the pointer nil instead.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value for cursor")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid string cursor: %w", err)
		}
		*c = Cursor{Kind: CursorString, String: s}
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("unrecognized type for cursor: %s", data)
	}
	if n, err := num.Int64(); err == nil {
		*c = Cursor{Kind: CursorInt, Int: n}
		return nil
	}

	// Integral numbers written with a fraction or exponent, such as 42.0.
	if f, ok := new(big.Float).SetString(num.String()); ok && f.IsInt() {
		if n, acc := f.Int64(); acc == big.Exact {
			*c = Cursor{Kind: CursorInt, Int: n}
			return nil
		}
	}

	return fmt.Errorf("unrecognized type for cursor: %s", data)
}

// MarshalJSON writes the cursor back in its original wire type.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if c.Kind == CursorInt {
		return json.Marshal(c.Int)
	}
	return json.Marshal(c.String)
}

// FeedItem is one element of a user feed: exactly one of Post or Comment is set.
type FeedItem struct {
	Post    *Post
	Comment *Comment
}

// IsPost reports whether the item holds a post.
func (f FeedItem) IsPost() bool { return f.Post != nil }

// IsComment reports whether the item holds a comment.
func (f FeedItem) IsComment() bool { return f.Comment != nil }

// MarshalJSON writes whichever variant the item holds.
func (f FeedItem) MarshalJSON() ([]byte, error) {
	switch {
	case f.Post != nil:
		return json.Marshal(f.Post)
	case f.Comment != nil:
		return json.Marshal(f.Comment)
	default:
		return []byte("null"), nil
	}
}

// Feed is a page of a user's feed.
type Feed struct {
	Items []FeedItem `json:"feed"`
	Next  *Cursor    `json:"next"` // Nil at the end of pagination
}

// PostsPage is a page of the posts listing.
type PostsPage struct {
	Posts []*Post `json:"posts"`
	Next  *string `json:"next"` // Nil at the end of pagination
}

// UserResult is the response of endpoints returning either a user or an API
// error. Exactly one field is set.
type UserResult struct {
	User  *User
	Error *APIError
}

// FeedResult is the response of the user feed endpoint. Exactly one field is set.
type FeedResult struct {
	Feed  *Feed
	Error *APIError
}

// PostsResult is the response of the posts listing. Exactly one field is set.
type PostsResult struct {
	Page  *PostsPage
	Error *APIError
}

// LoginRequest is the JSON body sent to /api/_login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Pagination captures the shared pagination controls of listing endpoints.
type Pagination struct {
	// Limit is the number of items per page. Zero leaves the server default.
	Limit int

	// Next is the cursor returned by the previous page. Nil requests the first page.
	Next *Cursor
}

// PostsRequest describes a request to the posts listing.
type PostsRequest struct {
	// Sort is one of latest, hot, activity, day, week, month, year, all.
	// Defaults to hot.
	Sort string

	// Community restricts the listing to one community. Empty means site-wide,
	// and the parameter is then omitted from the request.
	Community string

	Pagination
}

// FeedRequest describes a request for a user's feed of posts and comments.
type FeedRequest struct {
	Username string
	Pagination
}
