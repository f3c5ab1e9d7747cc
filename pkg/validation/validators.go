package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

// Regular expressions for validating Discuit data formats
var (
	// usernameRegex matches valid usernames (3-21 chars, alphanumeric + underscore)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,21}$`)

	// communityRegex matches valid community names (3-21 chars, alphanumeric + underscore)
	communityRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,21}$`)

	// objectIDRegex matches server object IDs (12 bytes, hex encoded)
	objectIDRegex = regexp.MustCompile(`^[0-9a-f]{24}$`)

	// publicIDRegex matches the short public IDs used in post URLs
	publicIDRegex = regexp.MustCompile(`^[0-9a-zA-Z_-]{1,32}$`)
)

// Sorts lists every sort order accepted by the posts listing.
var Sorts = []string{"latest", "hot", "activity", "day", "week", "month", "year", "all"}

// IsValidUsername checks if a string is a valid username
func IsValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}

// IsValidCommunityName checks if a string is a valid community name
func IsValidCommunityName(s string) bool {
	return communityRegex.MatchString(s)
}

// IsValidObjectID checks if a string is a valid server object ID
func IsValidObjectID(s string) bool {
	return objectIDRegex.MatchString(s)
}

// IsValidPublicID checks if a string is a valid post public ID
func IsValidPublicID(s string) bool {
	return publicIDRegex.MatchString(s)
}

// IsValidSort checks if a string names a supported sort order
func IsValidSort(s string) bool {
	for _, sort := range Sorts {
		if s == sort {
			return true
		}
	}
	return false
}

// ValidateUser validates a decoded User's fields
func ValidateUser(u *types.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	var errs []error

	if u.ID == "" {
		errs = append(errs, fmt.Errorf("ID is required"))
	}

	if !IsValidUsername(u.Username) {
		errs = append(errs, fmt.Errorf("Username has invalid format: %q", u.Username))
	}

	if u.NoPosts < 0 || u.NoComments < 0 {
		errs = append(errs, fmt.Errorf("post and comment counts cannot be negative"))
	}

	if err := validateTimestamp("CreatedAt", u.CreatedAt); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("user validation failed: %w", joinValidationErrors(errs))
	}

	return nil
}

// ValidatePost validates a decoded Post's fields
func ValidatePost(p *types.Post) error {
	if p == nil {
		return fmt.Errorf("post is nil")
	}

	var errs []error

	if !IsValidPublicID(p.PublicID) {
		errs = append(errs, fmt.Errorf("PublicID has invalid format: %q", p.PublicID))
	}

	if p.Title == "" {
		errs = append(errs, fmt.Errorf("Title is required"))
	}

	switch p.Type {
	case "text", "image", "link":
	default:
		errs = append(errs, fmt.Errorf("Type must be text, image or link, got %q", p.Type))
	}

	if p.CommunityName != "" && !IsValidCommunityName(p.CommunityName) {
		errs = append(errs, fmt.Errorf("CommunityName has invalid format: %q", p.CommunityName))
	}

	if p.NoComments < 0 {
		errs = append(errs, fmt.Errorf("NoComments cannot be negative, got %d", p.NoComments))
	}

	if err := validateTimestamp("CreatedAt", p.CreatedAt); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("post validation failed: %w", joinValidationErrors(errs))
	}

	return nil
}

// ValidateComment validates a decoded Comment's fields
func ValidateComment(c *types.Comment) error {
	if c == nil {
		return fmt.Errorf("comment is nil")
	}

	var errs []error

	if c.PostID == "" {
		errs = append(errs, fmt.Errorf("PostID is required"))
	}

	if c.Depth < 0 {
		errs = append(errs, fmt.Errorf("Depth cannot be negative, got %d", c.Depth))
	}

	// Top-level comments have no parent; replies must name one.
	if c.Depth > 0 && (c.ParentID == nil || *c.ParentID == "") {
		errs = append(errs, fmt.Errorf("ParentID is required at depth %d", c.Depth))
	}

	if len(c.Ancestors) > 0 && len(c.Ancestors) != c.Depth {
		errs = append(errs, fmt.Errorf("Ancestors has %d entries for depth %d", len(c.Ancestors), c.Depth))
	}

	if err := validateTimestamp("CreatedAt", c.CreatedAt); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("comment validation failed: %w", joinValidationErrors(errs))
	}

	return nil
}

// validateTimestamp rejects zero timestamps and timestamps in the future,
// allowing an hour of clock skew.
func validateTimestamp(field string, ts time.Time) error {
	if ts.IsZero() {
		return fmt.Errorf("%s is required", field)
	}
	if ts.After(time.Now().Add(time.Hour)) {
		return fmt.Errorf("%s is in the future: %s", field, ts.Format(time.RFC3339))
	}
	return nil
}

// joinValidationErrors combines multiple errors into a single error message
func joinValidationErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
