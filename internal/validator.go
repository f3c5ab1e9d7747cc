package internal

import (
	"fmt"
	"strings"

	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/validation"
)

const (
	// Pagination constraints
	maxPaginationLimit = 100

	// User agent constraints
	maxUserAgentLength = 256

	// DefaultSort is used by the posts listing when no sort is given.
	DefaultSort = "hot"
)

// Validator provides validation operations for request parameters. Every
// failure is a *errors.ConfigError raised before any network call.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUsername checks a username used in a request path.
func (v *Validator) ValidateUsername(name string) error {
	if name == "" {
		return &pkgerrs.ConfigError{Field: "username", Message: "username cannot be empty"}
	}
	if !validation.IsValidUsername(name) {
		return &pkgerrs.ConfigError{Field: "username", Message: fmt.Sprintf("invalid username %q: must be 3-21 letters, digits or underscores", name)}
	}
	return nil
}

// ValidateCredentials checks a login request before it is sent.
func (v *Validator) ValidateCredentials(username, password string) error {
	if username == "" {
		return &pkgerrs.ConfigError{Field: "username", Message: "username cannot be empty"}
	}
	if password == "" {
		return &pkgerrs.ConfigError{Field: "password", Message: "password cannot be empty"}
	}
	return nil
}

// ValidateSort checks a posts sort order. The empty string is accepted and
// means the default.
func (v *Validator) ValidateSort(sort string) error {
	if sort == "" {
		return nil
	}
	if !validation.IsValidSort(sort) {
		return &pkgerrs.ConfigError{Field: "sort", Message: fmt.Sprintf("unknown sort %q (valid: %s)", sort, strings.Join(validation.Sorts, ", "))}
	}
	return nil
}

// ValidateCommunity checks the optional community filter.
func (v *Validator) ValidateCommunity(community string) error {
	if community == "" {
		return nil
	}
	if strings.ContainsAny(community, "\r\n\t ") {
		return &pkgerrs.ConfigError{Field: "community", Message: "community cannot contain whitespace"}
	}
	return nil
}

// ValidatePagination checks if pagination parameters are valid.
func (v *Validator) ValidatePagination(pagination *types.Pagination) error {
	if pagination == nil {
		return nil
	}
	if pagination.Limit < 0 {
		return &pkgerrs.ConfigError{Field: "pagination.Limit", Message: "limit cannot be negative"}
	}
	if pagination.Limit > maxPaginationLimit {
		return &pkgerrs.ConfigError{Field: "pagination.Limit", Message: fmt.Sprintf("limit cannot exceed %d", maxPaginationLimit)}
	}
	return nil
}

// ValidateUserAgent validates the User-Agent string to prevent header injection attacks.
func (v *Validator) ValidateUserAgent(ua string) error {
	if len(ua) == 0 {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: "user agent cannot be empty"}
	}

	// Check for newline characters that could be used for header injection
	if strings.ContainsAny(ua, "\r\n") {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: "invalid user agent: cannot contain newline characters"}
	}

	if len(ua) > maxUserAgentLength {
		return &pkgerrs.ConfigError{Field: "UserAgent", Message: fmt.Sprintf("invalid user agent: too long (max %d characters)", maxUserAgentLength)}
	}

	return nil
}
