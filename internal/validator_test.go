package internal

import (
	"errors"
	"strings"
	"testing"

	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

func assertConfigError(t *testing.T, err error, wantError bool, errorMsg string) {
	t.Helper()
	if !wantError {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Errorf("expected error containing %q, got nil", errorMsg)
		return
	}
	if !strings.Contains(err.Error(), errorMsg) {
		t.Errorf("expected error containing %q, got %q", errorMsg, err.Error())
	}
	var configErr *pkgerrs.ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestValidator_ValidateUsername(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		input     string
		wantError bool
		errorMsg  string
	}{
		{name: "valid", input: "previnder"},
		{name: "valid with underscore", input: "some_user"},
		{name: "valid minimum length", input: "abc"},
		{name: "valid maximum length", input: strings.Repeat("a", 21)},

		{name: "empty string", input: "", wantError: true, errorMsg: "cannot be empty"},
		{name: "too short", input: "ab", wantError: true, errorMsg: "invalid username"},
		{name: "too long", input: strings.Repeat("a", 22), wantError: true, errorMsg: "invalid username"},
		{name: "path traversal", input: "../etc", wantError: true, errorMsg: "invalid username"},
		{name: "query injection", input: "bob?x=1", wantError: true, errorMsg: "invalid username"},
		{name: "contains space", input: "bob smith", wantError: true, errorMsg: "invalid username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertConfigError(t, v.ValidateUsername(tt.input), tt.wantError, tt.errorMsg)
		})
	}
}

func TestValidator_ValidateCredentials(t *testing.T) {
	v := NewValidator()

	assertConfigError(t, v.ValidateCredentials("user", "pass"), false, "")
	assertConfigError(t, v.ValidateCredentials("", "pass"), true, "username cannot be empty")
	assertConfigError(t, v.ValidateCredentials("user", ""), true, "password cannot be empty")
}

func TestValidator_ValidateSort(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{name: "empty means default", input: ""},
		{name: "latest", input: "latest"},
		{name: "hot", input: "hot"},
		{name: "activity", input: "activity"},
		{name: "day", input: "day"},
		{name: "week", input: "week"},
		{name: "month", input: "month"},
		{name: "year", input: "year"},
		{name: "all", input: "all"},
		{name: "unknown", input: "best", wantError: true},
		{name: "wrong case", input: "Hot", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertConfigError(t, v.ValidateSort(tt.input), tt.wantError, "unknown sort")
		})
	}
}

func TestValidator_ValidateCommunity(t *testing.T) {
	v := NewValidator()

	assertConfigError(t, v.ValidateCommunity(""), false, "")
	assertConfigError(t, v.ValidateCommunity("general"), false, "")
	assertConfigError(t, v.ValidateCommunity("gen eral"), true, "whitespace")
	assertConfigError(t, v.ValidateCommunity("gen\neral"), true, "whitespace")
}

func TestValidator_ValidatePagination(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		pagination *types.Pagination
		wantError  bool
		errorMsg   string
	}{
		{name: "nil pagination", pagination: nil},
		{name: "zero limit", pagination: &types.Pagination{}},
		{name: "max limit", pagination: &types.Pagination{Limit: 100}},
		{name: "with cursor", pagination: &types.Pagination{Limit: 10, Next: types.StringCursor("")}},
		{name: "negative limit", pagination: &types.Pagination{Limit: -1}, wantError: true, errorMsg: "cannot be negative"},
		{name: "over max", pagination: &types.Pagination{Limit: 101}, wantError: true, errorMsg: "cannot exceed 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertConfigError(t, v.ValidatePagination(tt.pagination), tt.wantError, tt.errorMsg)
		})
	}
}

func TestValidator_ValidateUserAgent(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		input     string
		wantError bool
		errorMsg  string
	}{
		{name: "valid", input: "go-discuit-api-wrapper/0.1"},
		{name: "max length", input: strings.Repeat("a", 256)},
		{name: "empty", input: "", wantError: true, errorMsg: "cannot be empty"},
		{name: "carriage return", input: "agent\r\nX-Evil: 1", wantError: true, errorMsg: "newline"},
		{name: "newline", input: "agent\n", wantError: true, errorMsg: "newline"},
		{name: "too long", input: strings.Repeat("a", 257), wantError: true, errorMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertConfigError(t, v.ValidateUserAgent(tt.input), tt.wantError, tt.errorMsg)
		})
	}
}
