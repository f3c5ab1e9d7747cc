package helpers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSONGenerator creates malicious and malformed Discuit payloads for testing
type JSONGenerator struct{}

// NewJSONGenerator creates a new JSON generator
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// GenerateMalformedBodies returns bodies that are not a single valid JSON value
func (g *JSONGenerator) GenerateMalformedBodies() []string {
	return []string{
		``,
		` `,
		`{`,
		`}`,
		`[`,
		`{"id": "abc", "username": "previnder"`,
		`{"id": "abc" "username": "previnder"}`,
		`{"id": "abc", "username": "previnder",}`,
		`{'id': 'abc', 'username': 'previnder'}`,
		`{id: "abc", username: "previnder"}`,
		`{"id": "abc", "username": "previnder"} {"id": "def"}`,
		`{"id": "abc", "username": "previnder"} trailing`,
		"\xff\xfe{\"id\": \"abc\"}",
		`<html><body>It works!</body></html>`,
		`NaN`,
		`undefined`,
	}
}

// GenerateWrongShapes returns valid JSON values that are no known response shape
func (g *JSONGenerator) GenerateWrongShapes() []string {
	return []string{
		`null`,
		`true`,
		`0`,
		`"previnder"`,
		`[]`,
		`[{"id": "abc", "username": "previnder"}]`,
		`{}`,
		`{"kind": "t2", "data": {"name": "previnder"}}`,
		`{"user": {"id": "abc", "username": "previnder"}}`,
	}
}

// GenerateWrongTypedUsers returns user-like bodies whose defining fields
// have the wrong JSON type
func (g *JSONGenerator) GenerateWrongTypedUsers() []string {
	return []string{
		`{"id": 123, "username": "previnder"}`,
		`{"id": "abc", "username": 123}`,
		`{"id": null, "username": "previnder"}`,
		`{"id": "abc", "username": null}`,
		`{"id": ["abc"], "username": "previnder"}`,
		`{"id": {"$oid": "abc"}, "username": "previnder"}`,
		`{"id": "abc"}`,
	}
}

// GenerateWrongTypedAPIErrors returns error-like bodies that must not be
// mistaken for an API error
func (g *JSONGenerator) GenerateWrongTypedAPIErrors() []string {
	return []string{
		`{"status": "404", "code": "user_not_found", "message": "User not found."}`,
		`{"status": 404.5, "code": "user_not_found", "message": "User not found."}`,
		`{"status": 404, "code": 7, "message": "User not found."}`,
		`{"status": 404, "code": "user_not_found", "message": null}`,
		`{"status": 404, "code": "user_not_found"}`,
		`{"code": "user_not_found", "message": "User not found."}`,
		`{"error": "not found"}`,
	}
}

// GenerateBadCursors returns feed bodies whose next cursor is neither a
// string, an integer nor null
func (g *JSONGenerator) GenerateBadCursors() []string {
	return []string{
		`{"feed": [], "next": 1.5}`,
		`{"feed": [], "next": true}`,
		`{"feed": [], "next": {"offset": 10}}`,
		`{"feed": [], "next": [10]}`,
		`{"feed": [], "next": 1e400}`,
	}
}

// GenerateDeeplyNested wraps a user object in an unknown field nested depth
// arrays deep.
func (g *JSONGenerator) GenerateDeeplyNested(depth int) string {
	var sb strings.Builder
	sb.WriteString(`{"id": "abc", "username": "previnder", "extra": `)
	sb.WriteString(strings.Repeat("[", depth))
	sb.WriteString(strings.Repeat("]", depth))
	sb.WriteString(`}`)
	return sb.String()
}

// GenerateLargeUser returns a user whose aboutMe field is size bytes long
func (g *JSONGenerator) GenerateLargeUser(size int) string {
	about := strings.Repeat("a", size)
	return fmt.Sprintf(`{"id": "abc", "username": "previnder", "aboutMe": %q}`, about)
}

// GenerateFeed returns a feed body with n alternating posts and comments
func (g *JSONGenerator) GenerateFeed(n int, next any) string {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			items = append(items, map[string]any{
				"id":            fmt.Sprintf("post%d", i),
				"publicId":      fmt.Sprintf("p%d", i),
				"title":         fmt.Sprintf("Post %d", i),
				"type":          "text",
				"communityName": "general",
			})
			continue
		}
		items = append(items, map[string]any{
			"id":            fmt.Sprintf("comment%d", i),
			"postId":        fmt.Sprintf("post%d", i-1),
			"postPublicId":  fmt.Sprintf("p%d", i-1),
			"depth":         0,
			"body":          fmt.Sprintf("Comment %d", i),
			"communityName": "general",
		})
	}

	data, _ := json.Marshal(map[string]any{"feed": items, "next": next})
	return string(data)
}

// GenerateAmbiguousFeedItems returns feed bodies whose single item carries
// the defining fields of both a post and a comment, or of neither
func (g *JSONGenerator) GenerateAmbiguousFeedItems() map[string]string {
	return map[string]string{
		"both":          `{"feed": [{"publicId": "p1", "title": "T", "postId": "x", "depth": 0}], "next": null}`,
		"neither":       `{"feed": [{"id": "x", "body": "orphan"}], "next": null}`,
		"null item":     `{"feed": [null], "next": null}`,
		"string item":   `{"feed": ["post"], "next": null}`,
		"comment depth": `{"feed": [{"postId": "x", "depth": "0"}], "next": null}`,
	}
}
