package helpers

import (
	"math/rand"
	"strings"
)

// Fuzzer provides utilities for generating adversarial input strings
type Fuzzer struct {
	rnd *rand.Rand
}

// NewFuzzer creates a new Fuzzer with the given seed
func NewFuzzer(seed int64) *Fuzzer {
	return &Fuzzer{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// FuzzUsername generates hostile usernames for request paths
func (f *Fuzzer) FuzzUsername() []string {
	return []string{
		// Boundary cases
		"",
		"a",
		"ab",
		strings.Repeat("a", 22), // One char too long
		strings.Repeat("a", 1000),

		// Path traversal and path splitting
		"../admin",
		"../../api/_user",
		"user/feed",
		"user%2Ffeed",
		"user?limit=100",
		"user#fragment",
		"..",
		".",

		// Injection attempts
		"user'; DROP TABLE users--",
		"user<script>alert(1)</script>",
		"user\r\nX-Evil: injected",

		// Unicode and control characters
		"user\x00admin",
		"user\u202Eadmin",
		"тест",
		"用户名",
		"user name",
		"user\tname",
	}
}

// FuzzCommunity generates hostile community filters
func (f *Fuzzer) FuzzCommunity() []string {
	return []string{
		"general\nX-Evil: injected",
		"general\r\n",
		"gen eral",
		"general\t",
		" general",
	}
}

// FuzzQuerySafeCommunity generates community names that contain query
// metacharacters but no whitespace, so they reach the server encoded
func (f *Fuzzer) FuzzQuerySafeCommunity() []string {
	return []string{
		"general&sort=latest",
		"general#top",
		"general?x=1",
		"a=b",
		"%00",
		"../../api/_user",
		"тест",
	}
}

// FuzzSort generates values that are not sort orders
func (f *Fuzzer) FuzzSort() []string {
	return []string{
		"new",
		"top",
		"HOT",
		"Latest",
		" hot",
		"hot ",
		"hot&limit=100",
		"hot\n",
		"hot\x00",
		strings.Repeat("hot", 100),
	}
}

// FuzzCursor generates cursor strings that must be sent verbatim
func (f *Fuzzer) FuzzCursor() []string {
	return []string{
		"",
		" ",
		"abc&limit=100",
		"abc#frag",
		"abc def",
		"../../etc/passwd",
		"%2F%2F",
		"тест",
		"\u202Eabc",
		strings.Repeat("x", 4096),
	}
}

// FuzzUserAgent generates malicious User-Agent test cases
func (f *Fuzzer) FuzzUserAgent() []string {
	return []string{
		// Empty
		"",

		// Header injection via newlines
		"MyApp/1.0\nX-Evil-Header: injected",
		"MyApp/1.0\rX-Evil-Header: injected",
		"MyApp/1.0\r\nX-Evil-Header: injected",
		"MyApp/1.0\n\nInjected Body",
		"MyApp/1.0\nCookie: SID=stolen",

		// Extremely long
		strings.Repeat("a", 257),
		strings.Repeat("a", 10000),

		// Multiple newlines
		"\n\n\nMyApp/1.0",
		"MyApp/1.0\r\nContent-Length: 0\r\n\r\nGET /api/_user HTTP/1.1",
	}
}

// FuzzPaginationLimit generates adversarial pagination limit values
func (f *Fuzzer) FuzzPaginationLimit() []int {
	return []int{
		-1,
		-100,
		-2147483648,
		101,
		1000,
		2147483647,
	}
}

// GenerateRandomString generates a random string of the given length with specified character types
func (f *Fuzzer) GenerateRandomString(length int, includeSpecial bool) string {
	const (
		letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
		special = "!@#$%^&*()_+-=[]{}|;':\",./<>?`~"
	)

	charset := letters
	if includeSpecial {
		charset += special
	}

	result := make([]byte, length)
	for i := range result {
		result[i] = charset[f.rnd.Intn(len(charset))]
	}
	return string(result)
}

// GenerateUnicodeAttacks generates strings with various Unicode attack patterns
func (f *Fuzzer) GenerateUnicodeAttacks() []string {
	return []string{
		"test\u200Bstring", // Zero-width space
		"test\uFEFFstring", // Zero-width no-break space
		"test\u202Estring", // Right-to-left override
		"a\u0301\u0302\u0303",
		"gооgle", // Cyrillic о
		"test\u0000string",
	}
}
