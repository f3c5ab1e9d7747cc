// Package errors defines the error types returned by the Discuit API wrapper.
//
// The taxonomy separates three outcomes a caller must be able to tell apart:
// the request never completed (TransportError), the server answered with a
// body no expected shape matched (DecodeError or StatusError), and the server
// explicitly rejected the request, which is not an error at all but a decoded
// types.APIError value.
package errors

import (
	"fmt"
	"strings"
)

// maxBodyInMessage caps how much of a raw body is quoted in Error() strings.
const maxBodyInMessage = 256

func truncateBody(body string) string {
	if len(body) <= maxBodyInMessage {
		return body
	}
	return body[:maxBodyInMessage] + "..."
}

// ConfigError indicates a problem with the client configuration or with
// request parameters rejected before any network call.
type ConfigError struct {
	// Field contains the name of the configuration field that caused the error
	Field string
	// Message contains the detailed error message
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// TransportError indicates the HTTP exchange did not complete: the request
// could not be built or sent, the connection failed, or the body could not be read.
type TransportError struct {
	// Operation is the name of the API operation that failed
	Operation string
	// URL is the URL that was being accessed
	URL string
	// Err contains the underlying error
	Err error
}

func (e *TransportError) Error() string {
	msg := "unknown failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}

	if e.Operation != "" && e.URL != "" {
		return fmt.Sprintf("transport error during %s to %s: %s", e.Operation, e.URL, msg)
	} else if e.Operation != "" {
		return fmt.Sprintf("transport error during %s: %s", e.Operation, msg)
	}
	return fmt.Sprintf("transport error: %s", msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a successful response whose body matched none of the
// shapes expected for the endpoint.
type DecodeError struct {
	// Operation is the name of the API operation where decoding failed
	Operation string
	// Target names the type the body was decoded into, e.g. "UserResult"
	Target string
	// Body is the raw response body
	Body string
	// Err contains the underlying error if available
	Err error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("decode error")
	if e.Operation != "" {
		fmt.Fprintf(&sb, " during %s", e.Operation)
	}
	if e.Target != "" {
		fmt.Fprintf(&sb, ": body does not match %s", e.Target)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	fmt.Fprintf(&sb, ", body: %q", truncateBody(e.Body))
	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusError indicates a non-2xx response whose body is not an API error
// object, such as a proxy error page.
type StatusError struct {
	// Operation is the name of the API operation that failed
	Operation string
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the raw response body
	Body string
}

func (e *StatusError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("unexpected status %d during %s, body: %q", e.StatusCode, e.Operation, truncateBody(e.Body))
	}
	return fmt.Sprintf("unexpected status %d, body: %q", e.StatusCode, truncateBody(e.Body))
}
