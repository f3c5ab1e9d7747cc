// Package discuit provides a typed Go client for the Discuit REST API.
//
// # Overview
//
// Discuit authenticates browsers with two cookies: an anti-forgery token
// (csrftoken) and a session identifier (SID). This package obtains both with
// a handshake, carries them on every call, and maps each endpoint's response
// onto typed values from pkg/types.
//
// # Quick Start
//
//	client, err := discuit.NewClient(&discuit.Config{
//		UserAgent: "mybot/1.0",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := client.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Login(ctx, "username", "password")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if result.Error != nil {
//		log.Fatalf("login rejected: %s", result.Error.Message)
//	}
//
// # Session Lifecycle
//
// A Client moves through three states:
//
//	StateUninitialized --Initialize--> StateAnonymous --Login--> StateAuthenticated
//	StateAuthenticated --Logout/Reset--> StateUninitialized
//
// Initialize may be called again at any time to start a fresh session. A
// failed Login leaves the current session untouched. Logout is a no-op when
// nobody is logged in, and otherwise always clears the local session even if
// the server could not be reached. No call is refused locally because of the
// state; the server decides what an unauthenticated request may see.
//
// # Results and Errors
//
// Endpoints that the server answers either with a value or with an
// application error return an envelope holding exactly one of them:
//
//	result, err := client.GetUser(ctx, "previnder")
//	switch {
//	case err != nil:
//		// the exchange itself failed
//	case result.Error != nil:
//		// e.g. result.Error.CodeValue() == "user_not_found"
//	default:
//		fmt.Println(result.User.Username)
//	}
//
// The error return is one of the types in pkg/errors:
//
//   - *errors.ConfigError: invalid configuration or parameters, raised before any request
//   - *errors.TransportError: the request could not be sent or the body could not be read
//   - *errors.DecodeError: a 2xx body matched none of the expected shapes
//   - *errors.StatusError: a non-2xx body matched none of the expected shapes
//
// Me has no envelope and returns a *types.APIError as its error instead. All
// of these work with errors.As.
//
// # Pagination
//
// Listings return an opaque cursor. A nil cursor means there are no further
// pages; an empty string is still a valid cursor. User feed cursors may be
// strings or integers:
//
//	req := &types.FeedRequest{Username: "previnder"}
//	for {
//		result, err := client.GetUserFeed(ctx, req)
//		if err != nil || result.Error != nil {
//			break
//		}
//		for _, item := range result.Feed.Items {
//			if item.IsPost() {
//				fmt.Println(item.Post.Title)
//			}
//		}
//		if result.Feed.Next == nil {
//			break
//		}
//		req.Next = result.Feed.Next
//	}
//
// NewPostIterator and NewFeedIterator wrap the same loop.
//
// # Logging
//
// Set Config.Logger to log requests, responses and state transitions with
// log/slog, or Config.Observer to receive the events directly. Token values
// are never reported.
//
// # Concurrency
//
// A Client is not safe for concurrent use. Issue one call at a time, or give
// each goroutine its own Client.
package discuit
