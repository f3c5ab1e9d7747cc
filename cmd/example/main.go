package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	discuit "github.com/jamesprial/go-discuit-api-wrapper"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

func main() {
	// Credentials are optional; without them the example stays anonymous.
	username := os.Getenv("DISCUIT_USERNAME")
	password := os.Getenv("DISCUIT_PASSWORD")

	// Route structured logs to stdout; adjust the level as needed.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := discuit.NewClient(&discuit.Config{
		BaseURL:   os.Getenv("DISCUIT_BASE_URL"),
		UserAgent: "example-bot/1.0",
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	// Every session starts with the handshake, which issues the CSRF token
	// and session cookie.
	ctx := context.Background()
	initial, err := client.Initialize(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}
	fmt.Printf("Connected to %s (%d users, %d communities)\n",
		client.BaseURL(), initial.NoUsers, len(initial.Communities))

	if username != "" && password != "" {
		result, err := client.Login(ctx, username, password)
		switch {
		case err != nil:
			log.Printf("Login failed: %v", err)
		case result.Error != nil:
			log.Printf("Login rejected: %s", result.Error.Message)
		default:
			fmt.Printf("Logged in as %s (%d points)\n", result.User.Username, result.User.Points)
			defer func() {
				if err := client.Logout(ctx); err != nil {
					log.Printf("Logout failed: %v", err)
				}
			}()
		}
	}

	// Me reports an API error when the session is anonymous.
	me, err := client.Me(ctx)
	var apiErr *types.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Printf("Not logged in (%s)\n", apiErr.Message)
	case err != nil:
		log.Printf("Failed to get current user: %v", err)
	default:
		fmt.Printf("Current user: %s\n", me.Username)
	}

	// Hot posts from the front page.
	posts, err := client.GetPosts(ctx, &types.PostsRequest{
		Sort:       "hot",
		Pagination: types.Pagination{Limit: 5},
	})
	if err != nil {
		log.Fatalf("Failed to get posts: %v", err)
	}
	if posts.Error != nil {
		log.Fatalf("Posts request rejected: %s", posts.Error.Message)
	}

	fmt.Println("\nHot posts:")
	for i, post := range posts.Page.Posts {
		fmt.Printf("%d. [%s] %s (%d up, %d comments)\n",
			i+1, post.CommunityName, post.Title, post.Upvotes, post.NoComments)
	}
	if posts.Page.Next != nil {
		fmt.Printf("Next page: %s\n", *posts.Page.Next)
	}

	if len(posts.Page.Posts) == 0 {
		return
	}

	// Profile and recent activity of the first author.
	author := posts.Page.Posts[0].Username
	user, err := client.GetUser(ctx, author)
	if err != nil {
		log.Printf("Failed to get user %s: %v", author, err)
	} else if user.Error != nil {
		fmt.Printf("\nUser %s: %s\n", author, user.Error.Message)
	} else {
		fmt.Printf("\n@%s: %d points, %d posts, %d comments\n",
			user.User.Username, user.User.Points, user.User.NoPosts, user.User.NoComments)
	}

	fmt.Println("\nRecent activity:")
	it := client.NewFeedIterator(ctx, &types.FeedRequest{Username: author}).WithLimit(5)
	items, err := it.Collect(5)
	if err != nil {
		log.Printf("Failed to read feed: %v", err)
	}
	for _, item := range items {
		switch {
		case item.IsPost():
			fmt.Printf("  post     %s\n", item.Post.Title)
		case item.IsComment():
			fmt.Printf("  comment  on %q: %.60s\n", item.Comment.PostTitle, item.Comment.Body)
		}
	}

	// Walk three pages of the latest listing with the post iterator.
	fmt.Println("\nLatest posts, three pages of five:")
	latest := client.NewPostIterator(ctx, &types.PostsRequest{Sort: "latest"}).WithLimit(5)
	recent, err := latest.Collect(15)
	if err != nil {
		log.Printf("Pagination stopped early: %v", err)
	}
	for _, post := range recent {
		fmt.Printf("  %s  %s\n", post.PublicID, post.Title)
	}
	fmt.Printf("Fetched %d posts\n", len(recent))
}
