package discuit

import (
	"context"
	"errors"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

const maxPageLimit = 100

// ErrIteratorDone is returned by Next once an iterator is exhausted.
var ErrIteratorDone = errors.New("no more items available")

func clampLimit(limit int) int {
	if limit > maxPageLimit {
		return maxPageLimit
	}
	if limit < 1 {
		return 1
	}
	return limit
}

// sameCursor reports whether a page returned the cursor it was requested
// with, which means following it would fetch the same page again.
func sameCursor(sent, got *types.Cursor) bool {
	return sent != nil && got != nil && *sent == *got
}

// PostIterator pages through the posts listing, following the cursor
// returned with each page.
type PostIterator struct {
	client    *Client
	ctx       context.Context
	request   types.PostsRequest
	start     *types.Cursor
	buffer    []*types.Post
	bufferIdx int
	hasMore   bool
	err       error
}

// NewPostIterator creates an iterator over the posts listing described by
// request. A nil request iterates the site-wide "hot" listing.
func (c *Client) NewPostIterator(ctx context.Context, request *types.PostsRequest) *PostIterator {
	it := &PostIterator{client: c, ctx: ctx, hasMore: true}
	if request != nil {
		it.request = *request
		it.start = request.Next
	}
	return it
}

// WithLimit sets the number of posts to fetch per request, clamped to 1..100.
func (it *PostIterator) WithLimit(limit int) *PostIterator {
	it.request.Limit = clampLimit(limit)
	return it
}

// HasNext returns true if there may be more posts to iterate through.
func (it *PostIterator) HasNext() bool {
	if it.err != nil {
		return false
	}
	return it.bufferIdx < len(it.buffer) || it.hasMore
}

// Next returns the next post in the iteration. Pages are followed until the
// server returns no cursor; an empty page with a fresh cursor is skipped over.
// Once the listing is exhausted it returns ErrIteratorDone.
func (it *PostIterator) Next() (*types.Post, error) {
	for {
		if it.err != nil {
			return nil, it.err
		}

		if it.bufferIdx < len(it.buffer) {
			post := it.buffer[it.bufferIdx]
			it.bufferIdx++
			if post == nil {
				continue
			}
			return post, nil
		}

		if !it.hasMore {
			return nil, ErrIteratorDone
		}
		if err := it.fetch(); err != nil {
			it.err = err
			return nil, err
		}
	}
}

func (it *PostIterator) fetch() error {
	result, err := it.client.GetPosts(it.ctx, &it.request)
	if err != nil {
		return err
	}
	if result.Error != nil {
		return result.Error
	}

	page := result.Page
	it.buffer = page.Posts
	it.bufferIdx = 0

	if page.Next == nil {
		it.hasMore = false
		return nil
	}
	next := types.StringCursor(*page.Next)
	if sameCursor(it.request.Next, next) {
		it.hasMore = false
		return nil
	}
	it.request.Next = next
	return nil
}

// Err returns any error encountered during iteration.
func (it *PostIterator) Err() error {
	return it.err
}

// Reset restarts the iteration from the request's original cursor.
func (it *PostIterator) Reset() {
	it.buffer = nil
	it.bufferIdx = 0
	it.hasMore = true
	it.err = nil
	it.request.Next = it.start
}

// Collect fetches all remaining posts up to a maximum limit. A maxPosts of
// zero or less means no limit.
func (it *PostIterator) Collect(maxPosts int) ([]*types.Post, error) {
	var posts []*types.Post

	for it.HasNext() && (maxPosts <= 0 || len(posts) < maxPosts) {
		post, err := it.Next()
		if errors.Is(err, ErrIteratorDone) {
			break
		}
		if err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// FeedIterator pages through a user's feed of posts and comments.
type FeedIterator struct {
	client    *Client
	ctx       context.Context
	request   types.FeedRequest
	start     *types.Cursor
	buffer    []types.FeedItem
	bufferIdx int
	hasMore   bool
	err       error
}

// NewFeedIterator creates an iterator over the feed described by request.
func (c *Client) NewFeedIterator(ctx context.Context, request *types.FeedRequest) *FeedIterator {
	it := &FeedIterator{client: c, ctx: ctx, hasMore: true}
	if request != nil {
		it.request = *request
		it.start = request.Next
	}
	return it
}

// WithLimit sets the number of items to fetch per request, clamped to 1..100.
func (it *FeedIterator) WithLimit(limit int) *FeedIterator {
	it.request.Limit = clampLimit(limit)
	return it
}

// HasNext returns true if there may be more items to iterate through.
func (it *FeedIterator) HasNext() bool {
	if it.err != nil {
		return false
	}
	return it.bufferIdx < len(it.buffer) || it.hasMore
}

// Next returns the next feed item. Like PostIterator.Next it follows cursors
// across empty pages. Once the feed is exhausted it returns ErrIteratorDone.
func (it *FeedIterator) Next() (types.FeedItem, error) {
	for {
		if it.err != nil {
			return types.FeedItem{}, it.err
		}

		if it.bufferIdx < len(it.buffer) {
			item := it.buffer[it.bufferIdx]
			it.bufferIdx++
			return item, nil
		}

		if !it.hasMore {
			return types.FeedItem{}, ErrIteratorDone
		}
		if err := it.fetch(); err != nil {
			it.err = err
			return types.FeedItem{}, err
		}
	}
}

func (it *FeedIterator) fetch() error {
	request := it.request
	result, err := it.client.GetUserFeed(it.ctx, &request)
	if err != nil {
		return err
	}
	if result.Error != nil {
		return result.Error
	}

	feed := result.Feed
	it.buffer = feed.Items
	it.bufferIdx = 0

	if feed.Next == nil || sameCursor(it.request.Next, feed.Next) {
		it.hasMore = false
		return nil
	}
	it.request.Next = feed.Next
	return nil
}

// Err returns any error encountered during iteration.
func (it *FeedIterator) Err() error {
	return it.err
}

// Reset restarts the iteration from the request's original cursor.
func (it *FeedIterator) Reset() {
	it.buffer = nil
	it.bufferIdx = 0
	it.hasMore = true
	it.err = nil
	it.request.Next = it.start
}

// Collect fetches all remaining feed items up to a maximum limit. A
// maxItems of zero or less means no limit.
func (it *FeedIterator) Collect(maxItems int) ([]types.FeedItem, error) {
	var items []types.FeedItem

	for it.HasNext() && (maxItems <= 0 || len(items) < maxItems) {
		item, err := it.Next()
		if errors.Is(err, ErrIteratorDone) {
			break
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}

	return items, nil
}
