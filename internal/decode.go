package internal

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	pkgerrs "github.com/jamesprial/go-discuit-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Variant names one structural shape a response body may take. Each variant
// has a schema listing its defining required fields and their JSON types.
type Variant string

const (
	VariantAPIError Variant = "apierror"
	VariantUser     Variant = "user"
	VariantFeed     Variant = "feed"
	VariantPost     Variant = "post"
	VariantComment  Variant = "comment"
	VariantPosts    Variant = "posts"
	VariantInitial  Variant = "initial"
)

var allVariants = []Variant{
	VariantAPIError,
	VariantUser,
	VariantFeed,
	VariantPost,
	VariantComment,
	VariantPosts,
	VariantInitial,
}

// Decoder maps raw response bodies onto typed results. Untagged unions are
// resolved by trying candidate variants in a fixed order; a variant is
// accepted only when its own schema validates, never because another failed.
type Decoder struct {
	schemas map[Variant]*jsonschema.Schema
}

// NewDecoder compiles the embedded variant schemas.
func NewDecoder() (*Decoder, error) {
	compiler := jsonschema.NewCompiler()

	for _, v := range allVariants {
		name := string(v) + ".json"
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", name, err)
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing schema %s: %w", name, err)
		}

		if err := compiler.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("adding schema %s: %w", name, err)
		}
	}

	schemas := make(map[Variant]*jsonschema.Schema, len(allVariants))
	for _, v := range allVariants {
		compiled, err := compiler.Compile(string(v) + ".json")
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", v, err)
		}
		schemas[v] = compiled
	}

	return &Decoder{schemas: schemas}, nil
}

// Matches reports whether a parsed JSON value has every defining field of
// variant v with the expected type.
func (d *Decoder) Matches(v Variant, value any) bool {
	schema, ok := d.schemas[v]
	if !ok {
		return false
	}
	return schema.Validate(value) == nil
}

// candidate pairs a variant with the function that unmarshals the body into
// the variant's Go type.
type candidate struct {
	variant Variant
	decode  func(body []byte, value any) error
}

func unmarshalInto(dst any) func([]byte, any) error {
	return func(body []byte, _ any) error {
		return json.Unmarshal(body, dst)
	}
}

// parseValue parses body into a generic JSON value, keeping numbers as
// json.Number so integers are validated precisely.
func parseValue(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return value, nil
}

// resolve decodes the response body into the first matching candidate and
// returns its variant. A non-2xx response only ever decodes as an API error.
// A body that matches nothing is a StatusError when the status is non-2xx,
// otherwise a DecodeError.
func (d *Decoder) resolve(op, target string, resp *Response, candidates ...candidate) (Variant, error) {
	value, err := parseValue(resp.Body)
	if err != nil {
		return "", d.mismatch(op, target, resp, err)
	}

	for _, c := range candidates {
		if !resp.IsSuccess() && c.variant != VariantAPIError {
			continue
		}
		if !d.Matches(c.variant, value) {
			continue
		}
		if err := c.decode(resp.Body, value); err != nil {
			return "", &pkgerrs.DecodeError{Operation: op, Target: target, Body: string(resp.Body), Err: err}
		}
		return c.variant, nil
	}

	return "", d.mismatch(op, target, resp, nil)
}

func (d *Decoder) mismatch(op, target string, resp *Response, err error) error {
	if !resp.IsSuccess() {
		return &pkgerrs.StatusError{Operation: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return &pkgerrs.DecodeError{Operation: op, Target: target, Body: string(resp.Body), Err: err}
}

// DecodeInitial decodes the handshake payload.
func (d *Decoder) DecodeInitial(op string, resp *Response) (*types.InitialResponse, error) {
	var initial types.InitialResponse
	if _, err := d.resolve(op, "InitialResponse", resp,
		candidate{VariantInitial, unmarshalInto(&initial)},
	); err != nil {
		return nil, err
	}
	return &initial, nil
}

// DecodeUserResult decodes a body that is either a user or an API error.
func (d *Decoder) DecodeUserResult(op string, resp *Response) (*types.UserResult, error) {
	var user types.User
	var apiErr types.APIError

	variant, err := d.resolve(op, "UserResult", resp,
		candidate{VariantUser, unmarshalInto(&user)},
		candidate{VariantAPIError, unmarshalInto(&apiErr)},
	)
	if err != nil {
		return nil, err
	}

	if variant == VariantUser {
		return &types.UserResult{User: &user}, nil
	}
	return &types.UserResult{Error: &apiErr}, nil
}

// DecodePostsResult decodes a posts page or an API error.
func (d *Decoder) DecodePostsResult(op string, resp *Response) (*types.PostsResult, error) {
	var page types.PostsPage
	var apiErr types.APIError

	variant, err := d.resolve(op, "PostsResult", resp,
		candidate{VariantPosts, unmarshalInto(&page)},
		candidate{VariantAPIError, unmarshalInto(&apiErr)},
	)
	if err != nil {
		return nil, err
	}

	if variant == VariantPosts {
		if page.Posts == nil {
			page.Posts = []*types.Post{}
		}
		return &types.PostsResult{Page: &page}, nil
	}
	return &types.PostsResult{Error: &apiErr}, nil
}

// DecodeFeedResult decodes a user feed page or an API error. Each feed
// element is resolved on its own into a post or a comment.
func (d *Decoder) DecodeFeedResult(op string, resp *Response) (*types.FeedResult, error) {
	var feed types.Feed
	var apiErr types.APIError

	variant, err := d.resolve(op, "FeedResult", resp,
		candidate{VariantFeed, func(body []byte, value any) error {
			return d.decodeFeed(body, value, &feed)
		}},
		candidate{VariantAPIError, unmarshalInto(&apiErr)},
	)
	if err != nil {
		return nil, err
	}

	if variant == VariantFeed {
		return &types.FeedResult{Feed: &feed}, nil
	}
	return &types.FeedResult{Error: &apiErr}, nil
}

func (d *Decoder) decodeFeed(body []byte, value any, feed *types.Feed) error {
	var raw struct {
		Feed []json.RawMessage `json:"feed"`
		Next *types.Cursor     `json:"next"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}

	var parsed []any
	if obj, ok := value.(map[string]any); ok {
		parsed, _ = obj["feed"].([]any)
	}
	if len(parsed) != len(raw.Feed) {
		return fmt.Errorf("feed has %d raw items but %d parsed items", len(raw.Feed), len(parsed))
	}

	feed.Next = raw.Next
	feed.Items = make([]types.FeedItem, 0, len(raw.Feed))
	for i, item := range raw.Feed {
		decoded, err := d.decodeFeedItem(item, parsed[i])
		if err != nil {
			return fmt.Errorf("feed item %d: %w", i, err)
		}
		feed.Items = append(feed.Items, decoded)
	}
	return nil
}

func (d *Decoder) decodeFeedItem(item json.RawMessage, value any) (types.FeedItem, error) {
	switch {
	case d.Matches(VariantPost, value):
		var post types.Post
		if err := json.Unmarshal(item, &post); err != nil {
			return types.FeedItem{}, err
		}
		return types.FeedItem{Post: &post}, nil
	case d.Matches(VariantComment, value):
		var comment types.Comment
		if err := json.Unmarshal(item, &comment); err != nil {
			return types.FeedItem{}, err
		}
		return types.FeedItem{Comment: &comment}, nil
	default:
		return types.FeedItem{}, fmt.Errorf("item is neither a post nor a comment")
	}
}
