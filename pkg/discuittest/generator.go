package discuittest

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

// Generator produces realistic posts and comments for seeding a Server. The
// same seed always yields the same content, relative to the generator's clock.
type Generator struct {
	rand        *rand.Rand
	now         time.Time
	communities []string
	topics      []string
	titles      []string
	sentences   []string
	hosts       []string
}

// NewGenerator creates a generator. Timestamps are spread over the 24 hours
// before now.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{
		rand: rand.New(rand.NewSource(seed)),
		now:  now.UTC(),
		communities: []string{
			"general", "golang", "programming", "linux", "selfhosted",
			"discuit", "books", "science", "music", "games",
		},
		topics: []string{
			"generics", "error handling", "the new release", "cookie sessions",
			"pagination", "self-hosting", "moderation", "federation", "dark mode",
			"mechanical keyboards",
		},
		titles: []string{
			"What do you think about %s?",
			"A short guide to %s",
			"I finally tried %s",
			"Is anyone else struggling with %s?",
			"Weekly thread: %s",
			"Unpopular opinion on %s",
		},
		sentences: []string{
			"This took me longer than I expected.",
			"Happy to answer questions in the comments.",
			"The docs were not much help here.",
			"Curious how others approach this.",
			"Edit: thanks for all the replies!",
			"It works, but I am not sure it is idiomatic.",
		},
		hosts: []string{"github.com", "go.dev", "en.wikipedia.org", "lwn.net", "example.org"},
	}
}

func (g *Generator) pick(values []string) string {
	return values[g.rand.Intn(len(values))]
}

func (g *Generator) timestamp() time.Time {
	return g.now.Add(-time.Duration(g.rand.Intn(86400)) * time.Second).Truncate(time.Second)
}

func (g *Generator) body(sentences int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = g.pick(g.sentences)
	}
	return strings.Join(parts, " ")
}

// Community returns one of the generator's community names.
func (g *Generator) Community() string {
	return g.pick(g.communities)
}

// GeneratePost creates a post by author. The server fills in IDs when the
// post is added.
func (g *Generator) GeneratePost(author string) types.Post {
	topic := g.pick(g.topics)
	created := g.timestamp()
	upvotes := g.rand.Intn(500)
	downvotes := g.rand.Intn(upvotes/4 + 1)

	post := types.Post{
		Title:          fmt.Sprintf(g.pick(g.titles), topic),
		Username:       author,
		CommunityName:  g.Community(),
		Upvotes:        upvotes,
		Downvotes:      downvotes,
		Hotness:        upvotes - downvotes + g.rand.Intn(100),
		CreatedAt:      created,
		LastActivityAt: created.Add(time.Duration(g.rand.Intn(3600)) * time.Second),
	}

	switch r := g.rand.Float32(); {
	case r < 0.6:
		post.Type = "text"
		body := g.body(1 + g.rand.Intn(4))
		post.Body = &body
	case r < 0.9:
		host := g.pick(g.hosts)
		post.Type = "link"
		post.Link = &types.PostLink{URL: "https://" + host + "/" + strings.ReplaceAll(topic, " ", "-"), Hostname: host}
	default:
		post.Type = "image"
	}

	return post
}

// GenerateComment creates a top-level comment by author on post.
func (g *Generator) GenerateComment(post *types.Post, author string) types.Comment {
	created := post.CreatedAt.Add(time.Duration(1+g.rand.Intn(7200)) * time.Second)
	if created.After(g.now) {
		created = g.now
	}

	return types.Comment{
		PostID:        post.ID,
		PostPublicID:  post.PublicID,
		PostTitle:     post.Title,
		CommunityID:   post.CommunityID,
		CommunityName: post.CommunityName,
		Username:      author,
		Body:          g.body(1 + g.rand.Intn(3)),
		Upvotes:       g.rand.Intn(50),
		Downvotes:     g.rand.Intn(5),
		CreatedAt:     created,
		Ancestors:     []string{},
	}
}

// SeedOptions controls how much content Seed creates.
type SeedOptions struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	Password        string // Shared by every generated account; "password" if empty
}

// Seeded lists what Seed created.
type Seeded struct {
	Users    []*types.User
	Posts    []*types.Post
	Comments []*types.Comment
}

// Seed registers generated users, posts and comments on s. Usernames are
// user_00, user_01 and so on.
func (s *Server) Seed(g *Generator, opts SeedOptions) Seeded {
	password := opts.Password
	if password == "" {
		password = "password"
	}

	var out Seeded
	for i := 0; i < opts.Users; i++ {
		out.Users = append(out.Users, s.AddUser(fmt.Sprintf("user_%02d", i), password))
	}
	if len(out.Users) == 0 {
		return out
	}

	for _, u := range out.Users {
		for i := 0; i < opts.PostsPerUser; i++ {
			out.Posts = append(out.Posts, s.AddPost(g.GeneratePost(u.Username)))
		}
	}

	for _, p := range out.Posts {
		for i := 0; i < opts.CommentsPerPost; i++ {
			author := out.Users[g.rand.Intn(len(out.Users))]
			out.Comments = append(out.Comments, s.AddComment(g.GenerateComment(p, author.Username)))
		}
	}

	return out
}
