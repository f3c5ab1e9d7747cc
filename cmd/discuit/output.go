package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/jamesprial/go-discuit-api-wrapper/internal/query"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

const excerptLength = 72

func (a *app) write(result any, filter *query.Filter, format string) error {
	if filter != nil {
		values, err := filter.Run(result)
		if err != nil {
			return err
		}
		for _, v := range values {
			if s, ok := v.(string); ok {
				fmt.Fprintln(a.stdout, s)
				continue
			}
			if err := writeJSON(a.stdout, v); err != nil {
				return err
			}
		}
		return nil
	}

	if format == "text" {
		return writeText(a.stdout, result)
	}
	return writeJSON(a.stdout, result)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(w io.Writer, result any) error {
	switch v := result.(type) {
	case *types.InitialResponse:
		fmt.Fprintf(w, "%s users, %s communities\n",
			humanize.Comma(int64(v.NoUsers)), humanize.Comma(int64(len(v.Communities))))
		if v.User != nil {
			fmt.Fprintf(w, "logged in as %s\n", v.User.Username)
		}
	case *types.User:
		writeUser(w, v)
	case *types.PostsPage:
		for _, p := range v.Posts {
			writePost(w, p)
		}
		if v.Next != nil {
			fmt.Fprintf(w, "next: %s\n", *v.Next)
		}
	case *types.Feed:
		for _, item := range v.Items {
			switch {
			case item.IsPost():
				writePost(w, item.Post)
			case item.IsComment():
				writeComment(w, item.Comment)
			}
		}
		if v.Next != nil {
			fmt.Fprintf(w, "next: %s\n", v.Next.Value())
		}
	default:
		return writeJSON(w, result)
	}
	return nil
}

func writeUser(w io.Writer, u *types.User) {
	if u == nil {
		fmt.Fprintln(w, "no user")
		return
	}
	fmt.Fprintf(w, "%s  %s points  %s posts  %s comments  joined %s\n",
		u.Username,
		humanize.Comma(int64(u.Points)),
		humanize.Comma(int64(u.NoPosts)),
		humanize.Comma(int64(u.NoComments)),
		ago(u.CreatedAt))
}

func writePost(w io.Writer, p *types.Post) {
	fmt.Fprintf(w, "%-8s [%s] %s  by %s, %s, %d comments\n",
		p.PublicID, p.CommunityName, p.Title, p.Username, ago(p.CreatedAt), p.NoComments)
}

func writeComment(w io.Writer, c *types.Comment) {
	fmt.Fprintf(w, "%-8s [%s] %q  by %s, %s\n",
		c.PostPublicID, c.CommunityName, excerpt(c.Body), c.Username, ago(c.CreatedAt))
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "at an unknown time"
	}
	return humanize.Time(t)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= excerptLength {
		return s
	}
	cut := excerptLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
