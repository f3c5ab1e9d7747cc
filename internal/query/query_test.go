package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

func TestCompile_InvalidExpression(t *testing.T) {
	_, err := Compile(".posts[")
	assert.Error(t, err)
}

func TestFilter_Run(t *testing.T) {
	page := &types.PostsPage{
		Posts: []*types.Post{
			{PublicID: "a", Title: "First", CommunityName: "general"},
			{PublicID: "b", Title: "Second", CommunityName: "golang"},
		},
	}

	tests := []struct {
		name       string
		expression string
		want       []any
	}{
		{name: "identity field", expression: ".next", want: []any{nil}},
		{name: "iterate titles", expression: ".posts[].title", want: []any{"First", "Second"}},
		{name: "select", expression: `.posts[] | select(.communityName == "golang") | .publicId`, want: []any{"b"}},
		{name: "length", expression: ".posts | length", want: []any{2}},
		{name: "empty", expression: "empty", want: []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expression)
			require.NoError(t, err)

			got, err := f.Run(page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_RunCursor(t *testing.T) {
	feed := &types.Feed{Items: []types.FeedItem{}, Next: types.IntCursor(42)}

	f, err := Compile(".next")
	require.NoError(t, err)

	got, err := f.Run(feed)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(42)}, got)
}

func TestFilter_RuntimeError(t *testing.T) {
	f, err := Compile(".posts[0].title | tonumber")
	require.NoError(t, err)

	_, err = f.Run(&types.PostsPage{Posts: []*types.Post{{Title: "not a number"}}})
	assert.Error(t, err)
}
