package feed

import (
	"context"
	"testing"
	"time"

	"github.com/campuslink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichMergesSignals(t *testing.T) {
	f := newFakeStore()
	now := time.Now()
	a := f.addPost("a", "u1", now)
	b := f.addPost("b", "u2", now)
	f.likes["a"] = 3
	f.reposts["a"] = 1
	f.replies["b"] = 2
	f.reactions["a"] = map[string]int{"🔥": 2}
	f.viewerLikes["a"] = true
	f.viewerBookmarks["b"] = true
	f.viewerReactions["a"] = []string{"🔥"}

	e := NewEnricher(f)
	items := e.Enrich(context.Background(), []models.Post{a, b}, "viewer")
	require.Len(t, items, 2)

	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 3, items[0].LikeCount)
	assert.Equal(t, 1, items[0].RepostCount)
	assert.Equal(t, 0, items[0].ReplyCount)
	assert.Equal(t, 2, items[0].Reactions["🔥"])
	assert.True(t, items[0].LikedByMe)
	assert.Equal(t, []string{"🔥"}, items[0].MyReactions)

	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, 0, items[1].LikeCount)
	assert.Equal(t, 2, items[1].ReplyCount)
	assert.False(t, items[1].LikedByMe)
	assert.True(t, items[1].BookmarkedByMe)
}

func TestEnrichAnonymousSkipsViewerSignals(t *testing.T) {
	f := newFakeStore()
	a := f.addPost("a", "u1", time.Now())
	f.viewerLikes["a"] = true
	f.viewerBookmarks["a"] = true

	items := NewEnricher(f).Enrich(context.Background(), []models.Post{a}, "")
	require.Len(t, items, 1)
	assert.False(t, items[0].LikedByMe)
	assert.False(t, items[0].BookmarkedByMe)
	assert.Empty(t, items[0].MyReactions)
}

func TestEnrichPreservesOrder(t *testing.T) {
	f := newFakeStore()
	now := time.Now()
	c := f.addPost("c", "u1", now)
	a := f.addPost("a", "u1", now)
	b := f.addPost("b", "u1", now)

	items := NewEnricher(f).Enrich(context.Background(), []models.Post{c, a, b}, "viewer")
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, "b", items[2].ID)
}

func TestEnrichDegradesFailedSignalToZero(t *testing.T) {
	f := newFakeStore()
	a := f.addPost("a", "u1", time.Now())
	f.likes["a"] = 5
	f.replies["a"] = 4
	f.failSignals["likes"] = errSignalDown

	items := NewEnricher(f).Enrich(context.Background(), []models.Post{a}, "viewer")
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].LikeCount, "failed signal defaults to zero")
	assert.Equal(t, 4, items[0].ReplyCount, "other signals unaffected")
}

func TestEnrichEmptyBatch(t *testing.T) {
	f := newFakeStore()
	items := NewEnricher(f).Enrich(context.Background(), nil, "viewer")
	assert.Empty(t, items)
}
