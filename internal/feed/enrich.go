// Package feed contains the feed core: batch enrichment of posts with
// engagement signals, the ranking heuristic for the "for you" tab, and the
// per-session controller that owns pagination and realtime merges.
package feed

import (
	"context"

	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/models"
	"go.uber.org/zap"
)

// SignalSource is the slice of the store the enricher reads from.
type SignalSource interface {
	LikeCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	RepostCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	ReplyCounts(ctx context.Context, postIDs []string) (map[string]int, error)
	ReactionCounts(ctx context.Context, postIDs []string) (map[string]map[string]int, error)
	ViewerLikes(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	ViewerReposts(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	ViewerBookmarks(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	ViewerReactions(ctx context.Context, viewerID string, postIDs []string) (map[string][]string, error)
	ViewerRegistrations(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
}

// EnrichedPost is a post merged with its aggregate engagement counts and,
// when a viewer is known, the viewer-relative flags.
type EnrichedPost struct {
	models.Post

	LikeCount   int            `json:"like_count"`
	RepostCount int            `json:"repost_count"`
	ReplyCount  int            `json:"reply_count"`
	Reactions   map[string]int `json:"reactions"` // emoji -> count

	LikedByMe      bool     `json:"liked_by_me"`
	RepostedByMe   bool     `json:"reposted_by_me"`
	BookmarkedByMe bool     `json:"bookmarked_by_me"`
	RegisteredByMe bool     `json:"registered_by_me"`
	MyReactions    []string `json:"my_reactions"`
}

// Enricher joins batches of posts with their signal counts.
type Enricher struct {
	signals SignalSource
}

// NewEnricher creates an enricher over a signal source.
func NewEnricher(signals SignalSource) *Enricher {
	return &Enricher{signals: signals}
}

// Enrich produces one EnrichedPost per input post, preserving input order.
// All signal fetches for the batch run concurrently; a failed fetch degrades
// that signal to its zero default for the whole batch and is logged, it
// never fails the batch. Viewer-relative fetches are skipped entirely when
// viewerID is empty.
func (e *Enricher) Enrich(ctx context.Context, posts []models.Post, viewerID string) []EnrichedPost {
	enriched := make([]EnrichedPost, len(posts))
	if len(posts) == 0 {
		return enriched
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var (
		likes     map[string]int
		reposts   map[string]int
		replies   map[string]int
		reactions map[string]map[string]int

		myLikes         map[string]bool
		myReposts       map[string]bool
		myBookmarks     map[string]bool
		myReactions     map[string][]string
		myRegistrations map[string]bool
	)

	type fetchResult struct {
		signal string
		err    error
	}
	type fetch struct {
		signal string
		run    func() error
	}

	fetches := []fetch{
		{"likes", func() (err error) { likes, err = e.signals.LikeCounts(ctx, ids); return }},
		{"reposts", func() (err error) { reposts, err = e.signals.RepostCounts(ctx, ids); return }},
		{"replies", func() (err error) { replies, err = e.signals.ReplyCounts(ctx, ids); return }},
		{"reactions", func() (err error) { reactions, err = e.signals.ReactionCounts(ctx, ids); return }},
	}
	if viewerID != "" {
		fetches = append(fetches,
			fetch{"viewer_likes", func() (err error) { myLikes, err = e.signals.ViewerLikes(ctx, viewerID, ids); return }},
			fetch{"viewer_reposts", func() (err error) { myReposts, err = e.signals.ViewerReposts(ctx, viewerID, ids); return }},
			fetch{"viewer_bookmarks", func() (err error) { myBookmarks, err = e.signals.ViewerBookmarks(ctx, viewerID, ids); return }},
			fetch{"viewer_reactions", func() (err error) { myReactions, err = e.signals.ViewerReactions(ctx, viewerID, ids); return }},
			fetch{"viewer_registrations", func() (err error) { myRegistrations, err = e.signals.ViewerRegistrations(ctx, viewerID, ids); return }},
		)
	}

	// Each fetch writes its own variable, so the only coordination needed
	// is the completion channel.
	results := make(chan fetchResult, len(fetches))
	for _, f := range fetches {
		f := f
		go func() {
			results <- fetchResult{signal: f.signal, err: f.run()}
		}()
	}
	for range fetches {
		r := <-results
		if r.err != nil {
			// Absence of a signal means zero counts, never an error for
			// the batch.
			logger.Log.Warn("feed signal fetch failed",
				zap.String("signal", r.signal),
				zap.Int("batch_size", len(ids)),
				zap.Error(r.err))
		}
	}

	for i, p := range posts {
		item := EnrichedPost{
			Post:        p,
			LikeCount:   likes[p.ID],
			RepostCount: reposts[p.ID],
			ReplyCount:  replies[p.ID],
			Reactions:   reactions[p.ID],
		}
		if item.Reactions == nil {
			item.Reactions = map[string]int{}
		}
		if viewerID != "" {
			item.LikedByMe = myLikes[p.ID]
			item.RepostedByMe = myReposts[p.ID]
			item.BookmarkedByMe = myBookmarks[p.ID]
			item.RegisteredByMe = myRegistrations[p.ID]
			item.MyReactions = myReactions[p.ID]
		}
		if item.MyReactions == nil {
			item.MyReactions = []string{}
		}
		enriched[i] = item
	}

	return enriched
}
