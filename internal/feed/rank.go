package feed

import (
	"sort"
	"time"
)

// Weights for the "for you" ordering. Engagement dominates, with a small
// recency bonus that decays linearly to zero over the window.
const (
	likeWeight   = 2.0
	repostWeight = 3.0
	replyWeight  = 1.0

	recencyWeight      = 0.2
	recencyWindowHours = 48.0
)

// Score computes the ranking score of a post at the given instant.
func Score(p EnrichedPost, now time.Time) float64 {
	ageHours := now.Sub(p.CreatedAt).Hours()
	recency := recencyWindowHours - ageHours
	if recency < 0 {
		recency = 0
	}
	return likeWeight*float64(p.LikeCount) +
		repostWeight*float64(p.RepostCount) +
		replyWeight*float64(p.ReplyCount) +
		recencyWeight*recency
}

// Rank orders items by descending score, in place. The sort is stable, so
// ties keep their input (chronological) order.
func Rank(items []EnrichedPost, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return Score(items[i], now) > Score(items[j], now)
	})
}
