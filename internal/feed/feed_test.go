package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/store"
)

// fakeStore is an in-memory Lister + SignalSource for controller and
// enricher tests.
type fakeStore struct {
	mu sync.Mutex

	posts   []models.Post
	follows map[string][]string // viewer -> followee IDs (without self)

	likes     map[string]int
	reposts   map[string]int
	replies   map[string]int
	reactions map[string]map[string]int

	viewerLikes         map[string]bool
	viewerReposts       map[string]bool
	viewerBookmarks     map[string]bool
	viewerReactions     map[string][]string
	viewerRegistrations map[string]bool

	failSignals   map[string]error
	listErr       error
	listDelay     time.Duration
	listCalls     int
	listActive    int
	listMaxActive int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		follows:             map[string][]string{},
		likes:               map[string]int{},
		reposts:             map[string]int{},
		replies:             map[string]int{},
		reactions:           map[string]map[string]int{},
		viewerLikes:         map[string]bool{},
		viewerReposts:       map[string]bool{},
		viewerBookmarks:     map[string]bool{},
		viewerReactions:     map[string][]string{},
		viewerRegistrations: map[string]bool{},
		failSignals:         map[string]error{},
	}
}

func (f *fakeStore) addPost(id, userID string, createdAt time.Time) models.Post {
	p := models.Post{
		ID:        id,
		UserID:    userID,
		Content:   "post " + id,
		CreatedAt: createdAt,
	}
	f.posts = append(f.posts, p)
	return p
}

func (f *fakeStore) ListPosts(ctx context.Context, q store.PostQuery) ([]models.Post, error) {
	f.mu.Lock()
	delay := f.listDelay
	f.listCalls++
	f.listActive++
	if f.listActive > f.listMaxActive {
		f.listMaxActive = f.listActive
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.listActive--
		f.mu.Unlock()
	}()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	var matched []models.Post
	for _, p := range f.posts {
		if q.AuthorIDs != nil && !containsString(q.AuthorIDs, p.UserID) {
			continue
		}
		if q.Campus != "" && p.Campus != q.Campus {
			continue
		}
		if q.EventsOnly && !p.IsEvent {
			continue
		}
		matched = append(matched, p)
	}
	// Newest first, matching the store.
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].CreatedAt.After(matched[i].CreatedAt) {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]models.Post, len(matched))
	copy(out, matched)
	return out, nil
}

func (f *fakeStore) FollowSet(ctx context.Context, viewerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{viewerID}, f.follows[viewerID]...), nil
}

func (f *fakeStore) signalErr(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failSignals[name]
}

func (f *fakeStore) LikeCounts(ctx context.Context, ids []string) (map[string]int, error) {
	if err := f.signalErr("likes"); err != nil {
		return nil, err
	}
	return copyInts(f.likes, ids), nil
}

func (f *fakeStore) RepostCounts(ctx context.Context, ids []string) (map[string]int, error) {
	if err := f.signalErr("reposts"); err != nil {
		return nil, err
	}
	return copyInts(f.reposts, ids), nil
}

func (f *fakeStore) ReplyCounts(ctx context.Context, ids []string) (map[string]int, error) {
	if err := f.signalErr("replies"); err != nil {
		return nil, err
	}
	return copyInts(f.replies, ids), nil
}

func (f *fakeStore) ReactionCounts(ctx context.Context, ids []string) (map[string]map[string]int, error) {
	if err := f.signalErr("reactions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]map[string]int{}
	for _, id := range ids {
		if m, ok := f.reactions[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeStore) ViewerLikes(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	if err := f.signalErr("viewer_likes"); err != nil {
		return nil, err
	}
	return copyBools(f.viewerLikes, ids), nil
}

func (f *fakeStore) ViewerReposts(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	return copyBools(f.viewerReposts, ids), nil
}

func (f *fakeStore) ViewerBookmarks(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	return copyBools(f.viewerBookmarks, ids), nil
}

func (f *fakeStore) ViewerReactions(ctx context.Context, viewerID string, ids []string) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string][]string{}
	for _, id := range ids {
		if v, ok := f.viewerReactions[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeStore) ViewerRegistrations(ctx context.Context, viewerID string, ids []string) (map[string]bool, error) {
	return copyBools(f.viewerRegistrations, ids), nil
}

func copyInts(src map[string]int, ids []string) map[string]int {
	out := map[string]int{}
	for _, id := range ids {
		if n, ok := src[id]; ok {
			out[id] = n
		}
	}
	return out
}

func copyBools(src map[string]bool, ids []string) map[string]bool {
	out := map[string]bool{}
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out[id] = v
		}
	}
	return out
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// seedPosts adds n posts spaced a minute apart, newest last in insertion
// order, IDs p1..pn.
func seedPosts(f *fakeStore, n int, userID string, base time.Time) {
	for i := 1; i <= n; i++ {
		f.addPost(fmt.Sprintf("p%d", i), userID, base.Add(time.Duration(i)*time.Minute))
	}
}

var errSignalDown = errors.New("signal source down")
