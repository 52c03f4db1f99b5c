package feed

import (
	"context"
	"sync"
	"time"

	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/store"
	"go.uber.org/zap"
)

// DefaultPageSize is the feed page length. A page shorter than this means
// the end of the feed was reached.
const DefaultPageSize = 30

// Tab selects the feed ordering.
type Tab string

const (
	// TabFollowing is the chronological feed of followed authors.
	TabFollowing Tab = "following"
	// TabForYou is the engagement-ranked feed across the whole network.
	TabForYou Tab = "foryou"
)

// State is the controller lifecycle phase.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateLoaded      State = "loaded"
	StateLoadingMore State = "loading_more"
)

// Filters narrows the feed to a scope. Zero values mean unfiltered.
type Filters struct {
	Campus     string   `json:"campus"`
	City       string   `json:"city"`
	Categories []string `json:"categories"`
	Promos     []string `json:"promos"`
	Fields     []string `json:"fields"`
	EventsOnly bool     `json:"events_only"`
}

// Lister is the slice of the store the controller queries for pages.
type Lister interface {
	ListPosts(ctx context.Context, q store.PostQuery) ([]models.Post, error)
	FollowSet(ctx context.Context, viewerID string) ([]string, error)
}

// Controller owns the feed state for one session: the loaded items, the
// pagination cursor, the active tab and filters, and the merge of realtime
// inserts. All methods are safe for concurrent use.
//
// Loads are guarded two ways. At most one page fetch is ever in flight: a
// load requested while one is running is dropped, not queued, and a tab or
// filter change during a load defers its reset until the running fetch
// resolves. And every tab or filter change bumps a generation counter; a
// load that finishes under a stale generation discards its results instead
// of clobbering the newer view.
type Controller struct {
	lister   Lister
	enricher *Enricher
	viewerID string
	pageSize int
	now      func() time.Time

	mu           sync.Mutex
	state        State
	tab          Tab
	filters      Filters
	items        []EnrichedPost
	followSet    []string
	hasMore      bool
	generation   uint64
	pendingReset bool
	closed       bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize overrides the page length.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithClock overrides the ranking clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a feed controller for one viewer session. An empty
// viewerID is an anonymous session: the chronological tab falls back to the
// global feed and viewer flags stay false.
func NewController(lister Lister, enricher *Enricher, viewerID string, opts ...Option) *Controller {
	c := &Controller{
		lister:   lister,
		enricher: enricher,
		viewerID: viewerID,
		pageSize: DefaultPageSize,
		now:      time.Now,
		state:    StateIdle,
		tab:      TabFollowing,
		hasMore:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches a page. With reset it replaces the loaded items from offset
// zero; without it appends the next page after the current items. The call
// is a no-op when a load is already in flight, when the controller is
// closed, or when appending past the end of the feed.
func (c *Controller) Load(ctx context.Context, reset bool) error {
	c.mu.Lock()
	if c.closed || c.state == StateLoading || c.state == StateLoadingMore {
		c.mu.Unlock()
		return nil
	}
	if !reset && !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	offset := 0
	if !reset {
		offset = len(c.items)
	}
	if reset {
		c.state = StateLoading
	} else {
		c.state = StateLoadingMore
	}
	gen := c.generation
	tab := c.tab
	filters := c.filters
	pageSize := c.pageSize
	c.mu.Unlock()

	page, followSet, err := c.fetchPage(ctx, tab, filters, offset, pageSize)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if gen != c.generation {
		// A tab or filter change invalidated this page while it was in
		// flight. Discard it; if the change is waiting on the load slot,
		// run its reset now.
		c.state = StateLoaded
		retry := c.pendingReset
		c.pendingReset = false
		c.mu.Unlock()
		if retry {
			return c.Load(ctx, true)
		}
		return nil
	}
	defer c.mu.Unlock()
	c.state = StateLoaded
	if err != nil {
		logger.Log.Error("feed load failed",
			zap.String("tab", string(tab)),
			zap.Int("offset", offset),
			zap.Error(err))
		return err
	}
	c.followSet = followSet
	c.hasMore = len(page) == pageSize
	if reset {
		c.items = page
		return nil
	}
	for _, item := range page {
		if c.indexOf(item.ID) < 0 {
			c.items = append(c.items, item)
		}
	}
	return nil
}

// fetchPage runs the query, enrichment, and ranking outside the lock.
func (c *Controller) fetchPage(ctx context.Context, tab Tab, filters Filters, offset, pageSize int) ([]EnrichedPost, []string, error) {
	var followSet []string
	if c.viewerID != "" {
		var err error
		followSet, err = c.lister.FollowSet(ctx, c.viewerID)
		if err != nil {
			return nil, nil, err
		}
	}

	q := store.PostQuery{
		Campus:     filters.Campus,
		City:       filters.City,
		Categories: filters.Categories,
		Promos:     filters.Promos,
		Fields:     filters.Fields,
		EventsOnly: filters.EventsOnly,
		Limit:      pageSize,
		Offset:     offset,
	}
	if tab == TabFollowing && c.viewerID != "" {
		// Never widen to the global feed on an empty follow set; the set
		// always contains at least the viewer.
		q.AuthorIDs = followSet
	}

	posts, err := c.lister.ListPosts(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	page := c.enricher.Enrich(ctx, posts, c.viewerID)
	if tab == TabForYou {
		Rank(page, c.now())
	}
	return page, followSet, nil
}

// SetTab switches the active tab and starts a reset load. Switching to the
// already-active tab is a no-op. A switch during a load never opens a
// second fetch; the reset waits for the in-flight page to resolve.
func (c *Controller) SetTab(ctx context.Context, tab Tab) error {
	c.mu.Lock()
	if c.closed || tab == c.tab {
		c.mu.Unlock()
		return nil
	}
	c.tab = tab
	c.generation++
	c.hasMore = true
	if c.state == StateLoading || c.state == StateLoadingMore {
		// The in-flight page owns the load slot. It discards itself as
		// stale on resolve and runs the reset then.
		c.pendingReset = true
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Load(ctx, true)
}

// SetFilters replaces the filter scope and starts a reset load, deferring
// it while a page fetch is in flight, same as SetTab.
func (c *Controller) SetFilters(ctx context.Context, filters Filters) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.filters = filters
	c.generation++
	c.hasMore = true
	if c.state == StateLoading || c.state == StateLoadingMore {
		c.pendingReset = true
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Load(ctx, true)
}

// HandleInsert merges a freshly created post into the top of the feed. On
// the chronological tab the post is dropped unless its author is in the
// viewer's follow set. Posts already present are dropped. The new item
// carries zero counts; it was just created.
func (c *Controller) HandleInsert(post models.Post) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == StateIdle {
		return false
	}
	if c.tab == TabFollowing && c.viewerID != "" && !contains(c.followSet, post.UserID) {
		return false
	}
	if c.indexOf(post.ID) >= 0 {
		return false
	}
	item := EnrichedPost{
		Post:        post,
		Reactions:   map[string]int{},
		MyReactions: []string{},
	}
	c.items = append([]EnrichedPost{item}, c.items...)
	return true
}

// HandleDelete removes a post from the loaded items.
func (c *Controller) HandleDelete(postID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(postID)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// ToggleLike flips the viewer's like on a loaded post and adjusts its count.
// The flip is optimistic: the caller issues the write after, and a failed
// write is not rolled back. Returns the new liked state and whether the
// post was loaded.
func (c *Controller) ToggleLike(postID string) (liked, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(postID)
	if i < 0 {
		return false, false
	}
	item := &c.items[i]
	item.LikedByMe = !item.LikedByMe
	if item.LikedByMe {
		item.LikeCount++
	} else if item.LikeCount > 0 {
		item.LikeCount--
	}
	return item.LikedByMe, true
}

// ToggleRepost flips the viewer's repost on a loaded post.
func (c *Controller) ToggleRepost(postID string) (reposted, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(postID)
	if i < 0 {
		return false, false
	}
	item := &c.items[i]
	item.RepostedByMe = !item.RepostedByMe
	if item.RepostedByMe {
		item.RepostCount++
	} else if item.RepostCount > 0 {
		item.RepostCount--
	}
	return item.RepostedByMe, true
}

// ToggleBookmark flips the viewer's bookmark on a loaded post. Bookmarks
// are private, so no count changes.
func (c *Controller) ToggleBookmark(postID string) (bookmarked, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(postID)
	if i < 0 {
		return false, false
	}
	item := &c.items[i]
	item.BookmarkedByMe = !item.BookmarkedByMe
	return item.BookmarkedByMe, true
}

// ToggleReaction flips one emoji reaction by the viewer on a loaded post.
func (c *Controller) ToggleReaction(postID, emoji string) (active, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(postID)
	if i < 0 {
		return false, false
	}
	item := &c.items[i]
	if contains(item.MyReactions, emoji) {
		item.MyReactions = remove(item.MyReactions, emoji)
		if item.Reactions[emoji] > 1 {
			item.Reactions[emoji]--
		} else {
			delete(item.Reactions, emoji)
		}
		return false, true
	}
	item.MyReactions = append(item.MyReactions, emoji)
	if item.Reactions == nil {
		item.Reactions = map[string]int{}
	}
	item.Reactions[emoji]++
	return true, true
}

// ApplyRegistration records a confirmed registration outcome on a loaded
// event post. Unlike the engagement toggles this is never optimistic; it is
// applied only after the seat claim committed, with the authoritative
// seats_taken the claim returned.
func (c *Controller) ApplyRegistration(postID string, registered bool, seatsTaken *int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(postID)
	if i < 0 {
		return false
	}
	item := &c.items[i]
	item.RegisteredByMe = registered
	if seatsTaken != nil {
		item.SeatsTaken = *seatsTaken
	}
	return true
}

// Items returns a snapshot copy of the loaded feed.
func (c *Controller) Items() []EnrichedPost {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EnrichedPost, len(c.items))
	copy(out, c.items)
	return out
}

// Tab returns the active tab.
func (c *Controller) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// State returns the lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasMore reports whether another page may exist.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Close detaches the controller. In-flight loads discard their results and
// every later call is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.items = nil
}

// indexOf finds a loaded post by ID. Callers hold c.mu.
func (c *Controller) indexOf(postID string) int {
	for i := range c.items {
		if c.items[i].ID == postID {
			return i
		}
	}
	return -1
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func remove(ss []string, s string) []string {
	out := ss[:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
