package handlers

import (
	"net/http"
	"time"

	"github.com/campuslink/backend/internal/feed"
	"github.com/campuslink/backend/internal/metrics"
	"github.com/campuslink/backend/internal/store"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

const maxFeedLimit = 50

// GetFeed serves one feed page. The tab query picks the ordering:
// "following" is the chronological feed of followed authors, "foryou" is
// engagement-ranked. Anonymous requests get the global chronological feed.
func (h *Handlers) GetFeed(c *gin.Context) {
	viewerID := util.OptionalUserID(c)

	tab := feed.Tab(c.DefaultQuery("tab", string(feed.TabFollowing)))
	if tab != feed.TabFollowing && tab != feed.TabForYou {
		util.RespondBadRequest(c, "unknown tab: "+string(tab))
		return
	}
	limit, offset := util.Pagination(c.Query("limit"), c.Query("offset"), feed.DefaultPageSize, maxFeedLimit)

	q := store.PostQuery{
		Campus:     c.Query("campus"),
		City:       c.Query("city"),
		Categories: util.ParseCSV(c.Query("categories")),
		Promos:     util.ParseCSV(c.Query("promos")),
		Fields:     util.ParseCSV(c.Query("fields")),
		EventsOnly: util.ParseBool(c.Query("events_only"), false),
		Limit:      limit,
		Offset:     offset,
	}
	if tab == feed.TabFollowing && viewerID != "" {
		followSet, err := h.store.FollowSet(c.Request.Context(), viewerID)
		if err != nil {
			util.RespondError(c, err)
			return
		}
		q.AuthorIDs = followSet
	}

	start := time.Now()
	posts, err := h.store.ListPosts(c.Request.Context(), q)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	items := h.enricher.Enrich(c.Request.Context(), posts, viewerID)
	if tab == feed.TabForYou {
		feed.Rank(items, time.Now())
	}

	m := metrics.Get()
	m.FeedLoadDuration.WithLabelValues(string(tab)).Observe(time.Since(start).Seconds())
	m.FeedPageSize.WithLabelValues(string(tab)).Observe(float64(len(items)))

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"meta": gin.H{
			"tab":      tab,
			"limit":    limit,
			"offset":   offset,
			"has_more": len(items) == limit,
		},
	})
}
