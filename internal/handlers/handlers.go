// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"github.com/campuslink/backend/internal/assist"
	"github.com/campuslink/backend/internal/feed"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/realtime"
	"github.com/campuslink/backend/internal/store"
)

// Handlers contains all HTTP handlers for the API.
type Handlers struct {
	store    *store.Store
	enricher *feed.Enricher
	assist   *assist.Client
	points   *points.Service
	hub      *realtime.Hub
}

// NewHandlers creates a new handlers instance.
func NewHandlers(st *store.Store, assistClient *assist.Client, pts *points.Service) *Handlers {
	return &Handlers{
		store:    st,
		enricher: feed.NewEnricher(st),
		assist:   assistClient,
		points:   pts,
	}
}

// SetHub sets the realtime hub used to push feed events.
func (h *Handlers) SetHub(hub *realtime.Hub) {
	h.hub = hub
}
