package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"dormitory-backend/internal/guard"
	"dormitory-backend/internal/occupancy"
	"dormitory-backend/internal/registry"
	"dormitory-backend/internal/search"
	"dormitory-backend/internal/stats"
	"dormitory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	registry *registry.Registry
	guards   *guard.Guards
	engine   *occupancy.Engine
	stats    *stats.Service
	search   *search.Searcher
	webpush  *webpush.Options
}

// Services are the core components the handlers call into.
type Services struct {
	Store    store.Store
	Registry *registry.Registry
	Guards   *guard.Guards
	Engine   *occupancy.Engine
	Stats    *stats.Service
	Search   *search.Searcher
}

// NewHandler creates a new API handler.
func NewHandler(svc Services, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    svc.Store,
		registry: svc.Registry,
		guards:   svc.Guards,
		engine:   svc.Engine,
		stats:    svc.Stats,
		search:   svc.Search,
		webpush:  webpushOptions,
	}
}
