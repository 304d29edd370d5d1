package server

import (
	"time"

	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/tracking"
	"github.com/matst80/slask-tyres/pkg/types"
)

type WebServer struct {
	Engine         *engine.Engine
	Favorites      FavoriteStore
	Ratings        types.RatingSource
	RatingsTimeout time.Duration
	Tracking       tracking.Tracking
	ratings        ratingsCache
}

func NewWebServer(e *engine.Engine, favorites FavoriteStore, ratings types.RatingSource) *WebServer {
	if favorites == nil {
		favorites = NewMemoryFavorites()
	}
	return &WebServer{
		Engine:         e,
		Favorites:      favorites,
		Ratings:        ratings,
		RatingsTimeout: 2 * time.Second,
	}
}

type SuggestRequest struct {
	Query string `schema:"q"`
	Limit int    `schema:"limit"`
}

type SuggestResponse struct {
	Query       string                  `json:"query"`
	Suggestions []types.SuggestionEntry `json:"suggestions"`
}

type FavoritesResponse struct {
	Ids []string `json:"ids"`
}
