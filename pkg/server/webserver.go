package server

import (
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"slices"

	"github.com/matst80/slask-tyres/pkg/common"
	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/state"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	noSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_searches_total",
		Help: "The total number of processed searches",
	})
	noPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_pages_total",
		Help: "The total number of pages served to remote clients",
	})
	noSuggests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_suggest_total",
		Help: "The total number of processed suggestions",
	})
	facetRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_facets_total",
		Help: "The total number of facet summaries served",
	})
)

func (ws *WebServer) Search(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	noSearches.Inc()
	st := ws.GetStateFromRequest(r)
	q := engine.Query{State: st}
	if st.Criteria.Favorites {
		favs, err := ws.Favorites.Favorites(r.Context(), sessionId)
		if err != nil {
			log.Printf("Failed to load favorites for %s: %v", sessionId, err)
		}
		q.Favorites = favs
	}
	res := ws.search(r.Context(), q)
	if ws.Tracking != nil {
		ws.Tracking.TrackSearch(sessionId, ws.Engine.Codec().EncodeMap(st), res.TotalCount, res.Page.Page, r)
	}
	defaultHeaders(w, r, "0")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(res)
}

// Page serves one page in the shape a remote page client expects.
func (ws *WebServer) Page(w http.ResponseWriter, r *http.Request) {
	noPages.Inc()
	st := ws.GetStateFromRequest(r)
	page := ws.Engine.PageOf(r.Context(), engine.Query{State: st})
	publicHeaders(w, r, "10")
	w.WriteHeader(http.StatusOK)
	if err := jsoncompat.NewEncoder(w).Encode(page); err != nil {
		log.Printf("Failed to encode page: %v", err)
	}
}

// State echoes the canonical form of the requested state.
func (ws *WebServer) State(w http.ResponseWriter, r *http.Request, _ string, enc jsoncompat.Encoder) error {
	st := ws.GetStateFromRequest(r)
	defaultHeaders(w, r, "0")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(struct {
		Params      map[string]string `json:"params"`
		Fingerprint string            `json:"fingerprint"`
		Page        int               `json:"page"`
	}{
		Params:      ws.Engine.Codec().EncodeMap(st),
		Fingerprint: ws.Engine.Codec().Fingerprint(state.State{Criteria: st.Criteria}),
		Page:        st.Page,
	})
}

func (ws *WebServer) Suggest(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	noSuggests.Inc()
	req, err := GetSuggestRequest(r)
	if err != nil {
		return common.BadRequest(err)
	}
	suggestions := ws.Engine.Suggest(req.Query, req.Limit)
	if suggestions == nil {
		suggestions = []types.SuggestionEntry{}
	}
	if ws.Tracking != nil {
		ws.Tracking.TrackSuggest(sessionId, req.Query, len(suggestions))
	}
	publicHeaders(w, r, "360")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(SuggestResponse{Query: req.Query, Suggestions: suggestions})
}

func (ws *WebServer) Facets(w http.ResponseWriter, r *http.Request, _ string, enc jsoncompat.Encoder) error {
	facetRequests.Inc()
	publicHeaders(w, r, "60")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(ws.Engine.Facets())
}

func (ws *WebServer) GetRecord(w http.ResponseWriter, r *http.Request, _ string, enc jsoncompat.Encoder) error {
	id := r.PathValue("id")
	if !types.ValidId(id) {
		return types.ErrInvalidId
	}
	record, err := ws.Engine.Record(id)
	if err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	ws.fetchRatings(r.Context(), []string{id})
	ratings, _ := ws.ratings.snapshot()
	var rating *types.Rating
	if rt, ok := ratings[id]; ok {
		rating = &rt
	}
	publicHeaders(w, r, "120")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(struct {
		*types.Record
		Grade  string        `json:"grade"`
		Rating *types.Rating `json:"rating,omitempty"`
	}{Record: record, Grade: record.Grade(), Rating: rating})
}

func (ws *WebServer) GetFavorites(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	favs, err := ws.Favorites.Favorites(r.Context(), sessionId)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(favs))
	for id := range favs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	defaultHeaders(w, r, "0")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(FavoritesResponse{Ids: ids})
}

func (ws *WebServer) AddFavorite(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	id := r.PathValue("id")
	if !ws.Engine.Snapshot().HasRecord(id) {
		return fmt.Errorf("favorite %s: %w", id, types.ErrNotFound)
	}
	if err := ws.Favorites.AddFavorite(r.Context(), sessionId, id); err != nil {
		return err
	}
	return ws.GetFavorites(w, r, sessionId, enc)
}

func (ws *WebServer) RemoveFavorite(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	if err := ws.Favorites.RemoveFavorite(r.Context(), sessionId, r.PathValue("id")); err != nil {
		return err
	}
	return ws.GetFavorites(w, r, sessionId, enc)
}

func (ws *WebServer) ClientHandler(enableProfiling bool) *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if ws.Engine.Snapshot().Store().Len() == 0 {
			http.Error(w, types.ErrNoDataset.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/api/search", common.JsonHandler(ws.Search))
	srv.HandleFunc("/api/page", ws.Page)
	srv.HandleFunc("/api/state", common.JsonHandler(ws.State))
	srv.HandleFunc("/api/suggest", common.JsonHandler(ws.Suggest))
	srv.HandleFunc("/api/facets", common.JsonHandler(ws.Facets))
	srv.HandleFunc("GET /api/record/{id}", common.JsonHandler(ws.GetRecord))
	srv.HandleFunc("GET /api/favorites", common.JsonHandler(ws.GetFavorites))
	srv.HandleFunc("PUT /api/favorites/{id}", common.JsonHandler(ws.AddFavorite))
	srv.HandleFunc("DELETE /api/favorites/{id}", common.JsonHandler(ws.RemoveFavorite))
	if enableProfiling {
		srv.HandleFunc("/debug/pprof/", pprof.Index)
		srv.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		srv.HandleFunc("/debug/pprof/profile", pprof.Profile)
		srv.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		srv.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return srv
}
