package server

import (
	"context"
	"log"
	"net/http"

	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/index"
	"github.com/matst80/slask-tyres/pkg/sorting"
	"github.com/matst80/slask-tyres/pkg/types"
)

func defaultHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "private, stale-while-revalidate="+cacheTime)
	genericHeaders(w, r)
}

func genericHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
}

func publicHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "public, max-age="+cacheTime)
	genericHeaders(w, r)
}

// fetchRatings loads ratings for ids not seen before. Failures are logged
// and the search continues without them.
func (ws *WebServer) fetchRatings(ctx context.Context, ids []string) {
	if ws.Ratings == nil || len(ids) == 0 {
		return
	}
	missing := ws.ratings.missing(ids)
	if len(missing) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, ws.RatingsTimeout)
	defer cancel()
	fetched, err := ws.Ratings.FetchRatings(ctx, missing)
	if err != nil {
		log.Printf("Failed to fetch ratings for %d records: %v", len(missing), err)
		return
	}
	ws.ratings.merge(missing, fetched)
}

func (ws *WebServer) search(ctx context.Context, q engine.Query) engine.Result {
	sort := types.ParseSortKey(string(q.State.Criteria.Sort))
	if sort.UsesRatings() && ws.Ratings != nil {
		q.Ratings, q.RatingsVersion = ws.ratings.snapshot()
		snap, positions := ws.Engine.Positions(ctx, q)
		ws.fetchRatings(ctx, recordIds(snap.Store(), positions))
		q.Ratings, q.RatingsVersion = ws.ratings.snapshot()
		return ws.Engine.Search(ctx, q)
	}
	q.Ratings, q.RatingsVersion = ws.ratings.snapshot()
	res := ws.Engine.Search(ctx, q)
	ws.fetchRatings(ctx, sorting.RatingIds(res.Records))
	ratings, _ := ws.ratings.snapshot()
	res.Ratings = pageRatings(res.Records, ratings)
	return res
}

func pageRatings(records []types.Record, ratings sorting.Ratings) map[string]types.Rating {
	if len(ratings) == 0 {
		return nil
	}
	result := make(map[string]types.Rating, len(records))
	for _, r := range records {
		if rating, ok := ratings[r.Id]; ok {
			result[r.Id] = rating
		}
	}
	return result
}

// HandleRecords swaps in records and forgets cached ratings that may
// belong to removed ids.
func (ws *WebServer) HandleRecords(records []types.Record) {
	ws.Engine.Load(records)
	ws.ratings.clear()
}

func recordIds(store *index.RecordStore, positions []uint32) []string {
	return sorting.RatingIds(store.Resolve(positions))
}
