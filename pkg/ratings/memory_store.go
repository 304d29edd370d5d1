package ratings

import (
	"context"
	"sync"

	"github.com/matst80/slask-tyres/pkg/types"
)

// MemoryStore is an in-process rating source.
type MemoryStore struct {
	mu      sync.RWMutex
	ratings map[string]types.Rating
	calls   int
}

func NewMemoryStore(initial map[string]types.Rating) *MemoryStore {
	ratings := make(map[string]types.Rating, len(initial))
	for id, r := range initial {
		ratings[id] = r
	}
	return &MemoryStore{ratings: ratings}
}

func (s *MemoryStore) FetchRatings(ctx context.Context, ids []string) (map[string]types.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make(map[string]types.Rating, len(ids))
	for _, id := range ids {
		if r, ok := s.ratings[id]; ok {
			ret[id] = r
		}
	}
	return ret, nil
}

func (s *MemoryStore) SetRating(_ context.Context, id string, rating types.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[id] = rating
	return nil
}

// Calls is the number of FetchRatings calls served.
func (s *MemoryStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}
