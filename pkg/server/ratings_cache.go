package server

import (
	"maps"
	"sync"

	"github.com/matst80/slask-tyres/pkg/sorting"
	"github.com/matst80/slask-tyres/pkg/types"
)

// ratingsCache holds every rating fetched so far. Merges publish a new map
// so a snapshot handed to a search is never written to. Ids the source
// answered for without a rating are remembered in known.
type ratingsCache struct {
	mu      sync.RWMutex
	ratings sorting.Ratings
	known   map[string]struct{}
	version uint64
}

func (c *ratingsCache) snapshot() (sorting.Ratings, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ratings, c.version
}

func (c *ratingsCache) missing(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]string, 0)
	for _, id := range ids {
		if _, ok := c.known[id]; !ok {
			result = append(result, id)
		}
	}
	return result
}

// merge stores fetched and marks every requested id as known, rated or not.
func (c *ratingsCache) merge(requested []string, fetched map[string]types.Rating) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known == nil {
		c.known = make(map[string]struct{}, len(requested))
	}
	for _, id := range requested {
		c.known[id] = struct{}{}
	}
	for id := range fetched {
		c.known[id] = struct{}{}
	}
	if len(fetched) == 0 {
		return
	}
	next := make(sorting.Ratings, len(c.ratings)+len(fetched))
	maps.Copy(next, c.ratings)
	maps.Copy(next, fetched)
	c.ratings = next
	c.version++
}

func (c *ratingsCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ratings = nil
	c.known = nil
	c.version++
}
