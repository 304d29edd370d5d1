package server

import (
	"context"
	"sync"
	"time"

	"github.com/matst80/slask-tyres/pkg/query"
	"github.com/redis/go-redis/v9"
)

// FavoriteStore keeps the favorite record ids of a browser session.
type FavoriteStore interface {
	Favorites(ctx context.Context, sessionId string) (query.Favorites, error)
	AddFavorite(ctx context.Context, sessionId, id string) error
	RemoveFavorite(ctx context.Context, sessionId, id string) error
}

const favoritesTTL = 30 * 24 * time.Hour

type RedisFavorites struct {
	client *redis.Client
}

func NewRedisFavorites(addr, password string, db int) *RedisFavorites {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisFavorites{client: rdb}
}

func NewRedisFavoritesFromClient(client *redis.Client) *RedisFavorites {
	return &RedisFavorites{client: client}
}

func favoritesKey(sessionId string) string {
	return "favorites:" + sessionId
}

func (c *RedisFavorites) Favorites(ctx context.Context, sessionId string) (query.Favorites, error) {
	ids, err := c.client.SMembers(ctx, favoritesKey(sessionId)).Result()
	if err != nil {
		return nil, err
	}
	return query.NewFavorites(ids...), nil
}

func (c *RedisFavorites) AddFavorite(ctx context.Context, sessionId, id string) error {
	key := favoritesKey(sessionId)
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, id)
	pipe.Expire(ctx, key, favoritesTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisFavorites) RemoveFavorite(ctx context.Context, sessionId, id string) error {
	return c.client.SRem(ctx, favoritesKey(sessionId), id).Err()
}

func (c *RedisFavorites) Close() error {
	return c.client.Close()
}

type MemoryFavorites struct {
	mu       sync.RWMutex
	sessions map[string]query.Favorites
}

func NewMemoryFavorites() *MemoryFavorites {
	return &MemoryFavorites{sessions: make(map[string]query.Favorites)}
}

func (m *MemoryFavorites) Favorites(_ context.Context, sessionId string) (query.Favorites, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := query.NewFavorites()
	for id := range m.sessions[sessionId] {
		result[id] = struct{}{}
	}
	return result, nil
}

func (m *MemoryFavorites) AddFavorite(_ context.Context, sessionId, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	favs, ok := m.sessions[sessionId]
	if !ok {
		favs = query.NewFavorites()
		m.sessions[sessionId] = favs
	}
	favs[id] = struct{}{}
	return nil
}

func (m *MemoryFavorites) RemoveFavorite(_ context.Context, sessionId, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions[sessionId], id)
	return nil
}
