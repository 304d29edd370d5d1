package tracking

import (
	"net/http"
	"sync"
)

// Tracking records what browsing sessions search for.
type Tracking interface {
	TrackSearch(sessionId string, params map[string]string, resultLen int, page int, r *http.Request)
	TrackSuggest(sessionId string, query string, resultLen int)
}

type BaseEvent struct {
	SessionId string `json:"session_id"`
	Dataset   string `json:"dataset,omitempty"`
	Event     uint16 `json:"event"`
}

const (
	SearchEvent  uint16 = 1
	SuggestEvent uint16 = 2
)

type SearchEventData struct {
	*BaseEvent
	Params          map[string]string `json:"params"`
	NumberOfResults int               `json:"noi"`
	Page            int               `json:"page"`
	Referer         string            `json:"referer,omitempty"`
}

type SuggestEventData struct {
	*BaseEvent
	Query           string `json:"query"`
	NumberOfResults int    `json:"noi"`
}

// MemoryTracking keeps events in memory.
type MemoryTracking struct {
	mu     sync.Mutex
	events []any
}

func (m *MemoryTracking) TrackSearch(sessionId string, params map[string]string, resultLen int, page int, r *http.Request) {
	m.add(newSearchEvent("", sessionId, params, resultLen, page, r))
}

func (m *MemoryTracking) TrackSuggest(sessionId string, query string, resultLen int) {
	m.add(newSuggestEvent("", sessionId, query, resultLen))
}

func (m *MemoryTracking) add(event any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MemoryTracking) Events() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.events...)
}

func newSearchEvent(dataset, sessionId string, params map[string]string, resultLen, page int, r *http.Request) *SearchEventData {
	referer := ""
	if r != nil {
		referer = r.Header.Get("Referer")
	}
	return &SearchEventData{
		BaseEvent:       &BaseEvent{Event: SearchEvent, SessionId: sessionId, Dataset: dataset},
		Params:          params,
		NumberOfResults: resultLen,
		Page:            page,
		Referer:         referer,
	}
}

func newSuggestEvent(dataset, sessionId, query string, resultLen int) *SuggestEventData {
	return &SuggestEventData{
		BaseEvent:       &BaseEvent{Event: SuggestEvent, SessionId: sessionId, Dataset: dataset},
		Query:           query,
		NumberOfResults: resultLen,
	}
}
