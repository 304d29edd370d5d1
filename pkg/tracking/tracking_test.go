package tracking

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEventEncoding(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/search", nil)
	r.Header.Set("Referer", "https://shop.example/tyres")
	ev := newSearchEvent("tyres", "abc", map[string]string{"brand": "Acme"}, 12, 2, r)

	data, err := jsoncompat.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, jsoncompat.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded["session_id"])
	assert.Equal(t, "tyres", decoded["dataset"])
	assert.Equal(t, float64(SearchEvent), decoded["event"])
	assert.Equal(t, float64(12), decoded["noi"])
	assert.Equal(t, "https://shop.example/tyres", decoded["referer"])
}

func TestRabbitTrackingSends(t *testing.T) {
	var sent []any
	rt := &RabbitTracking{dataset: "tyres", send: func(data any) error {
		sent = append(sent, data)
		return nil
	}}
	rt.TrackSearch("abc", nil, 3, 1, nil)
	rt.TrackSuggest("abc", "mich", 4)
	require.Len(t, sent, 2)
	assert.Equal(t, "mich", sent[1].(*SuggestEventData).Query)

	rt.send = func(any) error { return errors.New("closed") }
	rt.TrackSuggest("abc", "mich", 4)
}

func TestMemoryTracking(t *testing.T) {
	m := &MemoryTracking{}
	var _ Tracking = m
	m.TrackSuggest("s", "acme", 2)
	events := m.Events()
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].(*SuggestEventData).NumberOfResults)
}
