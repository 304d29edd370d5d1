package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSessionCookieIssuesUuid(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	id := HandleSessionCookie(w, r)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, id, cookies[0].Value)
}

func TestHandleSessionCookieKeepsExisting(t *testing.T) {
	existing := uuid.NewString()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: existing})

	assert.Equal(t, existing, HandleSessionCookie(w, r))
	assert.Empty(t, w.Result().Cookies())
}

func TestHandleSessionCookieReplacesGarbage(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "12345"})

	id := HandleSessionCookie(w, r)
	assert.NotEqual(t, "12345", id)
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestJsonHandler(t *testing.T) {
	h := JsonHandler(func(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
		return enc.Encode(map[string]string{"session": sessionId})
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, jsoncompat.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["session"])
}

func TestJsonHandlerOptions(t *testing.T) {
	called := false
	h := JsonHandler(func(http.ResponseWriter, *http.Request, string, jsoncompat.Encoder) error {
		called = true
		return nil
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "http://shop.example")
	h.ServeHTTP(w, r)
	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestJsonHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{types.ErrInvalidId, http.StatusBadRequest},
		{fmt.Errorf("record t9: %w", types.ErrNotFound), http.StatusNotFound},
		{types.ErrNoDataset, http.StatusServiceUnavailable},
		{BadRequest(errors.New("limit must be a number")), http.StatusBadRequest},
		{errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := JsonHandler(func(http.ResponseWriter, *http.Request, string, jsoncompat.Encoder) error {
			return c.err
		})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/record/t9", nil))
		assert.Equal(t, c.status, w.Code, c.err.Error())

		var body map[string]string
		require.NoError(t, jsoncompat.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, c.err.Error(), body["error"])
	}
}

func TestJsonHandlerKeepsWrittenResponse(t *testing.T) {
	h := JsonHandler(func(w http.ResponseWriter, _ *http.Request, _ string, enc jsoncompat.Encoder) error {
		w.WriteHeader(http.StatusOK)
		_ = enc.Encode([]string{"t1"})
		return errors.New("client went away")
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "error")
}

func TestServeDrainsThenRunsHooks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var closed []string
	hooks := []ShutdownHook{
		{Name: "ratings", Close: func(context.Context) error {
			closed = append(closed, "ratings")
			return errors.New("already closed")
		}},
		{Name: "broker"},
		{Name: "favorites", Close: func(context.Context) error {
			closed = append(closed, "favorites")
			return nil
		}},
	}
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler(), ServerTimeouts{Shutdown: time.Second, Hook: 100 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ServerTimeouts{Shutdown: time.Second}, hooks...) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"ratings", "favorites"}, closed, "a failing hook does not stop the rest")
}

func TestServeReportsListenError(t *testing.T) {
	srv := NewServer("127.0.0.1:-1", http.NotFoundHandler(), ServerTimeouts{})
	assert.Error(t, Serve(context.Background(), srv, ServerTimeouts{}))
}
