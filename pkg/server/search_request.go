package server

import (
	"net/http"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-tyres/pkg/state"
)

var suggestDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// GetStateFromRequest decodes the canonical state parameters. Invalid
// values fall back to defaults instead of failing the request.
func (ws *WebServer) GetStateFromRequest(r *http.Request) state.State {
	return ws.Engine.Codec().Decode(r.URL.Query(), ws.Engine.Validator())
}

func GetSuggestRequest(r *http.Request) (SuggestRequest, error) {
	req := SuggestRequest{}
	err := suggestDecoder.Decode(&req, r.URL.Query())
	return req, err
}
