package common

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const SessionCookieName = "sid"

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionId,
		Domain:   strings.TrimPrefix(r.Host, "."),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		MaxAge:   2592000,
		Path:     "/",
	})
}

// HandleSessionCookie returns the caller's session id, issuing a new one
// when the cookie is missing or not a uuid.
func HandleSessionCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	sessionId := uuid.NewString()
	setSessionCookie(w, r, sessionId)
	return sessionId
}
