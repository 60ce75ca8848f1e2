package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"softwarepar.lat/internal/obs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isLocalOrigin(origin)
	},
}

// handleWS upgrades an authenticated connection and parks it on the hub.
// Browsers cannot set headers on websocket dials, so the token may arrive
// as a query parameter instead of the Authorization header.
func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		var err error
		token, err = extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
	}
	user, _, err := a.resolveToken(r, token)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		obs.LogError("ws.upgrade", err)
		return
	}
	a.cfg.Hub.Attach(user.ID, conn)
}
