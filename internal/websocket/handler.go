// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
)

// TokenValidator verifies access tokens. *auth.TokenManager implements it.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// Handler authenticates and upgrades /ws requests.
type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	origins  []string
	upgrader websocket.Upgrader

	registerWait time.Duration
}

// NewHandler creates the /ws handler. allowedOrigins uses the CORS origin
// list; "*" allows any origin.
func NewHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, tokens: tokens, origins: allowedOrigins, registerWait: writeWait}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// ServeHTTP authenticates, upgrades and registers the client. Auth
// failures upgrade anyway and close with 1008 so the browser sees a reason.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)

	var claims *auth.Claims
	reason := ""
	if token == "" {
		reason = "authentication required"
	} else if c, err := h.tokens.ValidateAccessToken(token); err != nil {
		reason = "invalid token"
	} else {
		claims = c
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	if claims == nil {
		metrics.WSErrors.WithLabelValues("auth").Inc()
		logging.Ctx(r.Context()).Info().Str("reason", reason).Msg("WebSocket connection rejected")
		closeWithPolicy(conn, reason)
		return
	}

	client := NewClient(h.hub, conn, Identity{
		UserID:  claims.UserID,
		Role:    claims.Role,
		VenueID: claims.VenueID,
	})
	if !h.register(r, client) {
		metrics.WSErrors.WithLabelValues("register").Inc()
		logging.Ctx(r.Context()).Warn().Str("user_id", claims.UserID).Msg("WebSocket hub not running, closing connection")
		closeWithCode(conn, websocket.CloseTryAgainLater, "server busy, retry later")
		return
	}
	client.Start()
}

// register hands client to the hub run loop. It gives up when the loop does
// not take it within registerWait, for example while the hub is restarting.
func (h *Handler) register(r *http.Request, client *Client) bool {
	timer := time.NewTimer(h.registerWait)
	defer timer.Stop()

	select {
	case h.hub.Register <- client:
		return true
	case <-r.Context().Done():
		return false
	case <-timer.C:
		return false
	}
}

func closeWithPolicy(conn *websocket.Conn, reason string) {
	closeWithCode(conn, websocket.ClosePolicyViolation, reason)
}

func closeWithCode(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

// requestToken prefers the token query parameter over the header.
func requestToken(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// checkOrigin accepts requests without an Origin header (camera agents and
// mobile clients) and browser requests from configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", logging.SanitizeValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
