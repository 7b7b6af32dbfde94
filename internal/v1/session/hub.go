// Package session - hub.go
//
// The Handler authenticates websocket upgrade requests, installs the new
// session's inbox into the registry, and spawns the session actor. The
// routing entry is registered before the upgrade completes so a concurrent
// sender can already reach the user; if the upgrade then fails the entry is
// rolled back.
package session

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
	"github.com/nultr/nultr/backend/go/internal/v1/logging"
	"github.com/nultr/nultr/backend/go/internal/v1/metrics"
)

// TokenDecoder validates a bearer token and returns its claims. Implemented
// by auth.TokenService in production and by mocks in tests.
type TokenDecoder interface {
	Decode(tokenString string) (*auth.Claims, error)
}

// Handler upgrades authenticated HTTP requests into chat sessions.
type Handler struct {
	registry       *Registry
	tokens         TokenDecoder
	rooms          RoomStore
	messages       MessageStore
	allowedOrigins []string
}

// NewHandler wires the upgrade handler with its collaborators.
// allowedOrigins is the comma-separated ALLOWED_ORIGINS value; empty means
// only non-browser clients (no Origin header) are accepted.
func NewHandler(registry *Registry, tokens TokenDecoder, rooms RoomStore, messages MessageStore, allowedOrigins string) *Handler {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &Handler{
		registry:       registry,
		tokens:         tokens,
		rooms:          rooms,
		messages:       messages,
		allowedOrigins: origins,
	}
}

// ServeWs authenticates the bearer token, registers the session, and upgrades
// the connection.
//
// Responses:
//   - 400 {"type":"InvalidToken"} when the token is missing, malformed,
//     expired, or carries a bad signature.
//   - Upgrades to WebSocket on success.
func (h *Handler) ServeWs(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		logging.Warn(ctx, "websocket upgrade without bearer token")
		c.JSON(http.StatusBadRequest, gin.H{"type": "InvalidToken"})
		return
	}

	claims, err := h.tokens.Decode(token)
	if err != nil {
		logging.Warn(ctx, "websocket upgrade with invalid token", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"type": "InvalidToken"})
		return
	}

	inbox := NewInbox()
	h.registry.Register(claims.UserID, inbox)

	upgrader := websocket.Upgrader{
		CheckOrigin: h.checkOrigin,
		WriteBufferPool: &sync.Pool{
			New: func() any {
				return make([]byte, 4096)
			},
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The entry must not outlive a failed upgrade.
		h.registry.Unregister(claims.UserID, inbox)
		logging.Error(ctx, "failed to upgrade connection", zap.Error(err))
		return
	}

	metrics.IncConnection()
	logging.Info(logging.WithUserID(ctx, claims.UserID), "websocket session established")

	s := newSession(conn, claims.UserID, inbox, h.registry, h.rooms, h.messages)
	go s.Run()
}

// checkOrigin accepts requests with no Origin header (non-browser clients)
// and browser requests whose origin matches an allowed one on scheme and
// host.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	for _, allowed := range h.allowedOrigins {
		allowedURL, err := url.Parse(allowed)
		if err != nil {
			continue
		}
		if originURL.Scheme == allowedURL.Scheme && originURL.Host == allowedURL.Host {
			return true
		}
	}
	return false
}
