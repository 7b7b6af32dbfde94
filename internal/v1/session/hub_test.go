package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
)

func newTestServer(t *testing.T, registry *Registry, rooms RoomStore, messages MessageStore) (*httptest.Server, *auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenService("test-secret")
	handler := NewHandler(registry, tokens, rooms, messages, "")

	router := gin.New()
	router.GET("/ws", handler.ServeWs)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, tokens
}

func dialWs(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestServeWsRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, NewRegistry(), newMockRoomStore(), &mockMessageStore{})

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeWsRejectsInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t, NewRegistry(), newMockRoomStore(), &mockMessageStore{})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer not-a-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeWsEstablishesSession(t *testing.T) {
	registry := NewRegistry()
	rooms := newMockRoomStore()
	rooms.addRoom(7, 1, 2)
	messages := &mockMessageStore{}
	srv, tokens := newTestServer(t, registry, rooms, messages)

	token, err := tokens.Encode(1)
	require.NoError(t, err)

	conn := dialWs(t, srv, http.Header{"Authorization": []string{"Bearer " + token}})
	defer conn.Close()

	require.Eventually(t, func() bool {
		return registry.Lookup(1) != nil
	}, 2*time.Second, 5*time.Millisecond)

	// Round trip a message through the live session.
	err = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Message","uuid":"11111111-1111-1111-1111-111111111111","room_id":7,"content":"hi"}`))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ok":{"MessageReceived":"11111111-1111-1111-1111-111111111111"}}`, string(data))

	// Server-side teardown completes after the client hangs up.
	conn.Close()
	require.Eventually(t, func() bool {
		return registry.Lookup(1) == nil
	}, 2*time.Second, 5*time.Millisecond)
}

// The lowercase bearer prefix is accepted at the upgrade.
func TestServeWsLowercaseBearer(t *testing.T) {
	registry := NewRegistry()
	srv, tokens := newTestServer(t, registry, newMockRoomStore(), &mockMessageStore{})

	token, err := tokens.Encode(5)
	require.NoError(t, err)

	conn := dialWs(t, srv, http.Header{"Authorization": []string{"bearer " + token}})

	require.Eventually(t, func() bool {
		return registry.Lookup(5) != nil
	}, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return registry.Lookup(5) == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(NewRegistry(), nil, nil, nil, "http://localhost:3000, https://chat.example.com")

	cases := []struct {
		origin string
		want   bool
	}{
		{"", true}, // non-browser client
		{"http://localhost:3000", true},
		{"https://chat.example.com", true},
		{"http://chat.example.com", false}, // scheme mismatch
		{"https://evil.example.com", false},
		{"::bad-url", false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		assert.Equal(t, tc.want, h.checkOrigin(req), "origin %q", tc.origin)
	}
}
