// Package httpapi serves the request API: login, user and room listings,
// private room creation, and paginated message history. It shares the store
// and token service with the realtime engine but never touches the session
// routing table.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
	"github.com/nultr/nultr/backend/go/internal/v1/session"
	"github.com/nultr/nultr/backend/go/internal/v1/store"
)

const defaultPageSize = 50

// Handlers bundles the request API endpoints with their dependencies.
type Handlers struct {
	store  *store.Store
	tokens *auth.TokenService
	hasher *auth.PasswordHasher
}

func NewHandlers(s *store.Store, tokens *auth.TokenService, hasher *auth.PasswordHasher) *Handlers {
	return &Handlers{store: s, tokens: tokens, hasher: hasher}
}

// Register mounts the API routes. Everything except login requires a bearer
// token.
func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/login", h.Login)

	authed := r.Group("", RequireAuth(h.tokens))
	authed.GET("/get-users", h.GetUsers)
	authed.GET("/get-rooms", h.GetRooms)
	authed.POST("/create-private-room", h.CreatePrivateRoom)
	authed.GET("/get-messages", h.GetMessages)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

// Login verifies the credentials and issues a bearer token. An unknown user
// and a wrong password are indistinguishable to the caller.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, http.StatusForbidden, CodeAccessDenied)
		return
	}

	user, err := h.store.Users.ByUsername(c.Request.Context(), req.Username)
	if err != nil {
		internalError(c, false, err)
		return
	}
	if user == nil || !h.hasher.Verify(req.Password, user.PasswordHash) {
		abortWithCode(c, http.StatusForbidden, CodeAccessDenied)
		return
	}

	token, err := h.tokens.Encode(user.ID)
	if err != nil {
		internalError(c, false, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{UserID: user.ID, Token: token})
}

// GetUsers lists every account.
func (h *Handlers) GetUsers(c *gin.Context) {
	users, err := h.store.Users.All(c.Request.Context())
	if err != nil {
		internalError(c, true, err)
		return
	}
	if users == nil {
		users = []store.User{}
	}
	c.JSON(http.StatusOK, users)
}

// GetRooms lists the caller's rooms under their personalized names.
func (h *Handlers) GetRooms(c *gin.Context) {
	listings, err := h.store.Rooms.ForUser(c.Request.Context(), callerID(c))
	if err != nil {
		internalError(c, true, err)
		return
	}
	if listings == nil {
		listings = []store.RoomListing{}
	}
	c.JSON(http.StatusOK, listings)
}

type createPrivateRoomRequest struct {
	Name           string `json:"name"`
	ReceiverUserID int64  `json:"receiver_user_id"`
}

// CreatePrivateRoom creates a two-member room whose memberships carry swapped
// personal labels: each participant sees the room under the other's username.
func (h *Handlers) CreatePrivateRoom(c *gin.Context) {
	var req createPrivateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, http.StatusNotFound, CodeUserNotFound)
		return
	}
	ctx := c.Request.Context()

	sender, err := h.store.Users.ByID(ctx, callerID(c))
	if err != nil {
		internalError(c, true, err)
		return
	}
	receiver, err := h.store.Users.ByID(ctx, req.ReceiverUserID)
	if err != nil {
		internalError(c, true, err)
		return
	}
	if sender == nil || receiver == nil {
		abortWithCode(c, http.StatusNotFound, CodeUserNotFound)
		return
	}

	room := &store.Room{Name: req.Name}
	if err := h.store.Rooms.Insert(ctx, room); err != nil {
		internalError(c, true, err)
		return
	}

	memberships := []store.RoomUser{
		{RoomID: room.ID, UserID: sender.ID, GeneratedRoomName: &receiver.Username},
		{RoomID: room.ID, UserID: receiver.ID, GeneratedRoomName: &sender.Username},
	}
	if err := h.store.Rooms.InsertMemberships(ctx, memberships); err != nil {
		internalError(c, true, err)
		return
	}

	c.JSON(http.StatusOK, store.RoomListing{ID: room.ID, Name: receiver.Username})
}

type messageResponse struct {
	UUID      uuid.UUID         `json:"uuid"`
	UserID    int64             `json:"user_id"`
	Content   string            `json:"content"`
	CreatedAt session.Timestamp `json:"created_at"`
	Read      bool              `json:"read"`
}

// GetMessages returns one page of a room's history, newest first. The caller
// must be a member of the room.
func (h *Handlers) GetMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Query("room_id"), 10, 64)
	if err != nil {
		abortWithCode(c, http.StatusNotFound, CodeRoomNotFound)
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	ctx := c.Request.Context()

	room, err := h.store.Rooms.ByID(ctx, roomID)
	if err != nil {
		internalError(c, true, err)
		return
	}
	if room == nil {
		abortWithCode(c, http.StatusNotFound, CodeRoomNotFound)
		return
	}

	members, err := h.store.Rooms.Members(ctx, roomID)
	if err != nil {
		internalError(c, true, err)
		return
	}
	caller := callerID(c)
	isMember := false
	for _, m := range members {
		if m.ID == caller {
			isMember = true
			break
		}
	}
	if !isMember {
		abortWithCode(c, http.StatusForbidden, CodeNotMemberOfRoom)
		return
	}

	messages, err := h.store.Messages.Page(ctx, roomID, page, pageSize)
	if err != nil {
		internalError(c, true, err)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			UUID:      m.UUID,
			UserID:    m.UserID,
			Content:   m.Content,
			CreatedAt: session.Timestamp(m.CreatedAt),
			Read:      m.Read,
		})
	}
	c.JSON(http.StatusOK, out)
}
