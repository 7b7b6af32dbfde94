// Package session implements the real-time messaging engine: the
// per-connection session actor, the user to inbox routing table, and the
// room-scoped fan-out of chat messages and read receipts.
//
// Session Architecture:
//   - Each connection runs one actor goroutine plus a read pump feeding it
//   - The actor multiplexes inbound socket frames and cross-session events
//   - All socket writes happen on the actor goroutine, never concurrently
//
// Consistency Contract:
// A message is persisted before any recipient can observe it live, so every
// delivered frame is already durable in history. A persistence failure means
// no fan-out and the session terminates.
//
// Interface Design:
// The wsConnection, RoomStore, and MessageStore interfaces allow tests to
// substitute mock connections and recording stores for the gorilla conn and
// the gorm-backed repositories.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nultr/nultr/backend/go/internal/v1/logging"
	"github.com/nultr/nultr/backend/go/internal/v1/metrics"
	"github.com/nultr/nultr/backend/go/internal/v1/store"
)

// wsConnection is the slice of the gorilla websocket connection the actor
// needs. Mock implementations stand in for it in tests.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
}

// RoomStore is the room persistence surface the realtime path depends on.
type RoomStore interface {
	ByID(ctx context.Context, id int64) (*store.Room, error)
	Members(ctx context.Context, roomID int64) ([]store.User, error)
}

// MessageStore persists chat messages and read flags.
type MessageStore interface {
	Insert(ctx context.Context, msg *store.Message) error
	MarkRead(ctx context.Context, ids []uuid.UUID) error
}

const writeWait = 10 * time.Second

// frame is one inbound websocket message, type and payload.
type frame struct {
	messageType int
	data        []byte
}

// Session is the per-connection actor. Its state is owned by the Run
// goroutine exclusively; other sessions reach it only through the inbox.
type Session struct {
	conn     wsConnection
	userID   int64
	inbox    *Inbox
	registry *Registry
	rooms    RoomStore
	messages MessageStore
	frames   chan frame
	now      func() time.Time
}

func newSession(conn wsConnection, userID int64, inbox *Inbox, registry *Registry, rooms RoomStore, messages MessageStore) *Session {
	return &Session{
		conn:     conn,
		userID:   userID,
		inbox:    inbox,
		registry: registry,
		rooms:    rooms,
		messages: messages,
		frames:   make(chan frame),
		now:      time.Now,
	}
}

// Run drives the actor until the socket closes or an unrecoverable error
// occurs. It waits on whichever arrives first, an inbound frame or an inbox
// event, with no priority between the two sources.
func (s *Session) Run() {
	defer s.cleanup()
	go s.readPump()

	ctx := logging.WithUserID(context.Background(), s.userID)
	logging.Debug(ctx, "session started")

	for {
		select {
		case fr, ok := <-s.frames:
			if !ok {
				logging.Debug(ctx, "socket closed, session ending")
				return
			}
			if err := s.handleFrame(ctx, fr); err != nil {
				logging.Error(ctx, "session terminating", zap.Error(err))
				return
			}
		case <-s.inbox.Ready():
			ev, ok := s.inbox.Pop()
			if !ok {
				continue
			}
			if err := s.handleEvent(ctx, ev); err != nil {
				logging.Error(ctx, "session terminating", zap.Error(err))
				return
			}
		}
	}
}

// readPump feeds socket frames into the actor loop. It owns the frames
// channel and closes it when the socket dies.
func (s *Session) readPump() {
	defer close(s.frames)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.frames <- frame{messageType: messageType, data: data}
	}
}

// cleanup tears the session down: evict the routing entry if it is still
// ours, stop producers, close the socket, and release the read pump.
func (s *Session) cleanup() {
	s.registry.Unregister(s.userID, s.inbox)
	s.inbox.Close()
	s.conn.Close()
	for range s.frames {
	}
	metrics.DecConnection()
}

func (s *Session) handleFrame(ctx context.Context, fr frame) error {
	start := time.Now()

	if fr.messageType != websocket.TextMessage {
		logging.Warn(ctx, "non-text frame received", zap.Int("message_type", fr.messageType))
		metrics.WebsocketEvents.WithLabelValues("frame", "wrong_format").Inc()
		return s.writeResponse(ctx, errResponse(ErrWrongFormat))
	}

	req, err := ParseRequest(fr.data)
	if err != nil {
		logging.Warn(ctx, "request parsing error", zap.Error(err))
		metrics.WebsocketEvents.WithLabelValues("frame", "wrong_format").Inc()
		return s.writeResponse(ctx, errResponse(ErrWrongFormat))
	}

	switch req := req.(type) {
	case MessageRequest:
		err = s.handleMessage(ctx, req)
		metrics.FrameProcessingDuration.WithLabelValues("message").Observe(time.Since(start).Seconds())
	case MessagesReadRequest:
		err = s.handleMessagesRead(ctx, req)
		metrics.FrameProcessingDuration.WithLabelValues("messages_read").Observe(time.Since(start).Seconds())
	}
	return err
}

// handleMessage persists the message and fans it out. Ordering matters:
// persistence precedes fan-out so a live delivery is always durable, and a
// failed insert aborts the session with no fan-out.
func (s *Session) handleMessage(ctx context.Context, req MessageRequest) error {
	ctx = logging.WithRoomID(ctx, req.RoomID)

	room, err := s.rooms.ByID(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if room == nil {
		// Deployed clients match on this tag for a missing room.
		logging.Error(ctx, "room not found")
		metrics.WebsocketEvents.WithLabelValues("message", "room_not_found").Inc()
		return s.writeResponse(ctx, errResponse(ErrUserNotFound))
	}

	members, err := s.rooms.Members(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if !containsUser(members, s.userID) {
		logging.Error(ctx, "user is not member of room")
		metrics.WebsocketEvents.WithLabelValues("message", "not_member").Inc()
		return s.writeResponse(ctx, errResponse(ErrNotMemberOfRoom))
	}

	msg := &store.Message{
		UUID:      req.UUID,
		CreatedAt: s.now().UTC(),
		Content:   req.Content,
		UserID:    s.userID,
		RoomID:    req.RoomID,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return err
	}
	metrics.MessagesPersisted.Inc()

	s.fanOut(members, UserMessageEvent{
		UUID:     req.UUID,
		SenderID: s.userID,
		Content:  req.Content,
	}, "message")

	metrics.WebsocketEvents.WithLabelValues("message", "ok").Inc()
	return s.writeResponse(ctx, okMessageReceived(req.UUID))
}

// handleMessagesRead flips the read flags and fans the receipt out. The flags
// flip before the membership check; the uuids were handed to this client over
// its own authenticated link.
func (s *Session) handleMessagesRead(ctx context.Context, req MessagesReadRequest) error {
	ctx = logging.WithRoomID(ctx, req.RoomID)

	if err := s.messages.MarkRead(ctx, req.MessageUUIDs); err != nil {
		return err
	}

	members, err := s.rooms.Members(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if !containsUser(members, s.userID) {
		logging.Error(ctx, "user is not member of room")
		metrics.WebsocketEvents.WithLabelValues("messages_read", "not_member").Inc()
		return s.writeResponse(ctx, errResponse(ErrNotMemberOfRoom))
	}

	s.fanOut(members, MessagesReadEvent{
		RoomID:       req.RoomID,
		MessageUUIDs: req.MessageUUIDs,
	}, "messages_read")

	metrics.WebsocketEvents.WithLabelValues("messages_read", "ok").Inc()
	return nil
}

// fanOut enqueues the event into every live member's inbox except our own.
// A member without a routing entry is offline, not an error.
func (s *Session) fanOut(members []store.User, ev ThreadEvent, eventType string) {
	for _, member := range members {
		if member.ID == s.userID {
			continue
		}
		if inbox := s.registry.Lookup(member.ID); inbox != nil {
			inbox.Push(ev)
			metrics.EventsFannedOut.WithLabelValues(eventType).Inc()
		}
	}
}

// handleEvent translates a cross-session event into an outbound frame.
func (s *Session) handleEvent(ctx context.Context, ev ThreadEvent) error {
	switch ev := ev.(type) {
	case UserMessageEvent:
		return s.writeResponse(ctx, okMessage(MessagePayload{
			UUID:      ev.UUID,
			UserID:    ev.SenderID,
			Content:   ev.Content,
			CreatedAt: Timestamp(s.now().UTC()),
			Read:      false,
		}))
	case MessagesReadEvent:
		return s.writeResponse(ctx, okMessagesRead(MessagesReadRequest{
			RoomID:       ev.RoomID,
			MessageUUIDs: ev.MessageUUIDs,
		}))
	}
	return nil
}

// writeResponse serializes and writes one frame. A serialization failure is
// downgraded to a Fatal frame; a write failure terminates the session.
func (s *Session) writeResponse(ctx context.Context, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error(ctx, "response serialization error", zap.Error(err))
		data, err = json.Marshal(errResponse(ErrFatal))
		if err != nil {
			return err
		}
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func containsUser(users []store.User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
