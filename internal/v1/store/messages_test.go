package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessage(t *testing.T, s *Store, room *Room, sender *User, content string, at time.Time) *Message {
	t.Helper()

	msg := &Message{
		UUID:      uuid.New(),
		CreatedAt: at,
		Content:   content,
		UserID:    sender.ID,
		RoomID:    room.ID,
	}
	require.NoError(t, s.Messages.Insert(context.Background(), msg))
	return msg
}

func TestMessageInsertAndByUUID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	room := seedRoom(t, s, "general", alice)

	msg := seedMessage(t, s, room, alice, "hi", time.Now().UTC())

	found, err := s.Messages.ByUUID(ctx, msg.UUID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "hi", found.Content)
	assert.Equal(t, alice.ID, found.UserID)
	assert.False(t, found.Read)

	absent, err := s.Messages.ByUUID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestMessageUUIDUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	room := seedRoom(t, s, "general", alice)
	msg := seedMessage(t, s, room, alice, "first", time.Now().UTC())

	dup := &Message{
		UUID:      msg.UUID,
		CreatedAt: time.Now().UTC(),
		Content:   "second",
		UserID:    alice.ID,
		RoomID:    room.ID,
	}
	assert.Error(t, s.Messages.Insert(ctx, dup))
}

func TestMessagePageNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	room := seedRoom(t, s, "general", alice)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedMessage(t, s, room, alice, string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := s.Messages.Page(ctx, room.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "e", first[0].Content)
	assert.Equal(t, "d", first[1].Content)

	second, err := s.Messages.Page(ctx, room.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "c", second[0].Content)
	assert.Equal(t, "b", second[1].Content)

	last, err := s.Messages.Page(ctx, room.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "a", last[0].Content)

	empty, err := s.Messages.Page(ctx, room.ID, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessagePageScopedToRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	roomA := seedRoom(t, s, "a", alice)
	roomB := seedRoom(t, s, "b", alice)

	seedMessage(t, s, roomA, alice, "in-a", time.Now().UTC())
	seedMessage(t, s, roomB, alice, "in-b", time.Now().UTC())

	page, err := s.Messages.Page(ctx, roomA.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "in-a", page[0].Content)
}

func TestMessagePageInvalidSize(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Messages.Page(context.Background(), 1, 0, 0)
	assert.Error(t, err)
}

func TestMarkReadIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	room := seedRoom(t, s, "general", alice)
	msg := seedMessage(t, s, room, alice, "hi", time.Now().UTC())

	// mark_read([u,u,u]) has the same effect as mark_read([u])
	require.NoError(t, s.Messages.MarkRead(ctx, []uuid.UUID{msg.UUID, msg.UUID, msg.UUID}))

	found, err := s.Messages.ByUUID(ctx, msg.UUID)
	require.NoError(t, err)
	assert.True(t, found.Read)

	// Marking again never flips it back
	require.NoError(t, s.Messages.MarkRead(ctx, []uuid.UUID{msg.UUID}))
	found, err = s.Messages.ByUUID(ctx, msg.UUID)
	require.NoError(t, err)
	assert.True(t, found.Read)
}

func TestMarkReadUnknownAndEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.Messages.MarkRead(ctx, nil))
	assert.NoError(t, s.Messages.MarkRead(ctx, []uuid.UUID{uuid.New()}))
}

func TestMarkReadOnlyListed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	room := seedRoom(t, s, "general", alice)
	read := seedMessage(t, s, room, alice, "read-me", time.Now().UTC())
	unread := seedMessage(t, s, room, alice, "leave-me", time.Now().UTC())

	require.NoError(t, s.Messages.MarkRead(ctx, []uuid.UUID{read.UUID}))

	got, err := s.Messages.ByUUID(ctx, unread.UUID)
	require.NoError(t, err)
	assert.False(t, got.Read)
}
