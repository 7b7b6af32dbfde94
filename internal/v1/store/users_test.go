package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInsertAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")

	byID, err := s.Users.ByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	byName, err := s.Users.ByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, alice.ID, byName.ID)

	exists, err := s.Users.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserLookupAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	byID, err := s.Users.ByID(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, byID)

	byName, err := s.Users.ByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, byName)

	exists, err := s.Users.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserUsernameUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")
	err := s.Users.Insert(ctx, &User{Username: "alice", PasswordHash: "x"})
	assert.Error(t, err)
}

func TestUserAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	users, err := s.Users.All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestUserDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	room := seedRoom(t, s, "pair", alice, bob)

	require.NoError(t, s.Users.Delete(ctx, alice))

	gone, err := s.Users.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// alice's membership cascaded away, bob's remains
	members, err := s.Rooms.Members(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, bob.ID, members[0].ID)
}
