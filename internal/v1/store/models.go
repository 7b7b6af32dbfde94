// Package store implements relational persistence for users, rooms,
// memberships, and messages on top of gorm, with the schema managed by
// versioned SQL migrations.
//
// Repositories are the only boundary to persistence: callers depend on the
// repository methods, never on gorm types. Lookups return (nil, nil) when the
// row does not exist; every other failure is a storage error.
package store

import (
	"time"

	"github.com/google/uuid"
)

// User is an account created by the admin CLI. Only the password hash is
// ever mutated.
type User struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
}

// Room is a chat room. Its own name may be overridden per member by the
// membership's generated room name.
type Room struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

// RoomUser is a room membership. The composite (room_id, user_id) key is the
// primary key; both foreign keys cascade on delete.
type RoomUser struct {
	RoomID            int64   `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	UserID            int64   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GeneratedRoomName *string `json:"generated_room_name,omitempty"`
}

// TableName keeps the join table's legacy name.
func (RoomUser) TableName() string { return "rooms_users" }

// Message is a persisted chat message. The client-generated UUID is the
// canonical cross-boundary identifier; the surrogate id stays internal.
// CreatedAt is the server wall clock (UTC) at insert. Read starts false and
// is monotonic.
type Message struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	UUID      uuid.UUID `gorm:"column:uuid;uniqueIndex;not null" json:"uuid"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	Content   string    `gorm:"not null" json:"content"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	RoomID    int64     `gorm:"not null" json:"room_id"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
}

// RoomListing is a room as seen by one user: the membership's personal name
// wins over the room's own name, with "#<id>" as the last resort.
type RoomListing struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
