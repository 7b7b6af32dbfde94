package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// RoomRepository reads and writes rooms and their memberships.
type RoomRepository struct {
	db *gorm.DB
}

// Exists reports whether a room with the given id exists.
func (r *RoomRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting rooms: %w", err)
	}
	return count > 0, nil
}

// ByID returns the room with the given id, or (nil, nil) if absent.
func (r *RoomRepository) ByID(ctx context.Context, id int64) (*Room, error) {
	var room Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading room %d: %w", id, err)
	}
	return &room, nil
}

// Insert persists a new room and fills in its id.
func (r *RoomRepository) Insert(ctx context.Context, room *Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("inserting room %q: %w", room.Name, err)
	}
	return nil
}

// Members returns every user who is a member of the room.
func (r *RoomRepository) Members(ctx context.Context, roomID int64) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Joins("INNER JOIN rooms_users ru ON ru.user_id = users.id").
		Where("ru.room_id = ?", roomID).
		Order("users.id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("listing members of room %d: %w", roomID, err)
	}
	return users, nil
}

// ForUser returns the rooms the user belongs to, under the name that user
// sees: the membership's personal name, then the room name, then "#<id>".
func (r *RoomRepository) ForUser(ctx context.Context, userID int64) ([]RoomListing, error) {
	var listings []RoomListing
	err := r.db.WithContext(ctx).Raw(`
		SELECT r.id AS id, COALESCE(ru.generated_room_name, r.name, '#' || CAST(r.id AS TEXT)) AS name
		FROM rooms r
		INNER JOIN rooms_users ru ON r.id = ru.room_id
		WHERE ru.user_id = ?
		ORDER BY r.id`, userID).
		Scan(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("listing rooms for user %d: %w", userID, err)
	}
	return listings, nil
}

// InsertMemberships persists the given membership rows in one statement.
func (r *RoomRepository) InsertMemberships(ctx context.Context, memberships []RoomUser) error {
	if len(memberships) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&memberships).Error; err != nil {
		return fmt.Errorf("inserting %d memberships: %w", len(memberships), err)
	}
	return nil
}
