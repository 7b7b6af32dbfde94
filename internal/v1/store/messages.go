package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository reads and writes chat messages.
type MessageRepository struct {
	db *gorm.DB
}

// Insert persists a new message and fills in its surrogate id. The unique
// constraint on uuid rejects a second insert with the same client uuid.
func (r *MessageRepository) Insert(ctx context.Context, msg *Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("inserting message %s: %w", msg.UUID, err)
	}
	return nil
}

// ByUUID returns the message with the given client uuid, or (nil, nil) if
// absent.
func (r *MessageRepository) ByUUID(ctx context.Context, id uuid.UUID) (*Message, error) {
	var msg Message
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading message %s: %w", id, err)
	}
	return &msg, nil
}

// Page returns one page of the room's messages ordered by created_at
// descending. Pages are zero-based.
func (r *MessageRepository) Page(ctx context.Context, roomID int64, page, pageSize int) ([]Message, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	var messages []Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Offset(page * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("paging messages of room %d: %w", roomID, err)
	}
	return messages, nil
}

// MarkRead sets read=true on every message whose uuid is listed, in a single
// statement. Already-read and unknown uuids are no-ops, so the call is
// idempotent.
func (r *MessageRepository) MarkRead(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&Message{}).
		Where("uuid IN ?", ids).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("marking %d messages read: %w", len(ids), err)
	}
	return nil
}
