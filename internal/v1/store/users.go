package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// UserRepository reads and writes user accounts.
type UserRepository struct {
	db *gorm.DB
}

// Exists reports whether a user with the given id exists.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	return count > 0, nil
}

// ByID returns the user with the given id, or (nil, nil) if absent.
func (r *UserRepository) ByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", id, err)
	}
	return &user, nil
}

// ByUsername returns the user with the given username, or (nil, nil) if absent.
func (r *UserRepository) ByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %q: %w", username, err)
	}
	return &user, nil
}

// All returns every user.
func (r *UserRepository) All(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Insert persists a new user and fills in its id.
func (r *UserRepository) Insert(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("inserting user %q: %w", user.Username, err)
	}
	return nil
}

// Delete removes the user. Memberships and messages cascade.
func (r *UserRepository) Delete(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Delete(user).Error; err != nil {
		return fmt.Errorf("deleting user %d: %w", user.ID, err)
	}
	return nil
}
