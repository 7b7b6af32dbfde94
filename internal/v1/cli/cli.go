// Package cli implements the manager commands, the only way to create and
// delete user accounts.
package cli

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/nultr/nultr/backend/go/internal/v1/store"
)

const (
	passwordLength   = 7
	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// UserStore is the account persistence slice the commands need.
type UserStore interface {
	ByUsername(ctx context.Context, username string) (*store.User, error)
	Insert(ctx context.Context, user *store.User) error
	Delete(ctx context.Context, user *store.User) error
}

// Hasher derives a password hash for storage.
type Hasher interface {
	Hash(password string) (string, error)
}

// Manager runs the admin commands and reports to out.
type Manager struct {
	users  UserStore
	hasher Hasher
	out    io.Writer
}

func NewManager(users UserStore, hasher Hasher, out io.Writer) *Manager {
	return &Manager{users: users, hasher: hasher, out: out}
}

// AddUser creates an account with a generated password and prints the
// password. The password is shown exactly once; only its hash is stored.
func (m *Manager) AddUser(ctx context.Context, username string) error {
	password, err := generatePassword(passwordLength)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{Username: username, PasswordHash: hash}
	if err := m.users.Insert(ctx, user); err != nil {
		return err
	}

	fmt.Fprintf(m.out, "User created. Generated password: %s\n", password)
	return nil
}

// DeleteUser removes the account, or reports that it does not exist.
func (m *Manager) DeleteUser(ctx context.Context, username string) error {
	user, err := m.users.ByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(m.out, "User not found")
		return nil
	}

	if err := m.users.Delete(ctx, user); err != nil {
		return err
	}

	fmt.Fprintln(m.out, "User deleted")
	return nil
}

// generatePassword draws n characters uniformly from the alphanumeric
// alphabet using the crypto randomness source.
func generatePassword(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
