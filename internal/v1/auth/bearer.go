package auth

import (
	"errors"
	"strings"
)

// ErrNoBearer is returned when the Authorization header carries no usable
// bearer credential.
var ErrNoBearer = errors.New("missing bearer token")

// BearerToken extracts the token from an Authorization header value.
// Leading whitespace and control characters are trimmed and the "Bearer "
// prefix match is case-insensitive, so "bearer <t>" is accepted too.
func BearerToken(header string) (string, error) {
	trimmed := strings.TrimLeftFunc(header, func(r rune) bool {
		return r == ' ' || r == '\t' || r < 0x20 || r == 0x7f
	})

	const prefix = "bearer "
	if len(trimmed) <= len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", ErrNoBearer
	}

	return trimmed[len(prefix):], nil
}
