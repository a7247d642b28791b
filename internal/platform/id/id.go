// Package id generates compact, URL-safe identifiers for ledger entities.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a lowercase base32 encoding of a random UUIDv4.
//
// The result is 26 characters, sorts stably as a string, and never needs
// URL escaping.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}
