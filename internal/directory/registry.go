// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"errors"
	"fmt"

	"github.com/pboxnet/boxdir/internal/db"
)

// Username availability answers returned by Registry.Status.
const (
	StatusFree  = "free"
	StatusTaken = "taken"
)

// Registry handles user existence checks and registration.
type Registry struct {
	store db.Store
}

// NewRegistry returns a Registry backed by the given store.
func NewRegistry(store db.Store) *Registry {
	return &Registry{store: store}
}

// Status reports whether a username is free or taken. Absence is a valid,
// expected answer, not a failure; an error here means the store itself failed.
func (r *Registry) Status(username string) (string, error) {
	exists, err := r.store.UserExists(username)
	if err != nil {
		return "", fmt.Errorf("directory: check username %q: %w", username, err)
	}
	if exists {
		return StatusTaken, nil
	}
	return StatusFree, nil
}

// Register creates the user and their initial active key atomically.
// Returns ErrConflict when the username is already taken.
func (r *Registry) Register(username, material string) error {
	err := r.store.RegisterUser(username, material)
	if errors.Is(err, db.ErrDuplicate) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("directory: register %q: %w", username, err)
	}
	return nil
}
