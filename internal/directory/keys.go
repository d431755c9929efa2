// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"fmt"

	"github.com/pboxnet/boxdir/internal/db"
)

// KeyReconciler converges a user's stored public keys toward a submitted
// desired set. Removed keys are revoked, not deleted: every key ever
// authorized stays queryable as history.
type KeyReconciler struct {
	store db.Store
}

// NewKeyReconciler returns a KeyReconciler backed by the given store.
func NewKeyReconciler(store db.Store) *KeyReconciler {
	return &KeyReconciler{store: store}
}

// ListActive returns the user's currently active key material.
// Returns ErrNotFound when the active set is empty, which covers both an
// unregistered username and a registered user whose keys are all revoked.
func (r *KeyReconciler) ListActive(username string) ([]string, error) {
	keys, err := r.store.ListActiveKeys(username)
	if err != nil {
		return nil, fmt.Errorf("directory: list keys for %q: %w", username, err)
	}
	if len(keys) == 0 {
		return nil, ErrNotFound
	}
	return keys, nil
}

// Reconcile replaces the user's active key set with the desired one.
//
// Desired keys not currently active become brand-new active rows, even when
// identical material was revoked before; history never blocks re-addition
// and re-adding never resurrects an old row. Active keys absent from the
// desired set are revoked. Insertions and revocations commit together or
// not at all. A second call with the same desired set computes an empty
// delta and writes nothing.
func (r *KeyReconciler) Reconcile(username string, desired []string) error {
	current, err := r.store.ListActiveKeys(username)
	if err != nil {
		return fmt.Errorf("directory: read keys for %q: %w", username, err)
	}
	toAdd, toRevoke := Diff(current, desired)
	if len(toAdd) == 0 && len(toRevoke) == 0 {
		return nil
	}
	if err := r.store.ApplyKeyDelta(username, toAdd, toRevoke); err != nil {
		return fmt.Errorf("directory: reconcile keys for %q: %w", username, err)
	}
	return nil
}
