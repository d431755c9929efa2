// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"fmt"

	"github.com/pboxnet/boxdir/internal/db"
)

// EndpointReconciler converges a user's published addresses toward a
// submitted desired set. Unlike keys, removed endpoints are physically
// deleted and leave no trace.
type EndpointReconciler struct {
	store db.Store
}

// NewEndpointReconciler returns an EndpointReconciler backed by the given store.
func NewEndpointReconciler(store db.Store) *EndpointReconciler {
	return &EndpointReconciler{store: store}
}

// List returns the user's published addresses. An empty list is a valid
// answer and never an error; the asymmetry with KeyReconciler.ListActive
// is intentional.
func (r *EndpointReconciler) List(username string) ([]string, error) {
	addrs, err := r.store.ListEndpoints(username)
	if err != nil {
		return nil, fmt.Errorf("directory: list endpoints for %q: %w", username, err)
	}
	return addrs, nil
}

// Reconcile replaces the user's published address set with the desired one.
// Additions and deletions commit together or not at all.
func (r *EndpointReconciler) Reconcile(username string, desired []string) error {
	current, err := r.store.ListEndpoints(username)
	if err != nil {
		return fmt.Errorf("directory: read endpoints for %q: %w", username, err)
	}
	toAdd, toDelete := Diff(current, desired)
	if len(toAdd) == 0 && len(toDelete) == 0 {
		return nil
	}
	if err := r.store.ApplyEndpointDelta(username, toAdd, toDelete); err != nil {
		return fmt.Errorf("directory: reconcile endpoints for %q: %w", username, err)
	}
	return nil
}
