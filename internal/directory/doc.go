// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package directory implements the reconciliation core of Boxdir: user
// registration and the convergence of stored public keys and endpoints
// toward a caller-submitted desired state.
//
// Both reconcilers share one diff primitive and differ only in retention
// policy: removed keys are soft-revoked and kept as history, removed
// endpoints are deleted outright. Each reconciliation is stateless; the
// decision derives entirely from the store's current snapshot plus the
// submitted desired set. Two concurrent reconciliations for the same user
// can therefore race read-then-write and lose an update; the store's
// transaction keeps each individual batch atomic, but callers wanting
// stronger guarantees must serialize per username themselves.
package directory
