// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/pboxnet/boxdir/internal/model"

// Store defines the interface for all database operations in Boxdir.
// This allows for multiple database backends to be implemented.
//
// Every mutating method applies its changes as a single atomic unit: either
// the whole call is visible to subsequent reads or none of it is.
type Store interface {
	// User methods
	UserExists(username string) (bool, error)
	CreateUser(username string) error
	RegisterUser(username, material string) error

	// Public key methods. Key material is opaque to the store; matching is
	// exact string comparison on (username, material).
	ListActiveKeys(username string) ([]string, error)
	InsertKeys(username string, materials []string) error
	RevokeKeys(username string, materials []string) error
	ApplyKeyDelta(username string, toAdd, toRevoke []string) error

	// Endpoint methods. Removal is physical; no history is retained.
	ListEndpoints(username string) ([]string, error)
	InsertEndpoints(username string, addresses []string) error
	DeleteEndpoints(username string, addresses []string) error
	ApplyEndpointDelta(username string, toAdd, toDelete []string) error

	// Audit log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
}
