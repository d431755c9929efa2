// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"fmt"

	"github.com/pboxnet/boxdir/internal/model"
	"github.com/uptrace/bun"
)

// bunStore implements Store on top of a *bun.DB. All three dialect stores
// embed it; the SQL produced by the Bun helpers is dialect-agnostic, so the
// per-dialect types only exist to keep engine-specific behavior (and future
// divergence) in named places.
type bunStore struct {
	bun *bun.DB
}

// BunDB exposes the underlying bun handle for tests and maintenance tooling.
func (s *bunStore) BunDB() *bun.DB { return s.bun }

// UserExists reports whether a username is registered.
func (s *bunStore) UserExists(username string) (bool, error) {
	return UserExistsBun(s.bun, username)
}

// CreateUser inserts a bare user row. Most callers want RegisterUser, which
// also stores the initial key.
func (s *bunStore) CreateUser(username string) error {
	err := CreateUserBun(s.bun, username)
	if err == nil {
		_ = s.LogAction("CREATE_USER", fmt.Sprintf("username: %s", username))
	}
	return err
}

// RegisterUser creates a user together with their initial active key as one
// atomic unit. Returns ErrDuplicate if the username is taken.
func (s *bunStore) RegisterUser(username, material string) error {
	err := RegisterUserBun(s.bun, username, material)
	if err == nil {
		_ = s.LogAction("REGISTER_USER", fmt.Sprintf("username: %s", username))
	}
	return err
}

// ListActiveKeys returns the active key material for a user.
func (s *bunStore) ListActiveKeys(username string) ([]string, error) {
	return ListActiveKeysBun(s.bun, username)
}

// InsertKeys stores each material as a brand-new active row.
func (s *bunStore) InsertKeys(username string, materials []string) error {
	return s.ApplyKeyDelta(username, materials, nil)
}

// RevokeKeys flips matching active rows to revoked. Rows already revoked are
// left untouched; unknown materials are a no-op.
func (s *bunStore) RevokeKeys(username string, materials []string) error {
	return s.ApplyKeyDelta(username, nil, materials)
}

// ApplyKeyDelta applies an insert+revoke batch in one transaction.
func (s *bunStore) ApplyKeyDelta(username string, toAdd, toRevoke []string) error {
	err := ApplyKeyDeltaBun(s.bun, username, toAdd, toRevoke)
	if err == nil && (len(toAdd) > 0 || len(toRevoke) > 0) {
		_ = s.LogAction("RECONCILE_KEYS", fmt.Sprintf("username: %s, added: %d, revoked: %d", username, len(toAdd), len(toRevoke)))
	}
	return err
}

// ListEndpoints returns the published addresses for a user.
func (s *bunStore) ListEndpoints(username string) ([]string, error) {
	return ListEndpointsBun(s.bun, username)
}

// InsertEndpoints stores each address as a new row.
func (s *bunStore) InsertEndpoints(username string, addresses []string) error {
	return s.ApplyEndpointDelta(username, addresses, nil)
}

// DeleteEndpoints physically removes matching rows.
func (s *bunStore) DeleteEndpoints(username string, addresses []string) error {
	return s.ApplyEndpointDelta(username, nil, addresses)
}

// ApplyEndpointDelta applies an insert+delete batch in one transaction.
func (s *bunStore) ApplyEndpointDelta(username string, toAdd, toDelete []string) error {
	err := ApplyEndpointDeltaBun(s.bun, username, toAdd, toDelete)
	if err == nil && (len(toAdd) > 0 || len(toDelete) > 0) {
		_ = s.LogAction("RECONCILE_ENDPOINTS", fmt.Sprintf("username: %s, added: %d, removed: %d", username, len(toAdd), len(toDelete)))
	}
	return err
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an audit trail event.
func (s *bunStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// ExportDataForBackup retrieves all data from the database for a backup.
func (s *bunStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database from a backup data structure.
// It performs a full wipe-and-replace within a single transaction.
func (s *bunStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}
