// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// AuditLogEntry is a single recorded directory mutation.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// BackupData is the container for a full database dump. It is what gets
// serialized into a compressed backup file and read back on restore.
type BackupData struct {
	Users      []User          `json:"users"`
	PublicKeys []PublicKey     `json:"public_keys"`
	Endpoints  []Endpoint      `json:"endpoints"`
	AuditLog   []AuditLogEntry `json:"audit_log"`
}
