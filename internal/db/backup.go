// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/pboxnet/boxdir/internal/model"
	"github.com/uptrace/bun"
)

// ExportDataForBackupBun reads the full contents of the database into a
// BackupData structure. It runs inside a transaction so the dump is a
// consistent snapshot even while the daemon keeps serving writes.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var um []UserModel
	if err := tx.NewSelect().Model(&um).OrderExpr("username").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export users: %w", err)
	}
	var km []PublicKeyModel
	if err := tx.NewSelect().Model(&km).OrderExpr("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export public keys: %w", err)
	}
	var em []EndpointModel
	if err := tx.NewSelect().Model(&em).OrderExpr("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export endpoints: %w", err)
	}
	var am []AuditLogModel
	if err := tx.NewSelect().Model(&am).OrderExpr("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export audit log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	backup := &model.BackupData{
		Users:      make([]model.User, 0, len(um)),
		PublicKeys: make([]model.PublicKey, 0, len(km)),
		Endpoints:  make([]model.Endpoint, 0, len(em)),
		AuditLog:   make([]model.AuditLogEntry, 0, len(am)),
	}
	for _, u := range um {
		backup.Users = append(backup.Users, model.User{Username: u.Username})
	}
	for _, k := range km {
		backup.PublicKeys = append(backup.PublicKeys, publicKeyModelToModel(k))
	}
	for _, e := range em {
		backup.Endpoints = append(backup.Endpoints, endpointModelToModel(e))
	}
	for _, a := range am {
		backup.AuditLog = append(backup.AuditLog, auditLogModelToModel(a))
	}
	return backup, nil
}

// ImportDataFromBackupBun restores the database from a backup structure.
// It performs a full wipe-and-replace within a single transaction: on any
// failure the previous contents remain untouched.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	if backup == nil {
		return fmt.Errorf("backup: nil backup data")
	}
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Bun refuses DELETE without WHERE; raw statements keep the wipe explicit.
	for _, table := range []string{"audit_log", "ips", "public_keys", "users"} {
		if _, err := ExecRaw(ctx, tx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("backup: wipe %s: %w", table, err)
		}
	}

	if len(backup.Users) > 0 {
		rows := make([]UserModel, 0, len(backup.Users))
		for _, u := range backup.Users {
			rows = append(rows, UserModel{Username: u.Username})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("backup: restore users: %w", err)
		}
	}
	if len(backup.PublicKeys) > 0 {
		rows := make([]PublicKeyModel, 0, len(backup.PublicKeys))
		for _, k := range backup.PublicKeys {
			rows = append(rows, PublicKeyModel{Username: k.Username, PublicKey: k.Material, Status: int(k.Status)})
		}
		if _, err := tx.NewInsert().Model(&rows).Column("username", "public_key", "status").Exec(ctx); err != nil {
			return fmt.Errorf("backup: restore public keys: %w", err)
		}
	}
	if len(backup.Endpoints) > 0 {
		rows := make([]EndpointModel, 0, len(backup.Endpoints))
		for _, e := range backup.Endpoints {
			rows = append(rows, EndpointModel{Username: e.Username, IP: e.Address})
		}
		if _, err := tx.NewInsert().Model(&rows).Column("username", "ip").Exec(ctx); err != nil {
			return fmt.Errorf("backup: restore endpoints: %w", err)
		}
	}
	if len(backup.AuditLog) > 0 {
		rows := make([]AuditLogModel, 0, len(backup.AuditLog))
		for _, a := range backup.AuditLog {
			rows = append(rows, AuditLogModel{Timestamp: a.Timestamp, Action: a.Action, Details: a.Details})
		}
		if _, err := tx.NewInsert().Model(&rows).Column("timestamp", "action", "details").Exec(ctx); err != nil {
			return fmt.Errorf("backup: restore audit log: %w", err)
		}
	}
	return tx.Commit()
}
