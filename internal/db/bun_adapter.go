package db

import (
	"context"
	"time"

	"github.com/pboxnet/boxdir/internal/model"
	"github.com/uptrace/bun"
)

// UserModel maps the `users` table for Bun queries.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`
	Username      string `bun:"username,pk"`
}

// PublicKeyModel maps the `public_keys` table. Rows are append-only except
// for the status column, which only ever moves active -> revoked.
type PublicKeyModel struct {
	bun.BaseModel `bun:"table:public_keys"`
	ID            int    `bun:"id,pk,autoincrement"`
	Username      string `bun:"username"`
	PublicKey     string `bun:"public_key"`
	Status        int    `bun:"status"`
}

// EndpointModel maps the `ips` table.
type EndpointModel struct {
	bun.BaseModel `bun:"table:ips"`
	ID            int    `bun:"id,pk,autoincrement"`
	Username      string `bun:"username"`
	IP            string `bun:"ip"`
}

// AuditLogModel maps the `audit_log` table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// --- Mapping helpers (centralized conversions) ---

func publicKeyModelToModel(p PublicKeyModel) model.PublicKey {
	return model.PublicKey{ID: p.ID, Username: p.Username, Material: p.PublicKey, Status: model.KeyStatus(p.Status)}
}

func endpointModelToModel(e EndpointModel) model.Endpoint {
	return model.Endpoint{ID: e.ID, Username: e.Username, Address: e.IP}
}

func auditLogModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Action: a.Action, Details: a.Details}
}

// UserExistsBun reports whether a username is registered.
func UserExistsBun(bdb *bun.DB, username string) (bool, error) {
	ctx := context.Background()
	n, err := bdb.NewSelect().Model((*UserModel)(nil)).Where("username = ?", username).Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateUserBun inserts a new user row. Returns ErrDuplicate when the
// username is already taken.
func CreateUserBun(bdb *bun.DB, username string) error {
	ctx := context.Background()
	if _, err := bdb.NewInsert().Model(&UserModel{Username: username}).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

// RegisterUserBun creates the user row and its initial active key in one
// transaction. A failure on either statement leaves nothing behind.
func RegisterUserBun(bdb *bun.DB, username, material string) error {
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NewInsert().Model(&UserModel{Username: username}).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	key := &PublicKeyModel{Username: username, PublicKey: material, Status: int(model.KeyStatusActive)}
	if _, err := tx.NewInsert().Model(key).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return tx.Commit()
}

// ListActiveKeysBun returns the active key material for a user, oldest first.
func ListActiveKeysBun(bdb *bun.DB, username string) ([]string, error) {
	ctx := context.Background()
	var km []PublicKeyModel
	err := bdb.NewSelect().Model(&km).
		Where("username = ?", username).
		Where("status = ?", int(model.KeyStatusActive)).
		OrderExpr("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(km))
	for _, k := range km {
		out = append(out, k.PublicKey)
	}
	return out, nil
}

// ApplyKeyDeltaBun inserts the toAdd materials as fresh active rows and
// revokes the toRevoke materials, all within one transaction. Revocation
// only touches rows that are still active; revoked history is never
// modified. Either list may be empty.
func ApplyKeyDeltaBun(bdb *bun.DB, username string, toAdd, toRevoke []string) error {
	if len(toAdd) == 0 && len(toRevoke) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if len(toAdd) > 0 {
		rows := make([]PublicKeyModel, 0, len(toAdd))
		for _, material := range toAdd {
			rows = append(rows, PublicKeyModel{Username: username, PublicKey: material, Status: int(model.KeyStatusActive)})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return MapDBError(err)
		}
	}
	if len(toRevoke) > 0 {
		_, err := tx.NewUpdate().Model((*PublicKeyModel)(nil)).
			Set("status = ?", int(model.KeyStatusRevoked)).
			Where("username = ?", username).
			Where("status = ?", int(model.KeyStatusActive)).
			Where("public_key IN (?)", bun.In(toRevoke)).
			Exec(ctx)
		if err != nil {
			return MapDBError(err)
		}
	}
	return tx.Commit()
}

// ListEndpointsBun returns the published addresses for a user, oldest first.
// An empty result is a valid answer, not an error.
func ListEndpointsBun(bdb *bun.DB, username string) ([]string, error) {
	ctx := context.Background()
	var em []EndpointModel
	err := bdb.NewSelect().Model(&em).Where("username = ?", username).OrderExpr("id").Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(em))
	for _, e := range em {
		out = append(out, e.IP)
	}
	return out, nil
}

// ApplyEndpointDeltaBun inserts the toAdd addresses and physically deletes
// the toDelete addresses within one transaction. Either list may be empty.
func ApplyEndpointDeltaBun(bdb *bun.DB, username string, toAdd, toDelete []string) error {
	if len(toAdd) == 0 && len(toDelete) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if len(toAdd) > 0 {
		rows := make([]EndpointModel, 0, len(toAdd))
		for _, addr := range toAdd {
			rows = append(rows, EndpointModel{Username: username, IP: addr})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return MapDBError(err)
		}
	}
	if len(toDelete) > 0 {
		_, err := tx.NewDelete().Model((*EndpointModel)(nil)).
			Where("username = ?", username).
			Where("ip IN (?)", bun.In(toDelete)).
			Exec(ctx)
		if err != nil {
			return MapDBError(err)
		}
	}
	return tx.Commit()
}

// LogActionBun records an audit trail event with the current UTC time.
func LogActionBun(bdb *bun.DB, action, details string) error {
	ctx := context.Background()
	entry := &AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Action:    action,
		Details:   details,
	}
	_, err := bdb.NewInsert().Model(entry).Exec(ctx)
	return err
}

// GetAllAuditLogEntriesBun retrieves all audit entries, most recent first.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var am []AuditLogModel
	err := bdb.NewSelect().Model(&am).OrderExpr("id DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, auditLogModelToModel(a))
	}
	return out, nil
}

// listAllKeysBun returns every key row regardless of status. Used by backup
// export and tests that assert on revocation history.
func listAllKeysBun(bdb *bun.DB, username string) ([]model.PublicKey, error) {
	ctx := context.Background()
	var km []PublicKeyModel
	q := bdb.NewSelect().Model(&km).OrderExpr("id")
	if username != "" {
		q = q.Where("username = ?", username)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.PublicKey, 0, len(km))
	for _, k := range km {
		out = append(out, publicKeyModelToModel(k))
	}
	return out, nil
}
