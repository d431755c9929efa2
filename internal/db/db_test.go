package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/pboxnet/boxdir/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	store, err := New("sqlite", dsn)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func allKeys(t *testing.T, store Store, username string) []model.PublicKey {
	t.Helper()
	s, ok := store.(*SqliteStore)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	keys, err := listAllKeysBun(s.BunDB(), username)
	if err != nil {
		t.Fatalf("listing all key rows failed: %v", err)
	}
	return keys
}

func TestNew_MigrationsApplied(t *testing.T) {
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if _, err := New("sqlite", dsn); err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, table := range []string{"users", "public_keys", "ips", "audit_log", "schema_migrations"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist after migrations: %v", table, err)
		}
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	if _, err := New("oracle", "whatever"); err == nil {
		t.Fatalf("expected error for unsupported db type")
	}
}

func TestRegisterUser_DuplicateBehavior(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterUser("alice", "K1"); err != nil {
		t.Fatalf("unexpected error registering user: %v", err)
	}
	if err := store.RegisterUser("alice", "K2"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on duplicate RegisterUser, got: %v", err)
	}

	// The failed registration must not have left its key behind.
	keys, err := store.ListActiveKeys("alice")
	if err != nil {
		t.Fatalf("ListActiveKeys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "K1" {
		t.Fatalf("expected [K1] as sole active key, got %v", keys)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("bob"); err != nil {
		t.Fatalf("unexpected error creating user: %v", err)
	}
	if err := store.CreateUser("bob"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on duplicate CreateUser, got: %v", err)
	}
	exists, err := store.UserExists("bob")
	if err != nil || !exists {
		t.Fatalf("expected bob to exist, got exists=%v err=%v", exists, err)
	}
	exists, err = store.UserExists("nobody")
	if err != nil || exists {
		t.Fatalf("expected nobody to be absent, got exists=%v err=%v", exists, err)
	}
}

func TestApplyKeyDelta_RevokeKeepsHistory(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterUser("carol", "K1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.ApplyKeyDelta("carol", []string{"K2"}, []string{"K1"}); err != nil {
		t.Fatalf("ApplyKeyDelta failed: %v", err)
	}

	active, err := store.ListActiveKeys("carol")
	if err != nil {
		t.Fatalf("ListActiveKeys failed: %v", err)
	}
	if len(active) != 1 || active[0] != "K2" {
		t.Fatalf("expected [K2] active, got %v", active)
	}

	// The revoked K1 row must still exist as history.
	rows := allKeys(t, store, "carol")
	if len(rows) != 2 {
		t.Fatalf("expected 2 key rows (1 active, 1 revoked), got %d", len(rows))
	}
	var revoked int
	for _, k := range rows {
		if k.Status == model.KeyStatusRevoked {
			revoked++
			if k.Material != "K1" {
				t.Fatalf("expected revoked row to be K1, got %q", k.Material)
			}
		}
	}
	if revoked != 1 {
		t.Fatalf("expected exactly 1 revoked row, got %d", revoked)
	}
}

func TestApplyKeyDelta_ReAddCreatesNewRow(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterUser("dave", "K1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.RevokeKeys("dave", []string{"K1"}); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := store.InsertKeys("dave", []string{"K1"}); err != nil {
		t.Fatalf("re-insert failed: %v", err)
	}

	// The old row stays revoked; the re-add must create a fresh row rather
	// than flipping the old one back.
	rows := allKeys(t, store, "dave")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after revoke+re-add, got %d", len(rows))
	}
	if rows[0].Status != model.KeyStatusRevoked || rows[1].Status != model.KeyStatusActive {
		t.Fatalf("expected old row revoked and new row active, got %+v", rows)
	}
	if rows[0].Material != "K1" || rows[1].Material != "K1" {
		t.Fatalf("expected both rows to carry K1, got %+v", rows)
	}
}

func TestRevokeKeys_OnlyTouchesActiveRows(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterUser("erin", "K1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.RevokeKeys("erin", []string{"K1"}); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	// Second revoke of the same material is a no-op, not an error.
	if err := store.RevokeKeys("erin", []string{"K1"}); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}
	// Revoking unknown material is also a no-op.
	if err := store.RevokeKeys("erin", []string{"unknown"}); err != nil {
		t.Fatalf("revoking unknown material failed: %v", err)
	}

	rows := allKeys(t, store, "erin")
	if len(rows) != 1 || rows[0].Status != model.KeyStatusRevoked {
		t.Fatalf("expected a single revoked row, got %+v", rows)
	}
}

func TestEndpointDelta_PhysicalDeletion(t *testing.T) {
	store := newTestStore(t)

	if err := store.InsertEndpoints("frank", []string{"1.2.3.4", "5.6.7.8"}); err != nil {
		t.Fatalf("insert endpoints failed: %v", err)
	}
	if err := store.ApplyEndpointDelta("frank", nil, []string{"1.2.3.4"}); err != nil {
		t.Fatalf("delete endpoint failed: %v", err)
	}

	addrs, err := store.ListEndpoints("frank")
	if err != nil {
		t.Fatalf("ListEndpoints failed: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "5.6.7.8" {
		t.Fatalf("expected [5.6.7.8], got %v", addrs)
	}

	// No trace of the deleted address may remain in the table.
	s := store.(*SqliteStore)
	var n int
	if err := QueryRawInto(context.Background(), s.BunDB(), &n, "SELECT COUNT(*) FROM ips WHERE ip = ?", "1.2.3.4"); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no rows for deleted address, found %d", n)
	}
}

func TestListEndpoints_EmptyIsValid(t *testing.T) {
	store := newTestStore(t)
	addrs, err := store.ListEndpoints("ghost")
	if err != nil {
		t.Fatalf("ListEndpoints failed: %v", err)
	}
	if len(addrs) != 0 {
		t.Fatalf("expected empty endpoint list, got %v", addrs)
	}
}

func TestAuditLog_RecordsMutations(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterUser("grace", "K1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.ApplyKeyDelta("grace", []string{"K2"}, nil); err != nil {
		t.Fatalf("key delta failed: %v", err)
	}

	entries, err := store.GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	// Most recent first.
	if entries[0].Action != "RECONCILE_KEYS" || entries[1].Action != "REGISTER_USER" {
		t.Fatalf("unexpected audit ordering: %+v", entries)
	}
}

func TestBackup_ExportImportRoundtrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterUser("henry", "K1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.ApplyKeyDelta("henry", []string{"K2"}, []string{"K1"}); err != nil {
		t.Fatalf("key delta failed: %v", err)
	}
	if err := store.InsertEndpoints("henry", []string{"9.9.9.9"}); err != nil {
		t.Fatalf("insert endpoints failed: %v", err)
	}

	backup, err := store.ExportDataForBackup()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(backup.Users) != 1 || len(backup.PublicKeys) != 2 || len(backup.Endpoints) != 1 {
		t.Fatalf("unexpected backup contents: %+v", backup)
	}

	// Restore into a fresh database and verify state survives, including
	// the revoked history row.
	other := newTestStore(t)
	if err := other.ImportDataFromBackup(backup); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	active, err := other.ListActiveKeys("henry")
	if err != nil {
		t.Fatalf("ListActiveKeys after restore failed: %v", err)
	}
	if len(active) != 1 || active[0] != "K2" {
		t.Fatalf("expected [K2] active after restore, got %v", active)
	}
	rows := allKeys(t, other, "henry")
	if len(rows) != 2 {
		t.Fatalf("expected revocation history to survive restore, got %d rows", len(rows))
	}
	addrs, err := other.ListEndpoints("henry")
	if err != nil || len(addrs) != 1 || addrs[0] != "9.9.9.9" {
		t.Fatalf("expected endpoints to survive restore, got %v err=%v", addrs, err)
	}
}

func TestMapDBError(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if err := MapDBError(errors.New("UNIQUE constraint failed: users.username")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for unique violation, got %v", err)
	}
	plain := errors.New("connection refused")
	if err := MapDBError(plain); err != plain {
		t.Fatalf("expected passthrough for unrelated error, got %v", err)
	}
}
