package main

import (
	"bytes"
	"testing"

	"github.com/pboxnet/boxdir/internal/model"
)

func TestBackupRoundtrip(t *testing.T) {
	data := &model.BackupData{
		Users: []model.User{{Username: "alice"}},
		PublicKeys: []model.PublicKey{
			{ID: 1, Username: "alice", Material: "K1", Status: model.KeyStatusRevoked},
			{ID: 2, Username: "alice", Material: "K2", Status: model.KeyStatusActive},
		},
		Endpoints: []model.Endpoint{{ID: 1, Username: "alice", Address: "1.2.3.4"}},
		AuditLog:  []model.AuditLogEntry{{ID: 1, Timestamp: "2025-01-02T03:04:05Z", Action: "REGISTER_USER", Details: "alice"}},
	}

	var buf bytes.Buffer
	if err := writeBackup(data, &buf); err != nil {
		t.Fatalf("writeBackup failed: %v", err)
	}

	// The payload must actually be zstd, not plain JSON.
	if buf.Len() < 4 || !bytes.Equal(buf.Bytes()[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Fatalf("output does not start with the zstd magic number")
	}

	got, err := readBackup(&buf)
	if err != nil {
		t.Fatalf("readBackup failed: %v", err)
	}
	if len(got.Users) != 1 || got.Users[0].Username != "alice" {
		t.Fatalf("users did not survive roundtrip: %+v", got.Users)
	}
	if len(got.PublicKeys) != 2 || got.PublicKeys[0].Status != model.KeyStatusRevoked {
		t.Fatalf("keys did not survive roundtrip: %+v", got.PublicKeys)
	}
	if len(got.Endpoints) != 1 || got.Endpoints[0].Address != "1.2.3.4" {
		t.Fatalf("endpoints did not survive roundtrip: %+v", got.Endpoints)
	}
	if len(got.AuditLog) != 1 || got.AuditLog[0].Action != "REGISTER_USER" {
		t.Fatalf("audit log did not survive roundtrip: %+v", got.AuditLog)
	}
}

func TestReadBackup_Garbage(t *testing.T) {
	if _, err := readBackup(bytes.NewBufferString("not a backup")); err == nil {
		t.Fatalf("expected error for non-zstd input")
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"serve", "audit", "maintenance", "backup", "restore", "config"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}
