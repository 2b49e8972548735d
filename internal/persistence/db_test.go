package persistence

import (
	"strings"
	"testing"
)

func TestOpenAppliesConnectionPragmas(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	if err := db.conn.Get(&journalMode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if !strings.EqualFold(journalMode, "wal") {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var busyTimeout int
	if err := db.conn.Get(&busyTimeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMeta("schema_version", "1"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	got, err := db.GetMeta("schema_version")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if got != "1" {
		t.Errorf("GetMeta = %q, want %q", got, "1")
	}

	if err := db.SaveMeta("schema_version", "2"); err != nil {
		t.Fatalf("SaveMeta overwrite: %v", err)
	}
	if got, _ := db.GetMeta("schema_version"); got != "2" {
		t.Errorf("GetMeta after overwrite = %q, want %q", got, "2")
	}
}
