package database

import (
	"testing"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
)

func TestOpenRejectsFileSource(t *testing.T) {
	if _, err := Open(config.SourceCSV); err == nil {
		t.Fatal("expected error for csv source")
	}
	if _, err := Open("oracle"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestCloseWithoutConnections(t *testing.T) {
	if err := closeGorm(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Close()
}
