package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	content := "site survey notes"
	if err := store.Save(context.Background(), "audit_1_abcd1234.pdf", strings.NewReader(content)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := store.Open(context.Background(), "audit_1_abcd1234.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	for _, key := range []string{"../escape.pdf", "a/b.pdf", "", ".hidden"} {
		if err := store.Save(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Save(%q) err = %v, want ErrInvalidKey", key, err)
		}
		if _, err := store.Open(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Open(%q) err = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestStoredName(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	name := StoredName("audit", "Site Plan.PDF", now)

	pattern := regexp.MustCompile(`^audit_\d+_[0-9a-f]{8}\.PDF$`)
	if !pattern.MatchString(name) {
		t.Errorf("StoredName = %q, does not match %v", name, pattern)
	}
	if strings.Contains(name, "Site") {
		t.Errorf("StoredName leaked original filename: %q", name)
	}

	other := StoredName("audit", "Site Plan.PDF", now)
	if name == other {
		t.Error("two stored names collided")
	}
}
