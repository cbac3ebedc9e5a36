package filetracker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadThenEditIsAllowed(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	got, err := tr.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
	if err := tr.AssertCanEdit(p); err != nil {
		t.Fatalf("AssertCanEdit: %v", err)
	}
}

func TestEditWithoutReadIsOutdated(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	err := tr.AssertCanEdit(p)
	if !errors.Is(err, ErrFileOutdated) {
		t.Fatalf("got %v, want ErrFileOutdated", err)
	}
}

func TestExternalModificationAfterReadIsOutdated(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	if _, err := tr.Read(p); err != nil {
		t.Fatal(err)
	}

	// Force a detectable mtime change.
	future := time.Now().Add(2 * time.Second)
	if err := os.WriteFile(p, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(p, future, future); err != nil {
		t.Fatal(err)
	}

	if err := tr.AssertCanEdit(p); !errors.Is(err, ErrFileOutdated) {
		t.Fatalf("got %v, want ErrFileOutdated", err)
	}
}

func TestWriteRecordsMtimeSoSubsequentEditIsAllowed(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "new.txt")

	tr := New()
	if err := tr.AssertCanCreate(p); err != nil {
		t.Fatalf("AssertCanCreate: %v", err)
	}
	if err := tr.Write(p, "content"); err != nil {
		t.Fatal(err)
	}
	if err := tr.AssertCanEdit(p); err != nil {
		t.Fatalf("AssertCanEdit after Write: %v", err)
	}
}

func TestAssertCanCreateFailsWhenFileExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	if err := tr.AssertCanCreate(p); !errors.Is(err, ErrFileExists) {
		t.Fatalf("got %v, want ErrFileExists", err)
	}
}

func TestForgetRequiresFreshRead(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	if _, err := tr.Read(p); err != nil {
		t.Fatal(err)
	}
	tr.Forget(p)

	if err := tr.AssertCanEdit(p); !errors.Is(err, ErrFileOutdated) {
		t.Fatalf("got %v, want ErrFileOutdated", err)
	}
}
