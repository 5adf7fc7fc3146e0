package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stillframe/service/internal/upload"
)

func testCandidate(name string) *upload.Candidate {
	return &upload.Candidate{
		Name:        name,
		ContentType: "image/png",
		Data:        []byte("fake png bytes"),
	}
}

func TestLocal_CommitCreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "covers")
	store := NewLocal(dir, "/uploads/covers")

	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("directory exists before first commit")
	}

	ref, err := store.Commit(context.Background(), testCandidate("abc123.png"))
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if ref != "abc123.png" {
		t.Errorf("ref = %q, want abc123.png", ref)
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc123.png"))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "fake png bytes" {
		t.Errorf("stored bytes = %q", data)
	}
}

func TestLocal_CommitLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir, "/uploads/covers")

	if _, err := store.Commit(context.Background(), testCandidate("a.png")); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.png" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestLocal_RemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir, "/uploads/covers")
	ctx := context.Background()

	if _, err := store.Commit(ctx, testCandidate("gone.png")); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if err := store.Remove(ctx, "gone.png"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	// second removal of the same ref, and removal of a ref that never existed
	if err := store.Remove(ctx, "gone.png"); err != nil {
		t.Errorf("Remove() of absent file errored: %v", err)
	}
	if err := store.Remove(ctx, "never-was.png"); err != nil {
		t.Errorf("Remove() of unknown ref errored: %v", err)
	}
}

func TestLocal_PathForRejectsEscapes(t *testing.T) {
	store := NewLocal(t.TempDir(), "/uploads/covers")

	bad := []string{
		"",
		".",
		"..",
		"../etc/passwd",
		"a/b.png",
		"sub/../../x.png",
		"/etc/passwd",
	}
	for _, ref := range bad {
		if _, err := store.PathFor(ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("PathFor(%q) err = %v, want ErrInvalidRef", ref, err)
		}
	}

	path, err := store.PathFor("ok.png")
	if err != nil {
		t.Fatalf("PathFor(ok.png) failed: %v", err)
	}
	if filepath.Base(path) != "ok.png" {
		t.Errorf("resolved path = %q", path)
	}
}

func TestLocal_URL(t *testing.T) {
	store := NewLocal(t.TempDir(), "/uploads/covers/")
	if got := store.URL("x.png"); got != "/uploads/covers/x.png" {
		t.Errorf("URL() = %q", got)
	}
}
