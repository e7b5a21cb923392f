package covers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrlokans/librarian/internal/entities"
)

func TestNewLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "bookCovers")

	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if store.Dir() != dir {
		t.Errorf("expected dir %s, got %s", dir, store.Dir())
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("upload directory was not created")
	}
}

func TestLocalStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := NewLocalStore(t.TempDir())

	if err := store.Put(ctx, "a.png", strings.NewReader("png bytes"), 9, "image/png"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	rc, err := store.Open(ctx, "a.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png bytes" {
		t.Errorf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "a.png")); !os.IsNotExist(err) {
		t.Error("file still exists after Delete")
	}

	// Deleting twice is fine.
	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestLocalStore_OpenMissing(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())

	_, err := store.Open(context.Background(), "nope.jpg")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_RejectsPathNames(t *testing.T) {
	ctx := context.Background()
	store, _ := NewLocalStore(t.TempDir())

	for _, name := range []string{"", "../escape.png", "sub/dir.png", ".hidden"} {
		if err := store.Put(ctx, name, strings.NewReader("x"), 1, "image/png"); err == nil {
			t.Errorf("expected Put(%q) to fail", name)
		}
	}
}

func TestLocalStore_List(t *testing.T) {
	ctx := context.Background()
	store, _ := NewLocalStore(t.TempDir())

	_ = store.Put(ctx, "one.jpg", strings.NewReader("1"), 1, "image/jpeg")
	_ = store.Put(ctx, "two.gif", strings.NewReader("22"), 2, "image/gif")
	// leftovers that must not be listed
	_ = os.WriteFile(filepath.Join(store.Dir(), tmpPrefix+"123"), []byte("partial"), 0644)
	_ = os.Mkdir(filepath.Join(store.Dir(), "nested"), 0755)

	files, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	for _, f := range files {
		if f.ModTime.IsZero() {
			t.Errorf("file %s has no mod time", f.Name)
		}
	}
}
