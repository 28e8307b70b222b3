package gallery

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte("\x89PNG fake payload "), 50)
	id, err := s.Save(ctx, Entry{
		Name:   "living-room",
		Color:  "#667EEA",
		Width:  640,
		Height: 480,
		PNG:    data,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	e, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(e.PNG, data) {
		t.Error("loaded image data differs from saved data")
	}
	if e.Name != "living-room" || e.Color != "#667EEA" || e.Width != 640 || e.Height != 480 {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Size == 0 || e.Size >= len(data) {
		t.Errorf("expected compressed size below %d, got %d", len(data), e.Size)
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"kitchen", "bedroom", "hall"} {
		_, err := s.Save(ctx, Entry{
			Name:      name,
			Color:     "#000000",
			Width:     1,
			Height:    1,
			PNG:       []byte{byte(i + 1)},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"hall", "bedroom", "kitchen"}
	for i, e := range entries {
		if e.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Name, want[i])
		}
		if e.PNG != nil {
			t.Error("List must not return image data")
		}
	}
	if !entries[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("unexpected CreatedAt %v", entries[0].CreatedAt)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveRejectsEmptyImage(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Save(context.Background(), Entry{Name: "empty"}); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Save(ctx, Entry{Name: "den", Color: "#FFFFFF", PNG: []byte{1, 2, 3}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "den" {
		t.Fatalf("unexpected entries after reopen: %+v", entries)
	}
}
