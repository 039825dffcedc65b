package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocalSave(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/uploads")
	tenant := uuid.New()

	url, err := store.Save(context.Background(), tenant, "shelf.JPG", strings.NewReader("fake-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/"+tenant.String()+"/") {
		t.Fatalf("url must carry the tenant prefix: %s", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("extension must be kept lowercase: %s", url)
	}

	rel := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "fake-bytes" {
		t.Fatalf("content mismatch: %q", data)
	}
}

func TestLocalSaveUniqueNames(t *testing.T) {
	store := NewLocal(t.TempDir(), "/uploads")
	tenant := uuid.New()

	a, err := store.Save(context.Background(), tenant, "photo.png", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := store.Save(context.Background(), tenant, "photo.png", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a == b {
		t.Fatal("same filename must not collide")
	}
}

func TestSafeExt(t *testing.T) {
	cases := map[string]string{
		"shelf.jpg":           ".jpg",
		"SHELF.PNG":           ".png",
		"noext":               "",
		"":                    "",
		"trailing.":           "",
		"weird.j%g":           "",
		"archive.verylongext": "",
	}
	for in, want := range cases {
		if got := safeExt(in); got != want {
			t.Errorf("safeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
