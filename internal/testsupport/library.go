package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// BookFixture describes one book directory written by WriteLibrary.
// An empty Format writes only the key file, leaving the book not downloaded.
type BookFixture struct {
	ID     string
	Format string
	Key    []byte
	Data   []byte
}

// WriteLibrary lays out a user library under base the way the desktop reader
// does and returns the user root.
func WriteLibrary(t testing.TB, base, userID string, books ...BookFixture) string {
	t.Helper()

	root := filepath.Join(base, "_"+userID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir library root: %v", err)
	}
	for _, book := range books {
		dir := filepath.Join(root, book.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir book %s: %v", book.ID, err)
		}
		key := book.Key
		if key == nil {
			key = []byte("key-" + book.ID)
		}
		if err := os.WriteFile(filepath.Join(dir, book.ID+".dat"), key, 0o644); err != nil {
			t.Fatalf("write key for %s: %v", book.ID, err)
		}
		if book.Format == "" {
			continue
		}
		data := book.Data
		if data == nil {
			data = []byte("data-" + book.ID)
		}
		if err := os.WriteFile(filepath.Join(dir, book.ID+"."+book.Format), data, 0o644); err != nil {
			t.Fatalf("write data for %s: %v", book.ID, err)
		}
	}
	return root
}
