package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MetadataReader lists every book record under a user's library directory.
type MetadataReader func(root string) ([]Book, error)

// ReadBooks treats each subdirectory of root as one book record named by the
// directory. Records are returned sorted by id.
func ReadBooks(root string) ([]Book, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", root, err)
	}

	books := make([]Book, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		book, err := bookFromDir(filepath.Join(root, entry.Name()))
		if err != nil {
			continue
		}
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})
	return books, nil
}
