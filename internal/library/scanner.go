package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"ridiexport/internal/logging"
)

// ErrLibraryNotFound reports a user library directory that does not exist.
var ErrLibraryNotFound = errors.New("library not found")

// Scanner lists exportable books for a user.
type Scanner struct {
	resolve RootResolver
	read    MetadataReader
	logger  *slog.Logger
}

// NewScanner builds a Scanner. Nil collaborators fall back to DefaultRoot and
// ReadBooks.
func NewScanner(resolve RootResolver, read MetadataReader, logger *slog.Logger) *Scanner {
	if resolve == nil {
		resolve = DefaultRoot
	}
	if read == nil {
		read = ReadBooks
	}
	return &Scanner{
		resolve: resolve,
		read:    read,
		logger:  logging.NewComponentLogger(logger, "library"),
	}
}

// Root resolves the library directory for userID and checks that it exists.
func (s *Scanner) Root(userID string) (string, error) {
	root, err := s.resolve(userID)
	if err != nil {
		return "", fmt.Errorf("resolve library for %s: %w", userID, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, root)
		}
		return "", fmt.Errorf("inspect library %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrLibraryNotFound, root)
	}
	return root, nil
}

// ScanAll returns every book record for userID, present or not.
func (s *Scanner) ScanAll(userID string) ([]Book, error) {
	root, err := s.Root(userID)
	if err != nil {
		return nil, err
	}
	return s.read(root)
}

// Scan returns the books for userID whose data file is on disk.
func (s *Scanner) Scan(userID string) ([]Book, error) {
	records, err := s.ScanAll(userID)
	if err != nil {
		return nil, err
	}

	books := make([]Book, 0, len(records))
	for _, book := range records {
		if book.IsPresent() {
			books = append(books, book)
		}
	}
	s.logger.Debug("library scanned",
		logging.String(logging.FieldUserID, userID),
		logging.Int("records", len(records)),
		logging.Int("present", len(books)))
	return books, nil
}

// Select returns the books matching ids in the order given. Unknown ids are
// reported together in one error.
func Select(books []Book, ids []string) ([]Book, error) {
	index := make(map[string]Book, len(books))
	for _, book := range books {
		index[book.ID] = book
	}
	selected := make([]Book, 0, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		book, ok := index[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		selected = append(selected, book)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("books not found in library: %v", missing)
	}
	return selected, nil
}
