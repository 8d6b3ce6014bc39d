package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is the container format of a book's data file.
type Format string

const (
	FormatUnknown Format = ""
	FormatEPUB    Format = "epub"
	FormatPDF     Format = "pdf"
)

// knownFormats is ordered by lookup preference when a directory holds several data files.
var knownFormats = []Format{FormatEPUB, FormatPDF}

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "epub":
		return FormatEPUB, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported book format %q", value)
	}
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// FileKind selects one of the files stored for a book.
type FileKind int

const (
	// FileData is the encrypted book content.
	FileData FileKind = iota
	// FileKey is the encrypted per-book key material.
	FileKey
)

// Book is one downloaded artifact. Path is the book's directory.
type Book struct {
	ID     string `json:"id"`
	Format Format `json:"format"`
	Path   string `json:"path"`
}

// FilePath returns the location of the requested file for the book.
func (b Book) FilePath(kind FileKind) string {
	switch kind {
	case FileKey:
		return filepath.Join(b.Path, b.ID+".dat")
	default:
		ext := b.Format.Extension()
		if ext == "" {
			return ""
		}
		return filepath.Join(b.Path, b.ID+"."+ext)
	}
}

// IsPresent reports whether the book's data file exists on disk.
func (b Book) IsPresent() bool {
	path := b.FilePath(FileData)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// DataSize returns the size of the data file, or 0 when it cannot be read.
func (b Book) DataSize() int64 {
	info, err := os.Stat(b.FilePath(FileData))
	if err != nil {
		return 0
	}
	return info.Size()
}

// bookFromDir builds a record for a book directory. The format is taken from
// the first known data file present; a directory holding only key material
// yields a record with an unknown format.
func bookFromDir(dir string) (Book, error) {
	id := filepath.Base(dir)
	if id == "" || id == "." || id == string(filepath.Separator) {
		return Book{}, errors.New("book directory has no id")
	}
	book := Book{ID: id, Path: dir}
	for _, format := range knownFormats {
		candidate := Book{ID: id, Format: format, Path: dir}
		if _, err := os.Stat(candidate.FilePath(FileData)); err == nil {
			book.Format = format
			break
		}
	}
	return book, nil
}
