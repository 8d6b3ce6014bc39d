package exporter

import (
	"context"
	"errors"
	"time"

	"ridiexport/internal/credentials"
	"ridiexport/internal/library"
)

var (
	// ErrKeyDerivation marks a book whose content key could not be derived.
	ErrKeyDerivation = errors.New("key derivation failed")
	// ErrDecryption marks a book whose content could not be decrypted.
	ErrDecryption = errors.New("decryption failed")
	// ErrWrite marks a book whose output file could not be written.
	ErrWrite = errors.New("write failed")
	// ErrExportInProgress reports another export holding the output directory.
	ErrExportInProgress = errors.New("another export is writing to this directory")
)

// KeyDeriver produces the content key for a book from the device id.
type KeyDeriver interface {
	DeriveKey(ctx context.Context, book library.Book, deviceID string) ([]byte, error)
}

// Decrypter produces the plaintext content of a book.
type Decrypter interface {
	Decrypt(ctx context.Context, book library.Book, key []byte) ([]byte, error)
}

// TitleExtractor returns the embedded title of decrypted content, or "".
type TitleExtractor func(format library.Format, data []byte) string

// Job is one batch export request.
type Job struct {
	Books      []library.Book
	Credential credentials.Credential
	OutputDir  string
}

// Outcome is the result of exporting one book.
type Outcome struct {
	BookID  string `json:"book_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	Err     error  `json:"-"`
}

// Summary totals a finished batch.
type Summary struct {
	JobID     string        `json:"job_id"`
	OutputDir string        `json:"output_dir"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
}

// Processed returns the number of books that produced an outcome.
func (s Summary) Processed() int {
	return s.Succeeded + s.Failed
}

// EventKind classifies pipeline events.
type EventKind int

const (
	// EventProgress announces the book about to be processed.
	EventProgress EventKind = iota
	// EventOutcome carries the result of one book.
	EventOutcome
	// EventDone is the final event of every run.
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventOutcome:
		return "outcome"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one element of a run's ordered event stream. Index is the
// zero-based position of BookID in the job.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	BookID  string
	Message string
	Outcome *Outcome
	Summary *Summary
}
