package exporter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ridiexport/internal/ebookmeta"
	"ridiexport/internal/fileutil"
	"ridiexport/internal/library"
	"ridiexport/internal/logging"
	"ridiexport/internal/textutil"
)

// eventBuffer lets the worker run a few events ahead of a slow consumer.
const eventBuffer = 16

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTitleExtractor replaces the embedded-title reader.
func WithTitleExtractor(fn TitleExtractor) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.titles = fn
		}
	}
}

// WithLockDir places output-directory lock files under dir instead of inside
// the output directory.
func WithLockDir(dir string) Option {
	return func(p *Pipeline) {
		p.lockDir = dir
	}
}

// WithOverwrite replaces existing files instead of adding a " (n)" suffix.
func WithOverwrite(overwrite bool) Option {
	return func(p *Pipeline) {
		p.overwrite = overwrite
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.NewComponentLogger(logger, "exporter")
	}
}

// Pipeline runs export jobs.
type Pipeline struct {
	keys      KeyDeriver
	decrypter Decrypter
	titles    TitleExtractor
	lockDir   string
	overwrite bool
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline constructs a Pipeline. Titles default to ebookmeta.ExtractTitle.
func NewPipeline(keys KeyDeriver, decrypter Decrypter, opts ...Option) (*Pipeline, error) {
	if keys == nil {
		return nil, errors.New("key deriver required")
	}
	if decrypter == nil {
		return nil, errors.New("decrypter required")
	}
	p := &Pipeline{
		keys:      keys,
		decrypter: decrypter,
		titles:    ebookmeta.ExtractTitle,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start validates job, takes the output-directory lock, and runs the batch
// on a new goroutine. The returned channel is closed after the done event.
// Setup failures are returned directly and no goroutine is started.
//
// Callers must receive from the channel until it is closed, including after
// cancelling ctx: the goroutine keeps the output-directory lock until its
// last event has been sent, and releases it before the channel closes.
func (p *Pipeline) Start(ctx context.Context, job Job) (<-chan Event, error) {
	run, err := p.prepare(job)
	if err != nil {
		return nil, err
	}
	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
		defer run.release()
		p.execute(ctx, run, func(ev Event) {
			events <- ev
		})
	}()
	return events, nil
}

// Run executes job synchronously, delivering events to emit in order, and
// returns the final summary.
func (p *Pipeline) Run(ctx context.Context, job Job, emit func(Event)) (Summary, error) {
	run, err := p.prepare(job)
	if err != nil {
		return Summary{}, err
	}
	defer run.release()
	if emit == nil {
		emit = func(Event) {}
	}
	return p.execute(ctx, run, emit), nil
}

type runState struct {
	job     Job
	jobID   string
	outDir  string
	lock    *flock.Flock
	logger  *slog.Logger
	started time.Time
}

func (r *runState) release() {
	if r.lock != nil {
		_ = r.lock.Unlock()
	}
}

func (p *Pipeline) prepare(job Job) (*runState, error) {
	if job.Credential.DeviceID == "" {
		return nil, errors.New("credential has no device id")
	}
	if job.OutputDir == "" {
		return nil, errors.New("output directory required")
	}
	outDir, err := filepath.Abs(job.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	info, err := os.Stat(outDir)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output directory %s is not a directory", outDir)
	}

	lock, err := p.lockOutputDir(outDir)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	return &runState{
		job:     job,
		jobID:   jobID,
		outDir:  outDir,
		lock:    lock,
		started: p.now(),
	}, nil
}

func (p *Pipeline) lockOutputDir(outDir string) (*flock.Flock, error) {
	lockPath := filepath.Join(outDir, ".ridiexport.lock")
	if p.lockDir != "" {
		if err := os.MkdirAll(p.lockDir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
		lockPath = filepath.Join(p.lockDir, lockName(outDir))
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrExportInProgress, outDir)
	}
	return lock, nil
}

// lockName derives a stable lock file name for an output directory.
func lockName(outDir string) string {
	sum := sha256.Sum256([]byte(outDir))
	return textutil.SanitizeToken(filepath.Base(outDir)) + "-" + hex.EncodeToString(sum[:6]) + ".lock"
}

func (p *Pipeline) execute(ctx context.Context, run *runState, emit func(Event)) Summary {
	ctx = logging.WithJobID(ctx, run.jobID)
	run.logger = logging.WithContext(ctx, p.logger)
	books := run.job.Books
	summary := Summary{
		JobID:     run.jobID,
		OutputDir: run.outDir,
		Total:     len(books),
	}
	run.logger.Info("export started",
		logging.String(logging.FieldUserID, run.job.Credential.UserID),
		logging.Int("books", len(books)),
		logging.String("output_dir", run.outDir))

	for i, book := range books {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		emit(Event{
			Kind:    EventProgress,
			Index:   i,
			Total:   len(books),
			BookID:  book.ID,
			Message: fmt.Sprintf("Exporting: %s...", book.ID),
		})

		// The book in flight always runs to its own success or failure;
		// cancellation is only observed at the top of the loop.
		itemCtx := context.WithoutCancel(logging.WithBookID(ctx, book.ID))
		outcome := p.exportBook(itemCtx, run, book)
		if outcome.Success {
			summary.Succeeded++
			summary.Bytes += outcome.Bytes
		} else {
			summary.Failed++
			logging.WarnWithContext(run.logger, "book export failed", "export_item_failed",
				logging.String(logging.FieldBookID, book.ID),
				logging.Error(outcome.Err),
				logging.String(logging.FieldImpact, "book skipped; remaining books continue"),
				logging.String(logging.FieldErrorHint, "rerun the export for this book after checking the helper and output directory"))
		}
		emit(Event{
			Kind:    EventOutcome,
			Index:   i,
			Total:   len(books),
			BookID:  book.ID,
			Message: outcome.Message,
			Outcome: &outcome,
		})
	}

	summary.Duration = p.now().Sub(run.started)
	run.logger.Info("export finished",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Bool("cancelled", summary.Cancelled),
		logging.Duration("duration", summary.Duration))
	emit(Event{
		Kind:    EventDone,
		Index:   len(books),
		Total:   len(books),
		Message: doneMessage(summary),
		Summary: &summary,
	})
	return summary
}

func (p *Pipeline) exportBook(ctx context.Context, run *runState, book library.Book) Outcome {
	path, size, err := p.exportOne(ctx, run, book)
	if err != nil {
		return Outcome{
			BookID:  book.ID,
			Message: fmt.Sprintf("Error %s: %v", book.ID, err),
			Err:     err,
		}
	}
	logging.WithContext(ctx, p.logger).Debug("book exported",
		logging.String("path", path),
		logging.Int64("bytes", size))
	return Outcome{
		BookID:  book.ID,
		Success: true,
		Message: fmt.Sprintf("Exported: %s", filepath.Base(path)),
		Path:    path,
		Bytes:   size,
	}
}

func (p *Pipeline) exportOne(ctx context.Context, run *runState, book library.Book) (string, int64, error) {
	key, err := p.keys.DeriveKey(ctx, book, run.job.Credential.DeviceID)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}
	data, err := p.decrypter.Decrypt(ctx, book, key)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	title := p.titles(book.Format, data)
	if title == "" {
		title = book.ID
	}
	name := textutil.SanitizeFileName(title)

	path, err := p.writeOutput(run.outDir, name, book.Format, data)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return path, int64(len(data)), nil
}

func (p *Pipeline) writeOutput(outDir, name string, format library.Format, data []byte) (string, error) {
	ext := format.Extension()
	if ext == "" {
		ext = "bin"
	}
	target := filepath.Join(outDir, name+"."+ext)
	if !p.overwrite {
		var err error
		if target, err = fileutil.UniquePath(outDir, name, ext); err != nil {
			return "", err
		}
	}
	if filepath.Dir(target) != outDir {
		return "", fmt.Errorf("refusing to write outside %s", outDir)
	}
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

func doneMessage(s Summary) string {
	if s.Cancelled {
		return fmt.Sprintf("Cancelled after %d of %d books (%d failed)", s.Processed(), s.Total, s.Failed)
	}
	return fmt.Sprintf("Exported %d of %d books (%d failed)", s.Succeeded, s.Total, s.Failed)
}
