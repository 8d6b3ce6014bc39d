package drm

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"ridiexport/internal/library"
	"ridiexport/internal/logging"
)

// stderrLimit caps how much helper stderr is carried into an error.
const stderrLimit = 512

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error)
}

// Option configures the helper.
type Option func(*Helper)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(h *Helper) {
		if exec != nil {
			h.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Helper) {
		h.logger = logging.NewComponentLogger(logger, "drm")
	}
}

// Helper wraps the external DRM helper program.
type Helper struct {
	binary string
	exec   Executor
	logger *slog.Logger
}

// New constructs a Helper for the given program name or path.
func New(binary string, opts ...Option) (*Helper, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("drm helper binary required")
	}
	h := &Helper{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Resolve reports the absolute helper path, or an error when it cannot be found.
func (h *Helper) Resolve() (string, error) {
	path, err := exec.LookPath(h.binary)
	if err != nil {
		return "", fmt.Errorf("drm helper %q: %w", h.binary, err)
	}
	return path, nil
}

// DeriveKey returns the content key for book, derived from the device id and
// the book's key material.
func (h *Helper) DeriveKey(ctx context.Context, book library.Book, deviceID string) ([]byte, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, errors.New("device id required")
	}
	args := []string{
		"derive-key",
		"--book-id", book.ID,
		"--format", book.Format.Extension(),
		"--key-file", book.FilePath(library.FileKey),
	}
	out, err := h.exec.Run(ctx, h.binary, args, []byte(deviceID+"\n"))
	if err != nil {
		return nil, fmt.Errorf("derive key for %s: %w", book.ID, err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("derive key for %s: helper returned malformed key: %w", book.ID, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("derive key for %s: helper returned empty key", book.ID)
	}
	logging.WithContext(ctx, h.logger).Debug("key derived")
	return key, nil
}

// Decrypt returns the plaintext content of book.
func (h *Helper) Decrypt(ctx context.Context, book library.Book, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("key required")
	}
	dataPath := book.FilePath(library.FileData)
	if dataPath == "" {
		return nil, fmt.Errorf("decrypt %s: unknown format", book.ID)
	}
	args := []string{
		"decrypt",
		"--book-id", book.ID,
		"--format", book.Format.Extension(),
		"--data-file", dataPath,
	}
	out, err := h.exec.Run(ctx, h.binary, args, []byte(hex.EncodeToString(key)+"\n"))
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", book.ID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("decrypt %s: helper produced no output", book.ID)
	}
	logging.WithContext(ctx, h.logger).Debug("book decrypted", logging.Int("bytes", len(out)))
	return out, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if detail := summarizeStderr(stderr.String()); detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func summarizeStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		s = "..." + s[len(s)-stderrLimit:]
	}
	return strings.Join(strings.Fields(s), " ")
}
