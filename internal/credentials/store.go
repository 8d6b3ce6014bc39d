package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"ridiexport/internal/fileutil"
	"ridiexport/internal/logging"
)

var (
	// ErrCorruptState reports a credential file that could not be parsed.
	ErrCorruptState = errors.New("corrupt credential state")
	// ErrUnknownUser reports an operation naming an unregistered user.
	ErrUnknownUser = errors.New("unknown user")
)

// Store persists a credential Set in a single JSON file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	mu  sync.Mutex
	set Set
}

// New builds a Store for path without touching the filesystem.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "credentials"),
	}
}

// Open builds a Store and loads the current file. A corrupt file is logged and
// treated as an empty set; other read failures are returned.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := New(path, logger)
	if err := s.Load(); err != nil {
		if !errors.Is(err, ErrCorruptState) {
			return nil, err
		}
		logging.WarnWithContext(s.logger, "credential file unreadable; starting empty",
			"credentials_corrupt",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "register the device again with `ridiexport auth register`"),
			logging.String(logging.FieldImpact, "no active user until a device is registered"))
	}
	return s, nil
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory set with the file contents. A missing or empty
// file resolves to an empty set. On ErrCorruptState the in-memory set is empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save writes the in-memory set to disk atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	return s.saveLocked(s.set)
}

// Snapshot returns a copy of the in-memory set.
func (s *Store) Snapshot() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.clone()
}

// List returns the registered credentials in display order.
func (s *Store) List() []Credential {
	return s.Snapshot().Users
}

// Active returns the active credential. Having none is a normal state.
func (s *Store) Active() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Active()
}

// AddOrUpdate inserts or replaces the credential for userID and persists the
// result. The credential becomes active when no active user is set. A nil
// extra keeps any previously stored extra fields; an empty deviceName keeps the
// previously stored name.
func (s *Store) AddOrUpdate(userID, deviceID, deviceName string, extra map[string]any) (Credential, error) {
	userID = strings.TrimSpace(userID)
	deviceID = strings.TrimSpace(deviceID)
	if userID == "" {
		return Credential{}, errors.New("user id cannot be empty")
	}
	if deviceID == "" {
		return Credential{}, errors.New("device id cannot be empty")
	}

	var stored Credential
	err := s.update(func(set *Set) error {
		next := Credential{
			UserID:     userID,
			DeviceID:   deviceID,
			DeviceName: strings.TrimSpace(deviceName),
			Extra:      Credential{Extra: extra}.clone().Extra,
		}
		if i := set.index(userID); i >= 0 {
			prev := set.Users[i]
			if next.DeviceName == "" {
				next.DeviceName = prev.DeviceName
			}
			if next.Extra == nil {
				next.Extra = prev.Extra
			}
			set.Users[i] = next
		} else {
			set.Users = append(set.Users, next)
		}
		if _, ok := set.Active(); !ok {
			set.ActiveUser = userID
		}
		stored = next.clone()
		return nil
	})
	if err != nil {
		return Credential{}, err
	}

	s.logger.Info("device credential registered",
		logging.String(logging.FieldUserID, userID),
		logging.String("device_name", stored.DeviceName))
	return stored, nil
}

// SetActive marks userID as the active credential.
func (s *Store) SetActive(userID string) error {
	userID = strings.TrimSpace(userID)
	return s.update(func(set *Set) error {
		if set.index(userID) < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownUser, userID)
		}
		set.ActiveUser = userID
		return nil
	})
}

// Remove deletes the credential for userID. Removing the active credential
// promotes the first remaining one.
func (s *Store) Remove(userID string) error {
	userID = strings.TrimSpace(userID)
	return s.update(func(set *Set) error {
		i := set.index(userID)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownUser, userID)
		}
		set.Users = append(set.Users[:i], set.Users[i+1:]...)
		if set.ActiveUser == userID {
			set.ActiveUser = ""
			if len(set.Users) > 0 {
				set.ActiveUser = set.Users[0].UserID
			}
		}
		return nil
	})
}

// update runs fn against the freshest on-disk state while holding both locks
// and commits the result only when the save succeeds.
func (s *Store) update(fn func(*Set) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.loadLocked(); err != nil {
		if !errors.Is(err, ErrCorruptState) {
			return err
		}
		s.quarantine(err)
	}

	next := s.set.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.saveLocked(next); err != nil {
		return err
	}
	s.set = next
	return nil
}

func (s *Store) acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure credential directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock credential file: %w", err)
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release credential lock", logging.Error(err))
		}
	}, nil
}

func (s *Store) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.set = Set{}
			return nil
		}
		return fmt.Errorf("read credentials: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		s.set = Set{}
		return nil
	}

	var set Set
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&set); err != nil {
		s.set = Set{}
		return fmt.Errorf("%w: %s: %v", ErrCorruptState, s.path, err)
	}
	if set.normalize() {
		s.logger.Debug("normalized credential state", logging.String("path", s.path))
	}
	s.set = set
	return nil
}

// quarantine moves a corrupt file aside before it is overwritten.
func (s *Store) quarantine(cause error) {
	target := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.Rename(s.path, target); err != nil {
		logging.WarnWithContext(s.logger, "failed to preserve corrupt credential file",
			"credentials_quarantine_failed",
			logging.Error(err),
			logging.String("cause", cause.Error()),
			logging.String(logging.FieldImpact, "the corrupt file will be overwritten"))
		return
	}
	logging.WarnWithContext(s.logger, "moved corrupt credential file aside",
		"credentials_quarantined",
		logging.String("path", target),
		logging.String("cause", cause.Error()),
		logging.String(logging.FieldErrorHint, "inspect the file if credentials are missing"),
		logging.String(logging.FieldImpact, "previous registrations must be repeated"))
}

func (s *Store) saveLocked(set Set) error {
	if set.Users == nil {
		set.Users = []Credential{}
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
