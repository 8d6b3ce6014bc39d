package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// RootResolver maps a user id to that user's library directory.
type RootResolver func(userID string) (string, error)

// BaseDir returns the desktop reader's library base for the current platform.
func BaseDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := strings.TrimSpace(os.Getenv("APPDATA"))
		if appData == "" {
			return "", errors.New("APPDATA is not set")
		}
		return filepath.Join(appData, "Ridibooks", "library"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "RIDI", "Ridibooks", "library"), nil
	default:
		return "", fmt.Errorf("no default library location on %s; set paths.library_base", runtime.GOOS)
	}
}

// UserRoot returns the per-user directory under base.
func UserRoot(base, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(base, "_"+userID), nil
}

// NewRootResolver returns a resolver rooted at base, or at the platform
// default when base is empty.
func NewRootResolver(base string) RootResolver {
	return func(userID string) (string, error) {
		root := strings.TrimSpace(base)
		if root == "" {
			var err error
			if root, err = BaseDir(); err != nil {
				return "", err
			}
		}
		return UserRoot(root, userID)
	}
}

// DefaultRoot resolves userID against the platform library base.
func DefaultRoot(userID string) (string, error) {
	return NewRootResolver("")(userID)
}
