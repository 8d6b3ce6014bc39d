package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"ridiexport/internal/library"
)

// CheckBinary verifies that an external program resolves on PATH.
func CheckBinary(name, binary string) Result {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found)", binary)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckCredentialFile reports whether the credential file exists. A missing
// file is not fatal but means no account is registered.
func CheckCredentialFile(path string) Result {
	const name = "Credential file"

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (missing: no account registered)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (warning: mode %o readable by others)", path, perm)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckLibrary verifies that the user's library directory exists and reports
// how many books are ready to export.
func CheckLibrary(base, userID string) Result {
	const name = "Library"

	scanner := library.NewScanner(library.NewRootResolver(base), nil, nil)
	books, err := scanner.Scan(userID)
	if err != nil {
		if errors.Is(err, library.ErrLibraryNotFound) {
			return Result{Name: name, Detail: fmt.Sprintf("error: %v (download a book in the reader first)", err)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("error: %v", err)}
	}
	root, _ := scanner.Root(userID)
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d downloaded)", root, len(books))}
}

func statDirectory(name, path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}, false
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}, false
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}, false
	}
	return Result{}, true
}
