package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxCollisionSuffix bounds the " (n)" search in UniquePath.
const maxCollisionSuffix = 10000

// WriteFileAtomic writes data to path through a temp file in the same
// directory. Readers observe either the previous content or the complete new
// content, never a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	return WriteAtomic(path, mode, bytes.NewReader(data))
}

// WriteAtomic streams r to path: temp file, fsync, chmod, rename. The temp
// file is removed on any failure.
func WriteAtomic(path string, mode os.FileMode, r io.Reader) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// UniquePath returns dir/base+ext when it is free, otherwise the first free
// "base (n)"+ext with n starting at 1.
func UniquePath(dir, base, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	candidate := filepath.Join(dir, base+ext)
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("inspect %s: %w", candidate, err)
		}
		if n > maxCollisionSuffix {
			return "", fmt.Errorf("no free file name for %s%s in %s", base, ext, dir)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
	}
}
