//go:build !unix

package preflight

import (
	"fmt"
	"os"
)

// CheckDirectoryAccess verifies that the directory exists and that a file can
// be created in it.
func CheckDirectoryAccess(name, path string) Result {
	if result, ok := statDirectory(name, path); !ok {
		return result
	}
	probe, err := os.CreateTemp(path, ".ridiexport-probe-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
