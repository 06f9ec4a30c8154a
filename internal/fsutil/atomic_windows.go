//go:build windows

package fsutil

import "os"

// renameio does not support Windows; replacing an open file there is not
// atomic anyway.
func writeFileAtomic(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}
