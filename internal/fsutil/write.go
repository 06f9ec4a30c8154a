// Package fsutil holds filesystem helpers shared by the packages that write
// into the theme workspace.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFile writes data to name. On the OS filesystem the write is atomic:
// readers see either the old contents or the new ones, never a truncated
// file. Other filesystems fall back to afero.WriteFile.
func WriteFile(fs afero.Fs, name string, data []byte, perm os.FileMode) error {
	if _, ok := fs.(*afero.OsFs); ok {
		if err := writeFileAtomic(name, data, perm); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}
	if err := afero.WriteFile(fs, name, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteFileMkdir is WriteFile after creating the parent directory.
func WriteFileMkdir(fs afero.Fs, name string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	return WriteFile(fs, name, data, perm)
}
