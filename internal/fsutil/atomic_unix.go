//go:build !windows

package fsutil

import (
	"os"

	"github.com/google/renameio/v2"
)

func writeFileAtomic(name string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(name, data, perm)
}
