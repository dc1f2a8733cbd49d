//go:build windows

package store

import (
	"fmt"
	"os"
)

// openFileNoFollow opens path, refusing an existing symlink at the final
// component. O_NOFOLLOW is not available on Windows, so the check is an Lstat.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymlink, path)
	}
	return os.OpenFile(path, flag, perm)
}
