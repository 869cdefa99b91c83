//go:build !unix

package export

import (
	"fmt"
	"os"

	"github.com/wesm/msgreader/internal/fileutil"
)

// createNoFollow is a best-effort equivalent of O_NOFOLLOW: the final path
// component is checked with Lstat before opening, which leaves a race.
func createNoFollow(path string) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing to write through symlink %s", path)
	}
	return fileutil.SecureOpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
}
