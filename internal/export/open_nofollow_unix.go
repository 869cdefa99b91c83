//go:build unix

package export

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/wesm/msgreader/internal/fileutil"
)

// createNoFollow opens path for writing, truncating an existing regular
// file. A symlink in the final path component is refused.
func createNoFollow(path string) (*os.File, error) {
	return fileutil.SecureOpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|unix.O_NOFOLLOW, 0600)
}
