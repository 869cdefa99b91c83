package export

import (
	"fmt"

	"github.com/wesm/msgreader/internal/fileutil"
)

// WriteFile writes content to path with owner-only permissions. Without
// overwrite an existing path is an error; with it an existing regular file
// is truncated, but a symlink is never followed.
func WriteFile(path string, content []byte, overwrite bool) error {
	if !overwrite {
		if err := fileutil.WriteNew(path, content, 0600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	f, err := createNoFollow(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
