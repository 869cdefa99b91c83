package fileutil

import "os"

// WriteNew writes data to path, which must not exist yet. A taken path,
// including a dangling symlink, fails with an error matching fs.ErrExist.
// A partially written file is removed.
func WriteNew(path string, data []byte, perm os.FileMode) error {
	f, err := SecureOpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
