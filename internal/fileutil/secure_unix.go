//go:build !windows

// Package fileutil creates the files and directories that message exports
// write to. On Windows, owner-only modes (perm&0077 == 0) also get a DACL
// restricted to the current user; elsewhere the mode bits are enough.
package fileutil

import "os"

// SecureMkdirAll creates path and any missing parents with perm.
func SecureMkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// SecureOpenFile opens path with flag, creating it with perm when
// flag includes O_CREATE.
func SecureOpenFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}
