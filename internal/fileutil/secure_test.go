package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// assertPermNoMoreThan tolerates a umask: 0644 showing up as 0600 passes,
// 0644 showing up as 0666 does not.
func assertPermNoMoreThan(t *testing.T, path string, want os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	got := info.Mode().Perm()
	if got&^want != 0 {
		t.Errorf("perm = %04o, has bits beyond %04o (extra: %04o)", got, want, got&^want)
	}
}

func TestSecureMkdirAll(t *testing.T) {
	for _, perm := range []os.FileMode{0700, 0755} {
		dir := filepath.Join(t.TempDir(), "a", "b", "c")
		if err := SecureMkdirAll(dir, perm); err != nil {
			t.Fatalf("SecureMkdirAll(%04o): %v", perm, err)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("Stat(%s) = %v, %v", dir, info, err)
		}
		if runtime.GOOS != "windows" {
			assertPermNoMoreThan(t, dir, perm)
		}
		// Existing directories are fine.
		if err := SecureMkdirAll(dir, perm); err != nil {
			t.Errorf("second SecureMkdirAll: %v", err)
		}
	}
}

func TestSecureOpenFile(t *testing.T) {
	tests := []struct {
		name string
		perm os.FileMode
	}{
		{"owner_only_0600", 0600},
		{"permissive_0644", 0644},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "testfile")

			f, err := SecureOpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, tt.perm)
			if err != nil {
				t.Fatalf("SecureOpenFile: %v", err)
			}
			if _, err := f.Write([]byte("data")); err != nil {
				f.Close()
				t.Fatalf("Write: %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(got) != "data" {
				t.Errorf("content = %q, want %q", got, "data")
			}
			if runtime.GOOS != "windows" {
				assertPermNoMoreThan(t, path, tt.perm)
			}
		})
	}
}

func TestWriteNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")

	if err := WriteNew(path, []byte("first"), 0600); err != nil {
		t.Fatalf("WriteNew: %v", err)
	}
	err := WriteNew(path, []byte("second"), 0600)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("second WriteNew err = %v, want fs.ErrExist", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("content = %q, want the first write kept", got)
	}
	if runtime.GOOS != "windows" {
		assertPermNoMoreThan(t, path, 0600)
	}
}

func TestWriteNew_DanglingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "elsewhere")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if err := WriteNew(link, []byte("x"), 0600); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("err = %v, want fs.ErrExist", err)
	}
	if _, err := os.Lstat(target); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("symlink target was created")
	}
}

func TestWriteNew_NonexistentParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "file")
	if err := WriteNew(path, []byte("data"), 0600); err == nil {
		t.Fatal("expected error for nonexistent parent dir")
	}
}
