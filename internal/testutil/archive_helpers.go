package testutil

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// ReadZip returns the entries of the zip archive at path as name -> content.
func ReadZip(t *testing.T, path string) map[string]string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip %s: %v", path, err)
	}
	defer zr.Close()

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open zip entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read zip entry %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

// ReadDirFiles returns the regular files directly inside dir as
// name -> content.
func ReadDirFiles(t *testing.T, dir string) map[string]string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		out[e.Name()] = string(ReadFile(t, filepath.Join(dir, e.Name())))
	}
	return out
}
