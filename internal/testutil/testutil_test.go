package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// validRelativePaths should pass validation and be writable.
var validRelativePaths = []string{
	"simple.txt",
	"subdir/file.txt",
	"a/b/c/deep.txt",
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "test.txt", []byte("hello world"))
	MustExist(t, path)
	AssertFileContent(t, path, "hello world")
}

func TestWriteFileSubdir(t *testing.T) {
	dir := t.TempDir()
	MustExist(t, WriteFile(t, dir, "subdir/nested/test.txt", []byte("nested content")))
	MustExist(t, filepath.Join(dir, "subdir", "nested"))
}

func TestMustNotExist(t *testing.T) {
	MustNotExist(t, filepath.Join(t.TempDir(), "does-not-exist.txt"))
}

func TestValidateRelativePath(t *testing.T) {
	dir := t.TempDir()

	absPath, err := filepath.Abs("/some/path.txt")
	if err != nil {
		t.Fatalf("failed to get absolute path: %v", err)
	}

	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"absolute path", absPath, true},
		{"rooted path", string(filepath.Separator) + "rooted" + string(filepath.Separator) + "path.txt", true},
		{"escape dot dot", "../escape.txt", true},
		{"escape dot dot nested", "subdir/../../escape.txt", true},
		{"escape just dot dot", "..", true},
		{"valid with dots", "file-with-dots.test.txt", false},
		{"valid current dir", "./current.txt", false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRelativePath(dir, tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRelativePath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	for _, path := range validRelativePaths {
		t.Run("valid "+path, func(t *testing.T) {
			if err := validateRelativePath(dir, path); err != nil {
				t.Errorf("validateRelativePath() unexpected error: %v", err)
			}
		})
	}
}

func TestReadZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.zip")
	f, err := os.Create(path)
	MustNoErr(t, err, "create zip")
	w := zip.NewWriter(f)
	for _, name := range []string{"one.txt", "two.txt"} {
		fw, err := w.Create(name)
		MustNoErr(t, err, "create entry")
		_, err = fw.Write([]byte(strings.TrimSuffix(name, ".txt")))
		MustNoErr(t, err, "write entry")
	}
	MustNoErr(t, w.Close(), "close zip writer")
	MustNoErr(t, f.Close(), "close zip file")

	got := ReadZip(t, path)
	if len(got) != 2 || got["one.txt"] != "one" || got["two.txt"] != "two" {
		t.Errorf("ReadZip = %v", got)
	}
}

func TestReadDirFiles(t *testing.T) {
	dir := t.TempDir()
	WriteFile(t, dir, "a.txt", []byte("a"))
	WriteFile(t, dir, "sub/b.txt", []byte("b"))

	got := ReadDirFiles(t, dir)
	if len(got) != 1 || got["a.txt"] != "a" {
		t.Errorf("ReadDirFiles = %v, want only a.txt", got)
	}
}

func TestHostileNameCasesAreCopies(t *testing.T) {
	a := HostileNameCases()
	a[0].FileName = "mutated"
	if b := HostileNameCases(); b[0].FileName == "mutated" {
		t.Error("mutation leaked into a later call")
	}
}
