package testutil

import "runtime"

// HostileNameCase is an attachment file name that must not let an export
// write outside its target directory.
type HostileNameCase struct{ Name, FileName string }

// HostileNameCases returns a fresh slice of attachment file names carrying
// path traversal, absolute paths or reserved characters. Windows-only forms
// are included on Windows.
func HostileNameCases() []HostileNameCase {
	cases := []HostileNameCase{
		{"escape dot dot", "../escape.txt"},
		{"escape dot dot nested", "subdir/../../escape.txt"},
		{"escape just dot dot", ".."},
		{"backslash escape", `..\..\escape.txt`},
		{"absolute path", "/abs/path.txt"},
		{"reserved characters", `a:b*c?"<>|.txt`},
		{"control characters", "line\nbreak\x00.txt"},
		{"only dots", "..."},
		{"trailing separator", "dir/"},
	}
	if runtime.GOOS == "windows" {
		cases = append(cases,
			HostileNameCase{"absolute drive path", `C:\Windows\system32\evil.dll`},
			HostileNameCase{"UNC path", `\\server\share\file.txt`},
			HostileNameCase{"drive-relative path", `C:foo.txt`},
		)
	}
	return cases
}
