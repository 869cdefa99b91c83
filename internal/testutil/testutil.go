// Package testutil provides test helpers for msgreader tests.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertContainsAll, etc.)
//   - fs_helpers.go: filesystem operations (WriteFile, ReadFile, MustExist)
//   - archive_helpers.go: reading exported archives and directories
//   - security_data.go: hostile attachment names
//   - encoding.go: legacy-encoded string8 samples
//
// Compound-file fixtures live in the msgtest subpackage and transport
// header fixtures in the email subpackage.
package testutil
