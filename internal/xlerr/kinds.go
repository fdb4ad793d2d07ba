// Package xlerr defines the closed set of error-kind sentinels shared by
// every internal package, so that errors.Is works across package
// boundaries without the internal packages importing the root excel
// package (which would create an import cycle).
package xlerr

import "errors"

// Sentinel errors identifying the error kinds spec.md §7 defines. Internal
// packages wrap one of these with fmt.Errorf("...: %w", ErrXxx) so that
// errors.Is(err, ErrXxx) still succeeds after wrapping.
var (
	// ErrInvalidArg marks configuration or API misuse.
	ErrInvalidArg = errors.New("invalid argument")
	// ErrIoUnreadable marks an unreadable input file, unwritable temp dir, or
	// spill-file I/O failure.
	ErrIoUnreadable = errors.New("io unreadable")
	// ErrCorruptPackage marks a missing workbook relationship, a referenced
	// part missing from the zip, or an unparseable relationship type.
	ErrCorruptPackage = errors.New("corrupt package")
	// ErrZipFailure marks a failure reported by the zip collaborator.
	ErrZipFailure = errors.New("zip failure")
	// ErrNotFound marks an out-of-range lookup that is a negative result,
	// not an error condition on its own (see excel.ChangeSheet).
	ErrNotFound = errors.New("not found")
)
