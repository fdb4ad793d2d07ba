package excel

import (
	"errors"
	"fmt"

	"github.com/NikkyAmresh/excel-manager/internal/xlerr"
)

// ErrorKind classifies an Error, per spec.md §7.
type ErrorKind int

const (
	// KindInvalidArg marks configuration or API misuse.
	KindInvalidArg ErrorKind = iota
	// KindIoUnreadable marks an unreadable input file, unwritable temp
	// dir, or spill-file I/O failure.
	KindIoUnreadable
	// KindCorruptPackage marks a missing workbook relationship, a
	// referenced part missing from the zip, or an unparseable
	// relationship type.
	KindCorruptPackage
	// KindZipFailure marks a failure reported by the zip collaborator.
	KindZipFailure
	// KindNotFound marks an out-of-range lookup such as ChangeSheet with
	// an invalid index; callers may treat this as a negative result
	// rather than a fatal error.
	KindNotFound
)

// Package-level sentinels for errors.Is, one per ErrorKind. Every *Error
// this package returns wraps the corresponding internal/xlerr sentinel,
// which these are aliases of, so errors.Is(err, excel.ErrCorruptPackage)
// succeeds regardless of how deep the wrapping chain is.
var (
	ErrInvalidArg     = xlerr.ErrInvalidArg
	ErrIoUnreadable   = xlerr.ErrIoUnreadable
	ErrCorruptPackage = xlerr.ErrCorruptPackage
	ErrZipFailure     = xlerr.ErrZipFailure
	ErrNotFound       = xlerr.ErrNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArg:
		return "InvalidArg"
	case KindIoUnreadable:
		return "IoUnreadable"
	case KindCorruptPackage:
		return "CorruptPackage"
	case KindZipFailure:
		return "ZipFailure"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is the error type every public Reader operation returns.
type Error struct {
	Kind ErrorKind
	Op   string // the operation that failed, e.g. "excel.Open"
	Err  error  // the underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("excel: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("excel: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies err (typically one returned by an internal package,
// wrapping one of internal/xlerr's sentinels) into a typed *Error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	kind := KindIoUnreadable
	switch {
	case errors.Is(err, xlerr.ErrInvalidArg):
		kind = KindInvalidArg
	case errors.Is(err, xlerr.ErrCorruptPackage):
		kind = KindCorruptPackage
	case errors.Is(err, xlerr.ErrZipFailure):
		kind = KindZipFailure
	case errors.Is(err, xlerr.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, xlerr.ErrIoUnreadable):
		kind = KindIoUnreadable
	default:
		err = fmt.Errorf("%w: %w", xlerr.ErrIoUnreadable, err)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
