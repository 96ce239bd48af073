package dupsample

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Per-file error kinds. A FileError matches exactly one of these with errors.Is.
var (
	ErrPathVanished     = errors.New("path vanished")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIOFault          = errors.New("i/o fault")
)

// FileError reports a failure while processing a single file. It never
// indicates damage to the match tree.
type FileError struct {
	Path string
	Op   string // stat, open, seek, read, digest
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Is matches the error kind as well as anything the wrapped error matches
func (e *FileError) Is(target error) bool {
	return target == e.Kind
}

// newFileError classifies err and wraps it. An existing FileError is returned unchanged.
func newFileError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	return &FileError{Path: path, Op: op, Kind: errorKind(err), Err: err}
}

func errorKind(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return ErrPathVanished
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return ErrIOFault
	}
}
