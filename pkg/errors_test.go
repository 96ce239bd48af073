package dupsample

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not exist", fs.ErrNotExist, ErrPathVanished},
		{"not dir", syscall.ENOTDIR, ErrPathVanished},
		{"permission", fs.ErrPermission, ErrPermissionDenied},
		{"eacces", syscall.EACCES, ErrPermissionDenied},
		{"eio", syscall.EIO, ErrIOFault},
		{"other", errors.New("boom"), ErrIOFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newFileError("open", "/p", tt.err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.True(t, errors.Is(err, tt.err), "wrapped error stays reachable")

			var fe *FileError
			assert.True(t, errors.As(err, &fe))
			assert.Equal(t, "/p", fe.Path)
			assert.Equal(t, "open", fe.Op)
		})
	}
}

func TestFileErrorOnlyOneKind(t *testing.T) {
	err := newFileError("read", "/p", syscall.EIO)
	assert.False(t, errors.Is(err, ErrPathVanished))
	assert.False(t, errors.Is(err, ErrPermissionDenied))
	assert.Equal(t, "read /p: input/output error", err.Error())
}

func TestNewFileErrorKeepsExisting(t *testing.T) {
	assert.NoError(t, newFileError("open", "/p", nil))

	inner := newFileError("open", "/inner", fs.ErrNotExist)
	wrapped := newFileError("digest", "/outer", fmt.Errorf("context: %w", inner))

	var fe *FileError
	assert.True(t, errors.As(wrapped, &fe))
	assert.Equal(t, "/inner", fe.Path)
	assert.Equal(t, "open", fe.Op)
}
