package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeFormat, "footer truncated")

	assert.Equal(t, ErrorTypeFormat, err.Type)
	assert.Equal(t, "format: footer truncated", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := Wrap(cause, ErrorTypeIO, "read failed")

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "io: read failed: unexpected EOF", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "read failed"))
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeDecode, "unsupported codec")

	assert.True(t, IsType(err, ErrorTypeDecode))
	assert.False(t, IsType(err, ErrorTypeIO))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeDecode))

	// Wrapped errors still report the outermost type.
	wrapped := Wrap(err, ErrorTypeEngine, "scan aborted")
	assert.True(t, IsType(wrapped, ErrorTypeEngine))
}

func TestScanContextDetails(t *testing.T) {
	err := New(ErrorTypeDecode, "decompression failed").
		WithColumn("log").
		WithRowGroup(3)

	assert.Equal(t, "log", err.Details["column"])
	assert.Equal(t, 3, err.Details["row_group"])
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeConfig, TypeOf(New(ErrorTypeConfig, "missing file")))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
