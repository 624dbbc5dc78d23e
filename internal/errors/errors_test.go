package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyInputError(t *testing.T) {
	err := NewEmptyInputError("snippet.cs")

	assert.Equal(t, ErrorTypeEmptyInput, err.Type)
	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "snippet.cs: no source text to analyze", err.Error())

	anon := NewEmptyInputError("")
	assert.Equal(t, "no source text to analyze", anon.Error())
}

func TestInvalidInputError(t *testing.T) {
	underlying := errors.New("syntax error")
	err := NewInvalidInputError(3, 7, "}", underlying).WithSource("stdin")

	assert.Equal(t, ErrorTypeInvalidInput, err.Type)
	assert.Equal(t, 3, err.Line)
	assert.Equal(t, 7, err.Column)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, `invalid input at stdin:3:7 (near token "}"): syntax error`, err.Error())

	var target *InvalidInputError
	require.True(t, errors.As(error(err), &target))
	assert.Equal(t, "stdin", target.Source)
}

func TestInvalidInputErrorWithoutToken(t *testing.T) {
	err := NewInvalidInputError(1, 1, "", nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input at 1:1: source text is not a valid compilation unit", err.Error())
}

func TestFileError(t *testing.T) {
	underlying := errors.New("no such file")
	err := NewFileError("read", "/path/to/file.cs", underlying)

	assert.Equal(t, ErrorTypeFileNotFound, err.Type)
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, "file read failed for /path/to/file.cs: no such file", err.Error())

	permErr := NewFileError("open", "/secret", errors.New("permission denied"))
	assert.Equal(t, ErrorTypePermission, permErr.Type)
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("must be positive")
	err := NewConfigError("batch.workers", "-1", underlying).WithPath(".sgate.kdl")

	assert.Equal(t, ErrorTypeConfig, err.Type)
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, "config error in .sgate.kdl for field batch.workers (value -1): must be positive", err.Error())

	bare := NewConfigError("policy", "", underlying)
	assert.Equal(t, "config error for field policy: must be positive", bare.Error())
}

func TestCatalogError(t *testing.T) {
	underlying := errors.New("unexpected token")
	err := NewCatalogError("corelib.cs", underlying)
	assert.Equal(t, ErrorTypeCatalog, err.Type)
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, "catalog corelib.cs: unexpected token", err.Error())
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	multi := NewMultiError([]error{err1, nil, err2})
	assert.Len(t, multi.Errors, 2)
	assert.True(t, errors.Is(multi, err1))
	assert.True(t, errors.Is(multi, err2))

	single := NewMultiError([]error{err1})
	assert.Equal(t, "error 1", single.Error())

	empty := NewMultiError(nil)
	assert.Equal(t, "no errors", empty.Error())
}

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(NewEmptyInputError("")))
	assert.True(t, IsInputError(NewInvalidInputError(1, 1, "", nil)))
	assert.False(t, IsInputError(NewConfigError("x", "", errors.New("bad"))))
	assert.False(t, IsInputError(nil))
}
