// Package security screens snippet files before they reach the parser.
package security

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
)

// DefaultHeaderSize is how much of a file is inspected
const DefaultHeaderSize = 64 * 1024

// binary file signatures that sometimes end up under a .cs name
var magicBytes = []struct {
	kind  string
	magic []byte
}{
	{"PNG image", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{"JPEG image", []byte{0xFF, 0xD8, 0xFF}},
	{"GIF image", []byte{0x47, 0x49, 0x46, 0x38}},
	{"PDF document", []byte{0x25, 0x50, 0x44, 0x46, 0x2D}},
	{"zip archive", []byte{0x50, 0x4B, 0x03, 0x04}},
	{"PE executable", []byte{0x4D, 0x5A, 0x90, 0x00}},
	{"ELF executable", []byte{0x7F, 0x45, 0x4C, 0x46}},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileValidator rejects files that are clearly not C# source text
type FileValidator struct {
	HeaderSize int
}

func NewFileValidator() *FileValidator {
	return &FileValidator{HeaderSize: DefaultHeaderSize}
}

// Validate checks the head of data. A rejected file yields an
// *errors.InvalidInputError so callers treat it like unparseable source.
func (fv *FileValidator) Validate(name string, data []byte) error {
	header := data
	if fv.HeaderSize > 0 && len(header) > fv.HeaderSize {
		header = header[:fv.HeaderSize]
	}
	header = bytes.TrimPrefix(header, utf8BOM)

	for _, m := range magicBytes {
		if bytes.HasPrefix(header, m.magic) {
			return reject(name, fmt.Errorf("file is a %s", m.kind))
		}
	}
	if bytes.IndexByte(header, 0) >= 0 {
		return reject(name, fmt.Errorf("file contains NUL bytes"))
	}
	if isBinaryData(header) {
		return reject(name, fmt.Errorf("file appears to be binary"))
	}
	if !utf8.Valid(trimPartialRune(header, len(data) > len(header))) {
		return reject(name, fmt.Errorf("file is not valid UTF-8"))
	}
	return nil
}

func reject(name string, err error) error {
	return sgerrors.NewInvalidInputError(1, 1, "", err).WithSource(name)
}

// isBinaryData reports whether more than 30% of data is control characters
// other than tab, LF, FF and CR
func isBinaryData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(data)) > 0.3
}

// trimPartialRune drops a rune cut off by the header limit
func trimPartialRune(header []byte, truncated bool) []byte {
	if !truncated {
		return header
	}
	for i := 0; i < utf8.UTFMax && i < len(header); i++ {
		end := len(header) - i
		if utf8.Valid(header[:end]) {
			return header[:end]
		}
	}
	return header
}
