/*
Package errkind defines the error taxonomy shared by every codec in this
module.

Codecs wrap one of the sentinel errors below with their own context, so
callers can test the kind with errors.Is and present it to a user with
Describe.
*/
package errkind

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

var (
	// ErrNotFound is returned for a missing file, entry or color.
	ErrNotFound = errors.New("not found")
	// ErrNotAccessible is returned when a file can't be opened.
	ErrNotAccessible = errors.New("not accessible")
	// ErrWrongHeader is returned when a magic or header field is wrong.
	ErrWrongHeader = errors.New("wrong header")
	// ErrWrongFormat is returned when the data doesn't match the layout.
	ErrWrongFormat = errors.New("wrong format")
	// ErrWrongArchive is returned when an item has the wrong kind for a
	// given format.
	ErrWrongArchive = errors.New("wrong archive")
	// ErrUnexpectedEOF is returned for truncated streams.
	ErrUnexpectedEOF = io.ErrUnexpectedEOF
	// ErrPaletteMissing is returned when an operation needs a palette and
	// none was supplied or attached.
	ErrPaletteMissing = errors.New("palette missing")
	// ErrInvalidBuffer is returned for nil, empty or undersized buffers.
	ErrInvalidBuffer = errors.New("invalid buffer")
	// ErrUnsupportedFormat is returned when a pixel format conversion
	// can't be represented.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrOutOfRange is returned by checked accessors.
	ErrOutOfRange = errors.New("out of range")
)

// CustomError carries a collaborator specific error code.
type CustomError struct {
	Code int
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("custom error %d", e.Code)
}

// IndexError is returned when an archive slot outside the current size is
// mutated. It is a programming error and deliberately matches none of the
// sentinels above.
type IndexError struct {
	Index, Len int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0:%d]", e.Index, e.Len)
}

var descriptions = []struct {
	err  error
	text string
}{
	{ErrNotFound, "File or entry not found"},
	{fs.ErrNotExist, "File or entry not found"},
	{ErrNotAccessible, "File could not be opened"},
	{fs.ErrPermission, "File could not be opened"},
	{ErrWrongHeader, "Invalid header"},
	{ErrWrongFormat, "Invalid format"},
	{ErrWrongArchive, "Wrong item type for this format"},
	{ErrUnexpectedEOF, "Unexpected end of data"},
	{ErrPaletteMissing, "Palette required but missing"},
	{ErrInvalidBuffer, "Invalid or too small buffer"},
	{ErrUnsupportedFormat, "Unsupported format"},
	{ErrOutOfRange, "Value out of range"},
}

// Describe returns a human readable string for the kind of err.
func Describe(err error) string {
	if err == nil {
		return "No error"
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return fmt.Sprintf("Error code %d", ce.Code)
	}
	var ie *IndexError
	if errors.As(err, &ie) {
		return "Index out of range"
	}
	for _, d := range descriptions {
		if errors.Is(err, d.err) {
			return d.text
		}
	}
	return "Unknown error"
}

// ReadFull is io.ReadFull that reports a short read as ErrUnexpectedEOF even
// when nothing could be read.
func ReadFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// ReadN reads exactly n bytes from r, reporting a short read as
// ErrUnexpectedEOF. The buffer grows with the bytes actually read rather than
// being sized from n up front.
func ReadN(r io.Reader, n int64) ([]byte, error) {
	b := new(bytes.Buffer)
	m, err := b.ReadFrom(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if m < n {
		return nil, io.ErrUnexpectedEOF
	}
	return b.Bytes(), nil
}
