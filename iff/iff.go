/*
Package iff implements the big-endian chunked container used by the BBM
palette files and XMIDI music files.

Each chunk is a four byte identifier followed by a 32-bit big-endian length
and that many bytes of data. Chunks with an odd length are followed by a
single pad byte which is not included in the length. Group chunks ("FORM",
"CAT ") start their data with a four byte type followed by nested chunks.
*/
package iff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/siedler2/errkind"
)

// Group chunk identifiers.
const (
	Form = "FORM"
	Cat  = "CAT "
)

const headerSize = 8

// A Chunk is a single identified block of data.
type Chunk struct {
	ID   string
	Data []byte
}

// IsGroup reports whether c is a FORM or CAT chunk.
func (c Chunk) IsGroup() bool {
	return c.ID == Form || c.ID == Cat
}

// Group splits a FORM or CAT chunk into its type and nested chunks.
func (c Chunk) Group() (string, []Chunk, error) {
	if !c.IsGroup() {
		return "", nil, fmt.Errorf("iff: %q is not a group chunk: %w", c.ID, errkind.ErrWrongFormat)
	}
	if len(c.Data) < 4 {
		return "", nil, fmt.Errorf("iff: %q group type: %w", c.ID, errkind.ErrUnexpectedEOF)
	}
	chunks, err := Parse(c.Data[4:])
	if err != nil {
		return "", nil, err
	}
	return string(c.Data[:4]), chunks, nil
}

func padded(n uint32) int64 {
	return int64(n) + int64(n&1)
}

// ReadChunk reads the next chunk from r. It returns io.EOF if r is exhausted
// before the chunk header starts.
func ReadChunk(r io.Reader) (Chunk, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r, hdr[:])
	switch {
	case err == io.EOF:
		return Chunk{}, io.EOF
	case err != nil:
		return Chunk{}, fmt.Errorf("iff: chunk header after %d bytes: %w", n, errkind.ErrUnexpectedEOF)
	}

	length := binary.BigEndian.Uint32(hdr[4:])
	data, err := errkind.ReadN(r, int64(length))
	if err != nil {
		return Chunk{}, fmt.Errorf("iff: chunk %q: %w", hdr[:4], err)
	}
	if length&1 != 0 {
		// The final pad byte is frequently missing
		if _, err := io.ReadFull(r, hdr[:1]); err != nil && err != io.EOF {
			return Chunk{}, err
		}
	}

	return Chunk{ID: string(hdr[:4]), Data: data}, nil
}

// ReadAll reads chunks from r until it is exhausted.
func ReadAll(r io.Reader) ([]Chunk, error) {
	var chunks []Chunk
	for {
		c, err := ReadChunk(r)
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
}

// Parse splits b into consecutive chunks.
func Parse(b []byte) ([]Chunk, error) {
	return ReadAll(bytes.NewReader(b))
}

// WriteChunk writes c to w, including the pad byte if required.
func WriteChunk(w io.Writer, c Chunk) error {
	if len(c.ID) != 4 {
		return fmt.Errorf("iff: chunk id %q: %w", c.ID, errkind.ErrWrongHeader)
	}

	var hdr [headerSize]byte
	copy(hdr[:4], c.ID)
	binary.BigEndian.PutUint32(hdr[4:], uint32(len(c.Data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(c.Data); err != nil {
		return err
	}
	if len(c.Data)&1 != 0 {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

// NewGroup builds a group chunk of the given identifier and type containing
// chunks.
func NewGroup(id, typ string, chunks ...Chunk) (Chunk, error) {
	if len(typ) != 4 {
		return Chunk{}, fmt.Errorf("iff: group type %q: %w", typ, errkind.ErrWrongHeader)
	}

	b := new(bytes.Buffer)
	b.WriteString(typ)
	for _, c := range chunks {
		if err := WriteChunk(b, c); err != nil {
			return Chunk{}, err
		}
	}
	return Chunk{ID: id, Data: b.Bytes()}, nil
}

// Size returns the number of bytes c occupies when written.
func (c Chunk) Size() int64 {
	return headerSize + padded(uint32(len(c.Data)))
}
