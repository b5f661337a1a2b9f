package midi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/siedler2/errkind"
)

// File formats.
const (
	SingleTrack   = 0
	MultiTrack    = 1
	MultiSequence = 2
)

type fileHeader struct {
	Format   uint16
	Tracks   uint16
	Division uint16
}

const fileHeaderSize = 6

// File is a Standard MIDI File.
type File struct {
	Format   uint16
	Division uint16
	Tracks   []Track
}

func readChunkHeader(r io.Reader) (string, uint32, error) {
	var hdr [chunkHeaderSize]byte
	if err := errkind.ReadFull(r, hdr[:]); err != nil {
		return "", 0, fmt.Errorf("midi: chunk header: %w", err)
	}
	return string(hdr[:4]), binary.BigEndian.Uint32(hdr[4:]), nil
}

// Decode reads a Standard MIDI File from r. Chunks other than tracks are
// skipped.
func Decode(r io.Reader) (*File, error) {
	id, length, err := readChunkHeader(r)
	if err != nil {
		return nil, err
	}
	if id != HeaderID || length < fileHeaderSize {
		return nil, fmt.Errorf("midi: file header %q: %w", id, errkind.ErrWrongHeader)
	}

	b, err := errkind.ReadN(r, int64(length))
	if err != nil {
		return nil, fmt.Errorf("midi: file header: %w", err)
	}
	var h fileHeader
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, &h); err != nil {
		return nil, err
	}

	f := &File{
		Format:   h.Format,
		Division: h.Division,
		Tracks:   make([]Track, 0, h.Tracks),
	}
	for len(f.Tracks) < int(h.Tracks) {
		id, length, err := readChunkHeader(r)
		if err != nil {
			return nil, err
		}
		data, err := errkind.ReadN(r, int64(length))
		if err != nil {
			return nil, fmt.Errorf("midi: chunk %q: %w", id, err)
		}
		if id != TrackID {
			continue
		}
		f.Tracks = append(f.Tracks, NewTrack(data))
	}
	return f, nil
}

// Encode writes f to w. The format is raised to MultiTrack if f holds more
// than one track and claims SingleTrack.
func (f *File) Encode(w io.Writer) error {
	h := fileHeader{
		Format:   f.Format,
		Tracks:   uint16(len(f.Tracks)),
		Division: f.Division,
	}
	if h.Format == SingleTrack && len(f.Tracks) > 1 {
		h.Format = MultiTrack
	}

	b := new(bytes.Buffer)
	b.WriteString(HeaderID)
	if err := binary.Write(b, binary.BigEndian, uint32(fileHeaderSize)); err != nil {
		return err
	}
	if err := binary.Write(b, binary.BigEndian, &h); err != nil {
		return err
	}
	for i, t := range f.Tracks {
		if _, err := t.Body(); err != nil {
			return fmt.Errorf("midi: track %d: %w", i, err)
		}
		b.Write(t)
	}

	_, err := w.Write(b.Bytes())
	return err
}
