/*
Package xmidi reads and writes XMIDI music files and converts their tracks to
Standard MIDI.

An XMIDI file is an IFF container. A single track file is a "FORM" of type
"XMID"; a file with several tracks is a "FORM" of type "XDIR" holding an
"INFO" chunk with the track count, followed by a "CAT " of type "XMID"
holding one "FORM" per track. Each track form has an optional "TIMB" chunk
listing the timbres it uses and an "EVNT" chunk with the event stream.
*/
package xmidi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/iff"
	"github.com/bodgit/siedler2/midi"
)

const (
	typeXMID  = "XMID"
	typeXDIR  = "XDIR"
	chunkInfo = "INFO"
	chunkTimb = "TIMB"
	chunkEvnt = "EVNT"
)

// Division is the tick rate of a converted track, in ticks per quarter note.
const Division = 60

// Timbre is a patch and bank pair used by a track.
type Timbre struct {
	Patch byte
	Bank  byte
}

// Track is a single XMIDI sequence.
type Track struct {
	Timbres []Timbre
	Events  []byte
}

// Clone returns a deep copy of t.
func (t *Track) Clone() *Track {
	return &Track{
		Timbres: append([]Timbre(nil), t.Timbres...),
		Events:  append([]byte(nil), t.Events...),
	}
}

// File is a collection of tracks. Directory records whether the tracks are
// stored in an "XDIR" container, which is always the case for more than one
// track.
type File struct {
	Directory bool
	Tracks    []*Track
}

// Clone returns a deep copy of f.
func (f *File) Clone() *File {
	dup := &File{Directory: f.Directory, Tracks: make([]*Track, len(f.Tracks))}
	for i, t := range f.Tracks {
		dup.Tracks[i] = t.Clone()
	}
	return dup
}

func decodeTrack(c iff.Chunk) (*Track, error) {
	typ, chunks, err := c.Group()
	if err != nil {
		return nil, err
	}
	if c.ID != iff.Form || typ != typeXMID {
		return nil, fmt.Errorf("xmidi: track %s %q: %w", c.ID, typ, errkind.ErrWrongHeader)
	}

	t := new(Track)
	found := false
	for _, c := range chunks {
		switch c.ID {
		case chunkTimb:
			if len(c.Data) < 2 {
				return nil, fmt.Errorf("xmidi: timbre count: %w", errkind.ErrUnexpectedEOF)
			}
			n := int(binary.LittleEndian.Uint16(c.Data))
			if len(c.Data) < 2+n*2 {
				return nil, fmt.Errorf("xmidi: %d timbres in %d bytes: %w", n, len(c.Data), errkind.ErrUnexpectedEOF)
			}
			t.Timbres = make([]Timbre, n)
			for i := range t.Timbres {
				t.Timbres[i] = Timbre{Patch: c.Data[2+i*2], Bank: c.Data[3+i*2]}
			}
		case chunkEvnt:
			t.Events = c.Data
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("xmidi: track without events: %w", errkind.ErrWrongFormat)
	}
	return t, nil
}

// Decode reads an XMIDI file from r.
func Decode(r io.Reader) (*File, error) {
	chunks, err := iff.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].ID != iff.Form {
		return nil, fmt.Errorf("xmidi: no FORM chunk: %w", errkind.ErrWrongHeader)
	}

	typ, inner, err := chunks[0].Group()
	if err != nil {
		return nil, err
	}

	switch typ {
	case typeXMID:
		t, err := decodeTrack(chunks[0])
		if err != nil {
			return nil, err
		}
		return &File{Tracks: []*Track{t}}, nil
	case typeXDIR:
	default:
		return nil, fmt.Errorf("xmidi: FORM type %q: %w", typ, errkind.ErrWrongHeader)
	}

	count := -1
	for _, c := range inner {
		if c.ID == chunkInfo && len(c.Data) >= 2 {
			count = int(binary.LittleEndian.Uint16(c.Data))
		}
	}
	if count < 0 {
		return nil, fmt.Errorf("xmidi: missing track count: %w", errkind.ErrWrongFormat)
	}

	f := &File{Directory: true}
	for _, c := range chunks[1:] {
		if c.ID != iff.Cat {
			continue
		}
		typ, forms, err := c.Group()
		if err != nil {
			return nil, err
		}
		if typ != typeXMID {
			return nil, fmt.Errorf("xmidi: CAT type %q: %w", typ, errkind.ErrWrongHeader)
		}
		for _, form := range forms {
			if len(f.Tracks) == count {
				break
			}
			t, err := decodeTrack(form)
			if err != nil {
				return nil, fmt.Errorf("xmidi: track %d: %w", len(f.Tracks), err)
			}
			f.Tracks = append(f.Tracks, t)
		}
	}
	if len(f.Tracks) != count {
		return nil, fmt.Errorf("xmidi: %d of %d tracks: %w", len(f.Tracks), count, errkind.ErrWrongFormat)
	}
	return f, nil
}

func encodeTrack(t *Track) (iff.Chunk, error) {
	var chunks []iff.Chunk
	if len(t.Timbres) > 0 {
		b := make([]byte, 2, 2+len(t.Timbres)*2)
		binary.LittleEndian.PutUint16(b, uint16(len(t.Timbres)))
		for _, timbre := range t.Timbres {
			b = append(b, timbre.Patch, timbre.Bank)
		}
		chunks = append(chunks, iff.Chunk{ID: chunkTimb, Data: b})
	}
	chunks = append(chunks, iff.Chunk{ID: chunkEvnt, Data: t.Events})
	return iff.NewGroup(iff.Form, typeXMID, chunks...)
}

// Encode writes f to w.
func (f *File) Encode(w io.Writer) error {
	if len(f.Tracks) == 0 {
		return fmt.Errorf("xmidi: no tracks: %w", errkind.ErrInvalidBuffer)
	}

	forms := make([]iff.Chunk, len(f.Tracks))
	for i, t := range f.Tracks {
		form, err := encodeTrack(t)
		if err != nil {
			return err
		}
		forms[i] = form
	}

	if !f.Directory && len(forms) == 1 {
		return iff.WriteChunk(w, forms[0])
	}

	info := make([]byte, 2)
	binary.LittleEndian.PutUint16(info, uint16(len(forms)))
	dir, err := iff.NewGroup(iff.Form, typeXDIR, iff.Chunk{ID: chunkInfo, Data: info})
	if err != nil {
		return err
	}
	cat, err := iff.NewGroup(iff.Cat, typeXMID, forms...)
	if err != nil {
		return err
	}

	b := new(bytes.Buffer)
	for _, c := range []iff.Chunk{dir, cat} {
		if err := iff.WriteChunk(b, c); err != nil {
			return err
		}
	}
	_, err = w.Write(b.Bytes())
	return err
}

// MIDI converts every track of f and returns them as a Standard MIDI File.
func (f *File) MIDI() (*midi.File, error) {
	m := &midi.File{
		Format:   midi.SingleTrack,
		Division: Division,
		Tracks:   make([]midi.Track, 0, len(f.Tracks)),
	}
	if len(f.Tracks) > 1 {
		m.Format = midi.MultiSequence
	}
	for i, t := range f.Tracks {
		r, err := Convert(t)
		if err != nil {
			return nil, fmt.Errorf("xmidi: track %d: %w", i, err)
		}
		m.Tracks = append(m.Tracks, r.Track)
	}
	return m, nil
}
