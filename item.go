package siedler2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/bodgit/siedler2/bitmap"
	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/midi"
	"github.com/bodgit/siedler2/palette"
	"github.com/bodgit/siedler2/xmidi"
)

// Item is a single asset stored in an Archive. Clone must return a copy that
// shares nothing with the original, including any nested archive.
type Item interface {
	Kind() Kind
	Name() string
	SetName(name string)
	Clone() Item
}

type named struct {
	name string
}

func (n *named) Name() string { return n.name }

func (n *named) SetName(name string) { n.name = name }

// Bitmap is an image item of kind KindBitmap, KindBitmapRLE, KindBitmapShadow
// or KindBitmapPlayer depending on the encoding of the wrapped bitmap.
type Bitmap struct {
	named
	Bitmap *bitmap.Bitmap
}

// NewBitmap returns an empty bitmap item with the given encoding.
func NewBitmap(kind bitmap.Kind) *Bitmap {
	return &Bitmap{Bitmap: &bitmap.Bitmap{Kind: kind}}
}

// Kind returns the item kind matching the bitmap encoding.
func (b *Bitmap) Kind() Kind {
	switch b.Bitmap.Kind {
	case bitmap.RLE:
		return KindBitmapRLE
	case bitmap.Shadow:
		return KindBitmapShadow
	case bitmap.Player:
		return KindBitmapPlayer
	default:
		return KindBitmap
	}
}

// Clone returns a deep copy of b.
func (b *Bitmap) Clone() Item {
	return &Bitmap{named: b.named, Bitmap: b.Bitmap.Clone()}
}

// MarshalBinary encodes the bitmap using its attached palette.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	w := new(bytes.Buffer)
	if err := b.Bitmap.Write(w, nil); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Palette is a palette item.
type Palette struct {
	named
	*palette.Palette
}

// NewPalette returns a palette item holding a copy of p, or an empty palette
// if p is nil.
func NewPalette(p *palette.Palette) *Palette {
	if p == nil {
		return &Palette{Palette: palette.New()}
	}
	return &Palette{Palette: p.Clone()}
}

// Kind returns KindPalette.
func (p *Palette) Kind() Kind { return KindPalette }

// Clone returns a deep copy of p.
func (p *Palette) Clone() Item {
	return &Palette{named: p.named, Palette: p.Palette.Clone()}
}

// PaletteAnim is a palette color cycling item.
type PaletteAnim struct {
	named
	palette.Anim
}

// Kind returns KindPaletteAnim.
func (a *PaletteAnim) Kind() Kind { return KindPaletteAnim }

// Clone returns a copy of a.
func (a *PaletteAnim) Clone() Item {
	dup := *a
	return &dup
}

// Font is a set of glyph bitmaps indexed by character code.
type Font struct {
	named
	// DX and DY are the glyph cell size
	DX, DY uint8
	Glyphs *Archive
}

// NewFont returns a font with no glyphs.
func NewFont() *Font {
	return &Font{Glyphs: new(Archive)}
}

// Kind returns KindFont.
func (f *Font) Kind() Kind { return KindFont }

// Clone returns a deep copy of f including every glyph.
func (f *Font) Clone() Item {
	dup := *f
	if f.Glyphs != nil {
		dup.Glyphs = f.Glyphs.Clone()
	}
	return &dup
}

// Raw is an opaque block of data stored with a 32-bit length prefix.
type Raw struct {
	named
	Data []byte
}

// Kind returns KindRaw.
func (r *Raw) Kind() Kind { return KindRaw }

// Clone returns a deep copy of r.
func (r *Raw) Clone() Item {
	return &Raw{named: r.named, Data: append([]byte(nil), r.Data...)}
}

// Load reads a length prefixed block from rd.
func (r *Raw) Load(rd io.Reader) error {
	var length uint32
	if err := binary.Read(rd, binary.LittleEndian, &length); err != nil {
		if err == io.EOF {
			err = errkind.ErrUnexpectedEOF
		}
		return fmt.Errorf("siedler2: raw length: %w", err)
	}
	data, err := errkind.ReadN(rd, int64(length))
	if err != nil {
		return fmt.Errorf("siedler2: raw data: %w", err)
	}
	r.Data = data
	return nil
}

// MarshalBinary returns the length prefixed block.
func (r *Raw) MarshalBinary() ([]byte, error) {
	b := make([]byte, 4, 4+len(r.Data))
	binary.LittleEndian.PutUint32(b, uint32(len(r.Data)))
	return append(b, r.Data...), nil
}

// Text is an unconverted block of text.
type Text struct {
	named
	Data []byte
}

// Kind returns KindText.
func (t *Text) Kind() Kind { return KindText }

// Clone returns a deep copy of t.
func (t *Text) Clone() Item {
	return &Text{named: t.named, Data: append([]byte(nil), t.Data...)}
}

// Load reads the remainder of r as text.
func (t *Text) Load(r io.Reader) error {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	t.Data = b
	return nil
}

// MarshalBinary returns the text.
func (t *Text) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), t.Data...), nil
}

// Sound is an audio item. Music is kept parsed in XMidiFile or MidiFile,
// every other encoding as plain Data.
type Sound struct {
	named
	sound SoundKind

	Data      []byte
	XMidiFile *xmidi.File
	MidiFile  *midi.File
}

// NewSound returns an empty sound of the given encoding.
func NewSound(sound SoundKind) *Sound {
	return &Sound{sound: sound}
}

// Kind returns KindSound.
func (s *Sound) Kind() Kind { return KindSound }

// SoundKind returns the encoding of s.
func (s *Sound) SoundKind() SoundKind { return s.sound }

// Clone returns a deep copy of s.
func (s *Sound) Clone() Item {
	dup := &Sound{
		named: s.named,
		sound: s.sound,
		Data:  append([]byte(nil), s.Data...),
	}
	if s.XMidiFile != nil {
		dup.XMidiFile = s.XMidiFile.Clone()
	}
	if s.MidiFile != nil {
		dup.MidiFile = &midi.File{
			Format:   s.MidiFile.Format,
			Division: s.MidiFile.Division,
			Tracks:   make([]midi.Track, len(s.MidiFile.Tracks)),
		}
		for i, t := range s.MidiFile.Tracks {
			dup.MidiFile.Tracks[i] = append(midi.Track(nil), t...)
		}
	}
	return dup
}

// MIDI returns s as a Standard MIDI File, converting XMIDI music.
func (s *Sound) MIDI() (*midi.File, error) {
	switch {
	case s.sound == SoundMidi && s.MidiFile != nil:
		return s.MidiFile, nil
	case s.sound == SoundXMidi && s.XMidiFile != nil:
		return s.XMidiFile.MIDI()
	default:
		return nil, fmt.Errorf("siedler2: %s sound as midi: %w", s.sound, errkind.ErrWrongArchive)
	}
}

// MarshalBinary encodes s in its own encoding.
func (s *Sound) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	switch {
	case s.sound == SoundMidi && s.MidiFile != nil:
		if err := s.MidiFile.Encode(b); err != nil {
			return nil, err
		}
	case s.sound == SoundXMidi && s.XMidiFile != nil:
		if err := s.XMidiFile.Encode(b); err != nil {
			return nil, err
		}
	default:
		b.Write(s.Data)
	}
	return b.Bytes(), nil
}
