package siedler2

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/midi"
	"github.com/bodgit/siedler2/palette"
	"github.com/bodgit/siedler2/xmidi"
)

type loaderFunc func(*Context, io.Reader) (*Archive, error)

type writerFunc func(io.Writer, *Archive) error

var formats = map[string]struct {
	load  loaderFunc
	write writerFunc
}{
	".act": {(*Context).LoadACT, WriteACT},
	".bbm": {(*Context).LoadBBM, WriteBBM},
	".mid": {(*Context).LoadMIDI, WriteMIDI},
	".xmi": {(*Context).LoadXMIDI, WriteXMIDI},
}

// Supported reports whether Load and Write handle the extension of file.
func Supported(file string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(file))]
	return ok
}

// Load reads file with the loader selected by its extension. Items without
// a name are named after the file.
func (c *Context) Load(file string) (*Archive, error) {
	format, ok := formats[strings.ToLower(filepath.Ext(file))]
	if !ok {
		return nil, fmt.Errorf("siedler2: %s: %w", file, errkind.ErrWrongFormat)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := format.load(c, f)
	if err != nil {
		return nil, fmt.Errorf("siedler2: %s: %w", file, err)
	}

	base := filepath.Base(file)
	for i := 0; i < a.Len(); i++ {
		if item := a.Get(i); item != nil && item.Name() == "" {
			item.SetName(base)
		}
	}
	c.Logger.Printf("Loaded %d items from \"%s\"\n", a.Len(), file)

	return a, nil
}

// Write writes a to file with the writer selected by its extension.
func (c *Context) Write(file string, a *Archive) error {
	format, ok := formats[strings.ToLower(filepath.Ext(file))]
	if !ok {
		return fmt.Errorf("siedler2: %s: %w", file, errkind.ErrWrongFormat)
	}

	b := new(bytes.Buffer)
	if err := format.write(b, a); err != nil {
		return fmt.Errorf("siedler2: %s: %w", file, err)
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = f.Write(b.Bytes()); err != nil {
		return err
	}
	c.Logger.Printf("Wrote %d items to \"%s\"\n", a.Len(), file)

	return nil
}

func (c *Context) create(kind Kind, sound SoundKind) (Item, error) {
	return c.Factory.Create(kind, sound)
}

func (c *Context) newPalette(p *palette.Palette) (*Palette, error) {
	item, err := c.create(KindPalette, SoundNone)
	if err != nil {
		return nil, err
	}
	pi, ok := item.(*Palette)
	if !ok {
		return nil, fmt.Errorf("siedler2: palette item %T: %w", item, errkind.ErrWrongArchive)
	}
	pi.Palette = p
	return pi, nil
}

func (c *Context) newSound(sound SoundKind) (*Sound, error) {
	item, err := c.create(KindSound, sound)
	if err != nil {
		return nil, err
	}
	s, ok := item.(*Sound)
	if !ok {
		return nil, fmt.Errorf("siedler2: sound item %T: %w", item, errkind.ErrWrongArchive)
	}
	return s, nil
}

// LoadACT reads a headerless palette into a single item archive.
func (c *Context) LoadACT(r io.Reader) (*Archive, error) {
	p, err := palette.ReadACT(r)
	if err != nil {
		return nil, err
	}
	item, err := c.newPalette(p)
	if err != nil {
		return nil, err
	}
	a := new(Archive)
	a.Push(item)
	return a, nil
}

// LoadBBM reads every palette of a BBM file followed by its color cycling
// ranges.
func (c *Context) LoadBBM(r io.Reader) (*Archive, error) {
	bbm, err := palette.DecodeBBM(r)
	if err != nil {
		return nil, err
	}

	a := NewArchive(0)
	for _, p := range bbm.Palettes {
		item, err := c.newPalette(p)
		if err != nil {
			return nil, err
		}
		a.Push(item)
	}
	for _, anim := range bbm.Anims {
		item, err := c.create(KindPaletteAnim, SoundNone)
		if err != nil {
			return nil, err
		}
		pa, ok := item.(*PaletteAnim)
		if !ok {
			return nil, fmt.Errorf("siedler2: palette animation item %T: %w", item, errkind.ErrWrongArchive)
		}
		pa.Anim = anim
		a.Push(pa)
	}
	return a, nil
}

// LoadXMIDI reads an XMIDI file into a single sound item.
func (c *Context) LoadXMIDI(r io.Reader) (*Archive, error) {
	f, err := xmidi.Decode(r)
	if err != nil {
		return nil, err
	}
	s, err := c.newSound(SoundXMidi)
	if err != nil {
		return nil, err
	}
	s.XMidiFile = f
	a := new(Archive)
	a.Push(s)
	return a, nil
}

// LoadMIDI reads a Standard MIDI File into a single sound item.
func (c *Context) LoadMIDI(r io.Reader) (*Archive, error) {
	f, err := midi.Decode(r)
	if err != nil {
		return nil, err
	}
	s, err := c.newSound(SoundMidi)
	if err != nil {
		return nil, err
	}
	s.MidiFile = f
	a := new(Archive)
	a.Push(s)
	return a, nil
}

// LoadBitmap reads a single bitmap of the given kind in the pixel format of
// c. pal is required unless the bitmap is a shadow loaded as BGRA.
func (c *Context) LoadBitmap(r io.Reader, kind Kind, pal *palette.Palette) (*Bitmap, error) {
	item, err := c.create(kind, SoundNone)
	if err != nil {
		return nil, err
	}
	b, ok := item.(*Bitmap)
	if !ok {
		return nil, fmt.Errorf("siedler2: load %s as bitmap: %w", kind, errkind.ErrWrongArchive)
	}
	if err := b.Bitmap.Load(r, pal, c.Format); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteBitmap writes a single bitmap item. pal overrides the attached
// palette.
func WriteBitmap(w io.Writer, item Item, pal *palette.Palette) error {
	b, ok := item.(*Bitmap)
	if !ok || b.Bitmap == nil {
		return fmt.Errorf("siedler2: write %T as bitmap: %w", item, errkind.ErrWrongArchive)
	}
	return b.Bitmap.Write(w, pal)
}

func palettes(a *Archive) ([]*palette.Palette, []palette.Anim) {
	var (
		pals  []*palette.Palette
		anims []palette.Anim
	)
	for i := 0; i < a.Len(); i++ {
		switch item := a.Get(i).(type) {
		case *Palette:
			pals = append(pals, item.Palette)
		case *PaletteAnim:
			anims = append(anims, item.Anim)
		}
	}
	return pals, anims
}

// WriteACT writes the first palette of a.
func WriteACT(w io.Writer, a *Archive) error {
	pals, _ := palettes(a)
	if len(pals) == 0 {
		return fmt.Errorf("siedler2: no palette to write: %w", errkind.ErrWrongArchive)
	}
	return pals[0].WriteACT(w)
}

// WriteBBM writes every palette and color cycling range of a.
func WriteBBM(w io.Writer, a *Archive) error {
	pals, anims := palettes(a)
	if len(pals) == 0 {
		return fmt.Errorf("siedler2: no palette to write: %w", errkind.ErrWrongArchive)
	}
	bbm := &palette.BBM{Palettes: pals, Anims: anims}
	return bbm.Encode(w)
}

func firstSound(a *Archive) (*Sound, error) {
	for i := 0; i < a.Len(); i++ {
		if s, ok := a.Get(i).(*Sound); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("siedler2: no sound to write: %w", errkind.ErrWrongArchive)
}

// WriteXMIDI writes the first sound of a, which must be XMIDI music.
func WriteXMIDI(w io.Writer, a *Archive) error {
	s, err := firstSound(a)
	if err != nil {
		return err
	}
	if s.SoundKind() != SoundXMidi || s.XMidiFile == nil {
		return fmt.Errorf("siedler2: write %s sound as xmidi: %w", s.SoundKind(), errkind.ErrWrongArchive)
	}
	return s.XMidiFile.Encode(w)
}

// WriteMIDI writes the first sound of a as a Standard MIDI File, converting
// XMIDI music.
func WriteMIDI(w io.Writer, a *Archive) error {
	s, err := firstSound(a)
	if err != nil {
		return err
	}
	m, err := s.MIDI()
	if err != nil {
		return err
	}
	return m.Encode(w)
}
