package siedler2

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/siedler2/bitmap"
	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/midi"
	"github.com/bodgit/siedler2/palette"
	"github.com/bodgit/siedler2/xmidi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testXMIDI = []byte{
	0xc0, 0x05,
	0x90, 0x3c, 0x64, 0x83, 0x60,
	0x7f, 0x7f, 0x7f, 0x63,
	0xff, 0x2f, 0x00,
}

func writeFile(t *testing.T, file string, fn func(*bytes.Buffer) error) {
	b := new(bytes.Buffer)
	require.NoError(t, fn(b))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, b.Bytes(), 0644))
}

func TestLoadBBM(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "PAL5.BBM")

	bbm := &palette.BBM{
		Palettes: []*palette.Palette{testPalette(), palette.New()},
		Anims:    []palette.Anim{{Rate: 0x1000, Flags: 1, First: 10, Last: 20}},
	}
	writeFile(t, file, func(b *bytes.Buffer) error { return bbm.Encode(b) })

	c := NewContext(nil, bitmap.Paletted, nil)
	a, err := c.Load(file)
	require.NoError(t, err)
	require.Equal(t, 3, a.Len())
	assert.Equal(t, KindPalette, a.Get(0).Kind())
	assert.Equal(t, KindPalette, a.Get(1).Kind())
	assert.Equal(t, KindPaletteAnim, a.Get(2).Kind())
	assert.Equal(t, "PAL5.BBM", a.Get(0).Name())
	assert.True(t, a.Get(0).(*Palette).Equal(testPalette()))
	assert.Equal(t, uint8(20), a.Get(2).(*PaletteAnim).Last)

	out := filepath.Join(dir, "copy.bbm")
	require.NoError(t, c.Write(out, a))
	want, err := os.ReadFile(file)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The first palette also converts to an ACT file
	act := filepath.Join(dir, "pal5.act")
	require.NoError(t, c.Write(act, a))
	a, err = c.Load(act)
	require.NoError(t, err)
	require.Equal(t, 1, a.Len())
	assert.True(t, a.Get(0).(*Palette).Equal(testPalette()))
}

func TestLoadMusic(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "song_01.xmi")
	f := &xmidi.File{Tracks: []*xmidi.Track{{Events: testXMIDI}}}
	writeFile(t, file, func(b *bytes.Buffer) error { return f.Encode(b) })

	c := NewContext(nil, bitmap.Paletted, nil)
	a, err := c.Load(file)
	require.NoError(t, err)
	s, ok := a.Get(0).(*Sound)
	require.True(t, ok)
	assert.Equal(t, SoundXMidi, s.SoundKind())

	out := filepath.Join(dir, "song_01.mid")
	require.NoError(t, c.Write(out, a))

	a, err = c.Load(out)
	require.NoError(t, err)
	s, ok = a.Get(0).(*Sound)
	require.True(t, ok)
	assert.Equal(t, SoundMidi, s.SoundKind())
	require.Len(t, s.MidiFile.Tracks, 1)
	assert.Equal(t, uint16(xmidi.Division), s.MidiFile.Division)

	events, err := s.MidiFile.Tracks[0].Events()
	require.NoError(t, err)
	assert.True(t, events[len(events)-1].IsEndOfTrack())

	// A standard MIDI file can't become XMIDI
	err = c.Write(filepath.Join(dir, "back.xmi"), a)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))

	m, err := s.MIDI()
	require.NoError(t, err)
	assert.True(t, m == s.MidiFile)

	_, err = NewSound(SoundWave).MIDI()
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	c := NewContext(nil, bitmap.Paletted, nil)

	_, err := c.Load(filepath.Join(dir, "missing.bbm"))
	assert.Equal(t, "File or entry not found", errkind.Describe(err))

	_, err = c.Load(filepath.Join(dir, "readme.txt"))
	assert.True(t, errors.Is(err, errkind.ErrWrongFormat))

	bad := filepath.Join(dir, "bad.bbm")
	require.NoError(t, os.WriteFile(bad, []byte("FORM\x00\x00\x00\x04ILBM"), 0644))
	_, err = c.Load(bad)
	assert.True(t, errors.Is(err, errkind.ErrWrongHeader))

	short := filepath.Join(dir, "short.act")
	require.NoError(t, os.WriteFile(short, make([]byte, 100), 0644))
	_, err = c.Load(short)
	assert.True(t, errors.Is(err, errkind.ErrUnexpectedEOF))

	err = c.Write(filepath.Join(dir, "empty.act"), NewArchive(2))
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))

	// A factory creating the wrong type for a kind is caught
	r := NewRegistry(nil)
	r.Register(KindPalette, func(SoundKind) (Item, error) {
		return &testPaletteLike{}, nil
	})
	act := filepath.Join(dir, "ok.act")
	writeFile(t, act, func(b *bytes.Buffer) error { return testPalette().WriteACT(b) })
	_, err = NewContext(r, bitmap.Paletted, nil).Load(act)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))
}

type testPaletteLike struct {
	named
}

func (p *testPaletteLike) Kind() Kind { return KindPalette }

func (p *testPaletteLike) Clone() Item {
	dup := *p
	return &dup
}

func TestLoadBitmap(t *testing.T) {
	pal := testPalette()
	b, err := bitmap.New(bitmap.RLE, 3, 2, bitmap.Paletted, pal)
	require.NoError(t, err)
	b.Buffer().SetIndex(0, 0, 5)
	b.Buffer().SetIndex(2, 1, 6)

	raw := new(bytes.Buffer)
	require.NoError(t, WriteBitmap(raw, &Bitmap{Bitmap: b}, nil))

	c := NewContext(nil, bitmap.BGRA, nil)
	item, err := c.LoadBitmap(bytes.NewReader(raw.Bytes()), KindBitmapRLE, pal)
	require.NoError(t, err)
	assert.Equal(t, KindBitmapRLE, item.Kind())
	assert.Equal(t, bitmap.BGRA, item.Bitmap.Format())

	// BGRA bitmaps need the palette again to be written
	out := new(bytes.Buffer)
	require.NoError(t, WriteBitmap(out, item, pal))
	assert.Equal(t, raw.Bytes(), out.Bytes())

	data, err := (&Bitmap{Bitmap: b}).MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw.Bytes(), data)

	_, err = c.LoadBitmap(bytes.NewReader(raw.Bytes()), KindPalette, pal)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))

	err = WriteBitmap(out, new(Raw), pal)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))
}

func TestRawItem(t *testing.T) {
	r := &Raw{Data: []byte("hello")}
	b, err := r.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 0, 0, 0, 'h', 'e', 'l', 'l', 'o'}, b)

	var out Raw
	require.NoError(t, out.Load(bytes.NewReader(b)))
	assert.Equal(t, r.Data, out.Data)

	err = out.Load(bytes.NewReader(b[:6]))
	assert.True(t, errors.Is(err, errkind.ErrUnexpectedEOF))
	err = out.Load(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, errkind.ErrUnexpectedEOF))
	err = out.Load(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x7f, 'h'}))
	assert.True(t, errors.Is(err, errkind.ErrUnexpectedEOF))

	var text Text
	require.NoError(t, text.Load(bytes.NewReader([]byte("line\r\n"))))
	assert.Equal(t, []byte("line\r\n"), text.Data)
}

func TestSoundClone(t *testing.T) {
	s := NewSound(SoundMidi)
	s.MidiFile = &midi.File{Division: 60, Tracks: []midi.Track{midi.NewBuilder().End(0)}}
	dup := s.Clone().(*Sound)
	assert.Equal(t, s, dup)
	dup.MidiFile.Tracks[0][8] = 0x7f
	assert.Equal(t, byte(0x00), s.MidiFile.Tracks[0][8])
}
