package siedler2

import (
	"errors"
	"testing"

	"github.com/bodgit/siedler2/bitmap"
	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPalette() *palette.Palette {
	colors := make([]palette.Color, palette.Size)
	for i := range colors {
		colors[i] = palette.Color{R: uint8(i), G: uint8(255 - i), B: uint8(i / 2)}
	}
	return palette.NewFromColors(colors)
}

func testArchive(t *testing.T) *Archive {
	a := NewArchive(4)

	p := NewPalette(testPalette())
	p.SetName("pal")
	require.NoError(t, a.Set(0, p))

	b, err := bitmap.New(bitmap.RLE, 2, 2, bitmap.Paletted, testPalette())
	require.NoError(t, err)
	b.Buffer().SetIndex(1, 1, 7)
	bi := &Bitmap{Bitmap: b}
	bi.SetName("sprite")
	require.NoError(t, a.Set(2, bi))

	f := NewFont()
	f.SetName("font")
	f.DX, f.DY = 9, 12
	f.Glyphs.Push(bi.Clone())
	require.NoError(t, a.Set(3, f))

	return a
}

func TestArchiveSlots(t *testing.T) {
	a := testArchive(t)
	assert.Equal(t, 4, a.Len())
	assert.Nil(t, a.Get(1))
	assert.Nil(t, a.Get(-1))
	assert.Nil(t, a.Get(4))

	a.AllocInc(2)
	assert.Equal(t, 6, a.Len())
	assert.Equal(t, KindPalette, a.Get(0).Kind())

	a.Push(&Raw{Data: []byte{1}})
	assert.Equal(t, 7, a.Len())
	assert.Equal(t, KindRaw, a.Get(6).Kind())

	require.NoError(t, a.Set(6, nil))
	assert.Nil(t, a.Get(6))

	a.Alloc(2)
	assert.Equal(t, 2, a.Len())
	assert.Nil(t, a.Get(0))

	a.Clear()
	assert.Equal(t, 0, a.Len())
}

func TestArchiveIndexError(t *testing.T) {
	a := NewArchive(1)
	for _, i := range []int{-1, 1, 10} {
		err := a.Set(i, new(Raw))
		var ie *errkind.IndexError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, i, ie.Index)
		assert.Equal(t, 1, ie.Len)
		assert.False(t, errors.Is(err, errkind.ErrOutOfRange))
		assert.Equal(t, "Index out of range", errkind.Describe(err))

		err = a.SetClone(i, new(Raw))
		assert.True(t, errors.As(err, &ie))
	}
}

func TestArchiveClone(t *testing.T) {
	a := testArchive(t)
	dup := a.Clone()
	require.Equal(t, a.Len(), dup.Len())

	for i := 0; i < a.Len(); i++ {
		if a.Get(i) == nil {
			assert.Nil(t, dup.Get(i))
			continue
		}
		assert.False(t, a.Get(i) == dup.Get(i))
		assert.Equal(t, a.Get(i).Kind(), dup.Get(i).Kind())
		assert.Equal(t, a.Get(i), dup.Get(i))
	}

	// Changing the copy leaves the original alone, nested archives included
	dup.Get(0).(*Palette).Set(3, palette.White)
	assert.NotEqual(t, palette.White, a.Get(0).(*Palette).Color(3))

	glyph := dup.Get(3).(*Font).Glyphs.Get(0).(*Bitmap)
	glyph.Bitmap.Buffer().SetIndex(0, 0, 99)
	orig := a.Get(3).(*Font).Glyphs.Get(0).(*Bitmap)
	assert.NotEqual(t, uint8(99), orig.Bitmap.Buffer().Index(0, 0))

	dup.Get(2).SetName("renamed")
	assert.Equal(t, "sprite", a.Get(2).Name())
}

func TestArchiveSetClone(t *testing.T) {
	a := NewArchive(1)
	r := &Raw{Data: []byte{1, 2, 3}}
	require.NoError(t, a.SetClone(0, r))
	a.PushClone(r)

	r.Data[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, a.Get(0).(*Raw).Data)
	assert.Equal(t, []byte{1, 2, 3}, a.Get(1).(*Raw).Data)

	require.NoError(t, a.SetClone(0, nil))
	assert.Nil(t, a.Get(0))
}

func TestArchiveRelease(t *testing.T) {
	a := testArchive(t)
	item := a.Release(2)
	require.NotNil(t, item)
	assert.Nil(t, a.Get(2))
	assert.Nil(t, a.Release(2))
	assert.Nil(t, a.Release(10))

	a.Clear()
	assert.Equal(t, "sprite", item.Name())
	assert.Equal(t, uint8(7), item.(*Bitmap).Bitmap.Buffer().Index(1, 1))
}

func TestArchiveFind(t *testing.T) {
	a := testArchive(t)
	second := NewPalette(nil)
	second.SetName("pal")
	a.Push(second)

	assert.True(t, a.Find("pal") == a.Get(0))
	assert.Equal(t, KindFont, a.Find("font").Kind())
	assert.Nil(t, a.Find("missing"))
}

func TestItemKinds(t *testing.T) {
	tables := []struct {
		item Item
		kind Kind
	}{
		{NewBitmap(bitmap.Raw), KindBitmap},
		{NewBitmap(bitmap.RLE), KindBitmapRLE},
		{NewBitmap(bitmap.Shadow), KindBitmapShadow},
		{NewBitmap(bitmap.Player), KindBitmapPlayer},
		{NewPalette(nil), KindPalette},
		{new(PaletteAnim), KindPaletteAnim},
		{NewFont(), KindFont},
		{new(Raw), KindRaw},
		{new(Text), KindText},
		{NewSound(SoundWave), KindSound},
	}
	for _, table := range tables {
		assert.Equal(t, table.kind, table.item.Kind())
		assert.Equal(t, table.kind, table.item.Clone().Kind())
	}
	assert.Equal(t, "bitmap-player", KindBitmapPlayer.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, "xmidi", SoundXMidi.String())
}
