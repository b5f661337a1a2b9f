package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// A raw bitmap stores its dimensions after the pixel data.
type rawHeader struct {
	Unknown [2]byte
	Length  uint32
}

type rawTrailer struct {
	Width, Height uint16
	NX, NY        int16
	Unknown       [8]byte
}

func (b *Bitmap) loadRaw(r io.Reader, pal *palette.Palette, format Format) error {
	var h rawHeader
	if err := readBinary(r, &h); err != nil {
		return fmt.Errorf("bitmap: raw header: %w", err)
	}
	data, err := errkind.ReadN(r, int64(h.Length))
	if err != nil {
		return fmt.Errorf("bitmap: raw data: %w", err)
	}
	var t rawTrailer
	if err := readBinary(r, &t); err != nil {
		return fmt.Errorf("bitmap: raw trailer: %w", err)
	}

	if int(t.Width)*int(t.Height) != len(data) {
		return fmt.Errorf("bitmap: raw %dx%d with %d bytes: %w", t.Width, t.Height, len(data), errkind.ErrWrongFormat)
	}

	if format == Paletted {
		b.Palette = pal.Clone()
	}
	b.NX, b.NY = t.NX, t.NY
	copy(b.reserved[0:2], h.Unknown[:])
	copy(b.reserved[2:10], t.Unknown[:])
	b.reset(int(t.Width), int(t.Height), format)

	if format == Paletted {
		copy(b.buf.pix, data)
		return nil
	}
	for i, p := range data {
		c := b.toBGRA(p, pal)
		copy(b.buf.pix[i*4:], []byte{c.B, c.G, c.R, c.A})
	}
	return nil
}

func (b *Bitmap) writeRaw(w io.Writer, pal *palette.Palette) error {
	index, ok, err := b.pixels(pal)
	if err != nil {
		return err
	}
	for i := range index {
		if !ok[i] {
			index[i] = pal.TransparentIndex()
		}
	}

	h := rawHeader{Length: uint32(len(index))}
	copy(h.Unknown[:], b.reserved[0:2])
	t := rawTrailer{
		Width:  uint16(b.buf.width),
		Height: uint16(b.buf.height),
		NX:     b.NX,
		NY:     b.NY,
	}
	copy(t.Unknown[:], b.reserved[2:10])

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return err
	}
	buf.Write(index)
	if err := binary.Write(buf, binary.LittleEndian, &t); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}
