package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// header precedes the data of RLE, Shadow and Player bitmaps.
type header struct {
	NX, NY   int16
	Unknown1 [4]byte
	Width    uint16
	Height   uint16
	Unknown2 [2]byte
	Length   uint32
}

const (
	rowEnd     = 0xff
	trailer    = 0xff
	maxOpaque  = 0x7f
	maxClear   = 0xff
	offsetSize = 2
)

func readBinary(r io.Reader, v interface{}) error {
	err := binary.Read(r, binary.LittleEndian, v)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Load replaces b with a bitmap of kind b.Kind read from r, decoded into
// format. pal overrides the attached palette; one of them is required except
// for BGRA shadows. A Paletted result keeps a copy of the palette.
func (b *Bitmap) Load(r io.Reader, pal *palette.Palette, format Format) error {
	if format != Paletted && format != BGRA {
		return fmt.Errorf("bitmap: load as %s: %w", format, errkind.ErrUnsupportedFormat)
	}
	pal, err := b.resolvePalette(pal)
	if err != nil && (b.Kind != Shadow || format == Paletted) {
		return err
	}

	switch b.Kind {
	case Raw:
		return b.loadRaw(r, pal, format)
	case RLE, Shadow, Player:
		return b.loadRows(r, pal, format)
	default:
		return fmt.Errorf("bitmap: load %s: %w", b.Kind, errkind.ErrWrongArchive)
	}
}

// Write encodes b to w according to b.Kind. pal overrides the attached
// palette and is needed to find the transparent index of Paletted data and
// to look up the indices of BGRA data.
func (b *Bitmap) Write(w io.Writer, pal *palette.Palette) error {
	pal, err := b.resolvePalette(pal)
	if err != nil && (b.Kind != Shadow || b.buf.format == Paletted) {
		return err
	}

	var data []byte
	switch b.Kind {
	case Raw:
		return b.writeRaw(w, pal)
	case RLE:
		data, err = b.encodeRLE(pal)
	case Shadow:
		data, err = b.encodeShadow(pal)
	case Player:
		data, err = b.encodePlayer(pal)
	default:
		return fmt.Errorf("bitmap: write %s: %w", b.Kind, errkind.ErrWrongArchive)
	}
	if err != nil {
		return err
	}

	h := header{
		NX:     b.NX,
		NY:     b.NY,
		Width:  uint16(b.buf.width),
		Height: uint16(b.buf.height),
		Length: uint32(len(data)),
	}
	copy(h.Unknown1[:], b.reserved[0:4])
	copy(h.Unknown2[:], b.reserved[4:6])

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return err
	}
	buf.Write(data)
	_, err = w.Write(buf.Bytes())
	return err
}

// loadRows reads the common header and row data and hands it to the codec
// for b.Kind.
func (b *Bitmap) loadRows(r io.Reader, pal *palette.Palette, format Format) error {
	var h header
	if err := readBinary(r, &h); err != nil {
		return fmt.Errorf("bitmap: %s header: %w", b.Kind, err)
	}
	data, err := errkind.ReadN(r, int64(h.Length))
	if err != nil {
		return fmt.Errorf("bitmap: %s data: %w", b.Kind, err)
	}

	// Every row needs its offset and at least enough commands to cover the
	// width, so the pixel buffer stays in proportion to data
	width, height := int(h.Width), int(h.Height)
	if need := height * (offsetSize + minRowSize(b.Kind, width)); need > len(data) {
		return fmt.Errorf("bitmap: %s of %dx%d needs %d bytes, got %d: %w", b.Kind, width, height, need, len(data), errkind.ErrWrongFormat)
	}

	if format == Paletted {
		b.Palette = pal.Clone()
	}
	b.NX, b.NY = h.NX, h.NY
	copy(b.reserved[0:4], h.Unknown1[:])
	copy(b.reserved[4:6], h.Unknown2[:])
	b.reset(width, height, format)

	var end int
	switch b.Kind {
	case Player:
		end, err = b.decodePlayer(data, pal)
	default:
		end, err = b.decodeRuns(data, pal)
	}
	if err != nil {
		return err
	}

	// Everything up to the last row plus the trailing byte
	if end+1 != len(data) {
		return fmt.Errorf("bitmap: %s consumed %d of %d bytes: %w", b.Kind, end+1, len(data), errkind.ErrWrongFormat)
	}
	return nil
}

// minRowSize is the smallest encoded row that covers width pixels.
func minRowSize(kind Kind, width int) int {
	if kind == Player {
		return (width + maxCount - 1) / maxCount
	}
	// Pairs of opaque and transparent runs plus rowEnd
	pairs := (width + maxOpaque + maxClear - 1) / (maxOpaque + maxClear)
	return pairs*2 + 1
}

// rowOffsets decodes and bounds checks the table of row start offsets at the
// beginning of data.
func rowOffsets(data []byte, height int) ([]int, error) {
	table := height * offsetSize
	if len(data) < table {
		return nil, fmt.Errorf("bitmap: row table of %d rows in %d bytes: %w", height, len(data), errkind.ErrWrongFormat)
	}
	starts := make([]int, height)
	for y := range starts {
		starts[y] = int(binary.LittleEndian.Uint16(data[y*offsetSize:]))
		if starts[y] < table || starts[y] >= len(data) {
			return nil, fmt.Errorf("bitmap: row %d starts at %d: %w", y, starts[y], errkind.ErrWrongFormat)
		}
	}
	return starts, nil
}

// assembleRows builds the row offset table followed by rows and the trailing
// byte.
func assembleRows(rows [][]byte) ([]byte, error) {
	table := len(rows) * offsetSize
	size := table
	for _, row := range rows {
		size += len(row)
	}

	data := make([]byte, table, size+1)
	pos := table
	for y, row := range rows {
		if pos > 0xffff {
			return nil, fmt.Errorf("bitmap: row %d starts beyond 64 KiB: %w", y, errkind.ErrWrongFormat)
		}
		binary.LittleEndian.PutUint16(data[y*offsetSize:], uint16(pos))
		data = append(data, row...)
		pos += len(row)
	}
	return append(data, trailer), nil
}

// rowReader reads the encoded stream of a single row.
type rowReader struct {
	data []byte
	pos  int
	y    int
}

func (r *rowReader) next(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("bitmap: row %d overruns data: %w", r.y, errkind.ErrWrongFormat)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *rowReader) readByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// setIndex stores an opaque palette index in whatever format b uses.
func (b *Bitmap) setIndex(x, y int, i uint8, pal *palette.Palette) {
	if b.buf.format == Paletted {
		b.buf.SetIndex(x, y, i)
		return
	}
	b.buf.SetBGRA(x, y, b.toBGRA(i, pal))
}

// pixels classifies every pixel of b for the encoders. Transparent pixels
// report ok false. index is left zero for BGRA shadows which don't need it.
func (b *Bitmap) pixels(pal *palette.Palette) (index []byte, ok []bool, err error) {
	n := b.buf.width * b.buf.height
	index = make([]byte, n)
	ok = make([]bool, n)

	for i := 0; i < n; i++ {
		if b.player != nil && b.player[i] != NoPlayer {
			index[i], ok[i] = b.player[i], true
			continue
		}

		if b.buf.format == Paletted {
			index[i] = b.buf.pix[i]
			ok[i] = index[i] != pal.TransparentIndex()
			continue
		}

		c := ColorBGRA{b.buf.pix[i*4], b.buf.pix[i*4+1], b.buf.pix[i*4+2], b.buf.pix[i*4+3]}
		if c.IsTransparent() {
			continue
		}
		ok[i] = true
		if b.Kind == Shadow {
			continue
		}
		if index[i], err = b.toIndex(c, pal); err != nil {
			return nil, nil, err
		}
	}
	return index, ok, nil
}
