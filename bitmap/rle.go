package bitmap

import (
	"fmt"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// Each row of an RLE or Shadow bitmap is a sequence of pairs, an opaque run
// followed by a transparent run, until the width is covered. The row ends
// with rowEnd. Opaque runs in RLE bitmaps are followed by one index per
// pixel; in Shadow bitmaps they are just a count.

func (b *Bitmap) encodeRLE(pal *palette.Palette) ([]byte, error) {
	index, ok, err := b.pixels(pal)
	if err != nil {
		return nil, err
	}
	return encodeRuns(b.buf.width, b.buf.height, index, ok, true)
}

func (b *Bitmap) encodeShadow(pal *palette.Palette) ([]byte, error) {
	_, ok, err := b.pixels(pal)
	if err != nil {
		return nil, err
	}
	return encodeRuns(b.buf.width, b.buf.height, nil, ok, false)
}

func encodeRuns(width, height int, index []byte, ok []bool, withIndices bool) ([]byte, error) {
	rows := make([][]byte, height)
	for y := range rows {
		line := y * width
		var row []byte
		for x := 0; x < width; {
			n := 0
			for x+n < width && n < maxOpaque && ok[line+x+n] {
				n++
			}
			row = append(row, byte(n))
			if withIndices {
				row = append(row, index[line+x:line+x+n]...)
			}
			x += n

			n = 0
			for x+n < width && n < maxClear && !ok[line+x+n] {
				n++
			}
			row = append(row, byte(n))
			x += n
		}
		rows[y] = append(row, rowEnd)
	}
	return assembleRows(rows)
}

// decodeRuns decodes the rows of an RLE or Shadow bitmap into the already
// reset buffer and returns the offset just past the last row.
func (b *Bitmap) decodeRuns(data []byte, pal *palette.Palette) (int, error) {
	width, height := b.buf.width, b.buf.height
	starts, err := rowOffsets(data, height)
	if err != nil {
		return 0, err
	}

	shadow := b.Kind == Shadow
	var gray uint8
	if shadow && pal != nil {
		gray = shadowIndex(pal)
	}

	end := height * offsetSize
	for y, start := range starts {
		r := &rowReader{data: data, pos: start, y: y}
		for x := 0; x < width; {
			n, err := r.readByte()
			if err != nil {
				return 0, err
			}
			if x+int(n) > width {
				return 0, fmt.Errorf("bitmap: row %d opaque run of %d at %d: %w", y, n, x, errkind.ErrWrongFormat)
			}

			if shadow {
				for i := 0; i < int(n); i++ {
					if b.buf.format == Paletted {
						b.buf.SetIndex(x+i, y, gray)
					} else {
						b.buf.SetBGRA(x+i, y, ShadowBGRA)
					}
				}
			} else {
				px, err := r.next(int(n))
				if err != nil {
					return 0, err
				}
				for i, p := range px {
					b.setIndex(x+i, y, p, pal)
				}
			}
			x += int(n)

			if n, err = r.readByte(); err != nil {
				return 0, err
			}
			if x+int(n) > width {
				return 0, fmt.Errorf("bitmap: row %d transparent run of %d at %d: %w", y, n, x, errkind.ErrWrongFormat)
			}
			x += int(n)
		}

		if c, err := r.readByte(); err != nil || c != rowEnd {
			return 0, fmt.Errorf("bitmap: row %d not terminated: %w", y, errkind.ErrWrongFormat)
		}
		if r.pos > end {
			end = r.pos
		}
	}
	return end, nil
}
