package bitmap

import (
	"fmt"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// Rows of a Player bitmap are a sequence of commands. The top two bits of
// each command byte select the command and the lower six bits are a pixel
// count.
const (
	cmdTransparent = 0x00 // count transparent pixels
	cmdLiteral     = 0x40 // count palette indices follow
	cmdPlayer      = 0x80 // count player color offsets follow
	cmdRepeat      = 0xc0 // one palette index follows, repeated count times

	cmdMask   = 0xc0
	maxCount  = 0x3f
	minRepeat = 3
)

type pixelClass int

const (
	classTransparent pixelClass = iota
	classOpaque
	classPlayer
)

func (b *Bitmap) encodePlayer(pal *palette.Palette) ([]byte, error) {
	index, ok, err := b.pixels(pal)
	if err != nil {
		return nil, err
	}

	width := b.buf.width
	class := func(i int) pixelClass {
		switch {
		case b.player[i] != NoPlayer:
			return classPlayer
		case ok[i]:
			return classOpaque
		default:
			return classTransparent
		}
	}

	rows := make([][]byte, b.buf.height)
	for y := range rows {
		line := y * width
		var row []byte

		// repeat is the length of the run of identical opaque indices at x
		repeat := func(x int) int {
			n := 1
			for x+n < width && n < maxCount && class(line+x+n) == classOpaque && index[line+x+n] == index[line+x] {
				n++
			}
			return n
		}

		for x := 0; x < width; {
			c := class(line + x)
			switch c {
			case classOpaque:
				if n := repeat(x); n >= minRepeat {
					row = append(row, cmdRepeat|byte(n), index[line+x])
					x += n
					continue
				}
				n := 0
				for x+n < width && n < maxCount && class(line+x+n) == classOpaque && repeat(x+n) < minRepeat {
					n++
				}
				row = append(row, cmdLiteral|byte(n))
				row = append(row, index[line+x:line+x+n]...)
				x += n
			default:
				n := 0
				for x+n < width && n < maxCount && class(line+x+n) == c {
					n++
				}
				if c == classPlayer {
					row = append(row, cmdPlayer|byte(n))
					row = append(row, index[line+x:line+x+n]...)
				} else {
					row = append(row, cmdTransparent|byte(n))
				}
				x += n
			}
		}
		rows[y] = row
	}
	return assembleRows(rows)
}

func (b *Bitmap) decodePlayer(data []byte, pal *palette.Palette) (int, error) {
	width, height := b.buf.width, b.buf.height
	starts, err := rowOffsets(data, height)
	if err != nil {
		return 0, err
	}

	end := height * offsetSize
	for y, start := range starts {
		r := &rowReader{data: data, pos: start, y: y}
		for x := 0; x < width; {
			cmd, err := r.readByte()
			if err != nil {
				return 0, err
			}
			n := int(cmd & maxCount)
			if x+n > width {
				return 0, fmt.Errorf("bitmap: row %d command %#02x at %d: %w", y, cmd, x, errkind.ErrWrongFormat)
			}

			switch cmd & cmdMask {
			case cmdTransparent:
			case cmdLiteral:
				px, err := r.next(n)
				if err != nil {
					return 0, err
				}
				for i, p := range px {
					b.setIndex(x+i, y, p, pal)
				}
			case cmdPlayer:
				px, err := r.next(n)
				if err != nil {
					return 0, err
				}
				for i, o := range px {
					if o >= PlayerColors {
						return 0, fmt.Errorf("bitmap: row %d player color offset %d: %w", y, o, errkind.ErrWrongFormat)
					}
					b.player[y*width+x+i] = o
					b.setIndex(x+i, y, DefaultPlayerColorStart+o, pal)
				}
			case cmdRepeat:
				p, err := r.readByte()
				if err != nil {
					return 0, err
				}
				for i := 0; i < n; i++ {
					b.setIndex(x+i, y, p, pal)
				}
			}
			x += n
		}
		if r.pos > end {
			end = r.pos
		}
	}
	return end, nil
}
