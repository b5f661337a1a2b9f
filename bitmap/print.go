package bitmap

import (
	"fmt"
	"image"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// window is a source rectangle and destination point after clipping.
type window struct {
	fromX, fromY, w, h int
	toX, toY           int
}

// clip resolves the zero-means-everything rule of from and clips the result
// to both the source and destination bounds.
func clip(src, dst *PixelBuffer, to image.Point, from image.Rectangle) (window, bool) {
	win := window{
		fromX: from.Min.X,
		fromY: from.Min.Y,
		w:     from.Dx(),
		h:     from.Dy(),
		toX:   to.X,
		toY:   to.Y,
	}
	if win.w <= 0 {
		win.w = src.width - win.fromX
	}
	if win.h <= 0 {
		win.h = src.height - win.fromY
	}

	if win.fromX < 0 {
		win.w += win.fromX
		win.toX -= win.fromX
		win.fromX = 0
	}
	if win.fromY < 0 {
		win.h += win.fromY
		win.toY -= win.fromY
		win.fromY = 0
	}
	if win.toX < 0 {
		win.w += win.toX
		win.fromX -= win.toX
		win.toX = 0
	}
	if win.toY < 0 {
		win.h += win.toY
		win.fromY -= win.toY
		win.toY = 0
	}

	if win.fromX+win.w > src.width {
		win.w = src.width - win.fromX
	}
	if win.fromY+win.h > src.height {
		win.h = src.height - win.fromY
	}
	if win.toX+win.w > dst.width {
		win.w = dst.width - win.toX
	}
	if win.toY+win.h > dst.height {
		win.h = dst.height - win.toY
	}

	return win, win.w > 0 && win.h > 0
}

// Print draws the area from of b onto dst at to, clipped to both buffers. A
// zero or negative width or height in from selects everything up to the
// right or bottom edge. Transparent source pixels leave dst untouched.
func (b *Bitmap) Print(dst *PixelBuffer, to image.Point, from image.Rectangle) error {
	return b.print(dst, to, from, nil, 0, nil)
}

// PrintPlayer is Print for Player bitmaps that draws player colored pixels
// with palette entry plClrStart plus the stored offset. pal overrides the
// attached palette. The whole range of PlayerColors entries from plClrStart
// must fit in the palette.
func (b *Bitmap) PrintPlayer(dst *PixelBuffer, to image.Point, from image.Rectangle, plClrStart uint8, pal *palette.Palette) error {
	if b.Kind != Player {
		return fmt.Errorf("bitmap: print player colors of %s: %w", b.Kind, errkind.ErrWrongArchive)
	}
	if int(plClrStart)+PlayerColors > palette.Size {
		return fmt.Errorf("bitmap: player colors from %d: %w", plClrStart, errkind.ErrOutOfRange)
	}
	return b.print(dst, to, from, b.player, plClrStart, pal)
}

func (b *Bitmap) print(dst *PixelBuffer, to image.Point, from image.Rectangle, plane []byte, plClrStart uint8, pal *palette.Palette) error {
	if err := dst.valid(); err != nil {
		return err
	}
	if err := b.buf.valid(); err != nil {
		return err
	}

	// Paletted data always needs the palette for transparency, BGRA data
	// only for index lookups
	needPalette := b.buf.format == Paletted || dst.format == Paletted || plane != nil
	pal, err := b.resolvePalette(pal)
	if err != nil && needPalette {
		return err
	}

	win, ok := clip(&b.buf, dst, to, from)
	if !ok {
		return nil
	}

	for y := 0; y < win.h; y++ {
		sy, dy := win.fromY+y, win.toY+y
		for x := 0; x < win.w; x++ {
			sx, dx := win.fromX+x, win.toX+x

			if plane != nil {
				if o := plane[sy*b.buf.width+sx]; o != NoPlayer {
					i := plClrStart + o
					if dst.format == Paletted {
						dst.SetIndex(dx, dy, i)
					} else {
						dst.SetBGRA(dx, dy, opaque(pal.Color(i)))
					}
					continue
				}
			}

			if b.buf.format == Paletted {
				i := b.buf.Index(sx, sy)
				if i == pal.TransparentIndex() {
					continue
				}
				if dst.format == Paletted {
					dst.SetIndex(dx, dy, i)
				} else {
					dst.SetBGRA(dx, dy, b.toBGRA(i, pal))
				}
				continue
			}

			c := b.buf.BGRA(sx, sy)
			if c.IsTransparent() {
				continue
			}
			if dst.format == BGRA {
				dst.SetBGRA(dx, dy, c)
				continue
			}
			i, err := b.toIndex(c, pal)
			if err != nil {
				return err
			}
			dst.SetIndex(dx, dy, i)
		}
	}
	return nil
}
