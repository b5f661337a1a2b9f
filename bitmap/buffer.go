package bitmap

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// Format is the in-memory pixel format of a buffer.
type Format int

const (
	// Paletted stores one palette index per pixel.
	Paletted Format = iota
	// BGRA stores blue, green, red and alpha bytes per pixel.
	BGRA
)

// BytesPerPixel returns the size of a single pixel.
func (f Format) BytesPerPixel() int {
	if f == BGRA {
		return 4
	}
	return 1
}

func (f Format) String() string {
	switch f {
	case Paletted:
		return "paletted"
	case BGRA:
		return "bgra"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat returns the format named s as printed by String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "paletted":
		return Paletted, nil
	case "bgra":
		return BGRA, nil
	}
	return 0, fmt.Errorf("bitmap: format %q: %w", s, errkind.ErrUnsupportedFormat)
}

// ColorBGRA is a single true-color pixel.
type ColorBGRA struct {
	B, G, R, A uint8
}

// IsTransparent reports whether c has no coverage at all.
func (c ColorBGRA) IsTransparent() bool {
	return c.A == 0
}

// RGB drops the alpha channel.
func (c ColorBGRA) RGB() palette.Color {
	return palette.Color{R: c.R, G: c.G, B: c.B}
}

func opaque(c palette.Color) ColorBGRA {
	return ColorBGRA{c.B, c.G, c.R, 0xff}
}

// PixelBuffer is a width by height raster that owns its pixel data.
type PixelBuffer struct {
	width, height int
	format        Format
	pix           []byte
}

// NewPixelBuffer returns a zeroed buffer.
func NewPixelBuffer(width, height int, format Format) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &PixelBuffer{
		width:  width,
		height: height,
		format: format,
		pix:    make([]byte, width*height*format.BytesPerPixel()),
	}
}

// Width returns the width in pixels.
func (p *PixelBuffer) Width() int { return p.width }

// Height returns the height in pixels.
func (p *PixelBuffer) Height() int { return p.height }

// Format returns the pixel format.
func (p *PixelBuffer) Format() Format { return p.format }

// Pix returns the backing storage, row by row without padding.
func (p *PixelBuffer) Pix() []byte { return p.pix }

func (p *PixelBuffer) valid() error {
	if p == nil || p.pix == nil {
		return fmt.Errorf("bitmap: nil buffer: %w", errkind.ErrInvalidBuffer)
	}
	if len(p.pix) < p.width*p.height*p.format.BytesPerPixel() {
		return fmt.Errorf("bitmap: buffer of %d bytes for %dx%d: %w", len(p.pix), p.width, p.height, errkind.ErrInvalidBuffer)
	}
	return nil
}

func (p *PixelBuffer) offset(x, y int) int {
	return (y*p.width + x) * p.format.BytesPerPixel()
}

// Index returns the palette index at x, y of a Paletted buffer.
func (p *PixelBuffer) Index(x, y int) uint8 {
	return p.pix[p.offset(x, y)]
}

// SetIndex sets the palette index at x, y of a Paletted buffer.
func (p *PixelBuffer) SetIndex(x, y int, i uint8) {
	p.pix[p.offset(x, y)] = i
}

// BGRA returns the pixel at x, y of a BGRA buffer.
func (p *PixelBuffer) BGRA(x, y int) ColorBGRA {
	o := p.offset(x, y)
	return ColorBGRA{p.pix[o], p.pix[o+1], p.pix[o+2], p.pix[o+3]}
}

// SetBGRA sets the pixel at x, y of a BGRA buffer.
func (p *PixelBuffer) SetBGRA(x, y int, c ColorBGRA) {
	o := p.offset(x, y)
	p.pix[o], p.pix[o+1], p.pix[o+2], p.pix[o+3] = c.B, c.G, c.R, c.A
}

// fill clears a paletted buffer to a single index.
func (p *PixelBuffer) fill(b byte) {
	for i := range p.pix {
		p.pix[i] = b
	}
}

func (p *PixelBuffer) clone() PixelBuffer {
	dup := *p
	dup.pix = append([]byte(nil), p.pix...)
	return dup
}

// Image returns a copy of p as an image.Image. Paletted buffers need pal and
// become *image.Paletted with the transparent index fully transparent, BGRA
// buffers become *image.NRGBA.
func (p *PixelBuffer) Image(pal *palette.Palette) (image.Image, error) {
	if err := p.valid(); err != nil {
		return nil, err
	}

	r := image.Rect(0, 0, p.width, p.height)
	switch p.format {
	case Paletted:
		if pal == nil {
			return nil, fmt.Errorf("bitmap: image: %w", errkind.ErrPaletteMissing)
		}
		m := image.NewPaletted(r, pal.ColorPalette())
		copy(m.Pix, p.pix)
		return m, nil
	default:
		m := image.NewNRGBA(r)
		for i := 0; i < p.width*p.height; i++ {
			s, d := p.pix[i*4:i*4+4], m.Pix[i*4:i*4+4]
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
		}
		return m, nil
	}
}

// FromImage copies m into a new BGRA buffer. Pixels with zero alpha become
// fully transparent, every other pixel is made opaque.
func FromImage(m image.Image) *PixelBuffer {
	b := m.Bounds()
	p := NewPixelBuffer(b.Dx(), b.Dy(), BGRA)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			p.SetBGRA(x-b.Min.X, y-b.Min.Y, ColorBGRA{c.B, c.G, c.R, 0xff})
		}
	}
	return p
}
