/*
Package palette implements the 256 color palettes used by every paletted
asset.

A palette has exactly 256 entries and one transparent index. When a palette
is loaded the transparent index is resolved by looking for the reserved
Transparent color; if the palette doesn't contain it index 0 is used.

Palettes are stored on disk either as 768 raw bytes of RGB triples (ACT) or
wrapped in an IFF "PBM " form (BBM) which may also contain color cycling
ranges.
*/
package palette

import (
	"fmt"
	"image/color"
	"io"

	"github.com/bodgit/siedler2/errkind"
)

// Size is the number of entries in a palette.
const Size = 256

// rawSize is the size of a palette in ACT form.
const rawSize = Size * 3

// Color is a single opaque palette entry.
type Color struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

// FromColor converts any color.Color, ignoring alpha.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B}
}

var (
	// Transparent marks the transparent entry of a palette.
	Transparent = Color{0xff, 0x00, 0x8f}
	// White is the color used to draw shadows.
	White = Color{0xff, 0xff, 0xff}
)

// Palette is a fixed table of 256 colors with one transparent index.
type Palette struct {
	colors      [Size]Color
	transparent uint8
}

// New returns an all-black palette with index 0 transparent.
func New() *Palette {
	return new(Palette)
}

// NewFromColors returns a palette initialized from colors; missing entries
// are black. The transparent index is resolved from the result.
func NewFromColors(colors []Color) *Palette {
	p := new(Palette)
	copy(p.colors[:], colors)
	p.ResolveTransparent()
	return p
}

// Color returns the entry at i.
func (p *Palette) Color(i uint8) Color {
	return p.colors[i]
}

// At returns the entry at i, failing if i is outside 0..255.
func (p *Palette) At(i int) (Color, error) {
	if i < 0 || i >= Size {
		return Color{}, fmt.Errorf("palette: index %d: %w", i, errkind.ErrOutOfRange)
	}
	return p.colors[i], nil
}

// Set replaces the entry at i.
func (p *Palette) Set(i uint8, c Color) {
	p.colors[i] = c
}

// SetAt replaces the entry at i, failing if i is outside 0..255.
func (p *Palette) SetAt(i int, c Color) error {
	if i < 0 || i >= Size {
		return fmt.Errorf("palette: index %d: %w", i, errkind.ErrOutOfRange)
	}
	p.colors[i] = c
	return nil
}

// Colors returns a copy of all entries.
func (p *Palette) Colors() []Color {
	c := make([]Color, Size)
	copy(c, p.colors[:])
	return c
}

// Lookup returns the first index holding exactly c.
func (p *Palette) Lookup(c Color) (uint8, error) {
	for i, e := range p.colors {
		if e == c {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("palette: color #%02x%02x%02x: %w", c.R, c.G, c.B, errkind.ErrNotFound)
}

// LookupOrDefault is Lookup returning def instead of failing.
func (p *Palette) LookupOrDefault(c Color, def uint8) uint8 {
	if i, err := p.Lookup(c); err == nil {
		return i
	}
	return def
}

// Contains reports whether c is present in p.
func (p *Palette) Contains(c Color) bool {
	_, err := p.Lookup(c)
	return err == nil
}

// Equal compares the entries of two palettes by value.
func (p *Palette) Equal(o *Palette) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.colors == o.colors
}

// TransparentIndex returns the index treated as transparent.
func (p *Palette) TransparentIndex() uint8 {
	return p.transparent
}

// SetTransparentIndex overrides the transparent index.
func (p *Palette) SetTransparentIndex(i uint8) {
	p.transparent = i
}

// ResolveTransparent sets the transparent index to the first entry holding
// the Transparent color, or 0 if there is none.
func (p *Palette) ResolveTransparent() {
	p.transparent = p.LookupOrDefault(Transparent, 0)
}

// Clone returns an independent copy of p.
func (p *Palette) Clone() *Palette {
	if p == nil {
		return nil
	}
	dup := *p
	return &dup
}

// ColorPalette returns p as a color.Palette where the transparent index is
// fully transparent.
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, Size)
	for i, c := range p.colors {
		if uint8(i) == p.transparent {
			cp[i] = color.NRGBA{}
			continue
		}
		cp[i] = color.NRGBA{c.R, c.G, c.B, 0xff}
	}
	return cp
}

// MarshalBinary encodes p as 768 bytes of RGB triples.
func (p *Palette) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, rawSize)
	for _, c := range p.colors {
		b = append(b, c.R, c.G, c.B)
	}
	return b, nil
}

// UnmarshalBinary decodes 768 bytes of RGB triples and resolves the
// transparent index.
func (p *Palette) UnmarshalBinary(b []byte) error {
	if len(b) < rawSize {
		return fmt.Errorf("palette: %d bytes: %w", len(b), errkind.ErrUnexpectedEOF)
	}
	for i := range p.colors {
		p.colors[i] = Color{b[i*3], b[i*3+1], b[i*3+2]}
	}
	p.ResolveTransparent()
	return nil
}

// ReadACT reads a headerless palette of 768 bytes from r.
func ReadACT(r io.Reader) (*Palette, error) {
	b := make([]byte, rawSize)
	if err := errkind.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	p := new(Palette)
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteACT writes p to w as 768 bytes.
func (p *Palette) WriteACT(w io.Writer) error {
	b, _ := p.MarshalBinary()
	_, err := w.Write(b)
	return err
}
