/*
Package bitmap implements the four on-disk bitmap encodings and the
compositing rules used to draw them.

Every bitmap shares the same data: dimensions, an origin offset, a pixel
buffer in either Paletted or BGRA format and, for paletted data, the palette
it refers to. The Kind selects the codec:

	Raw     width*height palette indices
	RLE     per row runs of opaque indices and transparent pixels
	Shadow  as RLE but opaque runs carry no data and draw a shadow
	Player  command coded rows with an extra player color plane

Transparency is the palette's transparent index for Paletted data and a zero
alpha for BGRA data. Drawing never touches a destination pixel where the
source is transparent.
*/
package bitmap

import (
	"fmt"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
)

// Kind selects the on-disk encoding of a bitmap.
type Kind int

// The supported encodings.
const (
	Raw Kind = iota
	RLE
	Shadow
	Player
)

func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case RLE:
		return "rle"
	case Shadow:
		return "shadow"
	case Player:
		return "player"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	// NoPlayer marks a pixel of the player plane that isn't player colored.
	NoPlayer = 0xff
	// PlayerColors is the number of consecutive palette entries used for
	// one player color.
	PlayerColors = 4
	// DefaultPlayerColorStart is the palette index of the first player color
	// stored in the pixel buffer of a loaded player bitmap.
	DefaultPlayerColorStart = 128
)

// ShadowBGRA is the color of a shadow pixel in BGRA format.
var ShadowBGRA = ColorBGRA{0x00, 0x00, 0x00, 0x40}

// Bitmap is a single image together with its origin offset.
type Bitmap struct {
	Kind Kind

	// NX and NY position the image relative to its anchor point
	NX, NY int16

	// Palette is required for Paletted bitmaps and optional otherwise
	Palette *palette.Palette

	buf PixelBuffer

	// Parallel to buf for Player bitmaps, one byte per pixel
	player []byte

	// Unknown header bytes, kept so a write reproduces what was read
	reserved [10]byte
}

// New returns a transparent bitmap. Paletted bitmaps require pal, a copy of
// which is attached to the result; BGRA bitmaps attach pal if it is non-nil.
func New(kind Kind, width, height int, format Format, pal *palette.Palette) (*Bitmap, error) {
	if width < 0 || height < 0 || width > 0xffff || height > 0xffff {
		return nil, fmt.Errorf("bitmap: size %dx%d: %w", width, height, errkind.ErrOutOfRange)
	}
	if format == Paletted && pal == nil {
		return nil, fmt.Errorf("bitmap: new: %w", errkind.ErrPaletteMissing)
	}

	b := &Bitmap{
		Kind:    kind,
		Palette: pal.Clone(),
	}
	b.reset(width, height, format)
	return b, nil
}

// reset reallocates the pixel buffer and player plane as fully transparent.
// A Paletted bitmap must have its palette set beforehand.
func (b *Bitmap) reset(width, height int, format Format) {
	b.buf = *NewPixelBuffer(width, height, format)
	if format == Paletted {
		b.buf.fill(b.Palette.TransparentIndex())
	}
	b.player = nil
	if b.Kind == Player {
		b.player = make([]byte, width*height)
		for i := range b.player {
			b.player[i] = NoPlayer
		}
	}
}

// Width returns the width in pixels.
func (b *Bitmap) Width() int { return b.buf.width }

// Height returns the height in pixels.
func (b *Bitmap) Height() int { return b.buf.height }

// Format returns the pixel format.
func (b *Bitmap) Format() Format { return b.buf.format }

// Buffer returns the pixel buffer owned by b.
func (b *Bitmap) Buffer() *PixelBuffer { return &b.buf }

// PlayerPlane returns the player plane, nil unless b is a Player bitmap.
// Each byte is NoPlayer or an offset below PlayerColors.
func (b *Bitmap) PlayerPlane() []byte { return b.player }

// Clone returns a deep copy of b.
func (b *Bitmap) Clone() *Bitmap {
	dup := *b
	dup.Palette = b.Palette.Clone()
	dup.buf = b.buf.clone()
	if b.player != nil {
		dup.player = append([]byte(nil), b.player...)
	}
	return &dup
}

func (b *Bitmap) resolvePalette(pal *palette.Palette) (*palette.Palette, error) {
	if pal != nil {
		return pal, nil
	}
	if b.Palette != nil {
		return b.Palette, nil
	}
	return nil, fmt.Errorf("bitmap: %s: %w", b.Kind, errkind.ErrPaletteMissing)
}

// shadowIndex is the index drawn for shadow pixels: white, or the first
// entry that isn't transparent when white is missing or is itself the
// transparent index.
func shadowIndex(pal *palette.Palette) uint8 {
	t := pal.TransparentIndex()
	if i, err := pal.Lookup(palette.White); err == nil && i != t {
		return i
	}
	if t == 0 {
		return 1
	}
	return 0
}

// toBGRA converts a single paletted pixel.
func (b *Bitmap) toBGRA(i uint8, pal *palette.Palette) ColorBGRA {
	switch {
	case i == pal.TransparentIndex():
		return ColorBGRA{}
	case b.Kind == Shadow:
		return ShadowBGRA
	default:
		return opaque(pal.Color(i))
	}
}

// toIndex converts a single BGRA pixel.
func (b *Bitmap) toIndex(c ColorBGRA, pal *palette.Palette) (uint8, error) {
	switch {
	case c.IsTransparent():
		return pal.TransparentIndex(), nil
	case b.Kind == Shadow:
		return shadowIndex(pal), nil
	}
	i, err := pal.Lookup(c.RGB())
	if err != nil {
		return 0, fmt.Errorf("bitmap: color #%02x%02x%02x not in palette: %w", c.R, c.G, c.B, errkind.ErrUnsupportedFormat)
	}
	return i, nil
}

// ConvertFormat converts the pixel buffer to format in place. pal overrides
// the attached palette if non-nil. Converting to BGRA maps the transparent
// index to zero alpha. Converting to Paletted requires every opaque color to
// be present in the palette, which is then attached to b.
func (b *Bitmap) ConvertFormat(format Format, pal *palette.Palette) error {
	if format == b.buf.format {
		if format == Paletted && pal != nil {
			b.Palette = pal.Clone()
		}
		return nil
	}
	pal, err := b.resolvePalette(pal)
	if err != nil {
		return err
	}

	out := NewPixelBuffer(b.buf.width, b.buf.height, format)
	for y := 0; y < b.buf.height; y++ {
		for x := 0; x < b.buf.width; x++ {
			switch format {
			case BGRA:
				out.SetBGRA(x, y, b.toBGRA(b.buf.Index(x, y), pal))
			case Paletted:
				i, err := b.toIndex(b.buf.BGRA(x, y), pal)
				if err != nil {
					return err
				}
				out.SetIndex(x, y, i)
			default:
				return fmt.Errorf("bitmap: convert to %s: %w", format, errkind.ErrUnsupportedFormat)
			}
		}
	}

	b.buf = *out
	if b.Palette == nil || format == Paletted {
		b.Palette = pal.Clone()
	}
	return nil
}

// Create replaces the content of b with a copy of src converted to the
// current format of b. pal is attached to b if non-nil and is required when
// either format is Paletted. For Player bitmaps, pixels whose index lies in
// the range starting at DefaultPlayerColorStart become player colored.
func (b *Bitmap) Create(src *PixelBuffer, pal *palette.Palette) error {
	return b.CreatePlayer(src, pal, DefaultPlayerColorStart)
}

// CreatePlayer is Create with an explicit player color range start. It is
// only different from Create for Player bitmaps.
func (b *Bitmap) CreatePlayer(src *PixelBuffer, pal *palette.Palette, plClrStart uint8) error {
	if err := src.valid(); err != nil {
		return err
	}
	if pal != nil {
		b.Palette = pal.Clone()
	}
	format := b.buf.format
	if (format == Paletted || src.format == Paletted || b.Kind == Player) && b.Palette == nil {
		return fmt.Errorf("bitmap: create: %w", errkind.ErrPaletteMissing)
	}
	pal = b.Palette

	b.reset(src.width, src.height, format)
	for y := 0; y < src.height; y++ {
		for x := 0; x < src.width; x++ {
			var (
				i     uint8
				c     ColorBGRA
				found = true
			)
			if src.format == Paletted {
				i = src.Index(x, y)
				c = b.toBGRA(i, pal)
			} else {
				c = src.BGRA(x, y)
				var err error
				switch {
				case format == Paletted:
					if i, err = b.toIndex(c, pal); err != nil {
						return err
					}
				case b.Kind == Player && !c.IsTransparent():
					i, err = pal.Lookup(c.RGB())
					found = err == nil
				}
			}

			if b.Kind == Player && found && !c.IsTransparent() && i >= plClrStart && int(i) < int(plClrStart)+PlayerColors {
				o := i - plClrStart
				b.player[y*src.width+x] = o
				i = DefaultPlayerColorStart + o
				c = opaque(pal.Color(i))
			}

			if format == Paletted {
				b.buf.SetIndex(x, y, i)
			} else {
				b.buf.SetBGRA(x, y, c)
			}
		}
	}
	return nil
}
