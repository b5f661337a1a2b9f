package palette

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// Quantize builds a palette for m with a median cut quantizer. Index 0 is
// reserved for the Transparent color, leaving 255 entries for the image.
func Quantize(m image.Image) *Palette {
	q := quantize.MedianCutQuantizer{}
	cp := q.Quantize(make(color.Palette, 0, Size-1), m)

	p := new(Palette)
	p.colors[0] = Transparent
	for i, c := range cp {
		if i+1 >= Size {
			break
		}
		p.colors[i+1] = FromColor(c)
	}
	p.transparent = 0
	return p
}
