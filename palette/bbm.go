package palette

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/iff"
)

const (
	bbmType  = "PBM "
	cmapID   = "CMAP"
	crngID   = "CRNG"
	crngSize = 8
)

const (
	animActive = 1 << iota
	animReverse
)

// Anim is a color cycling range as stored in a CRNG chunk.
type Anim struct {
	Rate        uint16
	Flags       uint16
	First, Last uint8

	pad uint16
}

// Active reports whether the range cycles at all.
func (a Anim) Active() bool {
	return a.Flags&animActive != 0
}

// MoveUp reports whether colors move towards higher indices.
func (a Anim) MoveUp() bool {
	return a.Flags&animReverse == 0
}

// Apply returns a copy of p with the range rotated by one step. Inactive or
// empty ranges return an unmodified copy.
func (a Anim) Apply(p *Palette) *Palette {
	dup := p.Clone()
	if !a.Active() || a.First >= a.Last {
		return dup
	}

	r := dup.colors[a.First : int(a.Last)+1]
	if a.MoveUp() {
		last := r[len(r)-1]
		copy(r[1:], r[:len(r)-1])
		r[0] = last
	} else {
		first := r[0]
		copy(r, r[1:])
		r[len(r)-1] = first
	}
	return dup
}

// MarshalBinary encodes a as a CRNG chunk body.
func (a Anim) MarshalBinary() ([]byte, error) {
	b := make([]byte, crngSize)
	binary.BigEndian.PutUint16(b[0:], a.pad)
	binary.BigEndian.PutUint16(b[2:], a.Rate)
	binary.BigEndian.PutUint16(b[4:], a.Flags)
	b[6], b[7] = a.First, a.Last
	return b, nil
}

// UnmarshalBinary decodes a CRNG chunk body.
func (a *Anim) UnmarshalBinary(b []byte) error {
	if len(b) < crngSize {
		return fmt.Errorf("palette: color range: %w", errkind.ErrUnexpectedEOF)
	}
	a.pad = binary.BigEndian.Uint16(b[0:])
	a.Rate = binary.BigEndian.Uint16(b[2:])
	a.Flags = binary.BigEndian.Uint16(b[4:])
	a.First, a.Last = b[6], b[7]
	return nil
}

// BBM is the content of a BBM file: one palette per CMAP chunk and one
// animation per CRNG chunk. Any other chunks are ignored.
type BBM struct {
	Palettes []*Palette
	Anims    []Anim
}

// DecodeBBM reads a BBM file from r.
func DecodeBBM(r io.Reader) (*BBM, error) {
	form, err := iff.ReadChunk(r)
	if err != nil {
		if err == io.EOF {
			err = errkind.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("palette: bbm: %w", err)
	}
	if form.ID != iff.Form {
		return nil, fmt.Errorf("palette: bbm: %q: %w", form.ID, errkind.ErrWrongHeader)
	}
	typ, chunks, err := form.Group()
	if err != nil {
		return nil, fmt.Errorf("palette: bbm: %w", err)
	}
	if typ != bbmType {
		return nil, fmt.Errorf("palette: bbm: form type %q: %w", typ, errkind.ErrWrongHeader)
	}

	bbm := new(BBM)
	for _, c := range chunks {
		switch c.ID {
		case cmapID:
			if len(c.Data) != rawSize {
				return nil, fmt.Errorf("palette: bbm: CMAP of %d bytes: %w", len(c.Data), errkind.ErrWrongFormat)
			}
			p := new(Palette)
			if err := p.UnmarshalBinary(c.Data); err != nil {
				return nil, err
			}
			bbm.Palettes = append(bbm.Palettes, p)
		case crngID:
			var a Anim
			if err := a.UnmarshalBinary(c.Data); err != nil {
				return nil, err
			}
			bbm.Anims = append(bbm.Anims, a)
		}
	}

	if len(bbm.Palettes) == 0 {
		return nil, fmt.Errorf("palette: bbm: no CMAP chunk: %w", errkind.ErrNotFound)
	}

	return bbm, nil
}

// Encode writes bbm to w, palettes first followed by any animations.
func (bbm *BBM) Encode(w io.Writer) error {
	chunks := make([]iff.Chunk, 0, len(bbm.Palettes)+len(bbm.Anims))
	for _, p := range bbm.Palettes {
		b, _ := p.MarshalBinary()
		chunks = append(chunks, iff.Chunk{ID: cmapID, Data: b})
	}
	for _, a := range bbm.Anims {
		b, _ := a.MarshalBinary()
		chunks = append(chunks, iff.Chunk{ID: crngID, Data: b})
	}

	form, err := iff.NewGroup(iff.Form, bbmType, chunks...)
	if err != nil {
		return err
	}

	b := new(bytes.Buffer)
	if err := iff.WriteChunk(b, form); err != nil {
		return err
	}
	_, err = w.Write(b.Bytes())
	return err
}

// WriteBBM writes a single palette as a BBM file.
func (p *Palette) WriteBBM(w io.Writer) error {
	bbm := BBM{Palettes: []*Palette{p}}
	return bbm.Encode(w)
}
