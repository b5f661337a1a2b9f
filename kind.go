package siedler2

import "fmt"

// Kind identifies the concrete type of an Item.
type Kind int

// The item kinds. Bob, Map, MapHeader and Ini items are provided by external
// packages through a Registry.
const (
	KindNone Kind = iota
	KindSound
	KindBitmapRLE
	KindFont
	KindBitmapPlayer
	KindPalette
	KindBob
	KindBitmapShadow
	KindMap
	KindText
	KindRaw
	KindMapHeader
	KindIni
	KindBitmap
	KindPaletteAnim
	KindUnset
)

var kindNames = map[Kind]string{
	KindNone:         "none",
	KindSound:        "sound",
	KindBitmapRLE:    "bitmap-rle",
	KindFont:         "font",
	KindBitmapPlayer: "bitmap-player",
	KindPalette:      "palette",
	KindBob:          "bob",
	KindBitmapShadow: "bitmap-shadow",
	KindMap:          "map",
	KindText:         "text",
	KindRaw:          "raw",
	KindMapHeader:    "map-header",
	KindIni:          "ini",
	KindBitmap:       "bitmap",
	KindPaletteAnim:  "palette-anim",
	KindUnset:        "unset",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// SoundKind identifies the encoding of a Sound item.
type SoundKind int

// The sound encodings.
const (
	SoundNone SoundKind = iota
	SoundWave
	SoundMidi
	SoundXMidi
	SoundMP3
	SoundOGG
	SoundOther
)

var soundNames = map[SoundKind]string{
	SoundNone:  "none",
	SoundWave:  "wave",
	SoundMidi:  "midi",
	SoundXMidi: "xmidi",
	SoundMP3:   "mp3",
	SoundOGG:   "ogg",
	SoundOther: "other",
}

func (k SoundKind) String() string {
	if s, ok := soundNames[k]; ok {
		return s
	}
	return fmt.Sprintf("SoundKind(%d)", int(k))
}
