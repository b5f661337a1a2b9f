package xmidi

import "math"

// gamma of the curve mapping XMIDI volumes and velocities onto General MIDI.
const gamma = 1.25

// defaultVolume is the XMIDI volume a channel starts with.
const defaultVolume = 90

// volumeCurve maps a 7-bit XMIDI volume or velocity to its MIDI equivalent.
var volumeCurve [128]byte

func init() {
	for i := range volumeCurve {
		volumeCurve[i] = byte(math.Round(math.Pow(float64(i)/127, 1/gamma) * 127))
	}
}

// Volume returns v passed through the volume curve used by Convert.
func Volume(v byte) byte {
	return volumeCurve[v&0x7f]
}
