package xmidi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/iff"
	"github.com/bodgit/siedler2/midi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeCurve(t *testing.T) {
	tables := []struct {
		in, out byte
	}{
		{0, 0},
		{1, 3},
		{64, 73},
		{90, 96},
		{100, 105},
		{127, 127},
	}
	for _, table := range tables {
		assert.Equal(t, table.out, Volume(table.in))
	}

	for i := 1; i < 128; i++ {
		assert.GreaterOrEqual(t, volumeCurve[i], volumeCurve[i-1])
	}
}

// scenario is a patch change followed by a single note of 480 ticks.
var scenario = []byte{
	0xc0, 0x05,
	0x90, 0x3c, 0x64, 0x83, 0x60,
	0x7f, 0x7f, 0x7f, 0x63,
	0xff, 0x2f, 0x00,
}

func TestConvertScenario(t *testing.T) {
	r, err := Convert(&Track{Events: scenario})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0001), r.Channels)
	assert.Equal(t, uint16(0), r.Bank127)

	body := []byte{
		0x00, 0xb0, 0x00, 0x00,
		0x00, 0x07, 0x60,
		0x00, 0x0a, 0x40,
		0x00, 0xc0, 0x05,
		0x00, 0xff, 0x51, 0x03, 0x07, 0xa1, 0x20,
		0x00, 0xc0, 0x05,
		0x00, 0x90, 0x3c, 0x69,
		0x83, 0x60, 0x3c, 0x00,
		0x00, 0xff, 0x2f, 0x00,
	}
	assert.Equal(t, midi.NewTrack(body), r.Track)

	events, err := r.Track.Events()
	require.NoError(t, err)
	require.Len(t, events, 9)
	assert.Equal(t, midi.Event{Status: 0xb0, Data: []byte{midi.ControllerBank, 0}}, events[0])
	assert.Equal(t, midi.Event{Status: 0xb0, Data: []byte{midi.ControllerVolume, Volume(defaultVolume)}}, events[1])
	assert.Equal(t, midi.Event{Status: 0xb0, Data: []byte{midi.ControllerPan, 64}}, events[2])
	assert.Equal(t, midi.Event{Status: 0xc0, Data: []byte{5}}, events[3])
	assert.Equal(t, midi.Event{Status: midi.Meta, Type: midi.MetaTempo, Data: []byte{0x07, 0xa1, 0x20}}, events[4])
	assert.Equal(t, midi.Event{Time: 0, Status: 0x90, Data: []byte{60, Volume(100)}}, events[6])
	assert.Equal(t, midi.Event{Time: 480, Status: 0x90, Data: []byte{60, 0}}, events[7])
	assert.True(t, events[8].IsEndOfTrack())
	assert.Equal(t, uint32(480), events[8].Time)
}

func TestConvertFirstState(t *testing.T) {
	events := []byte{
		0xb2, 0x07, 0x6e, // volume 110 on channel 2
		0xb2, 0x00, 0x00, // bank 0, dropped
		0xc2, 0x10,
		0xc9, 0x20, // percussion patch, dropped
		0xb2, 0x0a, 0x20,
		0x10,
		0xc2, 0x11, // second patch change
		0x92, 0x40, 0x40, 0x0a,
		0x99, 0x24, 0x7f, 0x05,
		0xc3, 0x01, // channel 3 never plays
		0xb1, 0x00, 0x7f, // bank 127 on channel 1
	}
	r, err := Convert(&Track{Events: events})
	require.NoError(t, err)
	assert.Equal(t, uint16(1<<2|1<<9), r.Channels)
	assert.Equal(t, uint16(1<<1), r.Bank127)

	out, err := r.Track.Events()
	require.NoError(t, err)

	// Only channel 2 has both notes and a patch; channel 9 lost its patch
	assert.Equal(t, []midi.Event{
		{Status: 0xb2, Data: []byte{midi.ControllerBank, 0}},
		{Status: 0xb2, Data: []byte{midi.ControllerVolume, Volume(110)}},
		{Status: 0xb2, Data: []byte{midi.ControllerPan, 0x20}},
		{Status: 0xc2, Data: []byte{0x10}},
		{Status: midi.Meta, Type: midi.MetaTempo, Data: []byte{0x07, 0xa1, 0x20}},
		{Status: 0xb2, Data: []byte{midi.ControllerVolume, Volume(110)}},
		{Status: 0xc2, Data: []byte{0x10}},
		{Status: 0xb2, Data: []byte{midi.ControllerPan, 0x20}},
		{Time: 16, Status: 0xc2, Data: []byte{0x11}},
		{Time: 16, Status: 0x92, Data: []byte{0x40, Volume(0x40)}},
		{Time: 16, Status: 0x99, Data: []byte{0x24, 0x7f}},
		{Time: 16, Status: 0xc3, Data: []byte{0x01}},
		{Time: 16, Status: 0xb1, Data: []byte{midi.ControllerBank, 0x7f}},
		{Time: 21, Status: 0x99, Data: []byte{0x24, 0}},
		{Time: 26, Status: 0x92, Data: []byte{0x40, 0}},
		{Time: 26, Status: midi.Meta, Type: midi.MetaEndOfTrack, Data: []byte{}},
	}, out)
}

func TestConvertOrdering(t *testing.T) {
	events := []byte{
		0x90, 0x30, 0x7f, 0x81, 0x00, // off at 128
		0x0a,
		0x90, 0x31, 0x7f, 0x00, // off at 10, straight after its on
		0x7f, 0x7f,
		0x90, 0x32, 0x7f, 0x0a, // on at 264, off at 274
		0x14,
		0xff, 0x01, 0x03, 'a', 'b', 'c',
	}
	r, err := Convert(&Track{Events: events})
	require.NoError(t, err)

	out, err := r.Track.Events()
	require.NoError(t, err)
	out = out[1:] // tempo only, no channel has a patch

	type note struct {
		time     uint32
		key, vel byte
	}
	var got []note
	for _, e := range out[:len(out)-2] {
		got = append(got, note{e.Time, e.Data[0], e.Data[1]})
	}
	v := Volume(0x7f)
	assert.Equal(t, []note{
		{0, 0x30, v},
		{10, 0x31, v},
		{10, 0x31, 0},
		{128, 0x30, 0},
		{264, 0x32, v},
		{274, 0x32, 0},
	}, got)

	// The text event at 284 follows the note off queued ahead of it
	text := out[len(out)-2]
	assert.Equal(t, midi.Event{Time: 284, Status: midi.Meta, Type: 0x01, Data: []byte("abc")}, text)

	// Without an end of track, one is added straight after the last event
	assert.True(t, out[len(out)-1].IsEndOfTrack())
	assert.Equal(t, uint32(284), out[len(out)-1].Time)
}

func TestEventList(t *testing.T) {
	l := newEventList(0)
	for _, time := range []uint32{5, 3, 5, 9, 1, 5, 9, 0} {
		l.insert(event{time: time})
	}

	var (
		times []uint32
		order []int
	)
	for i := l.head; i != none; i = l.events[i].next {
		times = append(times, l.events[i].time)
		order = append(order, i)
	}
	assert.Equal(t, []uint32{0, 1, 3, 5, 5, 5, 9, 9}, times)
	assert.Equal(t, []int{7, 4, 1, 0, 2, 5, 3, 6}, order)
}

func TestConvertErrors(t *testing.T) {
	tables := []struct {
		name   string
		events []byte
		err    error
	}{
		{"missing duration", []byte{0x90, 0x3c, 0x40}, errkind.ErrUnexpectedEOF},
		{"truncated duration", []byte{0x90, 0x3c, 0x40, 0x81}, errkind.ErrUnexpectedEOF},
		{"truncated controller", []byte{0xb0, 0x07}, errkind.ErrUnexpectedEOF},
		{"trailing delay", []byte{0xc0, 0x01, 0x10}, errkind.ErrUnexpectedEOF},
		{"truncated meta", []byte{0xff, 0x01, 0x05, 'a'}, errkind.ErrUnexpectedEOF},
		{"bad system status", []byte{0xf3, 0x00}, errkind.ErrWrongFormat},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Convert(&Track{Events: table.events})
			assert.True(t, errors.Is(err, table.err), err)
		})
	}
}

func TestConvertEmpty(t *testing.T) {
	r, err := Convert(&Track{})
	require.NoError(t, err)
	assert.Equal(t, midi.NewTrack([]byte{
		0x00, 0xff, 0x51, 0x03, 0x07, 0xa1, 0x20,
		0x00, 0xff, 0x2f, 0x00,
	}), r.Track)
}

func TestFileRoundTrip(t *testing.T) {
	single := &File{Tracks: []*Track{{
		Timbres: []Timbre{{Patch: 5, Bank: 0}, {Patch: 10, Bank: 1}},
		Events:  scenario,
	}}}

	b := new(bytes.Buffer)
	require.NoError(t, single.Encode(b))
	assert.Equal(t, "FORM", b.String()[:4])
	assert.Equal(t, "XMID", b.String()[8:12])

	f, err := Decode(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, single, f)

	multi := &File{Directory: true, Tracks: []*Track{
		{Events: scenario},
		{Timbres: []Timbre{{Patch: 1}}, Events: []byte{0xff, 0x2f, 0x00}},
	}}
	b.Reset()
	require.NoError(t, multi.Encode(b))
	assert.Equal(t, "XDIR", b.String()[8:12])

	f, err = Decode(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, multi, f)

	m, err := f.MIDI()
	require.NoError(t, err)
	assert.Equal(t, uint16(Division), m.Division)
	assert.Equal(t, uint16(midi.MultiSequence), m.Format)
	assert.Len(t, m.Tracks, 2)

	dup := f.Clone()
	dup.Tracks[0].Events[0] = 0xc1
	assert.Equal(t, byte(0xc0), f.Tracks[0].Events[0])
}

func TestDecodeErrors(t *testing.T) {
	form := func(typ string, chunks ...iff.Chunk) []byte {
		c, err := iff.NewGroup(iff.Form, typ, chunks...)
		require.NoError(t, err)
		b := new(bytes.Buffer)
		require.NoError(t, iff.WriteChunk(b, c))
		return b.Bytes()
	}

	_, err := Decode(bytes.NewReader(form("AIFF")))
	assert.True(t, errors.Is(err, errkind.ErrWrongHeader))

	_, err = Decode(bytes.NewReader(form(typeXMID, iff.Chunk{ID: chunkTimb, Data: []byte{0x00, 0x00}})))
	assert.True(t, errors.Is(err, errkind.ErrWrongFormat))

	_, err = Decode(bytes.NewReader(form(typeXMID, iff.Chunk{ID: chunkTimb, Data: []byte{0x02, 0x00, 0x01}})))
	assert.True(t, errors.Is(err, errkind.ErrUnexpectedEOF))

	// Directory claims two tracks but none follow
	_, err = Decode(bytes.NewReader(form(typeXDIR, iff.Chunk{ID: chunkInfo, Data: []byte{0x02, 0x00}})))
	assert.True(t, errors.Is(err, errkind.ErrWrongFormat))

	_, err = Decode(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, errkind.ErrWrongHeader))
}
