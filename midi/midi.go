/*
Package midi reads and writes Standard MIDI Files.

A Track is kept as its complete "MTrk" chunk, ready to be written out. Tracks
are built with a Builder, which handles delta times and running status, and
can be decoded back into absolute timed events for inspection.
*/
package midi

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/siedler2/errkind"
)

// Chunk identifiers.
const (
	HeaderID = "MThd"
	TrackID  = "MTrk"
)

const chunkHeaderSize = 8

// Status bytes, channel messages carry the channel in the low nibble.
const (
	NoteOff         = 0x80
	NoteOn          = 0x90
	KeyPressure     = 0xa0
	Controller      = 0xb0
	ProgramChange   = 0xc0
	ChannelPressure = 0xd0
	PitchBend       = 0xe0
	SysEx           = 0xf0
	SysExEscape     = 0xf7
	Meta            = 0xff
)

// Meta event types.
const (
	MetaEndOfTrack = 0x2f
	MetaTempo      = 0x51
)

// Controller numbers.
const (
	ControllerBank   = 0
	ControllerVolume = 7
	ControllerPan    = 10
)

// DataLen returns the number of data bytes that follow the channel message
// status.
func DataLen(status byte) int {
	switch status & 0xf0 {
	case ProgramChange, ChannelPressure:
		return 1
	default:
		return 2
	}
}

// Event is a single decoded track event at an absolute time in ticks. For
// meta events Type holds the meta type; Data is the payload for meta and
// system exclusive events and the data bytes otherwise.
type Event struct {
	Time   uint32
	Status byte
	Type   byte
	Data   []byte
}

// Channel returns the channel of a channel message.
func (e Event) Channel() int {
	return int(e.Status & 0x0f)
}

// IsEndOfTrack reports whether e is the end of track meta event.
func (e Event) IsEndOfTrack() bool {
	return e.Status == Meta && e.Type == MetaEndOfTrack
}

// Track is a complete "MTrk" chunk.
type Track []byte

// NewTrack wraps an event stream in a track chunk.
func NewTrack(events []byte) Track {
	t := make(Track, chunkHeaderSize, chunkHeaderSize+len(events))
	copy(t, TrackID)
	binary.BigEndian.PutUint32(t[4:], uint32(len(events)))
	return append(t, events...)
}

// Body returns the event stream after checking the chunk header.
func (t Track) Body() ([]byte, error) {
	if len(t) < chunkHeaderSize {
		return nil, fmt.Errorf("midi: track chunk: %w", errkind.ErrUnexpectedEOF)
	}
	if string(t[:4]) != TrackID {
		return nil, fmt.Errorf("midi: track chunk %q: %w", t[:4], errkind.ErrWrongHeader)
	}
	if n := binary.BigEndian.Uint32(t[4:]); int64(n) != int64(len(t)-chunkHeaderSize) {
		return nil, fmt.Errorf("midi: track length %d with %d bytes: %w", n, len(t)-chunkHeaderSize, errkind.ErrWrongFormat)
	}
	return t[chunkHeaderSize:], nil
}

// Events decodes every event of t up to and including the end of track.
func (t Track) Events() ([]Event, error) {
	b, err := t.Body()
	if err != nil {
		return nil, err
	}

	var (
		events  []Event
		time    uint32
		running byte
	)
	for pos := 0; pos < len(b); {
		delta, n, err := ReadVLQ(b[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		time += delta

		if pos >= len(b) {
			return nil, fmt.Errorf("midi: event status: %w", errkind.ErrUnexpectedEOF)
		}
		e := Event{Time: time, Status: b[pos]}
		if e.Status < 0x80 {
			if running == 0 {
				return nil, fmt.Errorf("midi: running status without status at %d: %w", pos, errkind.ErrWrongFormat)
			}
			e.Status = running
		} else {
			pos++
		}

		switch {
		case e.Status == Meta:
			if pos >= len(b) {
				return nil, fmt.Errorf("midi: meta type: %w", errkind.ErrUnexpectedEOF)
			}
			e.Type = b[pos]
			pos++
			fallthrough
		case e.Status == SysEx || e.Status == SysExEscape:
			length, n, err := ReadVLQ(b[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			if int64(pos)+int64(length) > int64(len(b)) {
				return nil, fmt.Errorf("midi: event payload of %d bytes: %w", length, errkind.ErrUnexpectedEOF)
			}
			e.Data = b[pos : pos+int(length)]
			pos += int(length)
			running = 0
		default:
			n := DataLen(e.Status)
			if pos+n > len(b) {
				return nil, fmt.Errorf("midi: event data: %w", errkind.ErrUnexpectedEOF)
			}
			e.Data = b[pos : pos+n]
			pos += n
			running = e.Status
		}

		events = append(events, e)
		if e.IsEndOfTrack() {
			break
		}
	}
	return events, nil
}

// Builder serializes events into a track. Events must be added in time
// order.
type Builder struct {
	buf    []byte
	time   uint32
	status byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		buf: make([]byte, chunkHeaderSize),
	}
}

func (tb *Builder) delta(time uint32) {
	var d uint32
	if time > tb.time {
		d = time - tb.time
		tb.time = time
	}
	tb.buf = AppendVLQ(tb.buf, d)
}

// writeStatus emits status unless running status allows it to be omitted.
// System and meta statuses are always emitted.
func (tb *Builder) writeStatus(status byte) {
	if status != tb.status || status >= SysEx {
		tb.buf = append(tb.buf, status)
	}
	tb.status = status
}

// Channel adds a channel message. Only as many data bytes as the status
// requires are written.
func (tb *Builder) Channel(time uint32, status byte, data ...byte) {
	tb.delta(time)
	tb.writeStatus(status)
	n := DataLen(status)
	for i := 0; i < n; i++ {
		var d byte
		if i < len(data) {
			d = data[i]
		}
		tb.buf = append(tb.buf, d&0x7f)
	}
}

// Meta adds a meta event.
func (tb *Builder) Meta(time uint32, typ byte, data []byte) {
	tb.delta(time)
	tb.writeStatus(Meta)
	tb.buf = append(tb.buf, typ)
	tb.buf = AppendVLQ(tb.buf, uint32(len(data)))
	tb.buf = append(tb.buf, data...)
}

// SysEx adds a system exclusive event with status SysEx or SysExEscape.
func (tb *Builder) SysEx(time uint32, status byte, data []byte) {
	tb.delta(time)
	tb.writeStatus(status)
	tb.buf = AppendVLQ(tb.buf, uint32(len(data)))
	tb.buf = append(tb.buf, data...)
}

// Tempo adds a set tempo meta event in microseconds per quarter note.
func (tb *Builder) Tempo(time uint32, usec uint32) {
	tb.Meta(time, MetaTempo, []byte{byte(usec >> 16), byte(usec >> 8), byte(usec)})
}

// Time returns the time of the last event added.
func (tb *Builder) Time() uint32 {
	return tb.time
}

// End adds the end of track event at time, or immediately after the last
// event if that is later, and returns the finished track. The Builder must
// not be used afterwards.
func (tb *Builder) End(time uint32) Track {
	tb.Meta(time, MetaEndOfTrack, nil)
	copy(tb.buf, TrackID)
	binary.BigEndian.PutUint32(tb.buf[4:], uint32(len(tb.buf)-chunkHeaderSize))
	return Track(tb.buf)
}
