package xmidi

import (
	"fmt"

	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/midi"
)

const (
	percussionChannel = 9
	channels          = 16
	defaultPan        = 64
	defaultTempo      = 500000 // microseconds per quarter note
)

const none = -1

// event is a node of the time ordered list built while parsing. next is the
// index of the following event in the arena or none.
type event struct {
	time   uint32
	status byte
	data   [2]byte
	buffer []byte
	next   int
}

func (e *event) isEndOfTrack() bool {
	return e.status == midi.Meta && e.data[0] == midi.MetaEndOfTrack
}

// eventList keeps events sorted by time in an arena. Events with equal times
// stay in insertion order.
type eventList struct {
	events []event
	head   int
	cursor int
}

func newEventList(capacity int) *eventList {
	return &eventList{
		events: make([]event, 0, capacity),
		head:   none,
		cursor: none,
	}
}

// insert adds e after the last event with a time not later than e.time. The
// search starts from the previous insertion point unless that is already
// past e.time.
func (l *eventList) insert(e event) int {
	i := len(l.events)
	e.next = none
	l.events = append(l.events, e)

	if l.head == none || l.events[l.head].time > e.time {
		l.events[i].next = l.head
		l.head = i
		l.cursor = i
		return i
	}

	if l.cursor == none || l.events[l.cursor].time > e.time {
		l.cursor = l.head
	}
	for n := l.events[l.cursor].next; n != none && l.events[n].time <= e.time; n = l.events[n].next {
		l.cursor = n
	}

	l.events[i].next = l.events[l.cursor].next
	l.events[l.cursor].next = i
	l.cursor = i
	return i
}

// firstState holds the index of the first patch change, volume and pan
// controller seen on every channel.
type firstState struct {
	patch, vol, pan [channels]int
}

func newFirstState() *firstState {
	fs := new(firstState)
	for i := 0; i < channels; i++ {
		fs.patch[i], fs.vol[i], fs.pan[i] = none, none, none
	}
	return fs
}

// Result is a converted track.
type Result struct {
	Track midi.Track

	// Channels has a bit set for every channel that plays at least one note
	Channels uint16

	// Bank127 has a bit set for every channel whose last bank select chose
	// bank 127
	Bank127 uint16
}

type converter struct {
	list     *eventList
	fs       *firstState
	channels uint16
	bank127  uint16
}

// Convert transcodes the event stream of t into a Standard MIDI track at
// Division ticks per quarter note.
//
// Note durations become explicit note off events, volumes and velocities
// are remapped through the volume curve, and every channel that plays notes
// and changes patch starts with its bank, volume, pan and patch at time
// zero, followed by a fixed tempo.
func Convert(t *Track) (*Result, error) {
	c := &converter{
		list: newEventList(len(t.Events)),
		fs:   newFirstState(),
	}
	if err := c.parse(t.Events); err != nil {
		return nil, err
	}
	return &Result{
		Track:    c.serialize(),
		Channels: c.channels,
		Bank127:  c.bank127,
	}, nil
}

// readDelta sums delay bytes up to the next byte with the high bit set,
// which is left unread.
func readDelta(b []byte, pos int) (uint32, int) {
	var d uint32
	for pos < len(b) && b[pos]&0x80 == 0 {
		d += uint32(b[pos])
		pos++
	}
	return d, pos
}

func need(b []byte, pos, n int, what string) error {
	if pos+n > len(b) {
		return fmt.Errorf("xmidi: %s at %d: %w", what, pos, errkind.ErrUnexpectedEOF)
	}
	return nil
}

func (c *converter) parse(b []byte) error {
	var time uint32
	for pos := 0; pos < len(b); {
		delta, next := readDelta(b, pos)
		time += delta
		pos = next
		if pos == len(b) {
			return fmt.Errorf("xmidi: delay of %d without event: %w", delta, errkind.ErrUnexpectedEOF)
		}

		status := b[pos]
		pos++
		ch := int(status & 0x0f)

		var err error
		switch status & 0xf0 {
		case midi.NoteOn:
			pos, err = c.noteOn(b, pos, time, status)
		case midi.NoteOff, midi.KeyPressure, midi.PitchBend:
			if err = need(b, pos, 2, "event data"); err == nil {
				c.list.insert(event{time: time, status: status, data: [2]byte{b[pos], b[pos+1]}})
				pos += 2
			}
		case midi.Controller:
			if err = need(b, pos, 2, "controller"); err == nil {
				c.controller(time, status, b[pos], b[pos+1])
				pos += 2
			}
		case midi.ProgramChange:
			if err = need(b, pos, 1, "patch change"); err == nil {
				if ch != percussionChannel {
					i := c.list.insert(event{time: time, status: status, data: [2]byte{b[pos]}})
					if c.fs.patch[ch] == none {
						c.fs.patch[ch] = i
					}
				}
				pos++
			}
		case midi.ChannelPressure:
			if err = need(b, pos, 1, "channel pressure"); err == nil {
				c.list.insert(event{time: time, status: status, data: [2]byte{b[pos]}})
				pos++
			}
		default:
			var eot bool
			if pos, eot, err = c.system(b, pos, time, status); err == nil && eot {
				return nil
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) noteOn(b []byte, pos int, time uint32, status byte) (int, error) {
	if err := need(b, pos, 2, "note"); err != nil {
		return 0, err
	}
	note, velocity := b[pos], b[pos+1]
	pos += 2

	duration, n, err := midi.ReadVLQ(b[pos:])
	if err != nil {
		return 0, fmt.Errorf("xmidi: note duration at %d: %w", pos, err)
	}
	pos += n

	c.list.insert(event{time: time, status: status, data: [2]byte{note, Volume(velocity)}})

	// The note off usually lands well ahead, don't let it drag the
	// insertion point with it
	cursor := c.list.cursor
	c.list.insert(event{time: time + duration, status: status, data: [2]byte{note, 0}})
	c.list.cursor = cursor

	c.channels |= 1 << (status & 0x0f)
	return pos, nil
}

func (c *converter) controller(time uint32, status, number, value byte) {
	ch := int(status & 0x0f)
	switch number {
	case midi.ControllerBank:
		if value == 0 {
			c.bank127 &^= 1 << ch
			return
		}
		if value == 127 {
			c.bank127 |= 1 << ch
		}
	case midi.ControllerVolume:
		value = Volume(value)
	}

	i := c.list.insert(event{time: time, status: status, data: [2]byte{number, value}})
	switch number {
	case midi.ControllerVolume:
		if c.fs.vol[ch] == none {
			c.fs.vol[ch] = i
		}
	case midi.ControllerPan:
		if c.fs.pan[ch] == none {
			c.fs.pan[ch] = i
		}
	}
}

// system handles meta and system exclusive events and reports whether the
// end of track was reached.
func (c *converter) system(b []byte, pos int, time uint32, status byte) (int, bool, error) {
	e := event{time: time, status: status}
	switch status {
	case midi.Meta:
		if err := need(b, pos, 1, "meta type"); err != nil {
			return 0, false, err
		}
		e.data[0] = b[pos]
		pos++
	case midi.SysEx, midi.SysExEscape:
	default:
		return 0, false, fmt.Errorf("xmidi: status %#02x at %d: %w", status, pos-1, errkind.ErrWrongFormat)
	}

	length, n, err := midi.ReadVLQ(b[pos:])
	if err != nil {
		return 0, false, fmt.Errorf("xmidi: event length at %d: %w", pos, err)
	}
	pos += n
	if err := need(b, pos, int(length), "event payload"); err != nil {
		return 0, false, err
	}
	e.buffer = b[pos : pos+int(length)]
	pos += int(length)

	c.list.insert(e)
	return pos, e.isEndOfTrack(), nil
}

// serialize writes the first state of every channel that plays notes, the
// tempo and then every parsed event up to the end of track.
func (c *converter) serialize() midi.Track {
	tb := midi.NewBuilder()
	events := c.list.events

	for ch := 0; ch < channels; ch++ {
		if c.channels&(1<<ch) == 0 || c.fs.patch[ch] == none {
			continue
		}

		vol := Volume(defaultVolume)
		if i := c.fs.vol[ch]; i != none {
			vol = events[i].data[1]
		}
		pan := byte(defaultPan)
		if i := c.fs.pan[ch]; i != none {
			pan = events[i].data[1]
		}

		tb.Channel(0, midi.Controller|byte(ch), midi.ControllerBank, 0)
		tb.Channel(0, midi.Controller|byte(ch), midi.ControllerVolume, vol)
		tb.Channel(0, midi.Controller|byte(ch), midi.ControllerPan, pan)
		tb.Channel(0, midi.ProgramChange|byte(ch), events[c.fs.patch[ch]].data[0])
	}
	tb.Tempo(0, defaultTempo)

	var end uint32
	for i := c.list.head; i != none; i = events[i].next {
		e := &events[i]
		if e.isEndOfTrack() {
			end = e.time
			break
		}
		switch {
		case e.status == midi.Meta:
			tb.Meta(e.time, e.data[0], e.buffer)
		case e.status >= midi.SysEx:
			tb.SysEx(e.time, e.status, e.buffer)
		default:
			tb.Channel(e.time, e.status, e.data[:]...)
		}
	}
	return tb.End(end)
}
