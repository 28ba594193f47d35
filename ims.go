package vgm2ims

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// IMS event status nibbles, MIDI-like in spirit: the low nibble of the
// status byte carries the channel, the high nibble the event type.
const (
	evtNoteOnAlways = 0x80
	evtNoteOnCond   = 0x90
	evtVolume       = 0xA0
	evtInstrument   = 0xC0
	evtPitchBend    = 0xE0
	evtTempo        = 0xF0

	loopMarker = 0xFC
	chunkByte  = 0xF8
	escapeByte = 0xF7
)

// imsEvent is one pre-encoding event: an event type, target channel,
// fixed-size payload, and absolute tick position plus a stable tiebreaker
// for events that land on the same tick.
type imsEvent struct {
	Type    byte
	Channel int
	Data    []byte
	AbsTick uint32
	Order   uint32
}

// encodeDelta writes a tick delta using base-240 chunking: one 0xF8 byte
// per whole 240-tick chunk, followed by a single literal byte for the
// remainder. Because the remainder of a 240-chunk decomposition is always
// below the reserved byte range, the escape path exists purely as a
// defensive mirror of the decoder and never fires in practice; it is kept
// so encode/decode stay exact inverses of each other.
func encodeDelta(t uint32) []byte {
	chunks := t / 240
	remainder := t % 240

	out := make([]byte, 0, chunks+2)
	for i := uint32(0); i < chunks; i++ {
		out = append(out, chunkByte)
	}
	if remainder >= chunkByte && remainder <= 0xFB {
		out = append(out, escapeByte)
		remainder -= 247
	}
	out = append(out, byte(remainder))
	return out
}

// decodeDelta reads one encodeDelta-produced value starting at b[0] and
// reports how many bytes it consumed.
func decodeDelta(b []byte) (t uint32, consumed int) {
	var chunks uint32
	i := 0
	for i < len(b) && b[i] == chunkByte {
		chunks++
		i++
	}
	var extra uint32
	if i < len(b) && b[i] == escapeByte {
		extra = 247
		i++
	}
	var final uint32
	if i < len(b) {
		final = uint32(b[i])
		i++
	}
	return chunks*240 + extra + final, i
}

// encodeIMS sorts events by (AbsTick, Order), emits them with running-status
// compression and base-240 delta timing, and wraps the result in the fixed
// 71-byte header and instrument-name footer the IMS format specifies.
func encodeIMS(events []imsEvent, name string, tempo int, dMode byte, instrumentNames []string) ([]byte, error) {
	if len(instrumentNames) > 0xFFFF {
		return nil, ErrInstrumentOverflow
	}

	sorted := make([]imsEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AbsTick != sorted[j].AbsTick {
			return sorted[i].AbsTick < sorted[j].AbsTick
		}
		return sorted[i].Order < sorted[j].Order
	})

	var music bytes.Buffer
	var prevStatus byte
	havePrev := false
	for i, ev := range sorted {
		status := ev.Type | byte(ev.Channel)
		if !havePrev || status != prevStatus {
			music.WriteByte(status)
			prevStatus = status
			havePrev = true
		}
		music.Write(ev.Data)

		var delta uint32
		if i < len(sorted)-1 {
			delta = sorted[i+1].AbsTick - ev.AbsTick
		}
		music.Write(encodeDelta(delta))
	}
	music.WriteByte(loopMarker)

	byteSize := uint32(music.Len())

	out := make([]byte, 71)
	writeFixedString(out[6:36], name)
	binary.LittleEndian.PutUint32(out[42:46], byteSize)
	out[58] = dMode
	binary.LittleEndian.PutUint16(out[60:62], uint16(tempo))

	out = append(out, music.Bytes()...)
	out = append(out, 0) // footer separator

	insNumBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(insNumBuf, uint16(len(instrumentNames)))
	out = append(out, insNumBuf...)

	for _, nm := range instrumentNames {
		nameBuf := make([]byte, 9)
		writeFixedString(nameBuf, nm)
		out = append(out, nameBuf...)
	}

	return out, nil
}
