// Package imsread decodes IMS files back into events and metadata. It
// exists for round-trip testing and for cmd/vgmdump; the write side never
// imports it.
package imsread

import (
	"encoding/binary"
	"fmt"
)

const headerSize = 71

// Song is the decoded form of an IMS file's header and footer.
type Song struct {
	Name            string
	ByteSize        uint32
	DMode           byte
	BasicTempo      uint16
	MusicData       []byte
	InstrumentNames []string
}

func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Parse validates and decodes an IMS file's header, music-data region and
// instrument-name footer.
func Parse(data []byte) (*Song, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("imsread: truncated header")
	}

	song := &Song{
		Name:       trimNul(data[6:36]),
		ByteSize:   binary.LittleEndian.Uint32(data[42:46]),
		DMode:      data[58],
		BasicTempo: binary.LittleEndian.Uint16(data[60:62]),
	}

	start := headerSize
	end := start + int(song.ByteSize)
	if end > len(data) {
		return nil, fmt.Errorf("imsread: music-data region exceeds file length")
	}
	song.MusicData = data[start:end]

	pos := end + 1 // skip the footer separator byte
	if pos+2 > len(data) {
		return nil, fmt.Errorf("imsread: truncated instrument count")
	}
	insNum := binary.LittleEndian.Uint16(data[pos : pos+2])
	pos += 2

	song.InstrumentNames = make([]string, insNum)
	for i := 0; i < int(insNum); i++ {
		if pos+9 > len(data) {
			return nil, fmt.Errorf("imsread: truncated instrument name %d", i)
		}
		song.InstrumentNames[i] = trimNul(data[pos : pos+9])
		pos += 9
	}

	return song, nil
}

// Event is one decoded music-data event plus the tick delta that followed
// it in the stream.
type Event struct {
	Status     byte
	Data       []byte
	DeltaAfter uint32
}

func payloadLen(status byte) (int, error) {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xE0:
		return 2, nil
	case 0xA0, 0xC0:
		return 1, nil
	case 0xF0:
		return 5, nil
	default:
		return 0, fmt.Errorf("imsread: unknown status byte %#02x", status)
	}
}

func decodeDelta(b []byte) (uint32, int) {
	var chunks uint32
	i := 0
	for i < len(b) && b[i] == 0xF8 {
		chunks++
		i++
	}
	var extra uint32
	if i < len(b) && b[i] == 0xF7 {
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

// DecodeEvents decodes a music-data byte stream into its events using
// MIDI-style running status: a byte with the high bit set introduces a new
// status, otherwise the previous status carries forward.
func DecodeEvents(music []byte) ([]Event, error) {
	var events []Event
	pos := 0
	var status byte
	haveStatus := false

	for pos < len(music) {
		if music[pos] == 0xFC {
			break
		}

		var cur byte
		if music[pos]&0x80 != 0 {
			cur = music[pos]
			status = cur
			haveStatus = true
			pos++
		} else {
			if !haveStatus {
				return nil, fmt.Errorf("imsread: data byte with no running status")
			}
			cur = status
		}

		n, err := payloadLen(cur)
		if err != nil {
			return nil, err
		}
		if pos+n > len(music) {
			return nil, fmt.Errorf("imsread: truncated event payload")
		}
		data := append([]byte{}, music[pos:pos+n]...)
		pos += n

		delta, consumed := decodeDelta(music[pos:])
		pos += consumed

		events = append(events, Event{Status: cur, Data: data, DeltaAfter: delta})
	}

	return events, nil
}

// Pages splits a music-data region into the 32KiB chunks a paging reader
// would stream in one at a time.
func Pages(music []byte) [][]byte {
	const pageSize = 32 * 1024
	var pages [][]byte
	for off := 0; off < len(music); off += pageSize {
		end := off + pageSize
		if end > len(music) {
			end = len(music)
		}
		pages = append(pages, music[off:end])
	}
	return pages
}
