package vgm2ims

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/sbsound/vgm2ims/internal/patchtable"
)

const bnkSignature = "ADLIB-"

// encodeBNK lays out a fixed header, a case-insensitive-sorted 12-byte
// directory, and one 30-byte patch record per instrument, in the layout a
// reader binary-searches by name.
func encodeBNK(instruments []patchtable.Instrument) ([]byte, error) {
	n := len(instruments)
	if n > 0xFFFF {
		return nil, ErrInstrumentOverflow
	}

	type dirEntry struct {
		insIndex uint16
		name     string
	}

	entries := make([]dirEntry, n)
	used := make(map[string]bool, n)
	for i, ins := range instruments {
		name := ins.Name
		for suffix := 1; used[strings.ToLower(name)]; suffix++ {
			suffixStr := strconv.Itoa(suffix)
			maxBase := 8 - len(suffixStr)
			if maxBase < 1 {
				return nil, ErrNameCollision
			}
			base := ins.Name
			if len(base) > maxBase {
				base = base[:maxBase]
			}
			name = base + suffixStr
		}
		used[strings.ToLower(name)] = true
		entries[i] = dirEntry{insIndex: ins.ID, name: name}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})

	insListOff := uint32(20)
	insDataOff := insListOff + uint32(12*n)
	out := make([]byte, int(insDataOff)+30*n)

	binary.LittleEndian.PutUint16(out[0:2], 1)
	copy(out[2:8], []byte(bnkSignature))
	binary.LittleEndian.PutUint16(out[8:10], uint16(n))
	binary.LittleEndian.PutUint32(out[12:16], insListOff)
	binary.LittleEndian.PutUint32(out[16:20], insDataOff)

	for i, e := range entries {
		off := int(insListOff) + i*12
		binary.LittleEndian.PutUint16(out[off:off+2], e.insIndex)
		out[off+2] = 0x01
		writeFixedString(out[off+3:off+12], e.name)
	}

	for _, ins := range instruments {
		off := int(insDataOff) + int(ins.ID)*30
		out[off] = 0
		out[off+1] = byte(ins.ID)
		copy(out[off+2:off+30], ins.Params[:])
	}

	return out, nil
}
