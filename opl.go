package vgm2ims

import (
	"errors"

	"github.com/sbsound/vgm2ims/internal/patchtable"
)

const numChannels = 9

const (
	opModulator = 0
	opCarrier   = 1
)

// operatorState shadows the per-operator register fields OPL2 keeps behind
// write-only hardware registers: am/vib/egt/ksr/mult from 0x20-0x35, ksl/
// level from 0x40-0x55, attack/decay from 0x60-0x75, sustain/release from
// 0x80-0x95, waveform from 0xE0-0xF5.
type operatorState struct {
	am, vib, egt, ksr bool
	mult              uint8
	ksl               uint8
	level             uint8
	attack            uint8
	decay             uint8
	sustain           uint8
	release           uint8
	waveform          uint8
}

// channelState shadows one of the 9 melodic channels: its frequency number
// and block from 0xA0-0xA8/0xB0-0xB8, key-on latch from 0xB0-0xB8, and
// feedback/connection from 0xC0-0xC8.
type channelState struct {
	fnum       uint16
	block      uint8
	keyOn      bool
	feedback   uint8
	connection uint8 // 0 = FM, 1 = additive
	operators  [2]operatorState
}

func newChannelState() channelState {
	return channelState{operators: [2]operatorState{{level: 0x3F}, {level: 0x3F}}}
}

// freqNums holds the nominal F-Num for each of the 12 chromatic notes
// within a block, sampled at a reference block so pitchFromChannel can
// recover a note by nearest-neighbor search.
var freqNums = [12]int{343, 363, 385, 408, 432, 458, 485, 514, 544, 577, 611, 647}

type slotMapping struct {
	channel   int
	isCarrier bool
}

// slotTable maps one of OPL2's 32 per-channel-group register offsets to the
// melodic channel and operator role it addresses. Only 18 of the 32 offsets
// are wired to real slots; the rest are left as channel -1 and silently
// ignored, matching real OPL2 hardware.
var slotTable = buildSlotTable()

func buildSlotTable() [32]slotMapping {
	var t [32]slotMapping
	for i := range t {
		t[i] = slotMapping{channel: -1}
	}
	for group, base := range [3]int{0, 8, 16} {
		for i := 0; i < 3; i++ {
			ch := group*3 + i
			t[base+i] = slotMapping{channel: ch, isCarrier: false}
			t[base+3+i] = slotMapping{channel: ch, isCarrier: true}
		}
	}
	return t
}

// EventKind distinguishes the two event shapes OPLTracker emits from
// key-on/key-off transitions.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
)

// OPLEvent is emitted by OPLTracker.WriteRegister on a key-on or key-off
// transition. InstrumentIndex is only meaningful for NoteOn; Convert
// compares it against the channel's last-used instrument to decide whether
// an instrument-change event needs to precede the note.
type OPLEvent struct {
	Kind            EventKind
	Channel         int
	Note            int
	Volume          int
	InstrumentIndex uint16
}

// OPLTracker replays a YM3812 register write stream and reconstructs the
// note-level events hidden behind it, the way player.go's channel state
// machine replays MOD/S3M effects into audible channel parameters.
type OPLTracker struct {
	channels   [numChannels]channelState
	percussion bool
	patches    *patchtable.Table
}

// NewOPLTracker returns a tracker with all channels in their post-reset
// state (silent, operator levels at minimum output).
func NewOPLTracker() *OPLTracker {
	t := &OPLTracker{patches: patchtable.New()}
	for i := range t.channels {
		t.channels[i] = newChannelState()
	}
	return t
}

// PercussionMode reports whether the most recent write to register 0xBD set
// the rhythm-mode bit.
func (t *OPLTracker) PercussionMode() bool { return t.percussion }

// Instruments returns the patches interned so far, in id order.
func (t *OPLTracker) Instruments() []patchtable.Instrument { return t.patches.All() }

// WriteRegister applies one YM3812 register write to the shadow state and
// returns the note event it produced, if any. Writes to registers outside
// the documented ranges are silently ignored, matching real OPL2 behavior.
func (t *OPLTracker) WriteRegister(reg, val byte) (*OPLEvent, error) {
	switch {
	case reg == 0xBD:
		t.percussion = val&0x20 != 0
		return nil, nil

	case reg >= 0x20 && reg <= 0x35:
		t.withOperator(int(reg-0x20), func(op *operatorState) {
			op.am = val&0x80 != 0
			op.vib = val&0x40 != 0
			op.egt = val&0x20 != 0
			op.ksr = val&0x10 != 0
			op.mult = val & 0x0F
		})
		return nil, nil

	case reg >= 0x40 && reg <= 0x55:
		t.withOperator(int(reg-0x40), func(op *operatorState) {
			op.ksl = (val >> 6) & 0x03
			op.level = val & 0x3F
		})
		return nil, nil

	case reg >= 0x60 && reg <= 0x75:
		t.withOperator(int(reg-0x60), func(op *operatorState) {
			op.attack = (val >> 4) & 0x0F
			op.decay = val & 0x0F
		})
		return nil, nil

	case reg >= 0x80 && reg <= 0x95:
		t.withOperator(int(reg-0x80), func(op *operatorState) {
			op.sustain = (val >> 4) & 0x0F
			op.release = val & 0x0F
		})
		return nil, nil

	case reg >= 0xE0 && reg <= 0xF5:
		t.withOperator(int(reg-0xE0), func(op *operatorState) {
			op.waveform = val & 0x03
		})
		return nil, nil

	case reg >= 0xA0 && reg <= 0xA8:
		ch := int(reg - 0xA0)
		t.channels[ch].fnum = (t.channels[ch].fnum &^ 0x00FF) | uint16(val)
		return nil, nil

	case reg >= 0xB0 && reg <= 0xB8:
		return t.writeKeyOnBlock(int(reg-0xB0), val)

	case reg >= 0xC0 && reg <= 0xC8:
		ch := int(reg - 0xC0)
		t.channels[ch].feedback = (val >> 1) & 0x07
		t.channels[ch].connection = val & 0x01
		return nil, nil

	default:
		return nil, nil
	}
}

func (t *OPLTracker) withOperator(slot int, fn func(*operatorState)) {
	m := slotTable[slot&0x1F]
	if m.channel < 0 {
		return
	}
	op := opModulator
	if m.isCarrier {
		op = opCarrier
	}
	fn(&t.channels[m.channel].operators[op])
}

func (t *OPLTracker) writeKeyOnBlock(ch int, val byte) (*OPLEvent, error) {
	c := &t.channels[ch]
	wasOn := c.keyOn

	c.fnum = (c.fnum & 0x00FF) | (uint16(val&0x03) << 8)
	c.block = (val >> 2) & 0x07
	c.keyOn = val&0x20 != 0

	switch {
	case !wasOn && c.keyOn:
		id, err := t.patches.Intern(buildPatchParams(c))
		if err != nil {
			if errors.Is(err, patchtable.ErrOverflow) {
				return nil, ErrInstrumentOverflow
			}
			return nil, err
		}
		return &OPLEvent{Kind: NoteOn, Channel: ch, Note: pitchFromChannel(c), Volume: 127, InstrumentIndex: id}, nil

	case wasOn && !c.keyOn:
		return &OPLEvent{Kind: NoteOff, Channel: ch, Note: pitchFromChannel(c), Volume: 0}, nil

	default:
		return nil, nil
	}
}

// pitchFromChannel reconstructs a note number from a channel's block and
// F-Num by finding the chromatic index whose nominal F-Num is nearest,
// then combining it with the block the way the OPL2 octave/block scheme
// does: note = block*12 + chromaticIndex, offset by 12 to land in the IMS
// note numbering this repo's downstream consumers expect.
func pitchFromChannel(c *channelState) int {
	return int(c.block)*12 + nearestFreqIndex(c.fnum) + 12
}

func nearestFreqIndex(fnum uint16) int {
	best := 0
	bestDiff := absInt(int(fnum) - freqNums[0])
	for i := 1; i < len(freqNums); i++ {
		d := absInt(int(fnum) - freqNums[i])
		if d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return best
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// buildPatchParams packs a channel's two operators and shared feedback/
// connection bits into the 28-byte vector the BNK format stores per
// instrument, in the fixed field order the patch layout specifies.
func buildPatchParams(c *channelState) [28]byte {
	op0, op1 := c.operators[opModulator], c.operators[opCarrier]
	var p [28]byte

	p[0] = op0.ksl
	p[1] = op0.mult
	p[2] = c.feedback
	p[3] = op0.attack
	p[4] = op0.sustain
	p[5] = boolByte(op0.egt)
	p[6] = op0.decay
	p[7] = op0.release
	p[8] = op0.level
	p[9] = boolByte(op0.am)
	p[10] = boolByte(op0.vib)
	p[11] = boolByte(op0.ksr)
	p[12] = 1 - c.connection

	p[13] = op1.ksl
	p[14] = op1.mult
	p[15] = 0
	p[16] = op1.attack
	p[17] = op1.sustain
	p[18] = boolByte(op1.egt)
	p[19] = op1.decay
	p[20] = op1.release
	p[21] = op1.level
	p[22] = boolByte(op1.am)
	p[23] = boolByte(op1.vib)
	p[24] = boolByte(op1.ksr)
	p[25] = 0

	p[26] = op0.waveform
	p[27] = op1.waveform

	return p
}
