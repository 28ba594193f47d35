package vgm2ims

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildVGM assembles a minimal-but-valid VGM byte stream: a 0x80-byte
// header (large enough to hold the YM3812 clock at 0x50; data starts
// immediately after it) followed by the given command bytes.
func buildVGM(clockHz uint32, commands []byte) []byte {
	buf := make([]byte, 0x80+len(commands))
	copy(buf[0:4], []byte("Vgm "))
	binary.LittleEndian.PutUint32(buf[0x08:0x0C], 0x171)     // version 1.71
	binary.LittleEndian.PutUint32(buf[0x34:0x38], 0x80-0x34) // relative data offset -> data starts at 0x80
	if clockHz != 0 {
		binary.LittleEndian.PutUint32(buf[0x50:0x54], clockHz)
	}
	copy(buf[0x80:], commands)
	return buf
}

func TestParseVGMRejectsBadMagic(t *testing.T) {
	_, err := ParseVGM([]byte("nope"))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestParseVGMRejectsTruncatedHeader(t *testing.T) {
	_, err := ParseVGM([]byte("Vgm \x00\x00\x00\x00"))
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestParseVGMHeaderFields(t *testing.T) {
	data := buildVGM(3579545, []byte{0x66})
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Header.YM3812Clock != 3579545 {
		t.Errorf("expected clock 3579545, got %d", parsed.Header.YM3812Clock)
	}
	if parsed.Header.DataStart != 0x80 {
		t.Errorf("expected data start 0x80, got %#x", parsed.Header.DataStart)
	}
}

func TestParseVGMWriteAndWait(t *testing.T) {
	commands := []byte{
		0x5A, 0xB0, 0x20, // write reg 0xB0, val 0x20
		0x61, 0x0A, 0x00, // wait 10 samples
		0x5A, 0xB0, 0x00, // write reg 0xB0, val 0x00
		0x66, // end
	}
	data := buildVGM(3579545, commands)
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Commands) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(parsed.Commands))
	}
	if parsed.Commands[0].Kind != CmdWrite || parsed.Commands[0].Register != 0xB0 || parsed.Commands[0].Value != 0x20 {
		t.Errorf("unexpected first command: %+v", parsed.Commands[0])
	}
	if parsed.Commands[1].Kind != CmdWait || parsed.Commands[1].AbsSample != 10 {
		t.Errorf("unexpected wait command: %+v", parsed.Commands[1])
	}
	if parsed.Commands[2].AbsSample != 10 {
		t.Errorf("expected write after wait to carry AbsSample 10, got %d", parsed.Commands[2].AbsSample)
	}
	if parsed.Commands[3].Kind != CmdEnd {
		t.Errorf("expected last command to be CmdEnd, got %+v", parsed.Commands[3])
	}
}

func TestParseVGMShortWaitOpcodes(t *testing.T) {
	// 0x7F means wait (0x0F)+1 = 16 samples.
	commands := []byte{0x7F, 0x66}
	data := buildVGM(3579545, commands)
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Commands[0].AbsSample != 16 {
		t.Errorf("expected 16 sample wait, got %d", parsed.Commands[0].AbsSample)
	}
}

func TestParseVGMSkipsOtherChipAndDataBlocks(t *testing.T) {
	commands := []byte{
		0x4F, 0x0F, // skip: game gear PSG stereo
		0x50, 0x0F, // skip: PSG write
		0x67, 0x66, 0x00, 0x02, 0x00, 0x00, 0x00, 0xAA, 0xBB, // data block of 2 bytes, skipped whole
		0x5A, 0xB0, 0x20, // a real write survives after the skips
		0x66,
	}
	data := buildVGM(3579545, commands)
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Commands) != 2 {
		t.Fatalf("expected 2 commands (write, end), got %d: %+v", len(parsed.Commands), parsed.Commands)
	}
	if parsed.Commands[0].Kind != CmdWrite || parsed.Commands[0].Register != 0xB0 {
		t.Errorf("expected the write to survive the skipped opcodes, got %+v", parsed.Commands[0])
	}
}

func TestParseVGMSkipsOpcode5B(t *testing.T) {
	// 0x5B is a YM3526 (OPL) write, not YM3812; spec.md §4.1 excludes only
	// 0x5A from the 0x51-0x5F skip bucket, so 0x5B must be skipped (2
	// bytes) rather than fed into the OPL2 tracker as a write.
	commands := []byte{
		0x5B, 0x01, 0x02, // skip: not a YM3812 write
		0x5A, 0xB0, 0x20, // a real write survives after the skip
		0x66,
	}
	data := buildVGM(3579545, commands)
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Commands) != 2 {
		t.Fatalf("expected 2 commands (write, end), got %d: %+v", len(parsed.Commands), parsed.Commands)
	}
	if parsed.Commands[0].Kind != CmdWrite || parsed.Commands[0].Register != 0xB0 || parsed.Commands[0].Value != 0x20 {
		t.Errorf("expected the 0x5A write to survive 0x5B being skipped, got %+v", parsed.Commands[0])
	}
}

func TestParseVGMOnlyE0ConsumesFourBytes(t *testing.T) {
	// Only 0xE0 itself is the documented 4-byte skip (seek) opcode; other
	// opcodes in 0xE1-0xFF with no documented meaning here fall through to
	// the zero-byte default case instead of being treated as 4-byte skips.
	commands := []byte{
		0xE0, 0x01, 0x02, 0x03, 0x04, // skip: 4-byte seek operand
		0xE1,             // unrecognized, consumes 0 operand bytes
		0x5A, 0xB0, 0x20, // a real write survives right after 0xE1
		0x66,
	}
	data := buildVGM(3579545, commands)
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Commands) != 2 {
		t.Fatalf("expected 2 commands (write, end), got %d: %+v", len(parsed.Commands), parsed.Commands)
	}
	if parsed.Commands[0].Kind != CmdWrite || parsed.Commands[0].Register != 0xB0 {
		t.Errorf("expected the write right after 0xE1 to survive, got %+v", parsed.Commands[0])
	}
}

func TestParseVGMImplicitEndOnExhaustion(t *testing.T) {
	data := buildVGM(3579545, []byte{0x5A, 0xB0, 0x20})
	parsed, err := ParseVGM(data)
	if err != nil {
		t.Fatal(err)
	}
	last := parsed.Commands[len(parsed.Commands)-1]
	if last.Kind != CmdEnd {
		t.Errorf("expected an implicit end command, got %+v", last)
	}
}

func TestParseVGMTruncatedWriteIsError(t *testing.T) {
	data := buildVGM(3579545, []byte{0x5A, 0xB0})
	_, err := ParseVGM(data)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestBuildVGMHelperMagic(t *testing.T) {
	data := buildVGM(1, []byte{0x66})
	if !bytes.Equal(data[0:4], []byte("Vgm ")) {
		t.Fatal("helper did not stamp the VGM magic correctly")
	}
}
