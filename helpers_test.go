package vgm2ims

import (
	"testing"

	clone "github.com/huandu/go-clone/generic"
)

// testChannel is a canonical channelState fixture with a distinct value in
// every field, used as a starting point subtests can clone rather than
// share, the way the teacher's testSong fixture gets cloned per subtest to
// keep mutation from leaking across table-driven cases.
var testChannel = channelState{
	fnum:       512,
	block:      4,
	keyOn:      false,
	feedback:   5,
	connection: 1,
	operators: [2]operatorState{
		{am: true, vib: false, egt: true, ksr: false, mult: 3, ksl: 1, level: 20, attack: 10, decay: 4, sustain: 6, release: 2, waveform: 1},
		{am: false, vib: true, egt: false, ksr: true, mult: 7, ksl: 2, level: 40, attack: 12, decay: 8, sustain: 3, release: 5, waveform: 2},
	},
}

func cloneTestChannel() channelState {
	return clone.Clone(testChannel)
}

func validateOperator(t *testing.T, op operatorState, am, vib, egt, ksr bool, mult, ksl, level uint8) {
	t.Helper()
	if op.am != am || op.vib != vib || op.egt != egt || op.ksr != ksr {
		t.Errorf("flags mismatch: got am=%v vib=%v egt=%v ksr=%v", op.am, op.vib, op.egt, op.ksr)
	}
	if op.mult != mult {
		t.Errorf("mult: expected %d, got %d", mult, op.mult)
	}
	if op.ksl != ksl {
		t.Errorf("ksl: expected %d, got %d", ksl, op.ksl)
	}
	if op.level != level {
		t.Errorf("level: expected %d, got %d", level, op.level)
	}
}
