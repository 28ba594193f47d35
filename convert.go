package vgm2ims

import "math"

const samplesPerSecond = 44100

// Options binds the CLI's --tempo and --name flags through to the
// encoders. Name is ASCII, truncated/NUL-padded to 30 bytes by the IMS
// header; no transliteration of non-ASCII titles is attempted.
type Options struct {
	Tempo int
	Name  string
}

// Stats summarizes a completed conversion for the CLI's success report.
type Stats struct {
	InstrumentCount int
	EventCount      int
}

// Result is everything Convert produces: the encoded IMS and BNK payloads
// plus a few counts worth reporting to the user.
type Result struct {
	IMS   []byte
	BNK   []byte
	Stats Stats
}

// Convert runs the full C2->C3->C4/C5 pipeline: parse the VGM command
// stream, replay it through an OPL2 tracker to recover notes and
// instruments, then encode the resulting event list as an IMS stream and
// the interned patches as a BNK bank.
func Convert(vgmBytes []byte, opts Options) (*Result, error) {
	parsed, err := ParseVGM(vgmBytes)
	if err != nil {
		return nil, err
	}

	tempo := opts.Tempo
	if tempo <= 0 {
		tempo = 120
	}

	tracker := NewOPLTracker()
	var events []imsEvent
	var order uint32
	var currentSample uint64

	channelInstrument := [numChannels]int{}
	for i := range channelInstrument {
		channelInstrument[i] = -1
	}

	emit := func(typ byte, channel int, data []byte, tick uint32) {
		events = append(events, imsEvent{Type: typ, Channel: channel, Data: data, AbsTick: tick, Order: order})
		order++
	}

commands:
	for _, cmd := range parsed.Commands {
		switch cmd.Kind {
		case CmdWait:
			currentSample = cmd.AbsSample

		case CmdEnd:
			break commands

		case CmdWrite:
			ev, err := tracker.WriteRegister(cmd.Register, cmd.Value)
			if err != nil {
				return nil, err
			}
			if ev == nil {
				continue
			}

			tick := samplesToTicks(currentSample, tempo)

			if ev.Kind == NoteOn && channelInstrument[ev.Channel] != int(ev.InstrumentIndex) {
				emit(evtInstrument, ev.Channel, []byte{byte(ev.InstrumentIndex)}, tick)
				channelInstrument[ev.Channel] = int(ev.InstrumentIndex)
			}
			emit(evtNoteOnCond, ev.Channel, []byte{byte(ev.Note), byte(ev.Volume)}, tick)
		}
	}

	instruments := tracker.Instruments()
	names := make([]string, len(instruments))
	for i, ins := range instruments {
		names[i] = ins.Name
	}

	dMode := byte(0)
	if tracker.PercussionMode() {
		dMode = 1
	}

	imsBytes, err := encodeIMS(events, opts.Name, tempo, dMode, names)
	if err != nil {
		return nil, err
	}

	bnkBytes, err := encodeBNK(instruments)
	if err != nil {
		return nil, err
	}

	return &Result{
		IMS: imsBytes,
		BNK: bnkBytes,
		Stats: Stats{
			InstrumentCount: len(instruments),
			EventCount:      len(events),
		},
	}, nil
}

// samplesToTicks converts a sample-clock position to an IMS tick count at
// the given tempo: 240 ticks per beat at tempo beats per minute, i.e.
// 4*tempo ticks per second of the 44100Hz sample clock.
func samplesToTicks(sample uint64, tempo int) uint32 {
	return uint32(math.Round(float64(sample) * 4 * float64(tempo) / samplesPerSecond))
}
