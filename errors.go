package vgm2ims

// ErrorKind classifies the failures the transcoder can produce, mirroring
// the sentinel-error pattern s3m.go uses for ErrInvalidS3M but generalized
// to carry a machine-checkable kind alongside the message.
type ErrorKind int

const (
	InvalidMagic ErrorKind = iota
	TruncatedInput
	UnknownDataBlock
	TempoOutOfRange
	InstrumentOverflow
	NameCollision
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidMagic:
		return "InvalidMagic"
	case TruncatedInput:
		return "TruncatedInput"
	case UnknownDataBlock:
		return "UnknownDataBlock"
	case TempoOutOfRange:
		return "TempoOutOfRange"
	case InstrumentOverflow:
		return "InstrumentOverflow"
	case NameCollision:
		return "NameCollision"
	default:
		return "Unknown"
	}
}

// VgmError is the error type returned, directly or wrapped, by every
// exported entry point in this package. Kind lets callers use errors.Is
// against the package-level sentinels below without parsing the message
// string.
type VgmError struct {
	Kind ErrorKind
	Msg  string
}

func (e *VgmError) Error() string { return e.Msg }

func (e *VgmError) Is(target error) bool {
	t, ok := target.(*VgmError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidMagic       = &VgmError{Kind: InvalidMagic, Msg: "vgm: not a VGM file (bad magic)"}
	ErrTruncatedInput     = &VgmError{Kind: TruncatedInput, Msg: "vgm: truncated command stream"}
	ErrUnknownDataBlock   = &VgmError{Kind: UnknownDataBlock, Msg: "vgm: unrecognized data block"}
	ErrTempoOutOfRange    = &VgmError{Kind: TempoOutOfRange, Msg: "vgm2ims: tempo out of range [1,255]"}
	ErrInstrumentOverflow = &VgmError{Kind: InstrumentOverflow, Msg: "opl: more than 65535 distinct instruments"}
	ErrNameCollision      = &VgmError{Kind: NameCollision, Msg: "bnk: could not form a unique 8-character instrument name"}
)
