package dcc

// Kind classifies a packet by the instruction it carries. Classify is the
// state keeper's classifier, ported from the original library's
// extractStateKind; it additionally reports the two decoder-control reset
// kinds (KindResetSpeed, KindResetState) that merge.go's sibling classifier,
// filterKind (ported from extractFilterKind), deliberately never produces --
// a decoder-control reset is never a merge candidate.
type Kind int

const (
	KindUnknown Kind = iota
	KindSpeed28
	KindSpeed128
	KindF0F4
	KindF5F8
	KindF9F12
	KindF13F20
	KindF21F28
	KindBAOutput
	KindEAOutput
	KindResetSpeed
	KindResetState
)

func (k Kind) String() string {
	switch k {
	case KindSpeed28:
		return "SPEED_28"
	case KindSpeed128:
		return "SPEED_128"
	case KindF0F4:
		return "F0_F4"
	case KindF5F8:
		return "F5_F8"
	case KindF9F12:
		return "F9_F12"
	case KindF13F20:
		return "F13_F20"
	case KindF21F28:
		return "F21_F28"
	case KindBAOutput:
		return "BA_OUTPUT"
	case KindEAOutput:
		return "EA_OUTPUT"
	case KindResetSpeed:
		return "RESET_SPEED"
	case KindResetState:
		return "RESET_STATE"
	default:
		return "UNKNOWN"
	}
}

// Classify returns p's Kind. For multi-function packets it reads the
// instruction byte at the offset the address form puts it at (index 1 for
// short and broadcast addresses, index 2 for long addresses); accessory
// packets are classified from their address bytes alone.
func Classify(p *Packet) Kind {
	switch {
	case p.IsExtendedAccessory():
		return KindEAOutput
	case p.IsBasicAccessory():
		return KindBAOutput
	case p.IsMultiFunction():
		return classifyMF(p)
	default:
		return KindUnknown
	}
}

func classifyMF(p *Packet) Kind {
	idx := 1
	if !p.IsAddressShort() {
		idx = 2
	}
	command := p.Data[idx]

	switch command & MFKind2Mask {
	case MFKind3ReverseOperation, MFKind3ForwardOperation:
		return KindSpeed28
	}

	switch command & MFKind3Mask {
	case MFKind3Control:
		switch command & MFDecoderControlMask {
		case MFDecoderSoftReset:
			return KindResetSpeed
		case MFDecoderHardReset:
			return KindResetState
		}
		return KindUnknown
	case MFKind3AdvancedOperation:
		switch command & MFKind8Mask {
		case MFKind8Speed128:
			return KindSpeed128
		}
		return KindUnknown
	case MFKind3F0F4:
		return KindF0F4
	}

	switch command & MFKind4Mask {
	case MFKind4F5F8:
		return KindF5F8
	case MFKind4F9F12:
		return KindF9F12
	}

	// Feature-expansion F13-F20/F21-F28 instructions fall through to here
	// unclassified: extractStateKind never recognizes them either (the
	// state keeper has no slot fields for F13 and up), unlike filterKind in
	// merge.go, which does classify them for merge purposes.
	return KindUnknown
}
