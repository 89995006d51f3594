package dcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDecoderControlResets(t *testing.T) {
	soft := new(Packet).MFAddressShort(3)
	soft.mfCommand1(MFKind4DecoderControl | MFDecoderSoftReset)
	assert.Equal(t, KindResetSpeed, Classify(soft))

	hard := new(Packet).MFAddressShort(3)
	hard.mfCommand1(MFKind4DecoderControl | MFDecoderHardReset)
	assert.Equal(t, KindResetState, Classify(hard))
}

func TestClassifyUnknownForUnrecognizedInstruction(t *testing.T) {
	p := new(Packet).MFAddressShort(3)
	p.mfCommand1(MFKind4CVLongAccess | 0x00)
	assert.Equal(t, KindUnknown, Classify(p))
}

func TestClassifyAccessoryKinds(t *testing.T) {
	ba := new(Packet).BAAddress(10, 0, 0).Activate(true)
	assert.Equal(t, KindBAOutput, Classify(ba))

	ea := new(Packet).EAAddress(10).State(2)
	assert.Equal(t, KindEAOutput, Classify(ea))
}

func TestClassifyIdleIsUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(new(Packet).Idle()))
}
