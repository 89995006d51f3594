package dcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func xorOf(data []byte) byte {
	var x byte
	for _, d := range data {
		x ^= d
	}
	return x
}

func TestIdlePacket(t *testing.T) {
	p := new(Packet).Idle()
	assert.Equal(t, 3, p.Size())
	assert.True(t, p.IsIdle())
	assert.Equal(t, byte(AddressIdle), p.Data[0])
	assert.Equal(t, xorOf(p.Data[:2]), p.Data[2])
}

func TestSpeed28ShortAddress(t *testing.T) {
	p := new(Packet).MFAddressShort(3).Speed28(true, 20)
	assert.Equal(t, 3, p.Size())
	assert.True(t, p.IsAddressShort())
	assert.Equal(t, byte(RepeatSpeed), p.Repeat())
	assert.Equal(t, xorOf(p.Data[:2]), p.Data[2])
	assert.Equal(t, KindSpeed28, Classify(p))
}

func TestSpeed28StopUsesStopRepeat(t *testing.T) {
	p := new(Packet).MFAddressShort(3).Speed28(true, 0)
	assert.Equal(t, byte(RepeatStop), p.Repeat())
}

func TestSpeed28LongAddress(t *testing.T) {
	p := new(Packet).MFAddressLong(1234).Speed28(false, 10)
	assert.Equal(t, 4, p.Size())
	assert.False(t, p.IsAddressShort())
	assert.Equal(t, xorOf(p.Data[:3]), p.Data[3])
}

func TestSpeed128(t *testing.T) {
	p := new(Packet).MFAddressShort(5).Speed128(true, 90)
	assert.Equal(t, 4, p.Size())
	assert.Equal(t, byte(MFKind8Speed128), p.Data[1])
	assert.Equal(t, byte(MFSpeed128Forward|90), p.Data[2])
	assert.Equal(t, KindSpeed128, Classify(p))
}

func TestFunctionGroups(t *testing.T) {
	p := new(Packet).MFAddressShort(5).FunctionF0_F4(true, false, true, false, true)
	assert.Equal(t, KindF0F4, Classify(p))
	assert.Equal(t, byte(MFKind3F0F4|MFFunctionF0|MFFunctionF2|MFFunctionF4), p.Data[1])

	p2 := new(Packet).MFAddressShort(5).FunctionF5_F8(true, true, false, false)
	assert.Equal(t, KindF5F8, Classify(p2))

	p3 := new(Packet).MFAddressShort(5).FunctionF9_F12(false, false, true, true)
	assert.Equal(t, KindF9F12, Classify(p3))

	// F13-F20/F21-F28 are never classified by the state keeper's Classify
	// (extractStateKind has no case for them either); merge.go's filterKind
	// is the one that recognizes them, for merge purposes only.
	p4 := new(Packet).MFAddressShort(5).FunctionF13_F20(true, false, false, false, false, false, false, true)
	assert.Equal(t, KindUnknown, Classify(p4))

	p5 := new(Packet).MFAddressShort(5).FunctionF21_F28(false, true, false, false, false, false, false, false)
	assert.Equal(t, KindUnknown, Classify(p5))
}

func TestBasicAccessory(t *testing.T) {
	p := new(Packet).BAAddress(40, 2, 1).Activate(true)
	assert.True(t, p.IsBasicAccessory())
	assert.Equal(t, KindBAOutput, Classify(p))
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, xorOf(p.Data[:2]), p.Data[2])
}

func TestBasicAccessoryBroadcast(t *testing.T) {
	p := new(Packet).BABroadcast(1, 1).Activate(false)
	assert.True(t, p.IsBroadcast())
	assert.True(t, p.IsBasicAccessory())
}

func TestExtendedAccessory(t *testing.T) {
	p := new(Packet).EAAddress(100).State(5)
	assert.True(t, p.IsExtendedAccessory())
	assert.Equal(t, KindEAOutput, Classify(p))
	assert.Equal(t, 4, p.Size())
	assert.Equal(t, xorOf(p.Data[:3]), p.Data[3])
}

func TestDecrementRepeatFloorsAtZero(t *testing.T) {
	p := new(Packet).MFAddressShort(3).Speed28(true, 0)
	n := int(p.Repeat()) + 3
	for i := 0; i < n; i++ {
		p.DecrementRepeat()
	}
	assert.Equal(t, byte(0), p.Repeat())
}

func TestHasAcknowledge(t *testing.T) {
	p := new(Packet).Idle()
	assert.False(t, p.HasAcknowledge())

	p.Info = (p.Info &^ InfoAckMask) | InfoAck1Byte
	assert.True(t, p.HasAcknowledge())
	assert.True(t, p.IsAcknowledgeShort())
}
