package dcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHex(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseHex("00FF00")
	assert.NoError(t, err)
	assert.Equal(t, byte(0xFF), p.Data[0])
	assert.Equal(t, byte(0xFF), p.Data[2]) // XOR of data[0] and data[1]
}

func TestParseHexRejectsBadDigit(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseHex("ZZ")
	assert.Error(t, err)
}

func TestParseTextShortAddressSpeed(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("m3f20")
	assert.NoError(t, err)
	assert.Equal(t, byte(3), p.Data[0])
	assert.Equal(t, KindSpeed28, Classify(p))
}

func TestParseTextLongAddressAdvancedSpeed(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("M1000F90")
	assert.NoError(t, err)
	assert.False(t, p.IsAddressShort())
	assert.Equal(t, KindSpeed128, Classify(p))
}

func TestParseTextFunctionGroupOne(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("m3A10101")
	assert.NoError(t, err)
	assert.Equal(t, KindF0F4, Classify(p))
}

func TestParseTextBasicAccessory(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("B40P2O1A")
	assert.NoError(t, err)
	assert.True(t, p.IsBasicAccessory())
}

func TestParseTextBasicAccessoryBroadcast(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("BP0O0D")
	assert.NoError(t, err)
	assert.True(t, p.IsBroadcast())
}

func TestParseTextExtendedAccessory(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("E100S5")
	assert.NoError(t, err)
	assert.True(t, p.IsExtendedAccessory())
}

func TestParseTextRejectsUnknownSigil(t *testing.T) {
	p := new(Packet)
	_, err := p.ParseText("Zgarbage")
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	originals := []*Packet{
		new(Packet).Idle(),
		new(Packet).MFAddressShort(3).Speed28(true, 20),
		new(Packet).MFAddressLong(1234).Speed128(false, 90),
		new(Packet).BAAddress(40, 2, 1).Activate(true),
		new(Packet).EAAddress(100).State(5),
	}

	for _, want := range originals {
		got := new(Packet)
		_, err := got.ParseHex(want.EncodeHex())
		assert.NoError(t, err)
		assert.Equal(t, want.Info, got.Info)
		assert.Equal(t, want.Data, got.Data)
	}
}
