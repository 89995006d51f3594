package dcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceSameKindPacketSpeed28(t *testing.T) {
	q := &Queue{}
	queued := new(Packet).MFAddressShort(3).Speed28(true, 5)
	q.PushBack(queued)

	incoming := new(Packet).MFAddressShort(3).Speed28(false, 20)
	changed := q.ReplaceSameKindPacket(incoming, false)

	assert.True(t, changed)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, incoming.Data[1], queued.Data[1])
}

func TestReplaceSameKindPacketDifferentAddressNoMerge(t *testing.T) {
	q := &Queue{}
	queued := new(Packet).MFAddressShort(3).Speed28(true, 5)
	q.PushBack(queued)

	incoming := new(Packet).MFAddressShort(9).Speed28(false, 20)
	changed := q.ReplaceSameKindPacket(incoming, false)

	assert.False(t, changed)
	assert.Equal(t, 1, q.Len())
}

func TestReplaceSameKindPacketBroadcastAccessoryTolerant(t *testing.T) {
	q := &Queue{}
	queued := new(Packet).BABroadcast(1, 0).Activate(true)
	q.PushBack(queued)

	incoming := new(Packet).BABroadcast(1, 1).Activate(false)
	changed := q.ReplaceSameKindPacket(incoming, false)

	assert.True(t, changed)
	assert.Equal(t, incoming.Data[1]&^byte(BAAddressMask2), queued.Data[1]&^byte(BAAddressMask2))
}

func TestReplaceSameKindPacketResetRepeat(t *testing.T) {
	q := &Queue{}
	queued := new(Packet).MFAddressShort(3).FunctionF0_F4(true, false, false, false, false)
	q.PushBack(queued)

	incoming := new(Packet).MFAddressShort(3).FunctionF0_F4(false, true, false, false, false)
	changed := q.ReplaceSameKindPacket(incoming, true)

	assert.True(t, changed)
	assert.Equal(t, byte(0), queued.Repeat())
}

func TestReplaceSameKindPacketIdempotent(t *testing.T) {
	q := &Queue{}
	queued := new(Packet).MFAddressShort(3).Speed28(true, 5)
	q.PushBack(queued)

	incoming := new(Packet).MFAddressShort(3).Speed28(false, 20)
	q.ReplaceSameKindPacket(incoming, true)
	after1 := *queued

	changed := q.ReplaceSameKindPacket(incoming, true)

	assert.True(t, changed)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, after1, *queued)
}
