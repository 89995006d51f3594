package dcc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dccstation/store"
)

func TestStateKeeperSavesAndRefreshesSpeed(t *testing.T) {
	var mem store.Memory
	cfg := DefaultConfig
	sk := NewStateKeeper(&mem, cfg)

	p := new(Packet).MFAddressShort(12).Speed28(true, 20)
	sk.SaveState(p)

	q := &Queue{}
	fl := NewFreeList(cfg.QueueMaxCount)
	sk.ReadNextState(q, fl)

	assert.GreaterOrEqual(t, q.Len(), 1)
	first := q.PopFront()
	assert.Equal(t, byte(12), first.Data[0])
	assert.Equal(t, KindSpeed28, Classify(first))
}

func TestStateKeeperEvictsOldestOnOverflow(t *testing.T) {
	var mem store.Memory
	cfg := DefaultConfig
	cfg.StateMaxCount = 2
	sk := NewStateKeeper(&mem, cfg)

	sk.SaveState(new(Packet).MFAddressShort(1).Speed28(true, 5))
	sk.SaveState(new(Packet).MFAddressShort(2).Speed28(true, 5))
	sk.SaveState(new(Packet).MFAddressShort(3).Speed28(true, 5))

	assert.Equal(t, 2, sk.stateCount)
	// address 1 was the least recently touched, so its slot now holds 3.
	assert.Equal(t, byte(3), mem.Read(cfg.StateStoreAddr+2+slotAddress0))
	assert.Equal(t, byte(2), mem.Read(cfg.StateStoreAddr+2+stateSlotSize+slotAddress0))
}

func TestStateKeeperResetSpeed(t *testing.T) {
	var mem store.Memory
	cfg := DefaultConfig
	sk := NewStateKeeper(&mem, cfg)

	sk.SaveState(new(Packet).MFAddressShort(7).Speed28(true, 20))
	sk.ResetSpeed()

	q := &Queue{}
	fl := NewFreeList(cfg.QueueMaxCount)
	sk.ReadNextState(q, fl)
	first := q.PopFront()
	assert.Equal(t, byte(0), first.Data[1]&MFSpeed28Mask)
}

func TestStateKeeperIgnoresIdleAndBroadcastIsUnknownSkipped(t *testing.T) {
	var mem store.Memory
	sk := NewStateKeeper(&mem, DefaultConfig)
	sk.SaveState(new(Packet).Idle())
	assert.Equal(t, 0, sk.stateCount)

	sk.SaveState(new(Packet).MFBroadcast().mfCommand1(MFKind4CVLongAccess))
	assert.Equal(t, 0, sk.stateCount)
}
