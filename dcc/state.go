package dcc

import "dccstation/store"

// State keeper slot layout: two header bytes (count, generation) followed by
// up to Config.StateMaxCount fixed 6-byte records, one per remembered
// decoder address. Offsets and bit assignments are ported from
// DccStateKeeper.cpp's EEPROM layout.
const (
	stateHeaderCount      = 0
	stateHeaderGeneration = 1
	stateSlotSize         = 6

	slotAddress0 = 0
	slotAddress1 = 1
	slotAccessed = 2
	slotSpeed    = 3
	slotInfo     = 4 // also doubles as the F0-F4 byte
	slotF5F12    = 5

	slotInfoSpeed128    = 0x80
	slotInfoActiveF5F8  = 0x40
	slotInfoActiveF9F12 = 0x20
	slotF0F4Mask        = 0x1F

	slotF5F8Mask  = 0xF0
	slotF5F8Shift = 4
	slotF9F12Mask = 0x0F
)

// StateKeeper remembers the last-known throttle state (speed, direction and
// function bits) for every multi-function decoder address the command
// station has addressed, so a newly (re)joined cab or a power-cycled layout
// can be brought back up to speed with a round-robin stream of refresh
// packets instead of waiting for the operator to resend everything.
//
// It is bounded: once Config.StateMaxCount addresses are in use, the
// least-recently-touched one is evicted in favor of a new address, using a
// modular "generation" counter so wraparound never misclassifies the
// oldest entry.
type StateKeeper struct {
	store store.NonVolatile
	cfg   Config

	stateCount int
	generation byte
	nextState  int
}

// NewStateKeeper wraps a NonVolatile store, loading (or initializing) its
// header bytes.
func NewStateKeeper(nv store.NonVolatile, cfg Config) *StateKeeper {
	sk := &StateKeeper{store: nv, cfg: cfg}
	sk.begin()
	return sk
}

func (sk *StateKeeper) begin() {
	sk.nextState = 0
	sk.stateCount = int(sk.store.Read(sk.cfg.StateStoreAddr + stateHeaderCount))
	sk.generation = sk.store.Read(sk.cfg.StateStoreAddr + stateHeaderGeneration)
	if sk.stateCount > sk.cfg.StateMaxCount || int(sk.generation) >= sk.cfg.StateMaxCount {
		sk.ResetAll()
	}
}

// ResetAll forgets every remembered address.
func (sk *StateKeeper) ResetAll() {
	sk.nextState = 0
	sk.stateCount = 0
	sk.generation = 0
	sk.store.Write(sk.cfg.StateStoreAddr+stateHeaderCount, 0)
	sk.store.Write(sk.cfg.StateStoreAddr+stateHeaderGeneration, 0)
}

// ResetSpeed zeros the remembered speed (but not function state) of every
// decoder, as triggered by a broadcast soft reset.
func (sk *StateKeeper) ResetSpeed() {
	sk.forEachSlot(func(addr uint16) { sk.resetSpeedAt(addr) })
}

func (sk *StateKeeper) forEachSlot(fn func(slotAddr uint16)) {
	base := sk.cfg.StateStoreAddr + 2
	for i := sk.stateCount - 1; i >= 0; i-- {
		fn(base + uint16(i)*stateSlotSize)
	}
}

// SaveState records the relevant throttle state from packet, if it carries
// any the keeper tracks. Idle and non-multi-function packets are ignored.
func (sk *StateKeeper) SaveState(packet *Packet) {
	if !packet.IsMultiFunction() || packet.IsIdle() {
		return
	}

	kind := Classify(packet)
	if kind == KindUnknown {
		return
	}

	if packet.IsMultiFunctionBroadcast() {
		sk.saveBroadcastState(kind, packet)
		return
	}

	addr := sk.findSlot(packet)
	sk.saveStateAt(addr, kind, packet)
	sk.updateAccess(addr)
}

func (sk *StateKeeper) saveBroadcastState(kind Kind, packet *Packet) {
	sk.forEachSlot(func(addr uint16) { sk.saveStateAt(addr, kind, packet) })
}

func (sk *StateKeeper) saveStateAt(addr uint16, kind Kind, packet *Packet) {
	switch kind {
	case KindSpeed28:
		sk.updateSpeed28(addr, packet)
	case KindSpeed128:
		sk.updateSpeed128(addr, packet)
	case KindF0F4:
		sk.updateF0F4(addr, packet)
	case KindF5F8:
		sk.updateF5F8(addr, packet)
	case KindF9F12:
		sk.updateF9F12(addr, packet)
	case KindResetSpeed:
		sk.resetSpeedAt(addr)
	case KindResetState:
		sk.resetStateAt(addr)
	}
}

func (sk *StateKeeper) instructionByte(p *Packet) byte {
	if p.IsAddressShort() {
		return p.Data[1]
	}
	return p.Data[2]
}

func (sk *StateKeeper) findSlot(packet *Packet) uint16 {
	address0 := packet.Data[0]
	var address1 byte
	if !packet.IsAddressShort() {
		address1 = packet.Data[1]
	}

	oldestAccess := int(sk.generation) + sk.cfg.StateMaxCount
	var oldestAddr uint16
	found := false

	base := sk.cfg.StateStoreAddr + 2
	for i := sk.stateCount - 1; i >= 0; i-- {
		addr := base + uint16(i)*stateSlotSize
		if sk.store.Read(addr+slotAddress0) == address0 && sk.store.Read(addr+slotAddress1) == address1 {
			return addr
		}
		access := int(sk.store.Read(addr + slotAccessed))
		if access <= int(sk.generation) {
			access += sk.cfg.StateMaxCount
		}
		if access <= oldestAccess {
			oldestAccess = access
			oldestAddr = addr
			found = true
		}
	}

	if sk.stateCount < sk.cfg.StateMaxCount {
		return sk.appendAddress(packet)
	}
	sk.resetAddress(oldestAddr, packet)
	if !found {
		// unreachable when StateMaxCount > 0, kept defensive for a zero config
		return base
	}
	return oldestAddr
}

func (sk *StateKeeper) appendAddress(packet *Packet) uint16 {
	addr := sk.cfg.StateStoreAddr + 2 + uint16(sk.stateCount)*stateSlotSize
	sk.resetAddress(addr, packet)

	sk.stateCount++
	sk.store.Write(sk.cfg.StateStoreAddr+stateHeaderCount, byte(sk.stateCount))
	return addr
}

func (sk *StateKeeper) resetAddress(addr uint16, packet *Packet) {
	sk.generation = byte((int(sk.generation) + 1) % sk.cfg.StateMaxCount)
	sk.store.Write(sk.cfg.StateStoreAddr+stateHeaderGeneration, sk.generation)

	sk.store.Write(addr+slotAddress0, packet.Data[0])
	if packet.IsAddressShort() {
		sk.store.Write(addr+slotAddress1, 0)
	} else {
		sk.store.Write(addr+slotAddress1, packet.Data[1])
	}
	sk.resetStateAt(addr)
}

func (sk *StateKeeper) updateAccess(addr uint16) {
	sk.store.Write(addr+slotAccessed, sk.generation)
}

func (sk *StateKeeper) updateSpeed28(addr uint16, p *Packet) {
	state := sk.store.Read(addr+slotInfo) &^ slotInfoSpeed128
	sk.store.Write(addr+slotInfo, state)
	sk.store.Write(addr+slotSpeed, sk.instructionByte(p))
}

func (sk *StateKeeper) updateSpeed128(addr uint16, p *Packet) {
	state := sk.store.Read(addr+slotInfo) | slotInfoSpeed128
	sk.store.Write(addr+slotInfo, state)
	// the 128-step command occupies the second instruction byte (after the
	// 0x3F advanced-operations selector), one past the short-form index.
	idx := 2
	if !p.IsAddressShort() {
		idx = 3
	}
	sk.store.Write(addr+slotSpeed, p.Data[idx])
}

func (sk *StateKeeper) updateF0F4(addr uint16, p *Packet) {
	state := sk.store.Read(addr+slotInfo) &^ slotF0F4Mask
	sk.store.Write(addr+slotInfo, state|(sk.instructionByte(p)&MFFunctionF0F4Mask))
}

func (sk *StateKeeper) updateF5F8(addr uint16, p *Packet) {
	state := sk.store.Read(addr+slotInfo) | slotInfoActiveF5F8
	sk.store.Write(addr+slotInfo, state)

	state = sk.store.Read(addr+slotF5F12) &^ slotF5F8Mask
	sk.store.Write(addr+slotF5F12, state|((sk.instructionByte(p)&MFFunctionF5F8Mask)<<slotF5F8Shift))
}

func (sk *StateKeeper) updateF9F12(addr uint16, p *Packet) {
	state := sk.store.Read(addr+slotInfo) | slotInfoActiveF9F12
	sk.store.Write(addr+slotInfo, state)

	state = sk.store.Read(addr+slotF5F12) &^ slotF9F12Mask
	sk.store.Write(addr+slotF5F12, state|(sk.instructionByte(p)&MFFunctionF9F12Mask))
}

func (sk *StateKeeper) resetSpeedAt(addr uint16) {
	speed := sk.store.Read(addr + slotSpeed)
	if sk.store.Read(addr+slotInfo)&slotInfoSpeed128 != 0 {
		sk.store.Write(addr+slotSpeed, speed&MFSpeed128DirMask)
	} else {
		sk.store.Write(addr+slotSpeed, speed&MFKind3Mask)
	}
}

func (sk *StateKeeper) resetStateAt(addr uint16) {
	sk.store.Write(addr+slotInfo, 0)
	sk.store.Write(addr+slotSpeed, MFKind3ForwardOperation|MFSpeed28Stop)
	sk.store.Write(addr+slotInfo, 0)
	sk.store.Write(addr+slotF5F12, 0)
}

// ReadNextState pushes a round-robin batch of refresh packets -- the
// remembered speed, F0-F4, and (if active) F5-F8/F9-F12 state for one
// address per call -- onto queue, drawing the packets from freeList. It is
// meant to be called on a steady cadence so every remembered decoder is
// eventually refreshed even if its cab never resends.
func (sk *StateKeeper) ReadNextState(queue *Queue, freeList *FreeList) {
	if sk.stateCount == 0 {
		return
	}

	addr := sk.cfg.StateStoreAddr + 2 + uint16(sk.nextState)*stateSlotSize

	address0 := sk.store.Read(addr + slotAddress0)
	address1 := sk.store.Read(addr + slotAddress1)
	speed := sk.store.Read(addr + slotSpeed)
	infoF0F4 := sk.store.Read(addr + slotInfo)
	f5f12 := sk.store.Read(addr + slotF5F12)

	if p := freeList.Take(); p != nil {
		p.MFAddress(address0, address1)
		if infoF0F4&slotInfoSpeed128 != 0 {
			p.Speed128Raw(speed)
		} else {
			p.Speed28Raw(speed)
		}
		queue.PushBack(p)
	}

	if p := freeList.Take(); p != nil {
		p.MFAddress(address0, address1)
		p.FunctionF0_F4Raw(infoF0F4 & slotF0F4Mask)
		queue.PushBack(p)
	}

	if infoF0F4&slotInfoActiveF5F8 != 0 {
		if p := freeList.Take(); p != nil {
			p.MFAddress(address0, address1)
			p.FunctionF5_F8Raw((f5f12 & slotF5F8Mask) >> slotF5F8Shift)
			queue.PushBack(p)
		}
	}

	if infoF0F4&slotInfoActiveF9F12 != 0 {
		if p := freeList.Take(); p != nil {
			p.MFAddress(address0, address1)
			p.FunctionF9_F12Raw(f5f12 & slotF9F12Mask)
			queue.PushBack(p)
		}
	}

	sk.nextState = (sk.nextState + 1) % sk.stateCount
}
