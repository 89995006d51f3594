package dcc

import (
	"github.com/davecgh/go-spew/spew"

	"dccstation/bits"
)

// Packet is a fixed-size DCC packet record: an info byte (payload size,
// acknowledge kind, remaining repeat count) and up to 6 data bytes, the last
// in-use one being the XOR of all the others.
//
// Builders mutate a Packet in place and return it, so a fixed arena of
// Packets (see FreeList) never needs to allocate: every send() takes a slot
// from the free list, builds into it, and the queue or state keeper is the
// only thing that ever reads it back out.
//
// A Packet is in at most one list (Queue or FreeList) at a time; next is
// the intrusive link both lists use.
type Packet struct {
	Info byte
	Data [6]byte

	next *Packet
}

// Size returns the packet's payload size in bytes (3..6), decoded from the
// info byte's SS field.
func (p *Packet) Size() int {
	switch p.Info & InfoSizeMask {
	case InfoSize3:
		return 3
	case InfoSize4:
		return 4
	case InfoSize5:
		return 5
	case InfoSize6:
		return 6
	}
	return 3
}

func (p *Packet) setSize(n int) {
	var s byte
	switch n {
	case 3:
		s = InfoSize3
	case 4:
		s = InfoSize4
	case 5:
		s = InfoSize5
	case 6:
		s = InfoSize6
	default:
		panic("dcc: invalid packet size")
	}
	p.Info = (p.Info &^ InfoSizeMask) | s
}

// Repeat returns the remaining repeat count (RRRR, 0..15).
func (p *Packet) Repeat() byte { return p.Info & InfoRepeatMask }

// DecrementRepeat decrements the RRRR nibble by one (floor 0) and returns the
// new value.
func (p *Packet) DecrementRepeat() byte {
	r := p.Info & InfoRepeatMask
	if r > 0 {
		r--
		p.Info = (p.Info &^ InfoRepeatMask) | r
	}
	return r
}

// ResetRepeat zeros the RRRR nibble.
func (p *Packet) ResetRepeat() { p.Info &^= InfoRepeatMask }

// HasAcknowledge reports whether the packet requests a RailCom cutout.
func (p *Packet) HasAcknowledge() bool {
	a := p.Info & InfoAckMask
	return a == InfoAck1Byte || a == InfoAck2Byte
}

// IsAcknowledgeShort reports whether the requested cutout is the 1-byte
// (short) decoder reply window rather than the 2-byte window.
func (p *Packet) IsAcknowledgeShort() bool {
	return p.Info&InfoAckMask == InfoAck1Byte
}

// IsAddressShort reports whether the packet's primary address occupies one
// byte. Broadcast (address 0) counts as short, matching the original
// library's treatment of instruction-byte offsets.
func (p *Packet) IsAddressShort() bool {
	return p.Data[0] <= AddressShortMax
}

// IsBroadcast reports whether the packet is addressed to every decoder of
// its kind: the multi-function broadcast address, or the basic/extended
// accessory broadcast address.
func (p *Packet) IsBroadcast() bool {
	switch p.Data[0] {
	case AddressBroadcast:
		return true
	case AddressAccessoryBroadcast:
		if bits.IsSet(p.Data[1], bits.I1) {
			return p.Data[1]&BAAddressMask2 == BAAddressBroadcast2
		}
		return p.Data[1]&(EAAddressMask2|EAAddressMask3) == EAAddressBroadcast2|EAAddressBroadcast3
	}
	return false
}

// IsIdle reports whether this is the static idle packet (address 255).
func (p *Packet) IsIdle() bool { return p.Data[0] == AddressIdle }

// IsMultiFunction reports whether the primary address falls in either the
// 7-bit short or 14-bit long multi-function decoder range (including
// broadcast).
func (p *Packet) IsMultiFunction() bool {
	a := p.Data[0]
	return a <= AddressShortMax || (a >= AddressLongMin && a <= AddressLongMax)
}

// IsMultiFunctionBroadcast reports whether this is the MF broadcast packet.
func (p *Packet) IsMultiFunctionBroadcast() bool {
	return p.IsMultiFunction() && p.IsBroadcast()
}

// IsBasicAccessory reports whether the packet addresses a basic accessory
// decoder (first byte 128-191, second byte's MSB set).
func (p *Packet) IsBasicAccessory() bool {
	a := p.Data[0]
	if a < AddressAccessoryMin || a > AddressAccessoryMax {
		return false
	}
	return bits.IsSet(p.Data[1], bits.I1)
}

// IsExtendedAccessory reports whether the packet addresses an extended
// accessory decoder (first byte 128-191, second byte 0AAA0AA1).
func (p *Packet) IsExtendedAccessory() bool {
	a := p.Data[0]
	if a < AddressAccessoryMin || a > AddressAccessoryMax {
		return false
	}
	return !bits.IsSet(p.Data[1], bits.I1) && p.Data[1]&0x01 == 0x01
}

// Dump renders the packet for debugging, via go-spew.
func (p *Packet) Dump() string { return spew.Sdump(*p) }

// --- address builders ---

// Idle configures p as the static idle packet (address 255, zero payload).
func (p *Packet) Idle() *Packet {
	p.Info = InfoSize3 | InfoNoAcknowledge
	p.Data[0] = AddressIdle
	p.Data[1] = 0x00
	p.Data[2] = bits.XOR(p.Data[0], p.Data[1])
	return p
}

// MFBroadcast sets the primary address to the multi-function broadcast
// address.
func (p *Packet) MFBroadcast() *Packet {
	p.Data[0] = AddressBroadcast
	return p
}

// MFAddressShort sets a 7-bit multi-function address.
func (p *Packet) MFAddressShort(address byte) *Packet {
	p.Data[0] = address & AddressShortMask
	return p
}

// MFAddressLong sets a 14-bit multi-function address, spanning both address
// bytes.
func (p *Packet) MFAddressLong(address uint16) *Packet {
	p.Data[0] = AddressLongMin + byte((address>>8)&AddressShortMask)
	p.Data[1] = byte(address & 0xFF)
	return p
}

// MFAddress sets the raw address bytes directly, as read back from the state
// keeper's persistent store; address1 is ignored for short addresses.
func (p *Packet) MFAddress(address0, address1 byte) *Packet {
	p.Data[0] = address0
	if address0 > AddressShortMax {
		p.Data[1] = address1
	}
	return p
}

func (p *Packet) mfCommand1(command byte) *Packet {
	if p.IsAddressShort() {
		p.setSize(3)
		p.Data[1] = command
		p.Data[2] = bits.XOR(p.Data[0], p.Data[1])
	} else {
		p.setSize(4)
		p.Data[2] = command
		p.Data[3] = bits.XOR(p.Data[0], p.Data[1], p.Data[2])
	}
	return p
}

func (p *Packet) mfCommand2(command1, command2 byte) *Packet {
	if p.IsAddressShort() {
		p.setSize(4)
		p.Data[1] = command1
		p.Data[2] = command2
		p.Data[3] = bits.XOR(p.Data[0], p.Data[1], p.Data[2])
	} else {
		p.setSize(5)
		p.Data[2] = command1
		p.Data[3] = command2
		p.Data[4] = bits.XOR(p.Data[0], p.Data[1], p.Data[2], p.Data[3])
	}
	return p
}

func speedDirection(forward bool) byte {
	if forward {
		return MFKind3ForwardOperation
	}
	return MFKind3ReverseOperation
}

// Speed14 builds a 14-step speed-and-direction instruction.
func (p *Packet) Speed14(forward bool, speed byte) *Packet {
	repeat := byte(RepeatSpeed)
	if speed < MFSpeed14Min {
		repeat = RepeatStop
	}
	p.Info = InfoNoAcknowledge | (repeat & InfoRepeatMask)
	command := speedDirection(forward) | (speed & MFSpeed14Mask)
	return p.mfCommand1(command)
}

// Speed28 builds a 28-step speed-and-direction instruction.
func (p *Packet) Speed28(forward bool, speed byte) *Packet {
	repeat := byte(RepeatSpeed)
	if speed < MFSpeed28Min {
		repeat = RepeatStop
	}
	p.Info = InfoNoAcknowledge | (repeat & InfoRepeatMask)
	command := speedDirection(forward) |
		((speed >> MFSpeed28HBitShift) & MFSpeed28HBitMask) |
		((speed << MFSpeed28LBitShift) & MFSpeed28LBitMask)
	return p.mfCommand1(command)
}

// Speed28Raw rebuilds a 28-step speed instruction from an already-encoded
// instruction byte, as stored by the state keeper. It follows the original
// library's repeat-count check exactly: the low nibble is tested against the
// 14-step stop threshold, not the 28-step one, since the stored byte already
// carries the full CCCDDDDD-plus-L-bit layout and the low 4 bits alone are
// what the source checks.
func (p *Packet) Speed28Raw(raw byte) *Packet {
	repeat := byte(RepeatSpeed)
	if raw&MFSpeed14Mask < MFSpeed14Min {
		repeat = RepeatStop
	}
	p.Info = InfoNoAcknowledge | (repeat & InfoRepeatMask)
	return p.mfCommand1(raw)
}

// Speed128 builds a 128-step (advanced operations) speed instruction.
func (p *Packet) Speed128(forward bool, speed byte) *Packet {
	repeat := byte(RepeatSpeed)
	if speed < MFSpeed128Min {
		repeat = RepeatStop
	}
	p.Info = InfoNoAcknowledge | (repeat & InfoRepeatMask)
	command := byte(MFSpeed128Reverse)
	if forward {
		command = MFSpeed128Forward
	}
	command |= speed & MFSpeed128Mask
	return p.mfCommand2(MFKind8Speed128, command)
}

// Speed128Raw rebuilds a 128-step speed instruction from a stored raw byte.
func (p *Packet) Speed128Raw(raw byte) *Packet {
	repeat := byte(RepeatSpeed)
	if raw&MFSpeed128Mask < MFSpeed128Min {
		repeat = RepeatStop
	}
	p.Info = InfoNoAcknowledge | (repeat & InfoRepeatMask)
	return p.mfCommand2(MFKind8Speed128, raw)
}

func functionBits(on []bool, values []byte) byte {
	var b byte
	for i, v := range values {
		if i < len(on) && on[i] {
			b |= v
		}
	}
	return b
}

// FunctionF0_F4 builds a Function Group One instruction (F0/headlight plus
// F1-F4).
func (p *Packet) FunctionF0_F4(f0, f1, f2, f3, f4 bool) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	command := MFKind3F0F4 | functionBits(
		[]bool{f0, f1, f2, f3, f4},
		[]byte{MFFunctionF0, MFFunctionF1, MFFunctionF2, MFFunctionF3, MFFunctionF4},
	)
	return p.mfCommand1(command)
}

// FunctionF0_F4Raw rebuilds a Function Group One instruction from stored
// bits.
func (p *Packet) FunctionF0_F4Raw(raw byte) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	return p.mfCommand1(MFKind3F0F4 | raw)
}

// FunctionF5_F8 builds a Function Group Two (F5-F8) instruction.
func (p *Packet) FunctionF5_F8(f5, f6, f7, f8 bool) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	command := MFKind4F5F8 | functionBits(
		[]bool{f5, f6, f7, f8},
		[]byte{MFFunctionF5, MFFunctionF6, MFFunctionF7, MFFunctionF8},
	)
	return p.mfCommand1(command)
}

// FunctionF5_F8Raw rebuilds a Function Group Two (F5-F8) instruction from
// stored bits.
func (p *Packet) FunctionF5_F8Raw(raw byte) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	return p.mfCommand1(MFKind4F5F8 | raw)
}

// FunctionF9_F12 builds a Function Group Two (F9-F12) instruction.
func (p *Packet) FunctionF9_F12(f9, f10, f11, f12 bool) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	command := MFKind4F9F12 | functionBits(
		[]bool{f9, f10, f11, f12},
		[]byte{MFFunctionF9, MFFunctionF10, MFFunctionF11, MFFunctionF12},
	)
	return p.mfCommand1(command)
}

// FunctionF9_F12Raw rebuilds a Function Group Two (F9-F12) instruction from
// stored bits.
func (p *Packet) FunctionF9_F12Raw(raw byte) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	return p.mfCommand1(MFKind4F9F12 | raw)
}

// FunctionF13_F20 builds an F13-F20 feature-expansion instruction.
func (p *Packet) FunctionF13_F20(f13, f14, f15, f16, f17, f18, f19, f20 bool) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	command := functionBits(
		[]bool{f13, f14, f15, f16, f17, f18, f19, f20},
		[]byte{MFFunctionF13, MFFunctionF14, MFFunctionF15, MFFunctionF16,
			MFFunctionF17, MFFunctionF18, MFFunctionF19, MFFunctionF20},
	)
	return p.mfCommand2(MFKind8F13F20, command)
}

// FunctionF13_F20Raw rebuilds an F13-F20 instruction from stored bits.
func (p *Packet) FunctionF13_F20Raw(raw byte) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	return p.mfCommand2(MFKind8F13F20, raw)
}

// FunctionF21_F28 builds an F21-F28 feature-expansion instruction.
func (p *Packet) FunctionF21_F28(f21, f22, f23, f24, f25, f26, f27, f28 bool) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	command := functionBits(
		[]bool{f21, f22, f23, f24, f25, f26, f27, f28},
		[]byte{MFFunctionF21, MFFunctionF22, MFFunctionF23, MFFunctionF24,
			MFFunctionF25, MFFunctionF26, MFFunctionF27, MFFunctionF28},
	)
	return p.mfCommand2(MFKind8F21F28, command)
}

// FunctionF21_F28Raw rebuilds an F21-F28 instruction from stored bits.
func (p *Packet) FunctionF21_F28Raw(raw byte) *Packet {
	p.Info = InfoNoAcknowledge | (RepeatFunction & InfoRepeatMask)
	return p.mfCommand2(MFKind8F21F28, raw)
}

// --- accessory builders ---

// BAAddress sets a basic accessory decoder's address, port and output.
func (p *Packet) BAAddress(address uint16, port, output byte) *Packet {
	p.Data[0] = AddressAccessoryMin + byte(address&BAAddressMask1)
	p.Data[1] = AccessoryKindBasic |
		byte(((address>>BAAddressShift)&BAAddressMask2)^BAAddressMask2) |
		((port << BAAddressPairShift) & BAAddressPairMask) |
		(output & BAAddressOutputMask)
	return p
}

// BABroadcast sets the basic accessory broadcast address for a given port
// and output.
func (p *Packet) BABroadcast(port, output byte) *Packet {
	p.Data[0] = AddressAccessoryMin + BAAddressBroadcast1
	p.Data[1] = AccessoryKindBasic | BAAddressBroadcast2 |
		((port << BAAddressPairShift) & BAAddressPairMask) |
		(output & BAAddressOutputMask)
	return p
}

// Activate builds the basic accessory activate/deactivate instruction. It
// must be called after BAAddress/BABroadcast, which it ORs its activate bit
// into.
func (p *Packet) Activate(on bool) *Packet {
	p.Info = InfoSize3 | (RepeatAccessory & InfoRepeatMask)
	if on {
		p.Data[1] |= BAActivate
	} else {
		p.Data[1] |= BADeactivate
	}
	p.Data[2] = bits.XOR(p.Data[0], p.Data[1])
	return p
}

// EAAddress sets an extended accessory decoder's 11-bit address.
func (p *Packet) EAAddress(address uint16) *Packet {
	p.Data[0] = AddressAccessoryMin + byte(address&EAAddressMask1)
	p.Data[1] = AccessoryExtended |
		byte(((address>>EAAddressShift2)&EAAddressMask2)^EAAddressMask2) |
		byte((address>>EAAddressShift3)&EAAddressMask3)
	return p
}

// EABroadcast sets the extended accessory broadcast address.
func (p *Packet) EABroadcast() *Packet {
	p.Data[0] = AddressAccessoryMin + EAAddressBroadcast1
	p.Data[1] = AccessoryExtended | EAAddressBroadcast2 | EAAddressBroadcast3
	return p
}

// State builds the extended accessory signal-state instruction. It must be
// called after EAAddress/EABroadcast.
func (p *Packet) State(newState byte) *Packet {
	p.Info = InfoSize4 | (RepeatAccessory & InfoRepeatMask)
	p.Data[2] = newState & EAStateMask
	p.Data[3] = bits.XOR(p.Data[0], p.Data[1], p.Data[2])
	return p
}
