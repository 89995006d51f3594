package dcc

import "dccstation/bits"

// filterKind is the same classification extractFilterKind in the original
// scheduler used. It differs from Classify(*Packet) in three ways: it
// additionally validates basic/extended accessory packets by size, it never
// reports KindResetSpeed/KindResetState -- decoder-control packets are never
// merge candidates -- and it does report KindF13F20/KindF21F28, which
// Classify leaves as KindUnknown.
func filterKind(p *Packet, shortAddress bool) Kind {
	if p.IsMultiFunction() {
		idx := 2
		if shortAddress {
			idx = 1
		}
		command := p.Data[idx]
		switch command & MFKind3Mask {
		case MFKind3AdvancedOperation:
			if command == MFKind8Speed128 {
				return KindSpeed128
			}
			return KindUnknown
		case MFKind3ReverseOperation, MFKind3ForwardOperation:
			return KindSpeed28
		case MFKind3F0F4:
			return KindF0F4
		case MFKind3F5F12:
			if command&MFKind4Mask == MFKind4F5F8 {
				return KindF5F8
			}
			return KindF9F12
		case MFKind3FutureExpansion:
			switch command {
			case MFKind8F13F20:
				return KindF13F20
			case MFKind8F21F28:
				return KindF21F28
			}
		}
		return KindUnknown
	}
	if p.IsBasicAccessory() {
		if p.Size() == 3 {
			return KindBAOutput
		}
		return KindUnknown
	}
	if p.IsExtendedAccessory() {
		if p.Size() == 4 {
			return KindEAOutput
		}
		return KindUnknown
	}
	return KindUnknown
}

// ReplaceSameKindPacket scans q for a queued packet carrying the same
// instruction kind as packet and, for every match, overwrites its payload in
// place with packet's -- so spinning a throttle quickly never backs the
// queue up with stale intermediate commands for the same decoder. It
// returns whether anything was changed; if resetRepeat is set, every
// rewritten packet also has its remaining repeat count zeroed.
func (q *Queue) ReplaceSameKindPacket(packet *Packet, resetRepeat bool) bool {
	shortAddress := packet.IsAddressShort()
	kind := filterKind(packet, shortAddress)
	if kind == KindUnknown {
		return false
	}

	broadcast := packet.IsBroadcast()
	changed := false

	q.mu.Lock()
	defer q.mu.Unlock()
	for qp := q.head; qp != nil; qp = qp.next {
		if !broadcast && qp.Data[0] != packet.Data[0] {
			continue
		}
		qpShortAddress := qp.IsAddressShort()
		if kind != filterKind(qp, qpShortAddress) {
			continue
		}

		if !mergeOne(kind, qp, packet, shortAddress, qpShortAddress, broadcast) {
			continue
		}
		qp.Data[qp.Size()-1] = bits.XOR(qp.Data[:qp.Size()-1]...)
		changed = true
		if resetRepeat {
			qp.ResetRepeat()
		}
	}
	return changed
}

// mergeOne applies one candidate's merge for the given kind, returning
// whether the candidate actually qualified (some kinds have an address or
// port condition that can still reject the match here).
func mergeOne(kind Kind, qp, packet *Packet, shortAddress, qpShortAddress, broadcast bool) bool {
	switch kind {
	case KindSpeed28, KindF0F4, KindF5F8, KindF9F12:
		if !shortAddress && qp.Data[1] != packet.Data[1] {
			return false
		}
		qi, pi := 1, 1
		if !qpShortAddress {
			qi = 2
		}
		if !shortAddress {
			pi = 2
		}
		qp.Data[qi] = packet.Data[pi]
		return true

	case KindSpeed128, KindF13F20, KindF21F28:
		if !shortAddress && qp.Data[1] != packet.Data[1] {
			return false
		}
		qi, pi := 2, 2
		if !qpShortAddress {
			qi = 3
		}
		if !shortAddress {
			pi = 3
		}
		qp.Data[qi] = packet.Data[pi]
		return true

	case KindBAOutput:
		if broadcast {
			if (qp.Data[1]^packet.Data[1])&BAAddressPairMask != 0 {
				return false
			}
			qp.Data[1] = (qp.Data[1] & BAAddressMask2) | (packet.Data[1] &^ BAAddressMask2)
			return true
		}
		if (qp.Data[1]^packet.Data[1])&(BAAddressMask2|BAAddressPairMask) != 0 {
			return false
		}
		qp.Data[1] = packet.Data[1]
		return true

	case KindEAOutput:
		if !broadcast && qp.Data[1] != packet.Data[1] {
			return false
		}
		qp.Data[2] = packet.Data[2]
		return true
	}
	return false
}
