package dcc

// Config gathers the command station's tunable parameters. There is no
// config-file or environment-variable layer -- like the original library's
// DccConfig.h, these are compile-time-ish defaults a host program overrides
// by constructing its own Config (see cmd/station, which exposes the handful
// worth changing as flags).
type Config struct {
	// Pin assignment is not part of Config: the output pins are opened at
	// the driver level (see cmd/station's -pin-a/-pin-b flags).
	// StateStoreAddr/StateMaxCount/QueueMaxCount govern the state keeper and
	// commander built from this Config.

	// PreambleBits is the number of preamble "1" bits sent before each
	// packet.
	PreambleBits int

	// StateStoreAddr is the base address the state keeper's slot table
	// starts at within its NonVolatile store.
	StateStoreAddr uint16

	// StateMaxCount bounds how many distinct decoder addresses the state
	// keeper remembers at once.
	StateMaxCount int

	// QueueMaxCount bounds the number of packets the free list (and so the
	// queue) can hold at once.
	QueueMaxCount int
}

// DefaultConfig mirrors the values in the original library's DccConfig.h.
// The per-kind repeat counts (RepeatStop/RepeatSpeed/RepeatFunction/
// RepeatAccessory) are package-level constants in standard.go rather than
// Config fields: every packet builder is a Packet method with no Config in
// scope, matching the original's own #define constants rather than a
// runtime-configurable table.
var DefaultConfig = Config{
	PreambleBits:   DefaultPreambleBits,
	StateStoreAddr: 128,
	StateMaxCount:  40,
	QueueMaxCount:  20,
}
