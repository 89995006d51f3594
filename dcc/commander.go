package dcc

// Canonical reply strings returned by Commander.HandleTextCommand, matching
// the original library's ACKNOWLEDGE/QUEUED/ERROR/UNKNOWN constants.
const (
	ReplyAcknowledge = "Acknowledge"
	ReplyQueued      = "Queued"
	ReplyError       = "ERROR"
	ReplyUnknown     = "UNKNOWN"
)

// Commander is the command station's orchestrator: it owns the packet
// queue, the free-list recycler, and the state keeper, and it is the
// Scheduler the Generator calls back into. It is the single point host code
// talks to -- over a serial link, stdin, or a test harness -- via
// HandleTextCommand.
type Commander struct {
	queue    Queue
	recycle  *FreeList
	state    *StateKeeper
	idle     Packet
	on       bool
	onChange func(bool)
}

// NewCommander builds a Commander with a QueueMaxCount-sized packet arena and
// the given state keeper.
func NewCommander(cfg Config, state *StateKeeper) *Commander {
	c := &Commander{
		recycle: NewFreeList(cfg.QueueMaxCount),
		state:   state,
	}
	c.idle.Idle()
	return c
}

// OnPowerChange registers a callback invoked whenever Power(on) changes the
// power state; the generator wires this to PowerOn/PowerOff.
func (c *Commander) OnPowerChange(fn func(on bool)) { c.onChange = fn }

// Begin brings the commander up: the state keeper is assumed already begun,
// and power starts enabled.
func (c *Commander) Begin() {
	c.SetPower(true)
}

// Loop does background work: when the outgoing queue has drained, it pulls
// the next round-robin refresh packet from the state keeper. Call this on a
// steady cadence from the host's main loop.
func (c *Commander) Loop() {
	if c.queue.Len() != 0 {
		return
	}
	c.state.ReadNextState(&c.queue, c.recycle)
}

// NewPacket draws a fresh packet slot from the free list, or nil if none
// remain.
func (c *Commander) NewPacket() *Packet { return c.recycle.Take() }

// Send records packet's throttle state (if any) and enqueues it, merging it
// into an existing same-kind queued packet for the same decoder when one is
// present instead of appending a duplicate.
func (c *Commander) Send(packet *Packet) {
	c.state.SaveState(packet)
	if c.queue.ReplaceSameKindPacket(packet, false) {
		c.recycle.Give(packet)
		return
	}
	c.queue.PushBack(packet)
}

// NextToSend implements Scheduler for the Generator: given the packet that
// was just fully transmitted (or nil, at startup), it decides what to send
// next. A packet with repeat counts remaining is resent unchanged; once
// exhausted it is recycled and the next queued packet (or the static idle
// packet, if the queue is empty) is sent instead.
func (c *Commander) NextToSend(sent *Packet) *Packet {
	if sent != nil && sent != &c.idle {
		if sent.DecrementRepeat() > 0 {
			return sent
		}
		c.recycle.Give(sent)
	}

	if p := c.queue.PopFront(); p != nil {
		return p
	}
	return &c.idle
}

// ReturnBack gives back a packet the generator did not finish transmitting
// (e.g. because power was switched off mid-packet), requeuing it at the
// front so it is retried first.
func (c *Commander) ReturnBack(unprocessed *Packet) {
	if unprocessed == nil || unprocessed == &c.idle {
		return
	}
	c.queue.PushFront(unprocessed)
}

// Power reports whether the rails are currently powered.
func (c *Commander) Power() bool { return c.on }

// SetPower turns rail power on or off, notifying the registered callback.
func (c *Commander) SetPower(on bool) {
	c.on = on
	if c.onChange != nil {
		c.onChange(on)
	}
}

// ResetAll powers down, drains the queue back to the free list, resets all
// remembered decoder state, then powers back up.
func (c *Commander) ResetAll() {
	c.SetPower(false)
	c.ResetQueue()
	c.state.ResetAll()
	c.SetPower(true)
}

// ResetQueue drains every queued packet back to the free list without
// touching remembered decoder state.
func (c *Commander) ResetQueue() {
	for {
		p := c.queue.PopFront()
		if p == nil {
			return
		}
		c.recycle.Give(p)
	}
}

// ResetSpeedStates zeros the remembered speed of every known decoder.
func (c *Commander) ResetSpeedStates() {
	c.state.ResetSpeed()
}

// HandleTextCommand parses and executes one line of the command-line
// protocol: P0/P1 (power off/on), RA/RQ/RS (reset all/queue/speed), HXX...XX
// (hex packet), and mXX/MXX/BXX/EXX (text packet forms). It returns one of
// the canonical Reply* strings.
func (c *Commander) HandleTextCommand(command string) string {
	if command == "" {
		return ReplyUnknown
	}
	switch command[0] {
	case 'P':
		if len(command) < 2 {
			return ReplyUnknown
		}
		c.SetPower(parseBoolean(command[1]))
		return ReplyAcknowledge
	case 'R':
		if len(command) < 2 {
			return ReplyUnknown
		}
		switch command[1] {
		case 'A':
			c.ResetAll()
			return ReplyAcknowledge
		case 'Q':
			c.ResetQueue()
			return ReplyAcknowledge
		case 'S':
			c.ResetSpeedStates()
			return ReplyAcknowledge
		}
		return ReplyUnknown
	case 'H':
		packet := c.NewPacket()
		if packet == nil {
			return ReplyError
		}
		if _, err := packet.ParseHex(command[1:]); err != nil {
			c.recycle.Give(packet)
			return ReplyUnknown
		}
		c.Send(packet)
		return ReplyQueued
	case 'm', 'M', 'B', 'E':
		packet := c.NewPacket()
		if packet == nil {
			return ReplyError
		}
		if _, err := packet.ParseText(command); err != nil {
			c.recycle.Give(packet)
			return ReplyUnknown
		}
		c.Send(packet)
		return ReplyQueued
	}
	return ReplyUnknown
}
