package dcc

// StartTest puts the generator into a known, deterministic state for
// single-stepping in tests: any in-flight packet is handed back to the
// scheduler (so nothing is lost), and the generator is parked just before a
// fresh preamble, without needing PowerOn's asynchronous timer cadence.
// Grounded in the original library's DccProtocol::startTest, used the same
// way there to drive the protocol state machine from a test harness instead
// of the real timer ISR.
func (g *Generator) StartTest() {
	if g.current != nil {
		g.Sched.ReturnBack(g.current)
	}
	g.current = nil
	g.on = true
	g.state = StateCutoutRun
	g.cutoutRemaining = 0
	g.polarity = true
}

// Step ticks the generator until the bit counter advances (on the edge that
// starts a bit cell's second half) or the state changes, whichever comes
// first, and returns the state it lands in. Away from state changes one Step
// covers one bit cell; the first bit of a new state ends a Step after its
// first half-cell, and a cutout phase ends a Step when it finishes. It exists
// so tests can drive the state machine deterministically without sleeping
// real microseconds.
func (g *Generator) Step() genState {
	if !g.on {
		return g.state
	}
	startIdx, startState := g.idx, g.state
	for {
		g.Tick()
		if g.state != startState || g.idx != startIdx {
			return g.state
		}
		if g.remaining == 0 && g.halfCell == 0 && g.cutoutRemaining == 0 {
			// both halves of the cell have now been driven; avoid spinning
			// forever if Tick stopped changing anything (e.g. power is off).
			return g.state
		}
	}
}
