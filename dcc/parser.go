package dcc

import "fmt"

// cursor walks a command string one rune at a time, the same left-to-right
// consuming style the original library's pointer-advancing C parser uses.
type cursor struct {
	s string
	i int
}

func (c *cursor) peek() byte {
	if c.i >= len(c.s) {
		return 0
	}
	return c.s[c.i]
}

func (c *cursor) next() byte {
	b := c.peek()
	c.i++
	return b
}

func (c *cursor) isDigit() bool {
	b := c.peek()
	return b >= '0' && b <= '9'
}

// number consumes a run of decimal digits (possibly empty, yielding 0).
func (c *cursor) number() uint16 {
	var n uint16
	for c.isDigit() {
		n = n*10 + uint16(c.next()-'0')
	}
	return n
}

// parseBoolean treats '1', 'Y', 'y', 'T' or 't' as true, everything else
// (including a missing character) as false.
func parseBoolean(b byte) bool {
	switch b {
	case '1', 'Y', 'y', 'T', 't':
		return true
	}
	return false
}

func hexNibble(b byte) (byte, error) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', nil
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, nil
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("dcc: invalid hex digit %q", b)
	}
}

// ParseHex parses the compact hex wire form: two hex digits of info byte,
// followed by size-1 hex-byte pairs of payload. The trailing XOR byte is
// never read from the input; it is always computed.
func (p *Packet) ParseHex(s string) (*Packet, error) {
	c := &cursor{s: s}

	hi, err := hexNibble(c.next())
	if err != nil {
		return nil, err
	}
	lo, err := hexNibble(c.next())
	if err != nil {
		return nil, err
	}
	p.Info = hi<<4 | lo

	e := p.Size() - 1
	p.Data[e] = 0
	for i := 0; i < e; i++ {
		hi, err := hexNibble(c.next())
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(c.next())
		if err != nil {
			return nil, err
		}
		b := hi<<4 | lo
		p.Data[i] = b
		p.Data[e] ^= b
	}
	return p, nil
}

const hexDigits = "0123456789ABCDEF"

// EncodeHex renders p in the same compact hex wire form ParseHex consumes:
// two hex digits of info byte, followed by size-1 hex-byte pairs of payload,
// excluding the trailing XOR byte, which ParseHex always recomputes rather
// than reads. It is the inverse of ParseHex.
func (p *Packet) EncodeHex() string {
	n := p.Size() - 1
	buf := make([]byte, 0, 2*(n+1))
	buf = appendHexByte(buf, p.Info)
	for i := 0; i < n; i++ {
		buf = appendHexByte(buf, p.Data[i])
	}
	return string(buf)
}

func appendHexByte(buf []byte, b byte) []byte {
	return append(buf, hexDigits[b>>4], hexDigits[b&0x0F])
}

// ParseText parses the human-typed command forms:
//
//	m###...   short multi-function address, then a throttle command
//	M####...  long multi-function address, then a throttle command
//	B####P#O#A|D  basic accessory address/port/output, then activate/deactivate
//	E####S##  extended accessory address, then a signal state
//
// For m, a missing or zero address gives the multi-function broadcast
// address (AddressBroadcast); for B and E, a missing address gives the
// accessory broadcast address (BAAddressBroadcast, EAAddressBroadcast). M
// always builds a long address, so a missing address there is long
// address 0.
func (p *Packet) ParseText(s string) (*Packet, error) {
	c := &cursor{s: s}
	switch c.next() {
	case 'm':
		p.MFAddressShort(byte(c.number()))
		return p.parseMFCommand(c)
	case 'M':
		p.MFAddressLong(c.number())
		return p.parseMFCommand(c)
	case 'B':
		address := uint16(BAAddressBroadcast)
		if c.isDigit() {
			address = c.number()
		}
		if c.next() != 'P' {
			return nil, fmt.Errorf("dcc: expected 'P' in basic accessory command %q", s)
		}
		port := byte(c.number())
		if c.next() != 'O' {
			return nil, fmt.Errorf("dcc: expected 'O' in basic accessory command %q", s)
		}
		output := byte(c.number())
		p.BAAddress(address, port, output)
		switch c.next() {
		case 'A':
			p.Activate(true)
		case 'D':
			p.Activate(false)
		default:
			return nil, fmt.Errorf("dcc: expected 'A' or 'D' in basic accessory command %q", s)
		}
		return p, nil
	case 'E':
		address := uint16(EAAddressBroadcast)
		if c.isDigit() {
			address = c.number()
		}
		p.EAAddress(address)
		if c.next() != 'S' {
			return nil, fmt.Errorf("dcc: expected 'S' in extended accessory command %q", s)
		}
		p.State(byte(c.number()))
		return p, nil
	}
	return nil, fmt.Errorf("dcc: unrecognized command %q", s)
}

func (p *Packet) parseMFCommand(c *cursor) (*Packet, error) {
	switch c.next() {
	case 'f':
		return p.Speed28(true, byte(c.number())), nil
	case 'r':
		return p.Speed28(false, byte(c.number())), nil
	case 'F':
		return p.Speed128(true, byte(c.number())), nil
	case 'R':
		return p.Speed128(false, byte(c.number())), nil
	case 'A':
		bs := parseBooleans(c, 5)
		return p.FunctionF0_F4(bs[0], bs[1], bs[2], bs[3], bs[4]), nil
	case 'B':
		bs := parseBooleans(c, 4)
		return p.FunctionF5_F8(bs[0], bs[1], bs[2], bs[3]), nil
	case 'C':
		bs := parseBooleans(c, 4)
		return p.FunctionF9_F12(bs[0], bs[1], bs[2], bs[3]), nil
	case 'D':
		bs := parseBooleans(c, 8)
		return p.FunctionF13_F20(bs[0], bs[1], bs[2], bs[3], bs[4], bs[5], bs[6], bs[7]), nil
	case 'E':
		bs := parseBooleans(c, 8)
		return p.FunctionF21_F28(bs[0], bs[1], bs[2], bs[3], bs[4], bs[5], bs[6], bs[7]), nil
	}
	return nil, fmt.Errorf("dcc: unrecognized multi-function command")
}

func parseBooleans(c *cursor, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = parseBoolean(c.next())
	}
	return out
}
