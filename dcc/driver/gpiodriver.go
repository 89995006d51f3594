//go:build linux

// Package driver provides dcc.Pin implementations: GPIOPin for real hardware
// (gated to Linux, where periph.io's host drivers apply) and, in simpin.go,
// an in-memory SimPin for every other platform and for tests.
package driver

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOPin drives one physical GPIO line as a dcc.Pin, the way
// seedhammer's wshat driver drives its button inputs through periph.io --
// here Out instead of In, since the command station writes the rail signal
// rather than reading a switch.
type GPIOPin struct {
	pin gpio.PinIO
}

// InitHost initializes periph.io's platform host drivers. Call it once
// before opening any GPIOPin.
func InitHost() error {
	_, err := host.Init()
	return err
}

// OpenGPIOPin looks up a GPIO line by its periph.io name (e.g. "GPIO5") and
// configures it as a low output.
func OpenGPIOPin(name string) (*GPIOPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("driver: no such GPIO pin %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("driver: configure %q as output: %w", name, err)
	}
	return &GPIOPin{pin: p}, nil
}

// SetHigh implements dcc.Pin.
func (g *GPIOPin) SetHigh() { _ = g.pin.Out(gpio.High) }

// SetLow implements dcc.Pin.
func (g *GPIOPin) SetLow() { _ = g.pin.Out(gpio.Low) }
