// Command station runs a DCC command station: it drives a pair of rail
// output pins (real GPIO on Linux, or an in-memory simulated pin elsewhere),
// and accepts commands over a serial port or, failing that, standard input.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/tarm/serial"

	"dccstation/dcc"
	"dccstation/dcc/driver"
	"dccstation/store"
)

func main() {
	var (
		serialPort = flag.String("serial", "", "serial device to read commands from (default: stdin)")
		statePath  = flag.String("state", "", "file to persist decoder state to (default: in-memory only)")
		pinAName   = flag.String("pin-a", "GPIO5", "GPIO pin name for rail output A (Linux only)")
		pinBName   = flag.String("pin-b", "GPIO6", "GPIO pin name for rail output B (Linux only)")
		simulate   = flag.Bool("simulate", runtime.GOOS != "linux", "use simulated pins instead of real GPIO")
		monitor    = flag.Bool("monitor", false, "launch the interactive bit-cell monitor instead of running the main loop")
		preamble   = flag.Int("preamble", dcc.DefaultPreambleBits, "number of preamble bits per packet")
	)
	flag.Parse()

	cfg := dcc.DefaultConfig
	cfg.PreambleBits = *preamble

	nv, err := openStore(*statePath, cfg)
	if err != nil {
		log.Fatalf("station: %v", err)
	}

	state := dcc.NewStateKeeper(nv, cfg)
	cmd := dcc.NewCommander(cfg, state)

	pinA, pinB, err := openPins(*simulate, *pinAName, *pinBName)
	if err != nil {
		log.Fatalf("station: %v", err)
	}

	gen := dcc.NewGenerator(pinA, pinB, cmd)
	gen.Preamble = cfg.PreambleBits
	cmd.OnPowerChange(func(on bool) {
		if on {
			gen.PowerOn()
		} else {
			gen.PowerOff()
		}
	})

	cmd.Begin()

	stop := make(chan struct{})
	go gen.Loop(stop)
	defer close(stop)

	if *monitor {
		if err := dcc.Monitor(gen, cmd); err != nil {
			log.Fatalf("station: monitor: %v", err)
		}
		return
	}

	reader, closer := openCommandSource(*serialPort)
	if closer != nil {
		defer closer.Close()
	}

	runCommandLoop(reader, cmd)
}

func openStore(path string, cfg dcc.Config) (store.NonVolatile, error) {
	if path == "" {
		var mem store.Memory
		return &mem, nil
	}
	size := int(cfg.StateStoreAddr) + 2 + cfg.StateMaxCount*6
	return store.OpenFileStore(path, size)
}

func openPins(simulate bool, pinAName, pinBName string) (dcc.Pin, dcc.Pin, error) {
	if simulate {
		return &driver.SimPin{}, &driver.SimPin{}, nil
	}
	if err := driver.InitHost(); err != nil {
		return nil, nil, fmt.Errorf("init GPIO host: %w", err)
	}
	pinA, err := driver.OpenGPIOPin(pinAName)
	if err != nil {
		return nil, nil, err
	}
	pinB, err := driver.OpenGPIOPin(pinBName)
	if err != nil {
		return nil, nil, err
	}
	return pinA, pinB, nil
}

func openCommandSource(dev string) (*bufio.Scanner, io.Closer) {
	if dev == "" {
		return bufio.NewScanner(os.Stdin), nil
	}
	port, err := serial.OpenPort(&serial.Config{Name: dev, Baud: 9600})
	if err != nil {
		log.Printf("station: opening serial port %s failed (%v), falling back to stdin", dev, err)
		return bufio.NewScanner(os.Stdin), nil
	}
	return bufio.NewScanner(port), port
}

// refreshInterval is the cadence at which runCommandLoop drains the state
// keeper's round-robin refresh into the send queue whenever it's otherwise
// idle. The original ran Commander::loop() once per iteration of an
// unconditional main loop; on a desktop host that translates to a steady
// tick rather than CPU-bound spinning.
const refreshInterval = 50 * time.Millisecond

// runCommandLoop reads text commands from scanner and feeds them to cmd,
// printing each reply, while also calling cmd.Loop() on a steady cadence so
// persisted per-decoder state keeps getting refreshed even when no operator
// command arrives for a while. Commands and the refresh tick are fed through
// the same select so HandleTextCommand and Loop never run concurrently with
// each other.
func runCommandLoop(scanner *bufio.Scanner, cmd *dcc.Commander) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			reply := cmd.HandleTextCommand(line)
			fmt.Println(reply)
		case <-ticker.C:
			cmd.Loop()
		}
	}
}
