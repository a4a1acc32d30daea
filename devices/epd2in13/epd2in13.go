// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package epd2in13 drives the Waveshare 2.13 inch V2 e-paper panel, a
// 122x250 bistable display on an SSD1675-class controller. The panel
// holds its image without power; the driver's job is to sequence the
// controller through configuration, refresh, and deep sleep.
package epd2in13

import (
	"errors"
	"fmt"
	"log"

	"inkclock/gpio"
)

// Mode selects which waveform drives a refresh.
type Mode int

const (
	// Full rewrites every pixel through the complete waveform. Slow,
	// flashes the panel, clears ghosting.
	Full Mode = iota
	// Quick drives only changed pixels. Fast and flicker-free, but only
	// valid once a full refresh has established the panel state.
	Quick
)

func (m Mode) String() string {
	if m == Quick {
		return "quick"
	}
	return "full"
}

type state int

const (
	stateUninitialized state = iota
	stateConfigured
	stateAwakeFull
	stateAwakeQuick
	stateAsleep
	stateFailed
)

var (
	// ErrNotConfigured is returned when a refresh or sleep is requested
	// before Configure has run.
	ErrNotConfigured = errors.New("epd2in13: display not configured")
	// ErrQuickBeforeFull is returned when the first refresh after
	// Configure is quick. The panel has no established state to diff
	// against, so the request is rejected before any bus traffic.
	ErrQuickBeforeFull = errors.New("epd2in13: quick refresh before full refresh")
	// ErrAsleep is returned for operations on a sleeping controller.
	// Only a new Configure (hardware reset) wakes it.
	ErrAsleep = errors.New("epd2in13: display is in deep sleep")
	// ErrFailed is returned once a bus or pin error has left the
	// controller in an unknown state.
	ErrFailed = errors.New("epd2in13: display failed, reconfigure required")
)

// Config locates the panel. The zero value selects the wiring of the
// standard Raspberry Pi HAT.
type Config struct {
	// DevPath is the spidev device, /dev/spidev0.0 when empty.
	DevPath string
	// BCM line numbers for the four control pins. Zero selects the
	// default for that pin.
	CS   int
	Busy int
	DC   int
	RST  int
	// Rotation orients the framebuffer. The HAT sits sideways under a
	// landscape case, so the default is Rotate270.
	Rotation Rotation
}

const (
	defaultDevPath = "/dev/spidev0.0"
	defaultCS      = 26
	defaultBusy    = 24
	defaultDC      = 25
	defaultRST     = 17
)

func (c *Config) normalize() {
	if c.DevPath == "" {
		c.DevPath = defaultDevPath
	}
	if c.CS == 0 {
		c.CS = defaultCS
	}
	if c.Busy == 0 {
		c.Busy = defaultBusy
	}
	if c.DC == 0 {
		c.DC = defaultDC
	}
	if c.RST == 0 {
		c.RST = defaultRST
	}
	if c.Rotation == Rotate0 {
		c.Rotation = Rotate270
	}
}

// Display is one panel session. It owns the SPI port, the four control
// lines, and a framebuffer, and tracks the controller state so invalid
// requests are rejected before they reach the bus.
//
// Display is not safe for concurrent use.
type Display struct {
	hw     *hardware
	buffer *Image

	state state
	// programmed is the waveform table currently loaded, meaningful
	// only while awake.
	programmed Mode
}

// Open claims the SPI bus and the four GPIO lines and returns a display
// ready to Configure. On any failure everything already claimed is
// released before the error is returned.
func Open(cfg Config) (*Display, error) {
	cfg.normalize()

	bus, err := openBus(cfg.DevPath)
	if err != nil {
		return nil, err
	}

	hw := &hardware{
		txLimit:  txLimit,
		tx:       bus.transmit,
		closeBus: bus.Close,
	}
	fail := func(err error) (*Display, error) {
		for _, p := range hw.pins {
			p.Release()
		}
		if cerr := bus.Close(); cerr != nil {
			log.Printf("spi close after failed open: %v", cerr)
		}
		return nil, err
	}

	cs, err := gpio.AcquireOutput(cfg.CS, gpio.High)
	if err != nil {
		return fail(fmt.Errorf("cs pin %d: %w", cfg.CS, err))
	}
	hw.cs = cs
	hw.pins = append(hw.pins, cs)

	dc, err := gpio.AcquireOutput(cfg.DC, gpio.Low)
	if err != nil {
		return fail(fmt.Errorf("dc pin %d: %w", cfg.DC, err))
	}
	hw.dc = dc
	hw.pins = append(hw.pins, dc)

	rst, err := gpio.AcquireOutput(cfg.RST, gpio.High)
	if err != nil {
		return fail(fmt.Errorf("rst pin %d: %w", cfg.RST, err))
	}
	hw.rst = rst
	hw.pins = append(hw.pins, rst)

	busy, err := gpio.AcquireInput(cfg.Busy)
	if err != nil {
		return fail(fmt.Errorf("busy pin %d: %w", cfg.Busy, err))
	}
	hw.busy = busy
	hw.pins = append(hw.pins, busy)

	return &Display{
		hw:     hw,
		buffer: NewImage(cfg.Rotation),
	}, nil
}

// txLimit matches the default spidev buffer size.
const txLimit = 2048

// New wires a display over caller-provided pins and transport. The
// caller keeps ownership of the pins and the bus; Shutdown releases
// neither.
func New(tx Transmit, cs, dc, rst WriteablePin, busy ReadablePin, rot Rotation) *Display {
	return &Display{
		hw: &hardware{
			txLimit: txLimit,
			tx:      tx,
			cs:      cs,
			dc:      dc,
			rst:     rst,
			busy:    busy,
		},
		buffer: NewImage(rot),
	}
}

// Framebuffer returns the draw target for the next PushFrame. The
// buffer persists across refreshes.
func (d *Display) Framebuffer() *Image { return d.buffer }

// ClearFramebuffer repaints the framebuffer white without touching the
// panel.
func (d *Display) ClearFramebuffer() { d.buffer.Clear() }

// Configure resets the controller and runs the init handshake, leaving
// the full-refresh waveform programmed. It is the only operation legal
// from every state: the hardware reset recovers a sleeping or failed
// controller.
func (d *Display) Configure() error {
	if err := d.hw.reset(); err != nil {
		return d.fail(fmt.Errorf("reset: %w", err))
	}

	eh := errorHandler{hw: d.hw}
	eh.waitUntilIdle()
	eh.sendCommand(swReset)
	eh.waitUntilIdle()

	eh.sendCommand(setAnalogBlockControl, 0x54)
	eh.sendCommand(setDigitalBlockControl, 0x3B)

	// 250 gate lines (0xF9 = 249), scan order GD=0 SM=0 TB=0.
	eh.sendCommand(driverOutputControl, 0xF9, 0x00, 0x00)
	// X and Y both increment.
	eh.sendCommand(dataEntryMode, 0x03)

	d.setWindow(&eh)

	eh.sendCommand(borderWaveformControl, 0x03)
	eh.sendCommand(writeVcomRegister, 0x55)
	eh.sendCommand(gateDrivingVoltageControl, 0x15)
	eh.sendCommand(sourceDrivingVoltageControl, 0x41, 0xA8, 0x32)
	eh.sendCommand(setDummyLinePeriod, 0x30)
	eh.sendCommand(setGateTime, 0x0A)

	eh.sendCommand(writeLutRegister, lutFull[:]...)
	eh.waitUntilIdle()

	if eh.err != nil {
		return d.fail(fmt.Errorf("configure: %w", eh.err))
	}
	d.state = stateConfigured
	d.programmed = Full
	return nil
}

// setWindow addresses the whole panel and homes the RAM counters.
func (d *Display) setWindow(eh *errorHandler) {
	eh.sendCommand(setRamXStartEnd, 0x00, DisplayWidthBytes-1)
	eh.sendCommand(setRamYStartEnd, 0x00, 0x00, DisplayHeight-1, 0x00)
	eh.sendCommand(setRamXAddressCtr, 0x00)
	eh.sendCommand(setRamYAddressCtr, 0x00, 0x00)
}

// PushFrame writes the framebuffer to controller RAM and runs a refresh
// with the given mode. State guards run before any bus traffic.
func (d *Display) PushFrame(mode Mode) error {
	switch d.state {
	case stateUninitialized:
		return ErrNotConfigured
	case stateAsleep:
		return ErrAsleep
	case stateFailed:
		return ErrFailed
	case stateConfigured:
		if mode == Quick {
			return ErrQuickBeforeFull
		}
	}

	eh := errorHandler{hw: d.hw}
	if mode != d.programmed {
		d.program(&eh, mode)
	}

	eh.sendCommand(setRamXAddressCtr, 0x00)
	eh.sendCommand(setRamYAddressCtr, 0x00, 0x00)
	eh.sendCommand(writeRAMBW)
	eh.sendData(d.buffer.Pix)

	seq := updateSequenceFull
	if mode == Quick {
		seq = updateSequenceQuick
	}
	eh.sendCommand(displayUpdateControl2, seq)
	eh.sendCommand(masterActivation)
	eh.waitUntilIdle()

	if eh.err != nil {
		return d.fail(fmt.Errorf("%s refresh: %w", mode, eh.err))
	}
	d.programmed = mode
	if mode == Quick {
		d.state = stateAwakeQuick
	} else {
		d.state = stateAwakeFull
	}
	return nil
}

// program swaps the waveform table and the analog settings that go with
// it.
func (d *Display) program(eh *errorHandler, mode Mode) {
	if mode == Quick {
		eh.sendCommand(writeVcomRegister, 0x24)
		eh.sendCommand(borderWaveformControl, 0x01)
		eh.sendCommand(writeLutRegister, lutQuick[:]...)
	} else {
		eh.sendCommand(writeVcomRegister, 0x55)
		eh.sendCommand(borderWaveformControl, 0x03)
		eh.sendCommand(writeLutRegister, lutFull[:]...)
	}
	eh.waitUntilIdle()
}

// Sleep puts the controller into deep sleep. The panel keeps its image;
// only Configure wakes the controller again.
func (d *Display) Sleep() error {
	switch d.state {
	case stateUninitialized:
		return ErrNotConfigured
	case stateAsleep:
		return nil
	case stateFailed:
		return ErrFailed
	}
	if err := d.hw.sendCommand(deepSleepMode, 0x01); err != nil {
		return d.fail(fmt.Errorf("sleep: %w", err))
	}
	d.state = stateAsleep
	return nil
}

// Shutdown ends the session: best-effort sleep, then every pin claimed
// by Open is released and the SPI port closed. Safe to call in any
// state, including after a failure.
func (d *Display) Shutdown() {
	if d.state == stateConfigured || d.state == stateAwakeFull || d.state == stateAwakeQuick {
		if err := d.Sleep(); err != nil {
			log.Printf("sleep at shutdown: %v", err)
		}
	}
	for _, p := range d.hw.pins {
		p.Release()
	}
	d.hw.pins = nil
	if d.hw.closeBus != nil {
		if err := d.hw.closeBus(); err != nil {
			log.Printf("spi close: %v", err)
		}
		d.hw.closeBus = nil
	}
	d.state = stateUninitialized
}

func (d *Display) fail(err error) error {
	d.state = stateFailed
	return err
}
