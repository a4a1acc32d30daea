// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpio claims GPIO lines through the Linux sysfs interface.
//
// The kernel acknowledges an export asynchronously: the gpioN directory
// appears, and shortly after a udev rule makes its attributes writable by
// the owning group. Acquire polls for that moment instead of racing it.
package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Direction is fixed when a line is acquired and never changes afterwards.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// Level is the digital state of an output or input line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// ErrExportTimeout is returned when the kernel does not acknowledge an
// export within the readiness timeout. Callers may retry acquisition;
// any other acquisition error is a genuine GPIO fault.
var ErrExportTimeout = errors.New("gpio: export not acknowledged in time")

// DefaultRoot is the sysfs GPIO class directory.
const DefaultRoot = "/sys/class/gpio"

const (
	readyPollInterval = 5 * time.Millisecond
	readyTimeout      = 100 * time.Millisecond
)

// Pin is one claimed GPIO line. It is usable only while exported, and must
// be released exactly once at shutdown. Release is idempotent.
type Pin struct {
	line     int
	dir      Direction
	root     string
	exported bool
	value    Level
}

// AcquireInput exports line and configures it as an input.
func AcquireInput(line int) (*Pin, error) {
	return acquire(DefaultRoot, line, In, Low)
}

// AcquireOutput exports line, configures it as an output, and drives it to
// initial. The value is written only after the direction is fixed, so the
// line never floats through an undefined output state.
func AcquireOutput(line int, initial Level) (*Pin, error) {
	return acquire(DefaultRoot, line, Out, initial)
}

func acquire(root string, line int, dir Direction, initial Level) (*Pin, error) {
	if line <= 0 {
		return nil, fmt.Errorf("gpio: invalid line %d", line)
	}
	p := &Pin{line: line, dir: dir, root: root}
	if err := p.export(); err != nil {
		return nil, err
	}
	p.exported = true
	if err := p.waitReady(); err != nil {
		p.Release()
		return nil, err
	}
	if err := p.writeAttr("direction", string(dir)); err != nil {
		p.Release()
		return nil, fmt.Errorf("gpio: set direction of line %d: %w", line, err)
	}
	if dir == Out {
		if err := p.write(initial); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// export requests kernel ownership of the line. A line that is already
// exported counts as success: it is ready immediately.
func (p *Pin) export() error {
	if _, err := os.Stat(p.dir0()); err == nil {
		return nil
	}
	err := writeFile(filepath.Join(p.root, "export"), strconv.Itoa(p.line))
	if err == nil {
		return nil
	}
	// EBUSY from the export file also means "already exported".
	if _, statErr := os.Stat(p.dir0()); statErr == nil {
		return nil
	}
	return fmt.Errorf("gpio: export line %d: %w", p.line, err)
}

// waitReady polls the exported line's attributes until they are writable,
// bounded so a misbehaving kernel interface fails fast instead of hanging.
func (p *Pin) waitReady() error {
	start := time.Now()
	for {
		if p.ready() {
			return nil
		}
		if time.Since(start) > readyTimeout {
			return ErrExportTimeout
		}
		time.Sleep(readyPollInterval)
	}
}

func (p *Pin) ready() bool {
	f, err := os.OpenFile(filepath.Join(p.dir0(), "direction"), os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// High drives an output line to logic high.
func (p *Pin) High() error { return p.write(High) }

// Low drives an output line to logic low.
func (p *Pin) Low() error { return p.write(Low) }

func (p *Pin) write(l Level) error {
	if p.dir != Out {
		return fmt.Errorf("gpio: line %d is not an output", p.line)
	}
	if !p.exported {
		return fmt.Errorf("gpio: line %d is not exported", p.line)
	}
	v := "0"
	if l == High {
		v = "1"
	}
	if err := p.writeAttr("value", v); err != nil {
		return fmt.Errorf("gpio: write line %d: %w", p.line, err)
	}
	p.value = l
	return nil
}

// Read returns the current level of an input line.
func (p *Pin) Read() (Level, error) {
	if p.dir != In {
		return Low, fmt.Errorf("gpio: line %d is not an input", p.line)
	}
	if !p.exported {
		return Low, fmt.Errorf("gpio: line %d is not exported", p.line)
	}
	b, err := os.ReadFile(filepath.Join(p.dir0(), "value"))
	if err != nil {
		return Low, fmt.Errorf("gpio: read line %d: %w", p.line, err)
	}
	return Level(strings.TrimSpace(string(b)) != "0"), nil
}

// Release un-exports the line, best-effort. It never fails: releasing a pin
// that was never acquired, or releasing twice, does nothing.
func (p *Pin) Release() {
	if p == nil || !p.exported {
		return
	}
	p.exported = false
	writeFile(filepath.Join(p.root, "unexport"), strconv.Itoa(p.line))
}

// Line reports the kernel line number.
func (p *Pin) Line() int { return p.line }

// Direction reports the direction fixed at acquisition.
func (p *Pin) Direction() Direction { return p.dir }

// Exported reports whether the line is currently claimed.
func (p *Pin) Exported() bool { return p != nil && p.exported }

// Value reports the last written level of an output line.
func (p *Pin) Value() Level { return p.value }

func (p *Pin) dir0() string {
	return filepath.Join(p.root, fmt.Sprintf("gpio%d", p.line))
}

func (p *Pin) writeAttr(name, v string) error {
	return writeFile(filepath.Join(p.dir0(), name), v)
}

func writeFile(path, v string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(v)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}
