// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render runs the display refresh loop: one full refresh to
// settle the panel, then quick refreshes of whatever the strategy draws
// until the gate closes.
package render

import (
	"fmt"
	"image/draw"
	"sync/atomic"
	"time"

	"inkclock/devices/epd2in13"
)

// DefaultInterval is the pause between quick refreshes.
const DefaultInterval = 500 * time.Millisecond

// Gate is the stop signal between the interrupt handler and the loop.
// Stop only stores a flag, so it is safe from a signal goroutine; the
// loop polls Continue between refreshes.
type Gate struct {
	stopped atomic.Bool
}

// Stop closes the gate. Idempotent.
func (g *Gate) Stop() { g.stopped.Store(true) }

// Continue reports whether the loop should run another cycle.
func (g *Gate) Continue() bool { return !g.stopped.Load() }

// Strategy draws one frame. phase counts cycles since the loop started,
// wrapping at 4.
type Strategy interface {
	Draw(dst draw.Image, t time.Time, phase int) error
}

// Display is the slice of the panel driver the loop needs.
type Display interface {
	Framebuffer() *epd2in13.Image
	ClearFramebuffer()
	PushFrame(epd2in13.Mode) error
	Shutdown()
}

// Loop drives a configured Display with a Strategy until the Gate
// closes. The caller configures the display first; Run shuts it down.
type Loop struct {
	Display  Display
	Strategy Strategy
	Gate     *Gate
	// Interval is the pause between frames, DefaultInterval when zero.
	Interval time.Duration

	// Overridable in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// Run blocks until the gate closes or a refresh fails. The display is
// shut down exactly once on every path, so a deferred Shutdown in the
// caller is unnecessary. A refresh already in flight when the gate
// closes completes before Run returns.
func (l *Loop) Run() error {
	defer l.Display.Shutdown()

	sleep := l.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := l.now
	if now == nil {
		now = time.Now
	}
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	l.Display.ClearFramebuffer()
	if err := l.Display.PushFrame(epd2in13.Full); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}

	for phase := 0; l.Gate.Continue(); phase = (phase + 1) % 4 {
		l.Display.ClearFramebuffer()
		if err := l.Strategy.Draw(l.Display.Framebuffer(), now(), phase); err != nil {
			return fmt.Errorf("draw frame: %w", err)
		}
		if err := l.Display.PushFrame(epd2in13.Quick); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		sleep(interval)
	}
	return nil
}
