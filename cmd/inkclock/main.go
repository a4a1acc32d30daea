// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Binary inkclock drives a spinner clock on a waveshare 2.13" panel.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"inkclock/config"
	"inkclock/devices/epd2in13"
	"inkclock/echo"
	"inkclock/render"
)

var (
	configPath = flag.String("config", "inkclock.yaml", "Path to the YAML config file, created on first run.")
	strategy   = flag.String("strategy", "", "Render strategy: spinner, pattern, or banner.")
	banner     = flag.String("banner", "", "Image file for the banner strategy.")
	interval   = flag.Duration("interval", 0, "Pause between refreshes.")
	format     = flag.String("format", "", "time.Time format for the clock.")
	rotate     = flag.Int("rotate", 0, "Framebuffer rotation in degrees (90, 180, 270).")
	listen     = flag.String("listen", "", "WebSocket echo listener address, empty to disable.")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(cfg)
	if err := cfg.Normalize(); err != nil {
		log.Fatal(err)
	}

	gate := &render.Gate{}
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-c
		log.Printf("Got signal %q, quitting", s.String())
		gate.Stop()
	}()

	if cfg.Listen != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := echo.ListenAndServe(ctx, cfg.Listen); err != nil {
				log.Printf("echo listener: %v", err)
			}
		}()
	}

	log.Println("Opening display")
	d, err := epd2in13.Open(epd2in13.Config{Rotation: rotation(cfg.Rotation)})
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Configuring")
	if err := d.Configure(); err != nil {
		d.Shutdown()
		log.Fatal(err)
	}

	loop := &render.Loop{
		Display:  d,
		Strategy: newStrategy(cfg),
		Gate:     gate,
		Interval: cfg.Interval,
	}
	// Run shuts the display down on every path.
	if err := loop.Run(); err != nil {
		log.Fatal(err)
	}
	log.Println("Done")
}

func applyFlags(cfg *config.Config) {
	if *strategy != "" {
		cfg.Strategy = *strategy
	}
	if *banner != "" {
		cfg.BannerPath = *banner
	}
	if *interval > 0 {
		cfg.Interval = *interval
	}
	if *format != "" {
		cfg.TimeFormat = *format
	}
	if *rotate != 0 {
		cfg.Rotation = *rotate
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
}

func newStrategy(cfg *config.Config) render.Strategy {
	switch cfg.Strategy {
	case config.StrategyPattern:
		return render.TestPattern{}
	case config.StrategyBanner:
		return &render.Banner{Path: cfg.BannerPath}
	default:
		return &render.Spinner{Format: cfg.TimeFormat, Hint: "ctrl-c to exit"}
	}
}

func rotation(deg int) epd2in13.Rotation {
	switch deg {
	case 90:
		return epd2in13.Rotate90
	case 180:
		return epd2in13.Rotate180
	case 270:
		return epd2in13.Rotate270
	}
	return epd2in13.Rotate0
}
