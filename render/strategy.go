// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/makeworld-the-better-one/dither"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
)

// glyphWidth is the monospace advance the layout math assumes.
const glyphWidth = 10

var spinnerGlyphs = [...]string{"|", "/", "-", "\\"}

var (
	faceOnce sync.Once
	faceVal  font.Face
	faceErr  error
)

func monoFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := opentype.Parse(gomonobold.TTF)
		if err != nil {
			faceErr = fmt.Errorf("parse gomonobold: %w", err)
			return
		}
		faceVal, faceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    16,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	})
	return faceVal, faceErr
}

// Spinner draws the idle screen: a cycling glyph top-left, the time
// right-aligned on the same line, and an optional hint bottom-left.
type Spinner struct {
	// Format is the time layout, 15:04:05 when empty.
	Format string
	// Hint is drawn along the bottom edge when non-empty.
	Hint string
}

func (s *Spinner) Draw(dst draw.Image, t time.Time, phase int) error {
	face, err := monoFace()
	if err != nil {
		return err
	}
	b := dst.Bounds()
	ctx := gg.NewContext(b.Dx(), b.Dy())
	ctx.SetRGB(1, 1, 1)
	ctx.Clear()
	ctx.SetFontFace(face)
	ctx.SetRGB(0, 0, 0)

	const baseline = 20
	ctx.DrawString(spinnerGlyphs[phase%len(spinnerGlyphs)], 4, baseline)

	layout := s.Format
	if layout == "" {
		layout = "15:04:05"
	}
	text := t.Format(layout)
	x := float64(b.Dx() - len(text)*glyphWidth)
	if x < 0 {
		x = 0
	}
	ctx.DrawString(text, x, baseline)

	if s.Hint != "" {
		ctx.DrawString(s.Hint, 4, float64(b.Dy()-6))
	}

	draw.Draw(dst, b, ctx.Image(), image.Point{}, draw.Src)
	return nil
}

// TestPattern draws an analog clock face, a quick visual check that
// geometry, rotation, and both refresh paths behave.
type TestPattern struct{}

func (TestPattern) Draw(dst draw.Image, t time.Time, phase int) error {
	face, err := monoFace()
	if err != nil {
		return err
	}
	b := dst.Bounds()
	ctx := gg.NewContext(b.Dx(), b.Dy())
	ctx.SetRGB(1, 1, 1)
	ctx.Clear()
	ctx.SetRGB(0, 0, 0)

	cx := float64(b.Dx()) / 2
	cy := float64(b.Dy()) / 2
	r := math.Min(cx, cy) - 4

	ctx.SetLineWidth(2)
	ctx.DrawCircle(cx, cy, r)
	ctx.Stroke()
	for i := 0; i < 12; i++ {
		a := float64(i) / 12 * 2 * math.Pi
		ctx.DrawLine(cx+0.88*r*math.Sin(a), cy-0.88*r*math.Cos(a),
			cx+r*math.Sin(a), cy-r*math.Cos(a))
	}
	ctx.Stroke()

	hour := float64(t.Hour()%12) + float64(t.Minute())/60
	min := float64(t.Minute()) + float64(t.Second())/60
	ctx.SetLineWidth(3)
	a := hour / 12 * 2 * math.Pi
	ctx.DrawLine(cx, cy, cx+0.5*r*math.Sin(a), cy-0.5*r*math.Cos(a))
	ctx.Stroke()
	ctx.SetLineWidth(2)
	a = min / 60 * 2 * math.Pi
	ctx.DrawLine(cx, cy, cx+0.8*r*math.Sin(a), cy-0.8*r*math.Cos(a))
	ctx.Stroke()

	ctx.SetFontFace(face)
	ctx.DrawString(t.Format("15:04"), 4, float64(b.Dy()-6))

	draw.Draw(dst, b, ctx.Image(), image.Point{}, draw.Src)
	return nil
}

// Banner renders an image file, fitted and dithered down to the panel's
// two colors. The file is decoded once and reused across frames.
type Banner struct {
	Path string
	// Rotate is an extra rotation in degrees on top of the
	// framebuffer's own orientation.
	Rotate float64

	once sync.Once
	src  image.Image
	err  error
}

func (bn *Banner) load() (image.Image, error) {
	bn.once.Do(func() {
		f, err := os.Open(bn.Path)
		if err != nil {
			bn.err = err
			return
		}
		defer f.Close()
		bn.src, _, bn.err = image.Decode(f)
		if bn.err != nil {
			bn.err = fmt.Errorf("decode %s: %w", bn.Path, bn.err)
		}
	})
	return bn.src, bn.err
}

func (bn *Banner) Draw(dst draw.Image, t time.Time, phase int) error {
	src, err := bn.load()
	if err != nil {
		return err
	}
	b := dst.Bounds()
	rot := imaging.Rotate(src, bn.Rotate, color.White)
	fit := imaging.Fit(rot, b.Dx(), b.Dy(), imaging.Lanczos)
	final := imaging.PasteCenter(imaging.New(b.Dx(), b.Dy(), color.White), fit)

	dith := dither.NewDitherer([]color.Color{color.White, color.Black})
	dith.Matrix = dither.FloydSteinberg
	dith.Serpentine = true
	var img image.Image = final
	if tmp := dith.DitherPaletted(final); tmp != nil {
		img = tmp
	}
	draw.Draw(dst, b, img, image.Point{}, draw.Src)
	return nil
}
