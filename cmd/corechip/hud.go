package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// hudOverlay renders a small status line (frame counter, F1 hint) over
// the emulated display using the standard golang.org/x/image font
// renderer, rather than drawing text through the video chip itself.
type hudOverlay struct {
	face  font.Face
	img   *ebiten.Image
	back  *image.RGBA
	frame uint64
}

func newHUDOverlay() *hudOverlay {
	back := image.NewRGBA(image.Rect(0, 0, 200, 14))
	return &hudOverlay{
		face: basicfont.Face7x13,
		back: back,
		img:  ebiten.NewImageFromImage(back),
	}
}

func (h *hudOverlay) draw(screen *ebiten.Image, status string) {
	h.frame++

	draw.Draw(h.back, h.back.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 160}), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  h.back,
		Src:  image.NewUniform(color.RGBA{0, 255, 0, 255}),
		Face: h.face,
		Dot:  fixed.P(2, 10),
	}
	line := fmt.Sprintf("frame %d  F1 hide  F5 save  F9 load", h.frame)
	if status != "" {
		line = status
	}
	d.DrawString(line)

	h.img.WritePixels(h.back.Pix)
	screen.DrawImage(h.img, nil)
}
