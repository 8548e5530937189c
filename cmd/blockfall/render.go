package main

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/client"
	"github.com/plus3/blockfall/registry"
)

const (
	opponentScale = 0.4
	boardGap      = 40
	queuePreview  = 3
	// lockGlow is how far towards white a resting shape fades before it locks.
	lockGlow = 0.6
)

var (
	backgroundColor = color.RGBA{0x18, 0x18, 0x20, 0xff}
	gridLineColor   = color.RGBA{0x30, 0x30, 0x3c, 0xff}
	lostTint        = color.RGBA{0x00, 0x00, 0x00, 0x99}
	overlayTint     = color.RGBA{0x00, 0x00, 0x00, 0xb4}
	textColor       = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

type renderer struct {
	nameFace  *text.GoTextFace
	titleFace *text.GoTextFace
	hintFace  *text.GoTextFace
}

func newRenderer() (*renderer, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &renderer{
		nameFace:  &text.GoTextFace{Source: src, Size: 12},
		titleFace: &text.GoTextFace{Source: src, Size: 36},
		hintFace:  &text.GoTextFace{Source: src, Size: 18},
	}, nil
}

// drawCentered draws str horizontally centred on cx with its top at y and
// returns the text height.
func drawCentered(dst *ebiten.Image, str string, face *text.GoTextFace, cx, y float64) float64 {
	w, h := text.Measure(str, face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(cx-w/2, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(dst, str, face, op)
	return h
}

func (r *renderer) draw(screen *ebiten.Image, s *client.Session) {
	screen.Fill(backgroundColor)
	bounds := screen.Bounds()
	width, height := float32(bounds.Dx()), float32(bounds.Dy())

	s.Registry().View(func(v registry.Reader) {
		x := float32(boardGap)

		if local, err := v.Get(s.Local()); err == nil {
			block := blockSize(local.Grid(), width, height)
			drawGrid(screen, local.Grid(), x, boardGap, block)
			if shape := local.Current(); shape != nil && !shape.Locked() {
				drawShape(screen, shape, x, boardGap, block, s.LockFraction())
			}
			if local.HasLost() {
				drawTint(screen, local.Grid(), x, boardGap, block)
			}
			x += float32(local.Grid().Width())*block + boardGap
			drawQueue(screen, local.Queue(), x, boardGap, block/2)
			x += 4*block/2 + boardGap
		}

		for conn, b := range v.All() {
			if conn == s.Local() {
				continue
			}
			block := blockSize(b.Grid(), width, height) * opponentScale
			drawGrid(screen, b.Grid(), x, boardGap, block)
			if b.HasLost() {
				drawTint(screen, b.Grid(), x, boardGap, block)
			}

			gridWidth := float32(b.Grid().Width()) * block
			nameY := boardGap + float32(b.Grid().Height())*block + 4
			drawCentered(screen, strings.ToUpper(b.Username()), r.nameFace, float64(x+gridWidth/2), float64(nameY))

			x += gridWidth + boardGap*opponentScale
		}
	})

	if !s.Started() {
		vector.DrawFilledRect(screen, 0, 0, width, height, overlayTint, false)
		h := drawCentered(screen, "Waiting    for    players", r.titleFace, float64(width)/2, float64(height)/2-40)
		drawCentered(screen, "The game will start shortly", r.hintFace, float64(width)/2, float64(height)/2-40+h+14)
	}
}

// blockSize fits the grid plus a one block margin into the screen.
func blockSize(g *board.Grid, width, height float32) float32 {
	return min(width/float32(g.Width()+1), height/float32(g.Height()+1)) * 0.8
}

func drawGrid(dst *ebiten.Image, g *board.Grid, x, y, block float32) {
	for row, cells := range g.Rows() {
		for col, c := range cells {
			cx := x + float32(col)*block
			cy := y + float32(row)*block
			if c.Filled {
				vector.DrawFilledRect(dst, cx, cy, block-1, block-1, c.Color.RGBA(), false)
			} else {
				vector.DrawFilledRect(dst, cx, cy, block-1, block-1, gridLineColor, false)
			}
		}
	}
}

// drawShape draws the current shape, fading it towards white as the lock
// clock runs out.
func drawShape(dst *ebiten.Image, s *board.Shape, x, y, block float32, frac float64) {
	c := s.Color().Lerp(0xFFFFFF, frac*lockGlow).RGBA()
	for _, p := range s.Cells() {
		if p.Y < 0 {
			continue
		}
		cx := x + float32(p.X)*block
		cy := y + float32(p.Y)*block
		vector.DrawFilledRect(dst, cx, cy, block-1, block-1, c, false)
	}
}

func drawQueue(dst *ebiten.Image, queue []board.ShapeSpec, x, y, block float32) {
	for i, spec := range queue[:min(len(queue), queuePreview)] {
		preview := board.NewGrid(4, 4, nil)
		shape, err := board.NewShape(spec.Kind, spec.Color, preview, board.Point{})
		if err != nil {
			continue
		}
		for _, p := range shape.Cells() {
			cx := x + float32(p.X)*block
			cy := y + float32(i*5+p.Y)*block
			vector.DrawFilledRect(dst, cx, cy, block-1, block-1, spec.Color.RGBA(), false)
		}
	}
}

func drawTint(dst *ebiten.Image, g *board.Grid, x, y, block float32) {
	vector.DrawFilledRect(dst, x, y, float32(g.Width())*block, float32(g.Height())*block, lostTint, false)
}
