package render

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/inkroom-app/inkroom/internal/board"
)

// A4 landscape drawing area in millimetres.
const (
	pdfPageWidth  = 297.0
	pdfPageHeight = 210.0
)

// WritePDF replays an ordered stroke list onto a single-page PDF, scaling
// board coordinates down to the page. Erase strokes are drawn in white.
func WritePDF(w io.Writer, strokes []board.Stroke, boardWidth, boardHeight float64) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()

	scaleX := pdfPageWidth / boardWidth
	scaleY := pdfPageHeight / boardHeight
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	for _, s := range strokes {
		if len(s.Points) < 2 {
			continue
		}
		r, g, b := hexRGB(s.Color)
		if s.Composite == board.CompositeDestinationOut {
			r, g, b = 255, 255, 255
		}
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(s.Width * scale)
		p.SetLineCapStyle("round")
		for i := 1; i < len(s.Points); i++ {
			p.Line(
				s.Points[i-1].X*scale, s.Points[i-1].Y*scale,
				s.Points[i].X*scale, s.Points[i].Y*scale,
			)
		}
	}

	return p.Output(w)
}

// hexRGB parses a "#rrggbb" color, falling back to black.
func hexRGB(hex string) (int, int, int) {
	var r, g, b int
	if n, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil || n != 3 {
		return 0, 0, 0
	}
	return r, g, b
}
