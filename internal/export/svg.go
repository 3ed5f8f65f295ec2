package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/world"
)

var speciesColor = map[atom.Species]string{
	atom.Water: "#00a8cc",
	atom.Body:  "#ffd700",
}

// FrameToSVG draws the box, the piston when active, and every atom as a
// circle. One box unit is scale SVG pixels.
func FrameToSVG(f world.Frame, scale float64) string {
	width := f.Width * scale
	height := f.Height * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<rect x="0" y="0" width="%.1f" height="%.1f" fill="none" stroke="#4488aa" stroke-width="1"/>
`, width, height, width, height, width, f.BoxHeight*scale)

	if f.MovingWall {
		y := f.BoxHeight * scale
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#ff6b6b" stroke-width="3"/>
`, y, width, y)
	}

	r := math.Max(scale*0.8, 0.5)
	for _, species := range []atom.Species{atom.Water, atom.Body} {
		fmt.Fprintf(&sb, "<g fill=\"%s\">\n", speciesColor[species])
		for _, a := range f.Atoms {
			if a.Species != species {
				continue
			}
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, a.Position.X*scale, a.Position.Y*scale, r)
		}
		sb.WriteString("</g>\n")
	}

	fmt.Fprintf(&sb, `<text x="6" y="16" fill="#e0f0ff" font-family="monospace" font-size="12">step %d  T=%.4f  P=%.4g  N=%d</text>
`, f.Iteration, f.Temperature, f.Pressure, f.Sample.Atoms)
	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots values as a polyline scaled to fit width x height.
// Non-finite values break the line.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if len(values) < 2 || math.IsInf(lo, 1) {
		return ""
	}

	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	lo -= rng * 0.1
	rng *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor)

	pen := "M"
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			pen = "M"
			continue
		}
		x := float64(i) / float64(len(values)-1) * float64(width)
		y := float64(height) - (v-lo)/rng*float64(height)
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", pen, x, y)
		pen = "L"
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// SVGWriter writes every Nth frame to dir as frame_<iteration>.svg. It
// satisfies sim.Observer.
type SVGWriter struct {
	dir     string
	every   int
	scale   float64
	seen    int
	written int
}

func NewSVGWriter(dir string, every int, scale float64) (*SVGWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	return &SVGWriter{dir: dir, every: max(every, 1), scale: scale}, nil
}

func (w *SVGWriter) OnFrame(f world.Frame) error {
	w.seen++
	if (w.seen-1)%w.every != 0 {
		return nil
	}
	path := filepath.Join(w.dir, fmt.Sprintf("frame_%08d.svg", f.Iteration))
	if err := os.WriteFile(path, []byte(FrameToSVG(f, w.scale)), 0644); err != nil {
		return err
	}
	w.written++
	return nil
}

func (w *SVGWriter) Written() int { return w.written }
