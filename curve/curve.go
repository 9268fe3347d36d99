// Package curve turns slider control points into a dense playable path,
// places ticks along it at constant arc length and reports how long the
// path takes to travel.
package curve

import (
	"errors"
	"fmt"
	"math"
)

var ErrDegenerateCurve = errors.New("degenerate curve")

type Type uint8

const (
	Bezier Type = iota
	Linear
	Catmull
	Perfect
)

const (
	// Bezier sub-curves get one sample per this many pixels of control
	// polygon length.
	bezierSampleSpacing = 4.0
	arcTol              = 0.10 // CIRCULAR_ARC_TOLERANCE (sagitta)
	catmullDet          = 50   // CATMULL_DETAIL (samples per segment)
)

// Options carries the timing a path needs from its chart object. A zero
// Length keeps the evaluated path as is; a zero Velocity or TickInterval
// produces no ticks and no duration.
type Options struct {
	Length       float64 // declared pixel length
	Velocity     float64 // pixels per ms
	TickInterval float64 // ms between ticks
}

type Path struct {
	Points   []Vec
	Ticks    []Vec
	Length   float64 // arc length of Points
	Duration float64 // ms to travel Points once

	cumulative []float64
}

// Evaluate builds the path for control points of the given type.
func Evaluate(control []Vec, kind Type, opts Options) (*Path, error) {
	if len(control) < 2 {
		return nil, fmt.Errorf("%w: %d control points", ErrDegenerateCurve, len(control))
	}

	var poly []Vec
	switch kind {
	case Linear:
		poly = dedupe(control)
	case Catmull:
		poly = dedupe(approximateCatmull(control))
	case Perfect:
		// Perfect circle only for exactly 3 points; otherwise fall back to Bezier.
		if len(control) == 3 {
			poly = dedupe(approximateCircularArc(control[0], control[1], control[2]))
		} else {
			poly = approximateCompositeBezier(control)
		}
	default:
		poly = approximateCompositeBezier(control)
	}
	if len(poly) < 2 {
		// Every control point was the same; the path is a single spot.
		poly = []Vec{control[0], control[0]}
	}

	if opts.Length > 0 {
		poly = fitLength(poly, opts.Length)
	}

	p := &Path{Points: poly}
	p.measure()
	if opts.Velocity > 0 {
		p.Duration = p.Length / opts.Velocity
		p.Ticks = p.ticks(opts.Velocity * opts.TickInterval)
	}
	return p, nil
}

func (p *Path) measure() {
	p.cumulative = make([]float64, len(p.Points))
	for i := 1; i < len(p.Points); i++ {
		p.cumulative[i] = p.cumulative[i-1] + p.Points[i].Dist(p.Points[i-1])
	}
	p.Length = p.cumulative[len(p.cumulative)-1]
}

// ticks walks the path and drops a tick every spacing pixels, stopping
// short of the end.
func (p *Path) ticks(spacing float64) []Vec {
	if spacing <= 0 || math.IsNaN(spacing) {
		return nil
	}
	var out []Vec
	next := spacing
	for i := 1; i < len(p.Points); i++ {
		for next < p.cumulative[i] && next < p.Length {
			seg := p.cumulative[i] - p.cumulative[i-1]
			t := (next - p.cumulative[i-1]) / seg
			out = append(out, p.Points[i-1].Lerp(p.Points[i], t))
			next += spacing
		}
	}
	return out
}

// PositionAt returns the point at distance d along the path, clamped to
// its ends.
func (p *Path) PositionAt(d float64) Vec {
	if d <= 0 {
		return p.Points[0]
	}
	if d >= p.Length {
		return p.Points[len(p.Points)-1]
	}
	lo, hi := 0, len(p.cumulative)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if p.cumulative[mid] <= d {
			lo = mid
		} else {
			hi = mid
		}
	}
	seg := p.cumulative[hi] - p.cumulative[lo]
	if seg == 0 {
		return p.Points[lo]
	}
	return p.Points[lo].Lerp(p.Points[hi], (d-p.cumulative[lo])/seg)
}

// PositionAtTime returns where the slider ball is elapsed ms after the
// object starts, bouncing back on even slides.
func (p *Path) PositionAtTime(elapsed float64, slides int) Vec {
	if p.Duration <= 0 || elapsed <= 0 {
		return p.Points[0]
	}
	progress := elapsed / p.Duration
	if progress >= float64(slides) {
		progress = float64(slides)
	}
	slide := int(progress)
	frac := progress - float64(slide)
	if slide == slides {
		slide, frac = slides-1, 1
	}
	if slide%2 == 1 {
		frac = 1 - frac
	}
	return p.PositionAt(frac * p.Length)
}

// fitLength cuts the path at length, or extends its last segment when the
// declared length is longer than the evaluated path.
func fitLength(poly []Vec, length float64) []Vec {
	total := 0.0
	for i := 1; i < len(poly); i++ {
		l := poly[i].Dist(poly[i-1])
		if total+l >= length {
			out := append([]Vec(nil), poly[:i]...)
			if l > 0 {
				out = append(out, poly[i-1].Lerp(poly[i], (length-total)/l))
			}
			return dedupe(out)
		}
		total += l
	}
	last, prev := poly[len(poly)-1], poly[len(poly)-2]
	l := last.Dist(prev)
	if l == 0 {
		return poly
	}
	out := append([]Vec(nil), poly...)
	out[len(out)-1] = prev.Lerp(last, (l+length-total)/l)
	return out
}

func dedupe(pts []Vec) []Vec {
	out := make([]Vec, 0, len(pts))
	for _, v := range pts {
		if n := len(out); n == 0 || !almostEq(out[n-1], v) {
			out = append(out, v)
		}
	}
	return out
}
