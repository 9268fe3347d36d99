package curve

import "math"

// --- Catmull-Rom (uniform, with lazer's detail count) ---

func approximateCatmull(pts []Vec) []Vec {
	n := len(pts)
	out := make([]Vec, 0, (n-1)*catmullDet+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 1; s <= catmullDet; s++ {
			t := float64(s) / float64(catmullDet)
			out = append(out, catmullPoint(p0, p1, p2, p3, t))
		}
	}
	return out
}

func catmullPoint(p0, p1, p2, p3 Vec, t float64) Vec {
	t2 := t * t
	t3 := t2 * t
	return Vec{
		X: 0.5 * ((2 * p1.X) + (-p0.X+p2.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * ((2 * p1.Y) + (-p0.Y+p2.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3),
	}
}

// --- Perfect circle (3 points), with arc step from sagitta tolerance ---

func approximateCircularArc(p1, p2, p3 Vec) []Vec {
	if math.Abs(cross(p2.Sub(p1), p3.Sub(p2))) < 1e-6 {
		return []Vec{p1, p3}
	}
	c, ok := circumcenter(p1, p2, p3)
	if !ok {
		return []Vec{p1, p3}
	}
	r := c.Dist(p1)

	a1 := math.Atan2(p1.Y-c.Y, p1.X-c.X)
	a3 := math.Atan2(p3.Y-c.Y, p3.X-c.X)

	dir := 1.0
	if cross(p2.Sub(p1), p3.Sub(p2)) < 0 {
		dir = -1.0
	}
	delta := angleDiff(a1, a3, dir)

	step := 2 * math.Acos(clamp(1.0-arcTol/r, -1, 1))
	if step <= 0 || math.IsNaN(step) || step > math.Pi {
		step = math.Pi
	}
	steps := max(2, int(math.Ceil(math.Abs(delta)/step)))
	step = delta / float64(steps)

	out := make([]Vec, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		a := a1 + float64(i)*step
		out = append(out, Vec{c.X + math.Cos(a)*r, c.Y + math.Sin(a)*r})
	}
	return append(out, p3)
}

func circumcenter(a, b, c Vec) (Vec, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-8 {
		return Vec{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	return Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// angleDiff returns the signed sweep from aStart to aEnd going in dir.
func angleDiff(aStart, aEnd, dir float64) float64 {
	d := aEnd - aStart
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	if dir < 0 && d > 0 {
		d -= 2 * math.Pi
	} else if dir > 0 && d < 0 {
		d += 2 * math.Pi
	}
	return d
}
