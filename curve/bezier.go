package curve

import "math"

// splitSubCurves cuts the control points wherever a point repeats (a red
// anchor). Each sub-curve keeps the shared anchor as its first point.
func splitSubCurves(cp []Vec) [][]Vec {
	var segs [][]Vec
	cur := []Vec{cp[0]}
	for i := 1; i < len(cp); i++ {
		if almostEq(cp[i], cur[len(cur)-1]) {
			if len(cur) >= 2 {
				segs = append(segs, cur)
			}
			cur = []Vec{cp[i]}
			continue
		}
		cur = append(cur, cp[i])
	}
	if len(cur) >= 2 {
		segs = append(segs, cur)
	}
	return segs
}

// approximateCompositeBezier samples each sub-curve at a step count
// proportional to its control polygon length and joins the results.
func approximateCompositeBezier(cp []Vec) []Vec {
	var out []Vec
	for _, seg := range splitSubCurves(cp) {
		pts := sampleBezier(seg)
		if len(out) > 0 && almostEq(out[len(out)-1], pts[0]) {
			pts = pts[1:]
		}
		out = append(out, pts...)
	}
	return out
}

func sampleBezier(cp []Vec) []Vec {
	chord := 0.0
	for i := 1; i < len(cp); i++ {
		chord += cp[i].Dist(cp[i-1])
	}
	steps := max(1, int(math.Ceil(chord/bezierSampleSpacing)))

	out := make([]Vec, 0, steps+1)
	out = append(out, cp[0])
	buf := make([]Vec, len(cp))
	for s := 1; s < steps; s++ {
		out = append(out, deCasteljau(cp, buf, float64(s)/float64(steps)))
	}
	return append(out, cp[len(cp)-1])
}

// deCasteljau evaluates the Bezier curve of any degree at t, using buf as
// scratch space.
func deCasteljau(cp, buf []Vec, t float64) Vec {
	copy(buf, cp)
	for n := len(cp) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			buf[i] = buf[i].Lerp(buf[i+1], t)
		}
	}
	return buf[0]
}
