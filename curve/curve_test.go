package curve

import (
	"errors"
	"math"
	"testing"
)

func near(a, b Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

func TestEndpointsMatchControlPoints(t *testing.T) {
	cases := map[string]struct {
		kind Type
		cp   []Vec
	}{
		"bezier quadratic": {Bezier, []Vec{{0, 0}, {100, 0}, {100, 100}}},
		"bezier cubic":     {Bezier, []Vec{{10, 10}, {80, -40}, {160, 90}, {240, 30}}},
		"bezier two":       {Bezier, []Vec{{5, 5}, {300, 200}}},
		"linear":           {Linear, []Vec{{0, 0}, {50, 0}, {50, 50}}},
		"catmull":          {Catmull, []Vec{{0, 0}, {40, 60}, {120, 20}}},
		"perfect":          {Perfect, []Vec{{0, 0}, {50, 50}, {100, 0}}},
	}
	for name, c := range cases {
		p, err := Evaluate(c.cp, c.kind, Options{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !near(p.Points[0], c.cp[0], 1e-6) {
			t.Errorf("%s: first point %v, want %v", name, p.Points[0], c.cp[0])
		}
		last := c.cp[len(c.cp)-1]
		if !near(p.Points[len(p.Points)-1], last, 1e-6) {
			t.Errorf("%s: last point %v, want %v", name, p.Points[len(p.Points)-1], last)
		}
	}
}

func TestDegenerate(t *testing.T) {
	for _, cp := range [][]Vec{nil, {{1, 1}}} {
		if _, err := Evaluate(cp, Bezier, Options{}); !errors.Is(err, ErrDegenerateCurve) {
			t.Errorf("%d points: got %v", len(cp), err)
		}
	}
}

func TestRepeatedPointSplitsSubCurves(t *testing.T) {
	cp := []Vec{{0, 0}, {50, 0}, {50, 0}, {50, 50}}
	if segs := splitSubCurves(cp); len(segs) != 2 {
		t.Fatalf("got %d sub-curves, want 2", len(segs))
	}
	p, err := Evaluate(cp, Bezier, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Length-100) > 1e-6 {
		t.Errorf("length %g, want 100", p.Length)
	}
	found := false
	for _, v := range p.Points {
		if near(v, Vec{50, 0}, 1e-9) {
			found = true
		}
	}
	if !found {
		t.Error("path does not pass through the anchor")
	}
	for i := 1; i < len(p.Points); i++ {
		if almostEq(p.Points[i], p.Points[i-1]) {
			t.Fatalf("duplicate point at %d", i)
		}
	}
}

func TestBezierSampleCount(t *testing.T) {
	// A 40px polygon gets 10 steps.
	pts := sampleBezier([]Vec{{0, 0}, {20, 0}, {40, 0}})
	if len(pts) != 11 {
		t.Errorf("got %d samples, want 11", len(pts))
	}
}

func TestTicksAndDuration(t *testing.T) {
	p, err := Evaluate([]Vec{{0, 0}, {200, 0}}, Linear, Options{Velocity: 1, TickInterval: 50})
	if err != nil {
		t.Fatal(err)
	}
	if p.Duration != 200 {
		t.Errorf("duration %g, want 200", p.Duration)
	}
	want := []Vec{{50, 0}, {100, 0}, {150, 0}}
	if len(p.Ticks) != len(want) {
		t.Fatalf("ticks %v, want %v", p.Ticks, want)
	}
	for i := range want {
		if !near(p.Ticks[i], want[i], 1e-9) {
			t.Errorf("tick %d = %v, want %v", i, p.Ticks[i], want[i])
		}
	}
}

func TestNoTicksWithoutVelocity(t *testing.T) {
	p, err := Evaluate([]Vec{{0, 0}, {200, 0}}, Linear, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Ticks) != 0 || p.Duration != 0 {
		t.Errorf("ticks %v duration %g", p.Ticks, p.Duration)
	}
}

func TestFitLength(t *testing.T) {
	cp := []Vec{{0, 0}, {100, 0}, {200, 0}}
	short, err := Evaluate(cp, Linear, Options{Length: 150})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(short.Length-150) > 1e-9 || !near(short.Points[len(short.Points)-1], Vec{150, 0}, 1e-9) {
		t.Errorf("cut: length %g, end %v", short.Length, short.Points[len(short.Points)-1])
	}

	long, err := Evaluate(cp, Linear, Options{Length: 260})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(long.Length-260) > 1e-9 || !near(long.Points[len(long.Points)-1], Vec{260, 0}, 1e-9) {
		t.Errorf("extend: length %g, end %v", long.Length, long.Points[len(long.Points)-1])
	}
}

func TestPositionAtTime(t *testing.T) {
	p, err := Evaluate([]Vec{{0, 0}, {200, 0}}, Linear, Options{Velocity: 1})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		elapsed float64
		want    Vec
	}{
		{-5, Vec{0, 0}},
		{0, Vec{0, 0}},
		{100, Vec{100, 0}},
		{200, Vec{200, 0}},
		{300, Vec{100, 0}},
		{400, Vec{0, 0}},
		{1000, Vec{0, 0}},
	}
	for _, c := range cases {
		if got := p.PositionAtTime(c.elapsed, 2); !near(got, c.want, 1e-9) {
			t.Errorf("elapsed %g: got %v, want %v", c.elapsed, got, c.want)
		}
	}
	if got := p.PositionAt(75); !near(got, Vec{75, 0}, 1e-9) {
		t.Errorf("PositionAt(75) = %v", got)
	}
}

func TestPerfectArc(t *testing.T) {
	p, err := Evaluate([]Vec{{0, 0}, {50, 50}, {100, 0}}, Perfect, Options{})
	if err != nil {
		t.Fatal(err)
	}
	centre := Vec{50, 0}
	for _, v := range p.Points {
		if math.Abs(v.Dist(centre)-50) > 1e-6 {
			t.Fatalf("point %v is off the circle", v)
		}
	}
	if math.Abs(p.Length-math.Pi*50) > 0.5 {
		t.Errorf("arc length %g, want about %g", p.Length, math.Pi*50)
	}
	if p.PositionAt(p.Length/2).Y < 49 {
		t.Errorf("arc bends the wrong way: midpoint %v", p.PositionAt(p.Length/2))
	}
}

func TestPerfectCollinearIsStraight(t *testing.T) {
	p, err := Evaluate([]Vec{{0, 0}, {50, 0}, {100, 0}}, Perfect, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Length-100) > 1e-9 {
		t.Errorf("length %g, want 100", p.Length)
	}
}

func TestSinglePointPath(t *testing.T) {
	p, err := Evaluate([]Vec{{10, 10}, {10, 10}}, Bezier, Options{Velocity: 1, TickInterval: 10})
	if err != nil {
		t.Fatal(err)
	}
	if p.Length != 0 || len(p.Ticks) != 0 {
		t.Errorf("length %g ticks %v", p.Length, p.Ticks)
	}
	if got := p.PositionAtTime(5, 1); got != (Vec{10, 10}) {
		t.Errorf("position %v", got)
	}
}
