package dotosu

const (
	PlayfieldWidth  = 512
	PlayfieldHeight = 384
)

// Object is a hit object in the shape the judge consumes. CurvePoints,
// CurveType, HoldDuration and the slider timing fields are only set for
// sliders.
type Object struct {
	X, Y         float64
	Time         int
	Kind         ObjectKind
	CurveType    SliderPathType
	CurvePoints  []Vec2
	HoldDuration int
	Slides       int
	Length       float64
	Velocity     float64
	TickInterval float64
}

type Chart struct {
	CircleSize        float64
	OverallDifficulty float64
	ApproachRate      float64
	Objects           []Object
}

// Chart flattens the beatmap into judgement input. Objects keep the
// decoded order, which is time order with ties in declaration order.
func (b *Beatmap) Chart() Chart {
	objects := make([]Object, 0, len(b.HitObjects))
	for _, ho := range b.HitObjects {
		o := Object{X: ho.Pos().X, Y: ho.Pos().Y, Time: ho.StartTime(), Kind: ho.Kind()}
		if s, ok := ho.(Slider); ok {
			o.CurveType = s.Path.Type
			o.CurvePoints = append([]Vec2(nil), s.Path.Points...)
			o.HoldDuration = s.Duration
			o.Slides = s.Slides
			o.Length = s.Length
			o.Velocity = s.Velocity
			o.TickInterval = s.TickInterval
		}
		objects = append(objects, o)
	}
	return Chart{
		CircleSize:        b.Difficulty.CircleSize,
		OverallDifficulty: b.Difficulty.OverallDifficulty,
		ApproachRate:      b.Difficulty.ApproachRate,
		Objects:           objects,
	}
}

// FlipVertical mirrors every object across the horizontal centre line of
// the playfield, as Hard Rock does. The receiver is not modified.
func (c Chart) FlipVertical() Chart {
	out := c
	out.Objects = make([]Object, len(c.Objects))
	for i, o := range c.Objects {
		o.Y = PlayfieldHeight - o.Y
		if o.CurvePoints != nil {
			pts := make([]Vec2, len(o.CurvePoints))
			for j, p := range o.CurvePoints {
				pts[j] = Vec2{X: p.X, Y: PlayfieldHeight - p.Y}
			}
			o.CurvePoints = pts
		}
		out.Objects[i] = o
	}
	return out
}
