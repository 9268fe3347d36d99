package dotosu

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ObjectKind uint8

const (
	KindCircle ObjectKind = iota
	KindSlider
)

func (k ObjectKind) String() string {
	if k == KindSlider {
		return "slider"
	}
	return "circle"
}

type HitObjectTypeFlags int

const (
	TypeCircle HitObjectTypeFlags = 1 << iota // 1
	TypeSlider                                // 2
)

type Vec2 struct{ X, Y float64 }

type SliderPathType uint8

const (
	PathBezier SliderPathType = iota
	PathLinear
	PathCatmull
	PathPerfect
)

func (t SliderPathType) String() string {
	switch t {
	case PathLinear:
		return "L"
	case PathCatmull:
		return "C"
	case PathPerfect:
		return "P"
	default:
		return "B"
	}
}

// SliderPath holds the control points INCLUDING the slider head as the
// first point. Bezier sub-curves are marked by a repeated point and are
// split by the curve evaluator, not here.
type SliderPath struct {
	Type   SliderPathType
	Points []Vec2
}

type HitObject interface {
	Kind() ObjectKind
	StartTime() int
	Pos() Vec2
}

type BaseHO struct {
	PosXY Vec2
	Time  int
	Type  HitObjectTypeFlags
}

func (b BaseHO) StartTime() int { return b.Time }
func (b BaseHO) Pos() Vec2      { return b.PosXY }

type Circle struct{ BaseHO }

func (Circle) Kind() ObjectKind { return KindCircle }

type Slider struct {
	BaseHO
	Path   SliderPath
	Slides int
	Length float64

	// Filled from the timing points once the whole file is read.
	Velocity     float64 // playfield pixels per ms
	TickInterval float64 // ms between ticks
	Duration     int     // ms, all slides
}

func (Slider) Kind() ObjectKind { return KindSlider }

// parseHitObject returns nil, nil for object types the judge does not score.
func parseHitObject(line string, offset int) (HitObject, error) {
	parts := splitCSV(line)
	if len(parts) < 5 {
		return nil, fmt.Errorf("%w: %q has %d fields, need 5", ErrMalformedObjectRecord, line, len(parts))
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	t, errT := strconv.ParseFloat(parts[2], 64)
	flags, errF := strconv.Atoi(parts[3])
	if err := firstErr(errX, errY, errT, errF); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformedObjectRecord, line, err)
	}

	base := BaseHO{
		PosXY: Vec2{X: x, Y: y},
		Time:  int(t) + offset,
		Type:  HitObjectTypeFlags(flags),
	}

	switch {
	case base.Type&TypeSlider != 0:
		// x,y,time,type,hitSound,curve,slides,length[,edgeSounds,edgeSets,hitSample]
		if len(parts) < 8 {
			return nil, fmt.Errorf("%w: slider %q has %d fields, need 8", ErrMalformedObjectRecord, line, len(parts))
		}
		path, err := parseSliderPath(base.PosXY, parts[5])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrMalformedObjectRecord, line, err)
		}
		slides, errS := strconv.Atoi(parts[6])
		length, errL := strconv.ParseFloat(parts[7], 64)
		if err := firstErr(errS, errL); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrMalformedObjectRecord, line, err)
		}
		if slides < 1 || length < 0 || math.IsNaN(length) {
			return nil, fmt.Errorf("%w: %q: slides %d, length %g", ErrMalformedObjectRecord, line, slides, length)
		}
		return Slider{BaseHO: base, Path: path, Slides: slides, Length: length}, nil

	case base.Type&TypeCircle != 0:
		return Circle{BaseHO: base}, nil

	default:
		return nil, nil
	}
}

// parseSliderPath converts "B|x:y|x:y|..." into a typed SliderPath.
// The slider head is the FIRST point; the string supplies the rest.
func parseSliderPath(head Vec2, field string) (SliderPath, error) {
	field = strings.TrimSpace(field)
	typeStr, rest, _ := strings.Cut(field, "|")

	var pType SliderPathType
	switch strings.ToUpper(strings.TrimSpace(typeStr)) {
	case "L":
		pType = PathLinear
	case "C":
		pType = PathCatmull
	case "P":
		pType = PathPerfect
	case "B":
		pType = PathBezier
	default:
		return SliderPath{}, fmt.Errorf("unknown curve type %q", typeStr)
	}

	points := []Vec2{head}
	if strings.TrimSpace(rest) != "" {
		for _, tok := range strings.Split(rest, "|") {
			xs, ys, ok := strings.Cut(strings.TrimSpace(tok), ":")
			if !ok {
				return SliderPath{}, fmt.Errorf("control point %q", tok)
			}
			px, errX := strconv.ParseFloat(xs, 64)
			py, errY := strconv.ParseFloat(ys, 64)
			if err := firstErr(errX, errY); err != nil {
				return SliderPath{}, fmt.Errorf("control point %q: %w", tok, err)
			}
			points = append(points, Vec2{X: px, Y: py})
		}
	}
	return SliderPath{Type: pType, Points: points}, nil
}

// applyTiming walks timing points alongside the (sorted) hit objects and
// fills slider velocity, tick interval and duration. An inherited point
// only changes slider velocity and is reset by the next uninherited one.
func (b *Beatmap) applyTiming() error {
	timingPoints := b.TimingPoints
	timingPointIndex := 0
	var lastRedLine *TimingPoint
	var lastGreenLine *TimingPoint
	for i, object := range b.HitObjects {
		for timingPointIndex < len(timingPoints) && (lastRedLine == nil || timingPoints[timingPointIndex].Time <= object.StartTime()) {
			timingPoint := timingPoints[timingPointIndex]
			timingPointIndex++

			if timingPoint.TimingChange {
				lastRedLine = &timingPoint
				lastGreenLine = nil
			} else if lastRedLine != nil {
				lastGreenLine = &timingPoint
			}
		}
		slider, ok := object.(Slider)
		if !ok {
			continue
		}
		if lastRedLine == nil || math.IsNaN(lastRedLine.BeatLength) || lastRedLine.BeatLength <= 0 {
			return fmt.Errorf("%w at %dms: %w", ErrMalformedObjectRecord, slider.Time, errNoUninheritedTimePoint)
		}
		beatLength := lastRedLine.BeatLength
		sv := 1.0
		if lastGreenLine != nil {
			sv = lastGreenLine.SliderVelocityMultiplier
		}
		slider.Velocity = b.Difficulty.SliderMultiplier * 100 * sv / beatLength
		slider.TickInterval = beatLength / b.Difficulty.SliderTickRate
		slider.Duration = int(math.Round(slider.Length / slider.Velocity * float64(slider.Slides)))
		b.HitObjects[i] = slider
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
