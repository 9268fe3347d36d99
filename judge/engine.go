package judge

import (
	"math"

	"github.com/burkap/osu-replay-analyzer/dotosr"
	"github.com/burkap/osu-replay-analyzer/dotosu"
)

type Tier uint8

const (
	Perfect Tier = iota
	Good
	Meh
	Miss
)

func (t Tier) String() string {
	switch t {
	case Perfect:
		return "Perfect"
	case Good:
		return "Good"
	case Meh:
		return "Meh"
	default:
		return "Miss"
	}
}

// Points is the score value of the tier.
func (t Tier) Points() int {
	switch t {
	case Perfect:
		return 300
	case Good:
		return 100
	case Meh:
		return 50
	default:
		return 0
	}
}

// Record is the judgement of one chart object. SampleIndex is the sample
// the decision was made on, -1 when the replay has no samples. Offset is
// sample time minus object time, divided by the playback rate.
type Record struct {
	ObjectIndex int
	SampleIndex int
	Offset      float64
	Tier        Tier
}

type Counts struct {
	Perfect, Good, Meh, Miss int
}

func (c *Counts) Add(t Tier) {
	switch t {
	case Perfect:
		c.Perfect++
	case Good:
		c.Good++
	case Meh:
		c.Meh++
	default:
		c.Miss++
	}
}

func (c Counts) Total() int { return c.Perfect + c.Good + c.Meh + c.Miss }

// Accuracy is the usual osu!standard accuracy in [0, 1].
func (c Counts) Accuracy() float64 {
	n := c.Total()
	if n == 0 {
		return 1
	}
	return float64(300*c.Perfect+100*c.Good+50*c.Meh) / float64(300*n)
}

type Result struct {
	Profile Profile
	Records []Record
	Counts  Counts
}

// TierFor maps an offset to a tier. Curves only know hit or miss.
func (p Profile) TierFor(kind dotosu.ObjectKind, offset float64) Tier {
	d := math.Abs(offset)
	switch {
	case d >= p.Window50:
		return Miss
	case kind == dotosu.KindSlider:
		return Perfect
	case d >= p.Window100:
		return Meh
	case d >= p.Window300:
		return Good
	default:
		return Perfect
	}
}

const clickButtons = dotosr.ButtonPrimary | dotosr.ButtonSecondary

// pressEdge reports whether primary or secondary went down between prev
// and cur.
func pressEdge(prev, cur dotosr.Buttons) bool {
	return cur&^prev&clickButtons != 0
}

// Judge runs a single forward pass over samples and objects and returns one
// record per object, in object order. Objects must be sorted by time.
func Judge(samples []dotosr.Sample, objects []dotosu.Object, p Profile) *Result {
	res := &Result{
		Profile: p,
		Records: make([]Record, 0, len(objects)),
	}
	rate := p.Rate
	if rate <= 0 {
		rate = 1
	}

	emit := func(oi, si int, offset float64, tier Tier) {
		res.Records = append(res.Records, Record{ObjectIndex: oi, SampleIndex: si, Offset: offset, Tier: tier})
		res.Counts.Add(tier)
	}

	// completion is the first sample inside the current curve's window that
	// was held inside the radius.
	completion := -1
	var completionOffset float64

	si, oi := 0, 0
	var prev dotosr.Buttons
	consumed := false
	for oi < len(objects) {
		o := objects[oi]
		if si >= len(samples) {
			if o.Kind == dotosu.KindSlider && completion >= 0 {
				emit(oi, completion, completionOffset, Perfect)
			} else {
				emit(oi, len(samples)-1, p.Window50, Miss)
			}
			completion = -1
			oi++
			continue
		}

		s := samples[si]
		offset := float64(s.Time-int64(o.Time)) / rate
		inside := math.Hypot(s.X-o.X, s.Y-o.Y) < p.HitRadius
		inWindow := math.Abs(offset) < p.Window50

		if inside && inWindow && !consumed && pressEdge(prev, s.Buttons) {
			emit(oi, si, offset, p.TierFor(o.Kind, offset))
			consumed = true
			completion = -1
			oi++
			continue
		}

		if o.Kind == dotosu.KindSlider && completion < 0 && inside && inWindow && s.Buttons&clickButtons != 0 {
			completion, completionOffset = si, offset
		}

		if offset >= p.Window50 {
			if o.Kind == dotosu.KindSlider && completion >= 0 {
				emit(oi, completion, completionOffset, Perfect)
			} else {
				emit(oi, si, p.Window50, Miss)
			}
			completion = -1
			oi++
		}

		prev = s.Buttons
		consumed = false
		si++
	}
	return res
}
