package judge

import (
	"sort"

	"github.com/burkap/osu-replay-analyzer/dotosr"
	"github.com/burkap/osu-replay-analyzer/dotosu"
)

// Playback is a cursor over a judged replay. Moving it never recomputes
// records; it only repositions the sample and object indices.
type Playback struct {
	samples []dotosr.Sample
	objects []dotosu.Object
	result  *Result

	sample int
	object int

	// prefix[i] holds the counts of the first i records.
	prefix []Counts
	// byObject maps object index to record index.
	byObject []int
}

func NewPlayback(samples []dotosr.Sample, objects []dotosu.Object, res *Result) *Playback {
	p := &Playback{
		samples:  samples,
		objects:  objects,
		result:   res,
		prefix:   make([]Counts, len(res.Records)+1),
		byObject: make([]int, len(objects)),
	}
	for i := range p.byObject {
		p.byObject[i] = -1
	}
	for i, r := range res.Records {
		p.prefix[i+1] = p.prefix[i]
		p.prefix[i+1].Add(r.Tier)
		if r.ObjectIndex >= 0 && r.ObjectIndex < len(objects) {
			p.byObject[r.ObjectIndex] = i
		}
	}
	return p
}

func (p *Playback) Result() *Result { return p.result }

func (p *Playback) SampleIndex() int { return p.sample }
func (p *Playback) ObjectIndex() int { return p.object }

// SeekTo moves to the sample and the object closest in time to t. Targets
// outside the replay clamp to its ends.
func (p *Playback) SeekTo(t int64) {
	if len(p.samples) == 0 {
		return
	}
	p.sample = nearest(len(p.samples), t, func(i int) int64 { return p.samples[i].Time })
	p.syncObject()
}

func (p *Playback) StepForward() {
	if p.sample+1 < len(p.samples) {
		p.sample++
	}
	p.syncObject()
}

func (p *Playback) StepBack() {
	if p.sample > 0 {
		p.sample--
	}
	p.syncObject()
}

// AtEnd reports whether the cursor sits on the last sample.
func (p *Playback) AtEnd() bool { return p.sample >= len(p.samples)-1 }

func (p *Playback) syncObject() {
	if len(p.objects) == 0 || len(p.samples) == 0 {
		return
	}
	t := p.samples[p.sample].Time
	p.object = nearest(len(p.objects), t, func(i int) int64 { return int64(p.objects[i].Time) })
}

func (p *Playback) Current() (dotosr.Sample, bool) {
	if len(p.samples) == 0 {
		return dotosr.Sample{}, false
	}
	return p.samples[p.sample], true
}

// Previous is the sample before the current one, used for press edges.
func (p *Playback) Previous() (dotosr.Sample, bool) {
	if p.sample == 0 || len(p.samples) == 0 {
		return dotosr.Sample{}, false
	}
	return p.samples[p.sample-1], true
}

// Time is the current sample's time, 0 for an empty replay.
func (p *Playback) Time() int64 {
	s, _ := p.Current()
	return s.Time
}

// Pressed reports whether the current sample is a fresh primary or
// secondary press.
func (p *Playback) Pressed() bool {
	cur, ok := p.Current()
	if !ok {
		return false
	}
	prev, _ := p.Previous()
	return pressEdge(prev.Buttons, cur.Buttons)
}

// Trail returns up to n samples ending at the current one, oldest first.
func (p *Playback) Trail(n int) []dotosr.Sample {
	if len(p.samples) == 0 || n <= 0 {
		return nil
	}
	lo := max(0, p.sample-n+1)
	return p.samples[lo : p.sample+1]
}

// RecordFor returns the record of object i.
func (p *Playback) RecordFor(i int) (Record, bool) {
	if i < 0 || i >= len(p.byObject) || p.byObject[i] < 0 {
		return Record{}, false
	}
	return p.result.Records[p.byObject[i]], true
}

// Judged reports whether object i had been judged by the current sample.
func (p *Playback) Judged(i int) bool {
	r, ok := p.RecordFor(i)
	return ok && r.SampleIndex <= p.sample
}

// Counts are the tier counts of every record decided at or before the
// current sample.
func (p *Playback) Counts() Counts {
	recs := p.result.Records
	n := sort.Search(len(recs), func(i int) bool { return recs[i].SampleIndex > p.sample })
	return p.prefix[n]
}

// Window returns the index range [lo, hi) of objects with from <= time < to.
func (p *Playback) Window(from, to int64) (lo, hi int) {
	lo = sort.Search(len(p.objects), func(i int) bool { return int64(p.objects[i].Time) >= from })
	hi = sort.Search(len(p.objects), func(i int) bool { return int64(p.objects[i].Time) >= to })
	return lo, hi
}

// Next is the sample after the current one.
func (p *Playback) Next() (dotosr.Sample, bool) {
	if p.AtEnd() {
		return dotosr.Sample{}, false
	}
	return p.samples[p.sample+1], true
}

// nearest returns the index in [0, n) whose time is closest to t, the
// earlier one on ties. at must be non-decreasing.
func nearest(n int, t int64, at func(int) int64) int {
	i := sort.Search(n, func(i int) bool { return at(i) >= t })
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	case t-at(i-1) <= at(i)-t:
		return i - 1
	default:
		return i
	}
}
