// Package judge derives hit tolerances from chart difficulty and modifiers,
// judges a replay's cursor samples against a chart's objects and lets a
// driving loop scrub through the result.
package judge

import "strings"

// Mods is the modifier bitmask stored in a replay header.
type Mods uint32

const (
	NoFail      Mods = 1 << 0
	Easy        Mods = 1 << 1
	TouchDevice Mods = 1 << 2
	Hidden      Mods = 1 << 3
	HardRock    Mods = 1 << 4
	SuddenDeath Mods = 1 << 5
	DoubleTime  Mods = 1 << 6
	Relax       Mods = 1 << 7
	HalfTime    Mods = 1 << 8
	Nightcore   Mods = 1 << 9 // always set together with DoubleTime
	Flashlight  Mods = 1 << 10
	Autoplay    Mods = 1 << 11
	SpunOut     Mods = 1 << 12
	Autopilot   Mods = 1 << 13
)

var modNames = []struct {
	mod  Mods
	name string
}{
	{NoFail, "NF"}, {Easy, "EZ"}, {TouchDevice, "TD"}, {Hidden, "HD"},
	{HardRock, "HR"}, {SuddenDeath, "SD"}, {Nightcore, "NC"}, {DoubleTime, "DT"},
	{Relax, "RX"}, {HalfTime, "HT"}, {Flashlight, "FL"}, {Autoplay, "AT"},
	{SpunOut, "SO"}, {Autopilot, "AP"}, {1 << 14, "PF"},
}

func (m Mods) Has(x Mods) bool { return m&x == x }

// Rate is the playback speed the modifiers imply.
func (m Mods) Rate() float64 {
	switch {
	case m.Has(DoubleTime), m.Has(Nightcore):
		return 1.5
	case m.Has(HalfTime):
		return 0.75
	default:
		return 1
	}
}

// String lists the set modifiers as their two-letter acronyms, "NM" when
// none are set. NC hides the DT bit it implies.
func (m Mods) String() string {
	var sb strings.Builder
	for _, n := range modNames {
		if !m.Has(n.mod) {
			continue
		}
		if n.mod == DoubleTime && m.Has(Nightcore) {
			continue
		}
		sb.WriteString(n.name)
	}
	if sb.Len() == 0 {
		return "NM"
	}
	return sb.String()
}

// Profile holds the tolerances a judgement pass runs with. Windows are one
// sided, in chart milliseconds; Rate scales sample offsets, not windows.
type Profile struct {
	Mods      Mods
	HitRadius float64
	Window300 float64
	Window100 float64
	Window50  float64
	Rate      float64
}

// Derive computes the hit radius and timing windows for the given raw
// circle size and overall difficulty. Easy wins when both Easy and
// HardRock are set.
func Derive(cs, od float64, mods Mods) Profile {
	switch {
	case mods.Has(Easy):
		cs = cs / 2
		od = od / 2
	case mods.Has(HardRock):
		cs = min(cs*1.3, 10)
		od = min(od*1.4, 10)
	}

	return Profile{
		Mods:      mods,
		HitRadius: 54.4 - 4.48*cs,
		Window300: (160 - 12*od) / 2,
		Window100: (280 - 16*od) / 2,
		Window50:  (400 - 20*od) / 2,
		Rate:      mods.Rate(),
	}
}

// Preempt is how long before its time an object appears, in chart
// milliseconds, for approach rate ar. Easy halves ar, HardRock scales it by
// 1.4 up to 10, with Easy winning as in Derive.
func Preempt(ar float64, mods Mods) float64 {
	switch {
	case mods.Has(Easy):
		ar = ar / 2
	case mods.Has(HardRock):
		ar = min(ar*1.4, 10)
	}
	if ar < 5 {
		return 1200 + 600*(5-ar)/5
	}
	return 1200 - 750*(ar-5)/5
}
