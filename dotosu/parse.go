// Package dotosu decodes osu! beatmap files (.osu) into the difficulty
// values, timing points and hit objects a replay is judged against.
package dotosu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	EARLY_VERSION_TIMING_OFFSET = 24
	LATEST_VERSION              = 14
)

var (
	ErrMissingSection         = errors.New("missing section")
	ErrMalformedObjectRecord  = errors.New("malformed hit object record")
	errNoUninheritedTimePoint = errors.New("slider before any uninherited timing point")
)

type section int

const (
	secNone section = iota
	secGeneral
	secMetadata
	secDifficulty
	secTimingPoints
	secHitObjects
)

type Beatmap struct {
	FormatVersion int
	General       General
	Metadata      Metadata
	Difficulty    Difficulty

	TimingPoints []TimingPoint
	HitObjects   []HitObject

	// Skipped counts hit objects that are neither circles nor sliders
	// (spinners, mania holds).
	Skipped int
}

type General struct {
	AudioFilename string
	Mode          int // 0 standard, 1 taiko, 2 catch, 3 mania
}

type Metadata struct {
	Title, TitleUnicode     string
	Artist, ArtistUnicode   string
	Creator, Version        string
	BeatmapID, BeatmapSetID int
}

type Difficulty struct {
	CircleSize, OverallDifficulty, ApproachRate float64
	SliderMultiplier, SliderTickRate            float64
}

type TimingPoint struct {
	Time                     int
	BeatLength               float64
	TimingChange             bool
	SliderVelocityMultiplier float64
}

// ---------- Public API ----------

func DecodeFile(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a beatmap. [Difficulty] and [HitObjects] are required; hit
// objects must be ordered by time.
func Decode(r io.Reader) (*Beatmap, error) {
	sc := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	b := &Beatmap{
		FormatVersion: LATEST_VERSION,
		Difficulty: Difficulty{
			CircleSize:        5,
			OverallDifficulty: 5,
			ApproachRate:      5,
			SliderMultiplier:  1.4,
			SliderTickRate:    1,
		},
	}

	offset := 0
	sec := secNone
	seenAR := false
	seen := map[section]bool{}
	first := true
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if first {
			first = false
			if v, ok := parseFormatHeader(line); ok {
				b.FormatVersion = v
				if v < 5 {
					offset = EARLY_VERSION_TIMING_OFFSET
				}
				continue
			}
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			switch strings.ToLower(line) {
			case "[general]":
				sec = secGeneral
			case "[metadata]":
				sec = secMetadata
			case "[difficulty]":
				sec = secDifficulty
			case "[timingpoints]":
				sec = secTimingPoints
			case "[hitobjects]":
				sec = secHitObjects
			default:
				sec = secNone
			}
			seen[sec] = true
			continue
		}

		switch sec {
		case secGeneral:
			k, v := splitKeyVal(line)
			switch strings.ToLower(k) {
			case "audiofilename":
				b.General.AudioFilename = standardisePath(v)
			case "mode":
				b.General.Mode = parseInt(v, 0)
			}

		case secMetadata:
			k, v := splitKeyVal(line)
			switch strings.ToLower(k) {
			case "title":
				b.Metadata.Title = v
			case "titleunicode":
				b.Metadata.TitleUnicode = v
			case "artist":
				b.Metadata.Artist = v
			case "artistunicode":
				b.Metadata.ArtistUnicode = v
			case "creator":
				b.Metadata.Creator = v
			case "version":
				b.Metadata.Version = v
			case "beatmapid":
				b.Metadata.BeatmapID = parseInt(v, 0)
			case "beatmapsetid":
				b.Metadata.BeatmapSetID = parseInt(v, 0)
			}

		case secDifficulty:
			k, v := splitKeyVal(line)
			switch strings.ToLower(k) {
			case "circlesize":
				b.Difficulty.CircleSize = parseFloat(v, 5)
			case "overalldifficulty":
				b.Difficulty.OverallDifficulty = parseFloat(v, 5)
				if !seenAR {
					b.Difficulty.ApproachRate = b.Difficulty.OverallDifficulty
				}
			case "approachrate":
				b.Difficulty.ApproachRate = parseFloat(v, 5)
				seenAR = true
			case "slidermultiplier":
				b.Difficulty.SliderMultiplier = parseFloat(v, 1.4)
			case "slidertickrate":
				b.Difficulty.SliderTickRate = parseFloat(v, 1)
			}

		case secTimingPoints:
			if tp, ok := parseTimingPoint(line, offset); ok {
				b.TimingPoints = append(b.TimingPoints, tp)
			}

		case secHitObjects:
			ho, err := parseHitObject(line, offset)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if ho == nil {
				b.Skipped++
				continue
			}
			if n := len(b.HitObjects); n > 0 && ho.StartTime() < b.HitObjects[n-1].StartTime() {
				return nil, fmt.Errorf("line %d: %w: object at %dms comes after one at %dms",
					lineNo, ErrMalformedObjectRecord, ho.StartTime(), b.HitObjects[n-1].StartTime())
			}
			b.HitObjects = append(b.HitObjects, ho)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !seen[secDifficulty] {
		return nil, fmt.Errorf("%w: [Difficulty]", ErrMissingSection)
	}
	if !seen[secHitObjects] {
		return nil, fmt.Errorf("%w: [HitObjects]", ErrMissingSection)
	}

	applyDifficultyRestrictions(&b.Difficulty)
	if err := b.applyTiming(); err != nil {
		return nil, err
	}
	return b, nil
}

func parseFormatHeader(line string) (int, bool) {
	const prefix = "osu file format v"
	if !strings.HasPrefix(strings.ToLower(line), prefix) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(line[len(prefix):]))
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseTimingPoint(line string, offset int) (TimingPoint, bool) {
	parts := splitCSV(line)
	if len(parts) < 2 {
		return TimingPoint{}, false
	}
	beatLen := parseFloatAllowNaN(parts[1])
	timingChange := true
	if len(parts) >= 7 {
		timingChange = strings.TrimSpace(parts[6]) == "1"
	}
	sv := 1.0
	if !timingChange && !math.IsNaN(beatLen) && beatLen < 0 {
		sv = clampFloat(100.0/-beatLen, 0.1, 10)
	}
	return TimingPoint{
		Time:                     int(parseFloat(parts[0], 0)) + offset,
		BeatLength:               beatLen,
		TimingChange:             timingChange,
		SliderVelocityMultiplier: sv,
	}, true
}

// ---------- parsing helpers ----------

func splitKeyVal(line string) (key, val string) {
	i := strings.Index(line, ":")
	if i < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
func parseFloatAllowNaN(s string) float64 {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
func standardisePath(p string) string {
	p = strings.Trim(p, "\"")
	return strings.ReplaceAll(p, "\\", "/")
}

func splitCSV(line string) []string {
	var out []string
	var cur strings.Builder
	inQ := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '"':
			inQ = !inQ
		case ',':
			if inQ {
				cur.WriteByte(c)
			} else {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, strings.TrimSpace(cur.String()))
	return out
}

func applyDifficultyRestrictions(d *Difficulty) {
	d.OverallDifficulty = clampFloat(d.OverallDifficulty, 0, 10)
	d.ApproachRate = clampFloat(d.ApproachRate, 0, 10)
	d.CircleSize = clampFloat(d.CircleSize, 0, 10)
	d.SliderMultiplier = clampFloat(d.SliderMultiplier, 0.4, 3.6)
	d.SliderTickRate = clampFloat(d.SliderTickRate, 0.5, 8.0)
}
