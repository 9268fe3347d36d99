// Package session loads a replay and its beatmap, prepares the chart for
// the replay's modifiers and judges it. A Session owns everything the
// viewer draws; nothing is shared through package state.
package session

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/burkap/osu-replay-analyzer/curve"
	"github.com/burkap/osu-replay-analyzer/dotdb"
	"github.com/burkap/osu-replay-analyzer/dotosr"
	"github.com/burkap/osu-replay-analyzer/dotosu"
	"github.com/burkap/osu-replay-analyzer/judge"
	"github.com/burkap/osu-replay-analyzer/store"
)

// Source says where to find the inputs. ChartPath wins over OsuPath; Store
// is an optional catalog cache.
type Source struct {
	ReplayPath string
	ChartPath  string
	OsuPath    string
	Store      *store.Store
}

var ErrUnsupportedMode = errors.New("only osu!standard is supported")

type Session struct {
	Replay  *dotosr.Replay
	Beatmap *dotosu.Beatmap

	ChartPath string
	AudioPath string

	// Chart is the beatmap as played: flipped under Hard Rock.
	Chart   dotosu.Chart
	Profile judge.Profile
	// Preempt is how long objects show before their time, in ms.
	Preempt float64
	// Paths holds the evaluated curve of every slider, nil for circles.
	Paths []*curve.Path

	Result   *judge.Result
	Playback *judge.Playback
}

// Load decodes the replay, resolves and decodes its beatmap and judges it.
func Load(src Source, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	rep, err := dotosr.DecodeFile(src.ReplayPath)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", src.ReplayPath, err)
	}
	if rep.Mode != dotosr.ModeStandard {
		return nil, fmt.Errorf("replay %s: %w (mode %d)", src.ReplayPath, ErrUnsupportedMode, rep.Mode)
	}
	logger.Printf("replay by %s, %d samples, mods %s", rep.PlayerName, len(rep.Samples), judge.Mods(rep.Mods))

	chartPath := src.ChartPath
	if chartPath == "" {
		chartPath, err = resolveChart(rep.ChartChecksum, src, logger)
		if err != nil {
			return nil, err
		}
	} else if sum, err := fileMD5(chartPath); err == nil && sum != rep.ChartChecksum {
		logger.Printf("warning: %s has checksum %s, replay expects %s", chartPath, sum, rep.ChartChecksum)
	}

	bm, err := dotosu.DecodeFile(chartPath)
	if err != nil {
		return nil, fmt.Errorf("beatmap %s: %w", chartPath, err)
	}
	if bm.General.Mode != 0 {
		return nil, fmt.Errorf("beatmap %s: %w (mode %d)", chartPath, ErrUnsupportedMode, bm.General.Mode)
	}
	logger.Printf("beatmap %s - %s [%s], %d objects, %d skipped",
		bm.Metadata.Artist, bm.Metadata.Title, bm.Metadata.Version, len(bm.HitObjects), bm.Skipped)

	s := New(rep, bm, logger)
	s.ChartPath = chartPath
	if bm.General.AudioFilename != "" {
		s.AudioPath = filepath.Join(filepath.Dir(chartPath), bm.General.AudioFilename)
	}
	return s, nil
}

// New judges an already decoded replay against a beatmap.
func New(rep *dotosr.Replay, bm *dotosu.Beatmap, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mods := judge.Mods(rep.Mods)

	chart := bm.Chart()
	if mods.Has(judge.HardRock) && !mods.Has(judge.Easy) {
		chart = chart.FlipVertical()
	}

	s := &Session{
		Replay:  rep,
		Beatmap: bm,
		Chart:   chart,
		Profile: judge.Derive(chart.CircleSize, chart.OverallDifficulty, mods),
		Preempt: judge.Preempt(chart.ApproachRate, mods),
		Paths:   make([]*curve.Path, len(chart.Objects)),
	}
	for i, o := range chart.Objects {
		if o.Kind != dotosu.KindSlider {
			continue
		}
		p, err := evaluate(o)
		if err != nil {
			logger.Printf("slider at %dms: %v", o.Time, err)
			continue
		}
		s.Paths[i] = p
	}

	s.Result = judge.Judge(rep.Samples, chart.Objects, s.Profile)
	s.Playback = judge.NewPlayback(rep.Samples, chart.Objects, s.Result)
	logger.Printf("judged %d objects: %+v", len(s.Result.Records), s.Result.Counts)
	return s
}

var curveTypes = map[dotosu.SliderPathType]curve.Type{
	dotosu.PathBezier:  curve.Bezier,
	dotosu.PathLinear:  curve.Linear,
	dotosu.PathCatmull: curve.Catmull,
	dotosu.PathPerfect: curve.Perfect,
}

func evaluate(o dotosu.Object) (*curve.Path, error) {
	control := make([]curve.Vec, len(o.CurvePoints))
	for i, p := range o.CurvePoints {
		control[i] = curve.Vec{X: p.X, Y: p.Y}
	}
	return curve.Evaluate(control, curveTypes[o.CurveType], curve.Options{
		Length:       o.Length,
		Velocity:     o.Velocity,
		TickInterval: o.TickInterval,
	})
}

// Recorded is what the replay header claims the player got.
func (s *Session) Recorded() judge.Counts {
	return judge.Counts{
		Perfect: int(s.Replay.Count300),
		Good:    int(s.Replay.Count100),
		Meh:     int(s.Replay.Count50),
		Miss:    int(s.Replay.CountMiss),
	}
}

// resolveChart finds the beatmap a checksum names: the cache first, then
// osu!.db, then a scan of the Songs folder.
func resolveChart(checksum string, src Source, logger *log.Logger) (string, error) {
	if src.OsuPath == "" {
		return "", fmt.Errorf("no beatmap given and no osu! path to look %s up in", checksum)
	}
	songs := filepath.Join(src.OsuPath, "Songs")

	if src.Store != nil {
		e, err := src.Store.Lookup(checksum)
		if err == nil {
			logger.Printf("found %s in cache", checksum)
			return e.ChartPath(songs), nil
		}
		if !errors.Is(err, dotdb.ErrChecksumNotFound) {
			logger.Printf("cache lookup: %v", err)
		}
	}

	dbPath := filepath.Join(src.OsuPath, "osu!.db")
	if cat, err := dotdb.DecodeFile(dbPath); err != nil {
		logger.Printf("catalog %s: %v", dbPath, err)
	} else {
		if src.Store != nil {
			if _, err := src.Store.ReplaceCatalog(cat); err != nil {
				logger.Printf("caching catalog: %v", err)
			}
		}
		if e, err := cat.Lookup(checksum); err == nil {
			logger.Printf("found %s in %s", checksum, dbPath)
			return e.ChartPath(songs), nil
		}
	}

	logger.Printf("scanning %s for %s", songs, checksum)
	return FindByChecksum(songs, checksum)
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
