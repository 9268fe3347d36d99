// Package report renders a judged replay as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/burkap/osu-replay-analyzer/dotosr"
	"github.com/burkap/osu-replay-analyzer/dotosu"
	"github.com/burkap/osu-replay-analyzer/judge"
	"gopkg.in/yaml.v3"
)

type Counts struct {
	Perfect int `json:"300" yaml:"300"`
	Good    int `json:"100" yaml:"100"`
	Meh     int `json:"50" yaml:"50"`
	Miss    int `json:"miss" yaml:"miss"`
}

func fromJudge(c judge.Counts) Counts {
	return Counts{Perfect: c.Perfect, Good: c.Good, Meh: c.Meh, Miss: c.Miss}
}

type Beatmap struct {
	Checksum string `json:"checksum" yaml:"checksum"`
	Artist   string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Creator  string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
}

type Tolerances struct {
	HitRadius float64 `json:"hit_radius" yaml:"hit_radius"`
	Window300 float64 `json:"window_300" yaml:"window_300"`
	Window100 float64 `json:"window_100" yaml:"window_100"`
	Window50  float64 `json:"window_50" yaml:"window_50"`
	Rate      float64 `json:"rate" yaml:"rate"`
}

type Object struct {
	Index      int     `json:"index" yaml:"index"`
	Time       int     `json:"time" yaml:"time"`
	Kind       string  `json:"kind" yaml:"kind"`
	Tier       string  `json:"tier" yaml:"tier"`
	Offset     float64 `json:"offset" yaml:"offset"`
	SampleTime int64   `json:"sample_time" yaml:"sample_time"`
}

type Report struct {
	Player     string     `json:"player" yaml:"player"`
	PlayedAt   string     `json:"played_at" yaml:"played_at"`
	Mods       string     `json:"mods" yaml:"mods"`
	Beatmap    Beatmap    `json:"beatmap" yaml:"beatmap"`
	Tolerances Tolerances `json:"tolerances" yaml:"tolerances"`
	Recorded   Counts     `json:"recorded" yaml:"recorded"`
	Recomputed Counts     `json:"recomputed" yaml:"recomputed"`
	Accuracy   float64    `json:"accuracy" yaml:"accuracy"`
	Objects    []Object   `json:"objects" yaml:"objects"`
}

// New builds the report for a judged replay.
func New(rep *dotosr.Replay, meta dotosu.Metadata, objects []dotosu.Object, res *judge.Result) *Report {
	r := &Report{
		Player:   rep.PlayerName,
		PlayedAt: rep.PlayedAt().UTC().Format("2006-01-02 15:04:05"),
		Mods:     judge.Mods(rep.Mods).String(),
		Beatmap: Beatmap{
			Checksum: rep.ChartChecksum,
			Artist:   meta.Artist,
			Title:    meta.Title,
			Creator:  meta.Creator,
			Version:  meta.Version,
		},
		Tolerances: Tolerances{
			HitRadius: res.Profile.HitRadius,
			Window300: res.Profile.Window300,
			Window100: res.Profile.Window100,
			Window50:  res.Profile.Window50,
			Rate:      res.Profile.Rate,
		},
		Recorded: Counts{
			Perfect: int(rep.Count300),
			Good:    int(rep.Count100),
			Meh:     int(rep.Count50),
			Miss:    int(rep.CountMiss),
		},
		Recomputed: fromJudge(res.Counts),
		Accuracy:   res.Counts.Accuracy(),
		Objects:    make([]Object, 0, len(res.Records)),
	}
	for _, rec := range res.Records {
		o := Object{
			Index:  rec.ObjectIndex,
			Tier:   rec.Tier.String(),
			Offset: rec.Offset,
		}
		if rec.ObjectIndex >= 0 && rec.ObjectIndex < len(objects) {
			o.Time = objects[rec.ObjectIndex].Time
			o.Kind = objects[rec.ObjectIndex].Kind.String()
		}
		if rec.SampleIndex >= 0 && rec.SampleIndex < len(rep.Samples) {
			o.SampleTime = rep.Samples[rec.SampleIndex].Time
		}
		r.Objects = append(r.Objects, o)
	}
	return r
}

// Write renders r in format: "text", "json" or "yaml".
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return writeText(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Player:\t%s\n", r.Player)
	fmt.Fprintf(tw, "Played:\t%s\n", r.PlayedAt)
	if r.Beatmap.Title != "" {
		fmt.Fprintf(tw, "Beatmap:\t%s - %s [%s] (%s)\n", r.Beatmap.Artist, r.Beatmap.Title, r.Beatmap.Version, r.Beatmap.Creator)
	}
	fmt.Fprintf(tw, "Checksum:\t%s\n", r.Beatmap.Checksum)
	fmt.Fprintf(tw, "Mods:\t%s\n", r.Mods)
	fmt.Fprintf(tw, "Hit radius:\t%.2f\n", r.Tolerances.HitRadius)
	fmt.Fprintf(tw, "Windows:\t±%.1f / ±%.1f / ±%.1f ms\n", r.Tolerances.Window300, r.Tolerances.Window100, r.Tolerances.Window50)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "\t300\t100\t50\tmiss")
	fmt.Fprintf(tw, "recorded\t%d\t%d\t%d\t%d\n", r.Recorded.Perfect, r.Recorded.Good, r.Recorded.Meh, r.Recorded.Miss)
	fmt.Fprintf(tw, "recomputed\t%d\t%d\t%d\t%d\n", r.Recomputed.Perfect, r.Recomputed.Good, r.Recomputed.Meh, r.Recomputed.Miss)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Accuracy:\t%.2f%%\n", r.Accuracy*100)
	return tw.Flush()
}
