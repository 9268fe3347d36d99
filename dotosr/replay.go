// Package dotosr decodes and encodes osu! replay files (.osr).
package dotosr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/burkap/osu-replay-analyzer/osubin"
	"github.com/ulikunitz/xz/lzma"
)

var (
	ErrMalformedHeader      = errors.New("malformed replay header")
	ErrDecompression        = errors.New("replay payload decompression failed")
	ErrMalformedFrameStream = errors.New("malformed replay frame stream")
)

const (
	frameSeparator = ","
	fieldSeparator = "|"

	// Delta of the trailing record that carries the RNG seed.
	seedRecordDelta = -12345

	// Position of the records that open a frame stream.
	placeholderX = 256
	placeholderY = -500

	dotnetEpochTicks = 621355968000000000
)

type GameMode uint8

const (
	ModeStandard GameMode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

type Buttons uint8

const (
	ButtonPrimary   Buttons = 1 << iota // M1
	ButtonSecondary                     // M2
	ButtonK1                            // tertiary-aux
	ButtonK2                            // quaternary-aux
	ButtonSmoke
)

func (b Buttons) Has(x Buttons) bool { return b&x != 0 }

func (b Buttons) String() string {
	if b == 0 {
		return "-"
	}
	names := []string{"M1", "M2", "K1", "K2", "Smoke"}
	var parts []string
	for i, name := range names {
		if b&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "+")
}

// Sample is one recorded cursor observation. Time is absolute replay time
// in milliseconds.
type Sample struct {
	Time      int64
	TimeDelta int64
	X, Y      float64
	Buttons   Buttons
}

type Replay struct {
	Mode           GameMode
	Version        int32
	ChartChecksum  string
	PlayerName     string
	ReplayChecksum string

	Count300, Count100, Count50 uint16
	CountGeki, CountKatu        uint16
	CountMiss                   uint16

	TotalScore int32
	MaxCombo   uint16
	Perfect    bool
	Mods       uint32
	LifeBar    string
	Timestamp  int64 // .NET ticks
	OnlineID   int64

	// StartOffset is the time delta of the seed record that opens the frame
	// stream. RNGSeed comes from the trailer record, when present.
	StartOffset int64
	RNGSeed     int64
	Samples     []Sample
}

// PlayedAt converts the .NET tick timestamp to wall-clock time.
func (r *Replay) PlayedAt() time.Time {
	ticks := r.Timestamp - dotnetEpochTicks
	return time.Unix(ticks/1e7, (ticks%1e7)*100).UTC()
}

func DecodeFile(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func Decode(data []byte) (*Replay, error) {
	r := osubin.NewReader(data)
	rep := &Replay{}
	payload, err := decodeHeader(r, rep)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if len(payload) == 0 {
		return rep, nil
	}

	text, err := decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	if err := decodeFrames(text, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func decodeHeader(r *osubin.Reader, rep *Replay) ([]byte, error) {
	mode, err := r.Byte()
	if err != nil {
		return nil, fmt.Errorf("mode: %w", err)
	}
	rep.Mode = GameMode(mode)
	if rep.Version, err = r.Int32(); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	if rep.ChartChecksum, err = r.String(); err != nil {
		return nil, fmt.Errorf("beatmap checksum: %w", err)
	}
	if rep.PlayerName, err = r.String(); err != nil {
		return nil, fmt.Errorf("player name: %w", err)
	}
	if rep.ReplayChecksum, err = r.String(); err != nil {
		return nil, fmt.Errorf("replay checksum: %w", err)
	}
	for _, c := range []*uint16{&rep.Count300, &rep.Count100, &rep.Count50, &rep.CountGeki, &rep.CountKatu, &rep.CountMiss} {
		if *c, err = r.Uint16(); err != nil {
			return nil, fmt.Errorf("hit counts: %w", err)
		}
	}
	if rep.TotalScore, err = r.Int32(); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	if rep.MaxCombo, err = r.Uint16(); err != nil {
		return nil, fmt.Errorf("max combo: %w", err)
	}
	if rep.Perfect, err = r.Bool(); err != nil {
		return nil, fmt.Errorf("perfect flag: %w", err)
	}
	if rep.Mods, err = r.Uint32(); err != nil {
		return nil, fmt.Errorf("mods: %w", err)
	}
	if rep.LifeBar, err = r.String(); err != nil {
		return nil, fmt.Errorf("life bar: %w", err)
	}
	if rep.Timestamp, err = r.Int64(); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	n, err := r.Int32()
	if err != nil {
		return nil, fmt.Errorf("payload length: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("negative payload length %d", n)
	}
	payload, err := r.Bytes(int(n))
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	if rep.OnlineID, err = r.Int64(); err != nil {
		return nil, fmt.Errorf("online id: %w", err)
	}
	return payload, nil
}

func decompress(payload []byte) (string, error) {
	lr, err := lzma.NewReader(bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(lr)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type record struct {
	delta   int64
	x, y    float64
	buttons int64
}

func (r record) placeholder() bool {
	return r.x == placeholderX && r.y == placeholderY
}

func parseRecord(s string) (record, error) {
	parts := strings.Split(s, fieldSeparator)
	if len(parts) != 4 {
		return record{}, fmt.Errorf("%w: record %q has %d fields", ErrMalformedFrameStream, s, len(parts))
	}
	var rec record
	var err error
	if rec.delta, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64); err != nil {
		return record{}, fmt.Errorf("%w: time delta in %q: %w", ErrMalformedFrameStream, s, err)
	}
	if rec.x, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return record{}, fmt.Errorf("%w: x in %q: %w", ErrMalformedFrameStream, s, err)
	}
	if rec.y, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
		return record{}, fmt.Errorf("%w: y in %q: %w", ErrMalformedFrameStream, s, err)
	}
	if rec.buttons, err = strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64); err != nil {
		return record{}, fmt.Errorf("%w: buttons in %q: %w", ErrMalformedFrameStream, s, err)
	}
	return rec, nil
}

// decodeFrames turns the decompressed stream into samples. Game-written
// streams open with two placeholder records at (256, -500); the second one
// carries the start offset. Otherwise the first record is the seed. The last
// two records are the trailer and are dropped.
func decodeFrames(text string, rep *Replay) error {
	records := strings.Split(text, frameSeparator)
	if len(records) < 3 {
		return fmt.Errorf("%w: %d records, need at least 3", ErrMalformedFrameStream, len(records))
	}

	seed, err := parseRecord(records[0])
	if err != nil {
		return err
	}
	first := 1
	if len(records) >= 4 && seed.delta == 0 && seed.placeholder() {
		if next, err := parseRecord(records[1]); err == nil && next.placeholder() {
			seed, first = next, 2
		}
	}
	rep.StartOffset = seed.delta

	if tail, err := parseRecord(records[len(records)-2]); err == nil && tail.delta == seedRecordDelta {
		rep.RNGSeed = tail.buttons
	}

	body := records[first : len(records)-2]
	rep.Samples = make([]Sample, 0, len(body))
	t := rep.StartOffset
	for i, s := range body {
		rec, err := parseRecord(s)
		if err != nil {
			return err
		}
		if rec.delta < 0 {
			return fmt.Errorf("%w: record %d goes back in time (delta %d)", ErrMalformedFrameStream, i+first, rec.delta)
		}
		t += rec.delta
		rep.Samples = append(rep.Samples, Sample{
			Time:      t,
			TimeDelta: rec.delta,
			X:         rec.x,
			Y:         rec.y,
			Buttons:   Buttons(rec.buttons) & (ButtonPrimary | ButtonSecondary | ButtonK1 | ButtonK2 | ButtonSmoke),
		})
	}
	return nil
}
