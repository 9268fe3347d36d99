package dotosr

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/burkap/osu-replay-analyzer/osubin"
	"github.com/ulikunitz/xz/lzma"
)

// Encode writes rep in the .osr layout the game writes. The frame stream
// gets two placeholder records, the second carrying StartOffset, then the
// samples, and a trailer of a seed record and an empty record.
func Encode(rep *Replay) ([]byte, error) {
	var sb strings.Builder
	writeRecord(&sb, 0, placeholderX, placeholderY, 0)
	writeRecord(&sb, rep.StartOffset, placeholderX, placeholderY, 0)
	for _, s := range rep.Samples {
		writeRecord(&sb, s.TimeDelta, s.X, s.Y, int64(s.Buttons))
	}
	writeRecord(&sb, seedRecordDelta, 0, 0, rep.RNGSeed)

	var payload bytes.Buffer
	lw, err := lzma.NewWriter(&payload)
	if err != nil {
		return nil, fmt.Errorf("lzma writer: %w", err)
	}
	if _, err := lw.Write([]byte(sb.String())); err != nil {
		return nil, fmt.Errorf("compress frames: %w", err)
	}
	if err := lw.Close(); err != nil {
		return nil, fmt.Errorf("compress frames: %w", err)
	}

	var w osubin.Writer
	w.Byte(byte(rep.Mode))
	w.Int32(rep.Version)
	w.String(rep.ChartChecksum)
	w.String(rep.PlayerName)
	w.String(rep.ReplayChecksum)
	for _, c := range []uint16{rep.Count300, rep.Count100, rep.Count50, rep.CountGeki, rep.CountKatu, rep.CountMiss} {
		w.Uint16(c)
	}
	w.Int32(rep.TotalScore)
	w.Uint16(rep.MaxCombo)
	w.Bool(rep.Perfect)
	w.Uint32(rep.Mods)
	w.String(rep.LifeBar)
	w.Int64(rep.Timestamp)
	w.Int32(int32(payload.Len()))
	w.Raw(payload.Bytes())
	w.Int64(rep.OnlineID)
	return w.Bytes(), nil
}

func EncodeFile(path string, rep *Replay) error {
	data, err := Encode(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeRecord(sb *strings.Builder, delta int64, x, y float64, buttons int64) {
	sb.WriteString(strconv.FormatInt(delta, 10))
	sb.WriteString(fieldSeparator)
	sb.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	sb.WriteString(fieldSeparator)
	sb.WriteString(strconv.FormatFloat(y, 'f', -1, 64))
	sb.WriteString(fieldSeparator)
	sb.WriteString(strconv.FormatInt(buttons, 10))
	sb.WriteString(frameSeparator)
}
