// Package audio plays a chart's music in step with the viewer.
package audio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

const resampleQuality = 4

var ErrUnsupportedFormat = errors.New("unsupported audio format")

type decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func decodeWav(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(rc)
}

func decoderFor(path string) (decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return mp3.Decode, nil
	case ".ogg":
		return vorbis.Decode, nil
	case ".wav":
		return decodeWav, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Player owns the speaker while open. Start it paused and drive it with
// SeekTo, SetPaused and SetSpeed.
type Player struct {
	stream    beep.StreamSeekCloser
	format    beep.Format
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
	log       *log.Logger
}

func Open(path string, logger *log.Logger) (*Player, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	decode, err := decoderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, format, err := decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/30)); err != nil {
		stream.Close()
		return nil, fmt.Errorf("speaker: %w", err)
	}

	p := &Player{stream: stream, format: format, log: logger}
	p.resampler = beep.ResampleRatio(resampleQuality, 1, stream)
	p.ctrl = &beep.Ctrl{Streamer: p.resampler, Paused: true}
	speaker.Play(p.ctrl)
	logger.Printf("audio %s: %d Hz, %d channels, %v", filepath.Base(path), format.SampleRate,
		format.NumChannels, format.SampleRate.D(stream.Len()).Round(time.Second))
	return p, nil
}

// position converts replay ms to a sample index inside [0, length].
func position(ms int64, rate beep.SampleRate, length int) int {
	if ms <= 0 {
		return 0
	}
	return min(rate.N(time.Duration(ms)*time.Millisecond), length)
}

// SeekTo moves playback to replay time ms. Times before the music starts
// seek to its start.
func (p *Player) SeekTo(ms int64) error {
	speaker.Lock()
	defer speaker.Unlock()
	return p.stream.Seek(position(ms, p.format.SampleRate, p.stream.Len()))
}

func (p *Player) SetPaused(paused bool) {
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

func (p *Player) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	speaker.Lock()
	p.resampler.SetRatio(speed)
	speaker.Unlock()
}

func (p *Player) Close() error {
	speaker.Clear()
	err := p.stream.Close()
	speaker.Close()
	return err
}
