package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"
)

func TestDecoderFor(t *testing.T) {
	for _, name := range []string{"audio.mp3", "AUDIO.MP3", "song.ogg", "x/y/hit.wav"} {
		if d, err := decoderFor(name); err != nil || d == nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	for _, name := range []string{"audio.flac", "audio", "cover.jpg"} {
		if _, err := decoderFor(name); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: got %v", name, err)
		}
	}
}

func TestPosition(t *testing.T) {
	rate := beep.SampleRate(44100)
	cases := []struct {
		ms     int64
		length int
		want   int
	}{
		{-500, 100000, 0},
		{0, 100000, 0},
		{1000, 100000, 44100},
		{10, 100000, 441},
		{5000, 100000, 100000},
	}
	for _, c := range cases {
		if got := position(c.ms, rate, c.length); got != c.want {
			t.Errorf("position(%d) = %d, want %d", c.ms, got, c.want)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.mp3"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}

	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("not a riff file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(junk, nil); err == nil {
		t.Error("junk wav decoded")
	}

	if _, err := Open(filepath.Join(dir, "song.flac"), nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("flac: %v", err)
	}
}
