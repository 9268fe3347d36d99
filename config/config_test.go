package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseJudge(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "analyzer.cfg")
	c, err := Parse([]string{"--config", cfg, "judge", "-r", "a.osr", "--chart", "b.osu", "--format", "yaml", "--save"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Command != CmdJudge || c.ReplayPath != "a.osr" || c.ChartPath != "b.osu" || c.Format != "yaml" || !c.Save {
		t.Errorf("config %+v", c)
	}
	if c.CachePath != DefaultCachePath || c.Speed != 1 {
		t.Errorf("defaults: cache %q speed %g", c.CachePath, c.Speed)
	}
}

func TestParseErrors(t *testing.T) {
	cases := [][]string{
		{"judge"},
		{"judge", "-r", "a.osr", "--format", "xml"},
		{"bogus"},
		{"init"},
	}
	for _, args := range cases {
		if _, err := Parse(args); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "analyzer.cfg")
	if err := WriteFile(cfg, File{OsuPath: "/games/osu", CachePath: "/tmp/cache.db", Speed: 0.5}); err != nil {
		t.Fatal(err)
	}

	c, err := Parse([]string{"--config", cfg, "view", "-r", "a.osr"})
	if err != nil {
		t.Fatal(err)
	}
	if c.OsuPath != "/games/osu" || c.CachePath != "/tmp/cache.db" || c.Speed != 0.5 {
		t.Errorf("from file: %+v", c)
	}
	if c.SongsDir() != filepath.Join("/games/osu", "Songs") || c.CatalogPath() != filepath.Join("/games/osu", "osu!.db") {
		t.Errorf("paths %q %q", c.SongsDir(), c.CatalogPath())
	}

	c, err = Parse([]string{"--config", cfg, "--cache", "mine.db", "view", "-r", "a.osr", "--osu-path", "/other", "-s", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if c.OsuPath != "/other" || c.CachePath != "mine.db" || c.Speed != 2 {
		t.Errorf("flags should win: %+v", c)
	}
}

func TestParseHistory(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "analyzer.cfg")
	c, err := Parse([]string{"--config", cfg, "history", "-n", "5", "--chart", "aaaa0000aaaa0000aaaa0000aaaa0000"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Command != CmdHistory || c.Limit != 5 || c.Checksum != "aaaa0000aaaa0000aaaa0000aaaa0000" {
		t.Errorf("config %+v", c)
	}

	c, err = Parse([]string{"--config", cfg, "history"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Limit != 20 || c.Checksum != "" {
		t.Errorf("defaults %+v", c)
	}
}

func TestIndexNeedsOsuPath(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "missing.cfg")
	if _, err := Parse([]string{"--config", cfg, "index"}); err != ErrNoOsuPath {
		t.Errorf("got %v", err)
	}
}

func TestWriteFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analyzer.cfg")
	if err := WriteFile(path, File{OsuPath: "C:/osu!"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.OsuPath != "C:/osu!" || f.CachePath != "" || f.Speed != 0 {
		t.Errorf("read back %+v from %q", f, data)
	}
}

func TestLoadMissingFile(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.cfg"))
	if err != nil || f != (File{}) {
		t.Errorf("%+v %v", f, err)
	}
}
