// Package config parses the command line and the analyzer.cfg file. Flags
// win over the file, the file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/ini.v1"
)

const (
	DefaultConfigPath = "analyzer.cfg"
	DefaultCachePath  = "analyzer.db"

	section = "OSU"
)

const (
	CmdJudge   = "judge"
	CmdView    = "view"
	CmdIndex   = "index"
	CmdHistory = "history"
	CmdInit    = "init"
)

var Version = "0.3.0"

var ErrNoOsuPath = errors.New("no osu! path: pass --osu-path or run init")

type Config struct {
	Command string

	ConfigPath string
	CachePath  string
	Verbose    bool

	OsuPath    string
	ReplayPath string
	ChartPath  string

	Format string
	Save   bool
	Speed  float64
	Audio  bool
	Limit  int

	// Checksum filters history to one beatmap.
	Checksum string
}

// SongsDir is the Songs folder of the osu! install.
func (c *Config) SongsDir() string {
	if c.OsuPath == "" {
		return ""
	}
	return filepath.Join(c.OsuPath, "Songs")
}

func (c *Config) CatalogPath() string {
	if c.OsuPath == "" {
		return ""
	}
	return filepath.Join(c.OsuPath, "osu!.db")
}

// File is the content of analyzer.cfg.
type File struct {
	OsuPath   string
	CachePath string
	Speed     float64
}

// LoadFile reads path. A missing file is not an error.
func LoadFile(path string) (File, error) {
	var f File
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return f, fmt.Errorf("unable to read %s: %w", path, err)
	}
	sec := cfg.Section(section)
	f.OsuPath = sec.Key("OSU_PATH").String()
	f.CachePath = sec.Key("CACHE_PATH").String()
	f.Speed = sec.Key("SPEED").MustFloat64(0)
	return f, nil
}

// WriteFile stores f at path, replacing what was there.
func WriteFile(path string, f File) error {
	cfg := ini.Empty()
	sec, err := cfg.NewSection(section)
	if err != nil {
		return err
	}
	if _, err := sec.NewKey("OSU_PATH", f.OsuPath); err != nil {
		return err
	}
	if f.CachePath != "" {
		if _, err := sec.NewKey("CACHE_PATH", f.CachePath); err != nil {
			return err
		}
	}
	if f.Speed > 0 {
		if _, err := sec.NewKey("SPEED", fmt.Sprint(f.Speed)); err != nil {
			return err
		}
	}
	return cfg.SaveTo(path)
}

func newApp(c *Config) *kingpin.Application {
	app := kingpin.New("analyzer", "Judge and replay osu! standard replays against their beatmaps.")
	app.Version(Version)
	app.HelpFlag.Short('h')

	app.Flag("config", "Configuration file").Default(DefaultConfigPath).StringVar(&c.ConfigPath)
	app.Flag("cache", "SQLite cache of the catalog and saved runs").StringVar(&c.CachePath)
	app.Flag("verbose", "Log progress to stderr").Short('v').BoolVar(&c.Verbose)

	judge := app.Command(CmdJudge, "Judge a replay and print a report")
	judge.Flag("replay", "Replay file (.osr)").Short('r').Required().StringVar(&c.ReplayPath)
	judge.Flag("chart", "Beatmap file (.osu); looked up from the replay when omitted").Short('c').StringVar(&c.ChartPath)
	judge.Flag("osu-path", "osu! install directory").StringVar(&c.OsuPath)
	judge.Flag("format", "Report format").Default("text").EnumVar(&c.Format, "text", "json", "yaml")
	judge.Flag("save", "Save the result to the run history").BoolVar(&c.Save)

	view := app.Command(CmdView, "Play a replay back in the terminal")
	view.Flag("replay", "Replay file (.osr)").Short('r').Required().StringVar(&c.ReplayPath)
	view.Flag("chart", "Beatmap file (.osu); looked up from the replay when omitted").Short('c').StringVar(&c.ChartPath)
	view.Flag("osu-path", "osu! install directory").StringVar(&c.OsuPath)
	view.Flag("speed", "Playback speed").Short('s').Float64Var(&c.Speed)
	view.Flag("audio", "Play the beatmap audio").BoolVar(&c.Audio)

	index := app.Command(CmdIndex, "Cache osu!.db in the local database")
	index.Flag("osu-path", "osu! install directory").StringVar(&c.OsuPath)

	history := app.Command(CmdHistory, "List saved runs")
	history.Flag("limit", "Number of runs to list, 0 for all").Short('n').Default("20").IntVar(&c.Limit)
	history.Flag("chart", "Only runs of the beatmap with this MD5").Short('c').StringVar(&c.Checksum)

	initCmd := app.Command(CmdInit, "Write the configuration file")
	initCmd.Flag("osu-path", "osu! install directory").Required().StringVar(&c.OsuPath)

	return app
}

// Parse reads args (without the program name) and fills in what the
// configuration file provides.
func Parse(args []string) (*Config, error) {
	c := &Config{}
	app := newApp(c)
	cmd, err := app.Parse(args)
	if err != nil {
		return nil, err
	}
	c.Command = cmd

	if cmd == CmdInit {
		if c.CachePath == "" {
			c.CachePath = DefaultCachePath
		}
		return c, nil
	}

	f, err := LoadFile(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if c.OsuPath == "" {
		c.OsuPath = f.OsuPath
	}
	if c.CachePath == "" {
		c.CachePath = f.CachePath
	}
	if c.CachePath == "" {
		c.CachePath = DefaultCachePath
	}
	if c.Speed <= 0 {
		c.Speed = f.Speed
	}
	if c.Speed <= 0 {
		c.Speed = 1
	}

	if cmd == CmdIndex && c.OsuPath == "" {
		return nil, ErrNoOsuPath
	}
	return c, nil
}

// Usage writes the help text for args to stderr.
func Usage(args []string) {
	app := newApp(&Config{})
	app.Usage(args)
}
