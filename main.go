package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/burkap/osu-replay-analyzer/audio"
	"github.com/burkap/osu-replay-analyzer/config"
	"github.com/burkap/osu-replay-analyzer/dotdb"
	"github.com/burkap/osu-replay-analyzer/report"
	"github.com/burkap/osu-replay-analyzer/session"
	"github.com/burkap/osu-replay-analyzer/store"
	"github.com/burkap/osu-replay-analyzer/viewer"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
)

func main() {
	defer Recover()
	log.SetPrefix("analyzer: ")

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrNoOsuPath) {
			log.Fatal(err)
		}
		log.Print(err)
		config.Usage(os.Args[1:])
		os.Exit(2)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.Default()
	}

	switch cfg.Command {
	case config.CmdInit:
		err = initConfig(cfg)
	case config.CmdJudge:
		err = judgeReplay(cfg, logger)
	case config.CmdView:
		err = viewReplay(cfg, logger)
	case config.CmdIndex:
		err = indexCatalog(cfg, logger)
	case config.CmdHistory:
		err = history(cfg, logger)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func initConfig(cfg *config.Config) error {
	f := config.File{OsuPath: cfg.OsuPath, CachePath: cfg.CachePath, Speed: 1}
	if err := config.WriteFile(cfg.ConfigPath, f); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", cfg.ConfigPath)
	return nil
}

func openSession(cfg *config.Config, db *store.Store, logger *log.Logger) (*session.Session, error) {
	return session.Load(session.Source{
		ReplayPath: cfg.ReplayPath,
		ChartPath:  cfg.ChartPath,
		OsuPath:    cfg.OsuPath,
		Store:      db,
	}, logger)
}

func judgeReplay(cfg *config.Config, logger *log.Logger) error {
	db, err := store.Open(cfg.CachePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := openSession(cfg, db, logger)
	if err != nil {
		return err
	}
	r := report.New(sess.Replay, sess.Beatmap.Metadata, sess.Chart.Objects, sess.Result)
	if err := report.Write(os.Stdout, r, cfg.Format); err != nil {
		return err
	}

	if !cfg.Save {
		return nil
	}
	id, err := db.SaveRun(store.Run{
		ReplayChecksum: sess.Replay.ReplayChecksum,
		ChartChecksum:  sess.Replay.ChartChecksum,
		Player:         sess.Replay.PlayerName,
		Mods:           sess.Profile.Mods,
		Counts:         sess.Result.Counts,
		Recorded:       sess.Recorded(),
	})
	if err != nil {
		return err
	}
	log.Printf("saved run %s", id)
	return nil
}

func viewReplay(cfg *config.Config, logger *log.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("view needs a terminal")
	}
	db, err := store.Open(cfg.CachePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := openSession(cfg, db, logger)
	if err != nil {
		return err
	}

	var music viewer.Audio
	if cfg.Audio && sess.AudioPath != "" {
		p, err := audio.Open(sess.AudioPath, logger)
		if err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			defer p.Close()
			music = p
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	OnPanic(screen.Fini)
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	clock := viewer.NewPlayClock(viewer.SystemTime{}, sess.Playback.Time(), cfg.Speed)
	// The screen owns the terminal, so the viewer does not log.
	return viewer.New(screen, sess, clock, music, nil).Run(ctx)
}

func indexCatalog(cfg *config.Config, logger *log.Logger) error {
	cat, err := dotdb.DecodeFile(cfg.CatalogPath())
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.CachePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.ReplaceCatalog(cat)
	if err != nil {
		return err
	}
	size, err := db.CatalogSize()
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d of %d beatmaps from %s (version %d), cache holds %d\n",
		n, len(cat.Entries), cfg.CatalogPath(), cat.Header.Version, size)
	return nil
}

func history(cfg *config.Config, logger *log.Logger) error {
	db, err := store.Open(cfg.CachePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var runs []store.Run
	if cfg.Checksum != "" {
		runs, err = db.RunsForChart(cfg.Checksum)
		if cfg.Limit > 0 && len(runs) > cfg.Limit {
			runs = runs[:cfg.Limit]
		}
	} else {
		runs, err = db.Runs(cfg.Limit)
	}
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tPLAYER\tMODS\t300\t100\t50\tMISS\tACC\tRECORDED\tCHART")
	for _, r := range runs {
		c, rec := r.Counts, r.Recorded
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f%%\t%d/%d/%d/%d\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Player, r.Mods,
			c.Perfect, c.Good, c.Meh, c.Miss, c.Accuracy()*100,
			rec.Perfect, rec.Good, rec.Meh, rec.Miss, r.ChartChecksum)
	}
	return w.Flush()
}
