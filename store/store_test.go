package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/burkap/osu-replay-analyzer/dotdb"
	"github.com/burkap/osu-replay-analyzer/judge"
	"github.com/google/uuid"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "analyzer.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCatalogCache(t *testing.T) {
	s := openTemp(t)
	entry := dotdb.Entry{
		Checksum: "aaaa", Folder: "1 A - B", AudioFile: "audio.mp3", ChartFile: "A - B [Hard].osu",
		Artist: "A", Title: "B", Creator: "c", Version: "Hard",
	}
	c := &dotdb.Catalog{Entries: map[string]dotdb.Entry{
		"aaaa": entry,
		"":     {},
	}}
	n, err := s.ReplaceCatalog(c)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("cached %d entries, want 1", n)
	}

	got, err := s.Lookup("aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if got != entry {
		t.Errorf("got %+v, want %+v", got, entry)
	}
	if _, err := s.Lookup("bbbb"); !errors.Is(err, dotdb.ErrChecksumNotFound) {
		t.Errorf("missing entry: %v", err)
	}

	// Replacing drops stale rows.
	if _, err := s.ReplaceCatalog(&dotdb.Catalog{Entries: map[string]dotdb.Entry{"bbbb": {Checksum: "bbbb"}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Lookup("aaaa"); !errors.Is(err, dotdb.ErrChecksumNotFound) {
		t.Errorf("stale entry: %v", err)
	}
	if size, err := s.CatalogSize(); err != nil || size != 1 {
		t.Errorf("size %d, %v", size, err)
	}
}

func TestRuns(t *testing.T) {
	s := openTemp(t)
	base := time.UnixMilli(1700000000000)
	for i, chart := range []string{"x", "y", "x"} {
		id, err := s.SaveRun(Run{
			ReplayChecksum: "r",
			ChartChecksum:  chart,
			Player:         "heyronii",
			Mods:           judge.HardRock | judge.Hidden,
			Counts:         judge.Counts{Perfect: 10 + i, Good: 2, Meh: 1, Miss: 0},
			Recorded:       judge.Counts{Perfect: 10, Good: 2, Meh: 1, Miss: 1},
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("run id %q: %v", id, err)
		}
	}

	all, err := s.Runs(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Counts.Perfect != 12 || all[2].Counts.Perfect != 10 {
		t.Fatalf("runs %+v", all)
	}
	if all[0].Mods != judge.HardRock|judge.Hidden || all[0].Recorded.Miss != 1 || !all[0].CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("run %+v", all[0])
	}

	if recent, err := s.Runs(1); err != nil || len(recent) != 1 {
		t.Errorf("limit 1: %d runs, %v", len(recent), err)
	}
	if xs, err := s.RunsForChart("x"); err != nil || len(xs) != 2 {
		t.Errorf("chart x: %d runs, %v", len(xs), err)
	}
}
