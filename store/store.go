// Package store keeps a sqlite cache of the osu!.db catalog and a history
// of judged runs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/burkap/osu-replay-analyzer/dotdb"
	"github.com/burkap/osu-replay-analyzer/judge"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
create table if not exists catalog
  (
	  checksum text not null primary key,
	  folder text,
	  audio text,
	  chart text,
	  artist text,
	  title text,
	  creator text,
	  version text
  );
create table if not exists runs
  (
	  id text not null primary key,
	  replay_checksum text,
	  chart_checksum text,
	  player text,
	  mods integer,
	  perfect integer,
	  good integer,
	  meh integer,
	  miss integer,
	  recorded_perfect integer,
	  recorded_good integer,
	  recorded_meh integer,
	  recorded_miss integer,
	  created_at integer
  );
create index if not exists runs_chart on runs(chart_checksum);
`

type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Open opens or creates the database at path. A nil logger discards.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create schema in %s: %w", path, err)
	}
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReplaceCatalog swaps the cached catalog for c in one transaction.
func (s *Store) ReplaceCatalog(c *dotdb.Catalog) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("delete from catalog"); err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`insert into catalog(checksum, folder, audio, chart, artist, title, creator, version)
		values(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, e := range c.Entries {
		if e.Checksum == "" {
			continue
		}
		if _, err := stmt.Exec(e.Checksum, e.Folder, e.AudioFile, e.ChartFile, e.Artist, e.Title, e.Creator, e.Version); err != nil {
			return 0, fmt.Errorf("unable to cache %s: %w", e.Checksum, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Printf("cached %d catalog entries", n)
	return n, nil
}

// Lookup finds a cached catalog entry, failing with
// dotdb.ErrChecksumNotFound.
func (s *Store) Lookup(checksum string) (dotdb.Entry, error) {
	e := dotdb.Entry{Checksum: checksum}
	err := s.db.QueryRow(`select folder, audio, chart, artist, title, creator, version
		from catalog where checksum = ?`, checksum).
		Scan(&e.Folder, &e.AudioFile, &e.ChartFile, &e.Artist, &e.Title, &e.Creator, &e.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return dotdb.Entry{}, fmt.Errorf("%w: %s", dotdb.ErrChecksumNotFound, checksum)
	}
	if err != nil {
		return dotdb.Entry{}, err
	}
	return e, nil
}

func (s *Store) CatalogSize() (int, error) {
	var n int
	err := s.db.QueryRow("select count(*) from catalog").Scan(&n)
	return n, err
}

// Run is one saved judgement of a replay. Recorded holds the counts the
// replay header claims.
type Run struct {
	ID             string
	ReplayChecksum string
	ChartChecksum  string
	Player         string
	Mods           judge.Mods
	Counts         judge.Counts
	Recorded       judge.Counts
	CreatedAt      time.Time
}

// SaveRun stores r under a fresh id and returns it.
func (s *Store) SaveRun(r Run) (string, error) {
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`insert into runs(id, replay_checksum, chart_checksum, player, mods,
		perfect, good, meh, miss, recorded_perfect, recorded_good, recorded_meh, recorded_miss, created_at)
		values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ReplayChecksum, r.ChartChecksum, r.Player, int64(r.Mods),
		r.Counts.Perfect, r.Counts.Good, r.Counts.Meh, r.Counts.Miss,
		r.Recorded.Perfect, r.Recorded.Good, r.Recorded.Meh, r.Recorded.Miss,
		r.CreatedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("unable to save run: %w", err)
	}
	s.log.Printf("saved run %s for %s", r.ID, r.ChartChecksum)
	return r.ID, nil
}

// Runs returns the most recent runs first. A limit of 0 or less returns
// all of them.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns("select "+runColumns+" from runs order by created_at desc, rowid desc limit ?", limit)
}

func (s *Store) RunsForChart(checksum string) ([]Run, error) {
	return s.queryRuns("select "+runColumns+" from runs where chart_checksum = ? order by created_at desc, rowid desc", checksum)
}

const runColumns = `id, replay_checksum, chart_checksum, player, mods,
	perfect, good, meh, miss, recorded_perfect, recorded_good, recorded_meh, recorded_miss, created_at`

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var mods, created int64
		if err := rows.Scan(&r.ID, &r.ReplayChecksum, &r.ChartChecksum, &r.Player, &mods,
			&r.Counts.Perfect, &r.Counts.Good, &r.Counts.Meh, &r.Counts.Miss,
			&r.Recorded.Perfect, &r.Recorded.Good, &r.Recorded.Meh, &r.Recorded.Miss,
			&created); err != nil {
			return nil, err
		}
		r.Mods = judge.Mods(mods)
		r.CreatedAt = time.UnixMilli(created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
