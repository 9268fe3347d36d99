// Package dotdb reads the beatmap listing osu! keeps in osu!.db, enough
// to find a chart file from the checksum a replay carries.
package dotdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/burkap/osu-replay-analyzer/osubin"
)

const (
	// Oldest layout the decoder understands.
	MINIMUM_VERSION = 20110000
	// From this version on difficulty values are float32 rather than bytes
	// and star rating tables follow them.
	FLOAT_DIFFICULTY_VERSION = 20140609
	// Entries stopped carrying a leading size field at this version.
	NO_ENTRY_SIZE_VERSION = 20191106
	// Star ratings are stored as float32 rather than float64 from here on.
	FLOAT_STAR_RATING_VERSION = 20250107
)

var (
	ErrUnsupportedVersion = errors.New("unsupported osu!.db version")
	ErrChecksumNotFound   = errors.New("checksum not in catalog")
)

type Header struct {
	Version         int32
	FolderCount     int32
	AccountUnlocked bool
	UnlockDate      int64
	Player          string
	EntryCount      int32
}

// Entry is one beatmap difficulty. Only the identifying strings are kept.
type Entry struct {
	Checksum  string
	Folder    string
	AudioFile string
	ChartFile string

	Artist  string
	Title   string
	Creator string
	Version string
}

// ChartPath is the chart file under the given Songs directory.
func (e Entry) ChartPath(songs string) string {
	return filepath.Join(songs, e.Folder, e.ChartFile)
}

type Catalog struct {
	Header  Header
	Entries map[string]Entry
}

func (c *Catalog) Lookup(checksum string) (Entry, error) {
	e, ok := c.Entries[checksum]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrChecksumNotFound, checksum)
	}
	return e, nil
}

func DecodeFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

func Decode(b []byte) (*Catalog, error) {
	r := &entryReader{r: osubin.NewReader(b)}

	var h Header
	h.Version = r.i32()
	h.FolderCount = r.i32()
	h.AccountUnlocked = r.flag()
	h.UnlockDate = r.i64()
	h.Player = r.str()
	h.EntryCount = r.i32()
	if r.err != nil {
		return nil, fmt.Errorf("header: %w", r.err)
	}
	if h.Version < MINIMUM_VERSION {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.EntryCount < 0 {
		return nil, fmt.Errorf("header: negative entry count %d: %w", h.EntryCount, osubin.ErrTruncatedInput)
	}

	c := &Catalog{Header: h, Entries: make(map[string]Entry, min(int(h.EntryCount), r.r.Remaining()))}
	for i := range int(h.EntryCount) {
		e := r.entry(h.Version)
		if r.err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, r.err)
		}
		c.Entries[e.Checksum] = e
	}
	return c, nil
}

// entryReader keeps the first error and turns later reads into no-ops.
type entryReader struct {
	r   *osubin.Reader
	err error
}

func (er *entryReader) skip(n int) {
	if er.err == nil {
		er.err = er.r.Skip(n)
	}
}

func (er *entryReader) flag() bool {
	if er.err != nil {
		return false
	}
	v, err := er.r.Bool()
	er.err = err
	return v
}

func (er *entryReader) i32() int32 {
	if er.err != nil {
		return 0
	}
	v, err := er.r.Int32()
	er.err = err
	return v
}

func (er *entryReader) i64() int64 {
	if er.err != nil {
		return 0
	}
	v, err := er.r.Int64()
	er.err = err
	return v
}

func (er *entryReader) str() string {
	if er.err != nil {
		return ""
	}
	v, err := er.r.String()
	er.err = err
	return v
}

// skipTable skips an int32 count followed by count records of size bytes.
func (er *entryReader) skipTable(size int) {
	n := er.i32()
	if er.err == nil && n < 0 {
		er.err = fmt.Errorf("negative table length %d at offset %d: %w", n, er.r.Offset(), osubin.ErrTruncatedInput)
		return
	}
	er.skip(int(n) * size)
}

func (er *entryReader) entry(version int32) Entry {
	if version < NO_ENTRY_SIZE_VERSION {
		er.skip(4)
	}
	var e Entry
	e.Artist = er.str()
	er.str() // artist, unicode
	e.Title = er.str()
	er.str() // title, unicode
	e.Creator = er.str()
	e.Version = er.str()
	e.AudioFile = er.str()
	e.Checksum = er.str()
	e.ChartFile = er.str()

	// ranked status, circle/slider/spinner counts, last modified
	er.skip(1 + 2 + 2 + 2 + 8)
	if version < FLOAT_DIFFICULTY_VERSION {
		er.skip(4 * 1) // AR, CS, HP, OD
	} else {
		er.skip(4 * 4)
	}
	er.skip(8) // slider velocity

	if version >= FLOAT_DIFFICULTY_VERSION {
		// star ratings per mode: int-double pairs, later int-float
		pair := 14
		if version >= FLOAT_STAR_RATING_VERSION {
			pair = 10
		}
		for range 4 {
			er.skipTable(pair)
		}
	}

	er.skip(4 + 4 + 4) // drain time, total time, preview time
	er.skipTable(17)   // timing points: double, double, bool
	er.skip(4 + 4 + 4) // beatmap id, set id, thread id
	er.skip(4 * 1)     // grades per mode
	er.skip(2 + 4 + 1) // local offset, stack leniency, mode

	er.str()   // source
	er.str()   // tags
	er.skip(2) // online offset
	er.str()   // title font
	er.skip(1 + 8 + 1)
	e.Folder = er.str()
	er.skip(8)     // last online check
	er.skip(5 * 1) // ignore sound, skin, storyboard, video, visual override
	if version < FLOAT_DIFFICULTY_VERSION {
		er.skip(2)
	}
	er.skip(4 + 1) // last modification, mania scroll speed
	return e
}
