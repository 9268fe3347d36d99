package session

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/burkap/osu-replay-analyzer/dotdb"
)

// FindByChecksum walks songs for the .osu file whose MD5 is checksum.
func FindByChecksum(songs, checksum string) (string, error) {
	var paths []string
	if err := filepath.WalkDir(songs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".osu") {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return "", err
	}
	sort.Strings(paths)

	jobs := make(chan string)
	found := atomic.Pointer[string]{}
	wg := sync.WaitGroup{}
	for range min(runtime.NumCPU(), max(len(paths), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if found.Load() != nil {
					continue
				}
				sum, err := fileMD5(p)
				if err != nil {
					continue
				}
				if sum == checksum {
					found.CompareAndSwap(nil, &p)
				}
			}
		}()
	}
	for _, p := range paths {
		if found.Load() != nil {
			break
		}
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	if p := found.Load(); p != nil {
		return *p, nil
	}
	return "", fmt.Errorf("%w: %s (scanned %d beatmaps)", dotdb.ErrChecksumNotFound, checksum, len(paths))
}
