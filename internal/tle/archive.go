package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrArchiveEmpty is returned by LoadLatest when no snapshot exists.
var ErrArchiveEmpty = errors.New("no archived catalog snapshots")

// Archive keeps the most recent raw catalog downloads on disk so the
// daemon can start without network access.
type Archive struct {
	dir      string
	maxFiles int
}

// NewArchive stores snapshots in dir, keeping at most maxFiles.
func NewArchive(dir string, maxFiles int) *Archive {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Archive{dir: dir, maxFiles: maxFiles}
}

// Write saves a snapshot named after ts and prunes the oldest ones.
func (a *Archive) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return errors.Wrap(err, "creating archive dir")
	}

	path := filepath.Join(a.dir, fmt.Sprintf("catalog_%d.tle", ts.Unix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing snapshot")
	}
	return a.prune()
}

// LoadLatest returns the newest snapshot and its timestamp.
func (a *Archive) LoadLatest() ([]byte, time.Time, error) {
	snaps, err := a.list()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(snaps) == 0 {
		return nil, time.Time{}, ErrArchiveEmpty
	}

	latest := snaps[len(snaps)-1]
	data, err := os.ReadFile(filepath.Join(a.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "reading snapshot")
	}
	return data, latest.ts, nil
}

type snapshot struct {
	name string
	ts   time.Time
}

// list returns snapshots oldest first.
func (a *Archive) list() ([]snapshot, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing archive dir")
	}

	var snaps []snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "catalog_") || !strings.HasSuffix(name, ".tle") {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "catalog_"), ".tle"), 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, snapshot{name: name, ts: time.Unix(unix, 0)})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].ts.Before(snaps[j].ts)
	})
	return snaps, nil
}

func (a *Archive) prune() error {
	snaps, err := a.list()
	if err != nil {
		return err
	}
	if len(snaps) <= a.maxFiles {
		return nil
	}
	for _, s := range snaps[:len(snaps)-a.maxFiles] {
		if err := os.Remove(filepath.Join(a.dir, s.name)); err != nil {
			return errors.Wrapf(err, "pruning %s", s.name)
		}
	}
	return nil
}
