package tle

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrFetchDisabled is returned by Refresh when no fetcher is configured.
	ErrFetchDisabled = errors.New("catalog fetching is disabled")
	// ErrNoEntries is returned when a download holds no valid element set.
	ErrNoEntries = errors.New("catalog contains no valid entries")
)

// Loader keeps a Store filled from a Fetcher, mirroring every download to
// an Archive for warm starts. The fetcher and archive may be nil.
type Loader struct {
	store   *Store
	fetcher *Fetcher
	archive *Archive
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoader creates a Loader.
func NewLoader(store *Store, fetcher *Fetcher, archive *Archive, logger *slog.Logger) *Loader {
	return &Loader{
		store:   store,
		fetcher: fetcher,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// WarmStart installs the newest archived snapshot.
func (l *Loader) WarmStart() (*Dataset, error) {
	if l.archive == nil {
		return nil, ErrArchiveEmpty
	}
	data, ts, err := l.archive.LoadLatest()
	if err != nil {
		return nil, err
	}
	ds, err := l.install(data, "archive", ts)
	if err != nil {
		return nil, errors.Wrap(err, "archived snapshot")
	}
	l.logger.Info("loaded catalog from archive",
		"component", "tle",
		"count", ds.Len(),
		"archived_at", ts.Format(time.RFC3339),
	)
	return ds, nil
}

// Refresh downloads, parses and installs a new dataset. Concurrent calls
// are serialized; the store keeps its old dataset if anything fails.
func (l *Loader) Refresh(ctx context.Context) (*Dataset, error) {
	if l.fetcher == nil {
		return nil, ErrFetchDisabled
	}

	l.store.Lock()
	defer l.store.Unlock()

	data, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	now := l.now()
	ds, err := l.install(data, l.fetcher.SourceURL(), now)
	if err != nil {
		return nil, err
	}

	if l.archive != nil {
		if err := l.archive.Write(data, now); err != nil {
			l.logger.Warn("failed to archive catalog", "component", "tle", "error", err)
		}
	}
	l.logger.Info("catalog refreshed",
		"component", "tle",
		"source", ds.Source,
		"count", ds.Len(),
		"epoch_min", ds.EpochRange.Min.String(),
		"epoch_max", ds.EpochRange.Max.String(),
	)
	return ds, nil
}

func (l *Loader) install(data []byte, source string, fetchedAt time.Time) (*Dataset, error) {
	entries, err := ParseCatalog(bytes.NewReader(data), l.logger)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	ds := NewDataset(source, fetchedAt, entries)
	l.store.Set(ds)
	return ds, nil
}
