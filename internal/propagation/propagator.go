package propagation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
)

var (
	// ErrNoDataset is returned when no catalog has been loaded.
	ErrNoDataset = errors.New("no TLE dataset loaded")
	// ErrNotInCatalog is returned for an unknown catalog number.
	ErrNotInCatalog = errors.New("catalog number not in dataset")
)

// modelCache holds initialized models for one dataset. Immutable after
// construction; safe for concurrent reads.
type modelCache struct {
	models    map[int]*SGP4
	failed    map[int]error
	fetchedAt time.Time
}

// Catalog serves initialized SGP4 models for the entries of the current
// catalog, rebuilding them whenever the store's dataset changes.
type Catalog struct {
	store  *tle.Store
	logger *slog.Logger
	cache  atomic.Pointer[modelCache]
	mu     sync.Mutex // serializes cache rebuilds
}

// NewCatalog creates a Catalog over store.
func NewCatalog(store *tle.Store, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, logger: logger}
}

// Model returns the model and catalog entry for a catalog number.
func (c *Catalog) Model(catalogNumber int) (*SGP4, tle.Entry, error) {
	ds := c.store.Get()
	if ds == nil {
		return nil, tle.Entry{}, ErrNoDataset
	}
	entry, ok := ds.Lookup(catalogNumber)
	if !ok {
		return nil, tle.Entry{}, fmt.Errorf("%w: %d", ErrNotInCatalog, catalogNumber)
	}

	mc := c.models(ds)
	if err, bad := mc.failed[catalogNumber]; bad {
		return nil, entry, err
	}
	return mc.models[catalogNumber], entry, nil
}

// models returns the cache for ds, rebuilding it if the dataset has
// changed (double-checked locking).
func (c *Catalog) models(ds *tle.Dataset) *modelCache {
	if mc := c.cache.Load(); mc != nil && mc.fetchedAt.Equal(ds.FetchedAt) {
		return mc
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if mc := c.cache.Load(); mc != nil && mc.fetchedAt.Equal(ds.FetchedAt) {
		return mc
	}

	mc := &modelCache{
		models:    make(map[int]*SGP4, ds.Len()),
		failed:    make(map[int]error),
		fetchedAt: ds.FetchedAt,
	}
	for _, entry := range ds.Entries {
		if _, ok := mc.models[entry.CatalogNumber]; ok {
			continue
		}
		if _, bad := mc.failed[entry.CatalogNumber]; bad {
			continue
		}
		current, _ := ds.Lookup(entry.CatalogNumber)
		m, err := NewSGP4(current.Elements)
		if err != nil {
			c.logger.Warn("sgp4 init failed", "component", "propagation", "catalog_number", entry.CatalogNumber, "error", err)
			mc.failed[entry.CatalogNumber] = err
			continue
		}
		mc.models[entry.CatalogNumber] = m
	}

	c.logger.Info("sgp4 model cache rebuilt",
		"component", "propagation",
		"cached", len(mc.models),
		"skipped", len(mc.failed),
		"dataset_fetched_at", ds.FetchedAt.UTC().Format(time.RFC3339),
	)
	c.cache.Store(mc)
	return mc
}
