package tle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoaderRefreshAndWarmStart(t *testing.T) {
	body := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\nGPS BIIR-11\n" + gpsLine1 + "\n" + gpsLine2 + "\n"
	server := catalogServer(t, body)
	dir := t.TempDir()

	store := NewStore()
	loader := NewLoader(store, NewFetcher(server.URL, testLogger), NewArchive(dir, 3), testLogger)
	fixed := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	loader.now = func() time.Time { return fixed }

	ds, err := loader.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, server.URL, ds.Source)
	assert.Same(t, ds, store.Get())

	// A fresh process warm-starts from the archive.
	other := NewStore()
	ds2, err := NewLoader(other, nil, NewArchive(dir, 3), testLogger).WarmStart()
	require.NoError(t, err)
	assert.Equal(t, "archive", ds2.Source)
	assert.True(t, ds2.FetchedAt.Equal(fixed))
	e, ok := other.Lookup(25544)
	require.True(t, ok)
	assert.Equal(t, "ISS (ZARYA)", e.Name)
}

func TestLoaderKeepsOldDatasetOnFailure(t *testing.T) {
	store := NewStore()
	old := NewDataset("old", time.Now(), nil)
	store.Set(old)

	server := catalogServer(t, "nothing useful here\n")
	loader := NewLoader(store, NewFetcher(server.URL, testLogger), nil, testLogger)

	_, err := loader.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoEntries)
	assert.Same(t, old, store.Get())
}

func TestLoaderDisabled(t *testing.T) {
	loader := NewLoader(NewStore(), nil, nil, testLogger)
	_, err := loader.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrFetchDisabled)
	_, err = loader.WarmStart()
	assert.ErrorIs(t, err, ErrArchiveEmpty)
}
