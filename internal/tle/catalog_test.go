package tle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalogThreeLine(t *testing.T) {
	data := strings.Join([]string{
		"ISS (ZARYA)", issLine1, issLine2,
		"VANGUARD 1", vanguardLine1, vanguardLine2,
		"",
	}, "\r\n")

	entries, err := ParseCatalog(strings.NewReader(data), testLogger)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "ISS (ZARYA)", entries[0].Name)
	assert.Equal(t, 25544, entries[0].CatalogNumber)
	assert.Equal(t, issLine1, entries[0].Line1)
	assert.Equal(t, "VANGUARD 1", entries[1].Name)
	assert.InDelta(t, 10.82419157, entries[1].Elements.MeanMotion, 1e-12)
}

func TestParseCatalogTwoLineAndZeroPrefix(t *testing.T) {
	data := strings.Join([]string{
		gpsLine1, gpsLine2,
		"0 MOLNIYA 1-29", molniyaLine1, molniyaLine2,
	}, "\n")

	entries, err := ParseCatalog(strings.NewReader(data), testLogger)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "03058A", entries[0].Name)
	assert.Equal(t, "MOLNIYA 1-29", entries[1].Name)
}

func TestParseCatalogSkipsBadEntries(t *testing.T) {
	data := strings.Join([]string{
		"BROKEN", issLine1[:68] + "0", issLine2,
		"ORPHAN NAME",
		"ISS (ZARYA)", issLine1, issLine2,
		"TRUNCATED", vanguardLine1,
	}, "\n")

	entries, err := ParseCatalog(strings.NewReader(data), testLogger)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 25544, entries[0].CatalogNumber)
}

func TestDatasetLookup(t *testing.T) {
	older, err := ParseLines(issLine1, issLine2)
	require.NoError(t, err)
	newer := older
	newer.Epoch = older.Epoch.Add(3600)
	vanguard, err := ParseLines(vanguardLine1, vanguardLine2)
	require.NoError(t, err)

	ds := NewDataset("test", time.Now(), []Entry{
		{Name: "ISS new", CatalogNumber: 25544, Epoch: newer.Epoch, Elements: newer},
		{Name: "VANGUARD 1", CatalogNumber: 5, Epoch: vanguard.Epoch, Elements: vanguard},
		{Name: "ISS old", CatalogNumber: 25544, Epoch: older.Epoch, Elements: older},
	})

	assert.Equal(t, 2, ds.Len())
	e, ok := ds.Lookup(25544)
	require.True(t, ok)
	assert.Equal(t, "ISS new", e.Name)

	_, ok = ds.Lookup(1)
	assert.False(t, ok)

	assert.True(t, ds.EpochRange.Min.Equal(vanguard.Epoch))
	assert.True(t, ds.EpochRange.Max.Equal(newer.Epoch))
}

func TestStore(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Get())
	assert.Equal(t, -1.0, s.AgeSeconds())
	_, ok := s.Lookup(25544)
	assert.False(t, ok)

	el, err := ParseLines(issLine1, issLine2)
	require.NoError(t, err)
	s.Set(NewDataset("test", time.Now().Add(-time.Minute), []Entry{{CatalogNumber: 25544, Epoch: el.Epoch, Elements: el}}))

	_, ok = s.Lookup(25544)
	assert.True(t, ok)
	assert.InDelta(t, 60, s.AgeSeconds(), 5)
}
