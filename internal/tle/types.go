package tle

import (
	"time"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

// Entry is one named element set from a catalog file.
type Entry struct {
	Name          string
	CatalogNumber int
	Epoch         timesys.JulianDate
	Elements      MeanElements
	Line1         string
	Line2         string
}

// EpochRange is the span of element epochs in a dataset.
type EpochRange struct {
	Min timesys.JulianDate
	Max timesys.JulianDate
}

// Dataset is a catalog loaded from one source at one time.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Entries    []Entry

	byCatalog map[int]int
}

// NewDataset indexes entries by catalog number and computes their epoch
// range. When a catalog number repeats, the entry with the newest epoch wins.
func NewDataset(source string, fetchedAt time.Time, entries []Entry) *Dataset {
	ds := &Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		Entries:   entries,
		byCatalog: make(map[int]int, len(entries)),
	}
	for i, e := range entries {
		if i == 0 || e.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = e.Epoch
		}
		if i == 0 || e.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = e.Epoch
		}
		if prev, ok := ds.byCatalog[e.CatalogNumber]; ok && !e.Epoch.After(entries[prev].Epoch) {
			continue
		}
		ds.byCatalog[e.CatalogNumber] = i
	}
	return ds
}

// Lookup returns the entry for a catalog number.
func (ds *Dataset) Lookup(catalogNumber int) (Entry, bool) {
	i, ok := ds.byCatalog[catalogNumber]
	if !ok {
		return Entry{}, false
	}
	return ds.Entries[i], true
}

// Len returns the number of distinct catalog numbers.
func (ds *Dataset) Len() int {
	return len(ds.byCatalog)
}
