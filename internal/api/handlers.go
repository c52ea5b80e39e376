package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/metrics"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/transform"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/translator"
)

const (
	maxBodyBytes = 64 << 10

	defaultCatalogWindow = 90 * time.Minute
	defaultCatalogStep   = 60.0
)

// handlers carries the dependencies shared by the API endpoints.
type handlers struct {
	store      *tle.Store
	catalog    *propagation.Catalog
	loader     *tle.Loader
	maxSamples int
	workers    int
	logger     *slog.Logger
	now        func() time.Time
}

func (h *handlers) options() []translator.Option {
	return []translator.Option{
		translator.WithLogger(h.logger),
		translator.WithWorkers(h.workers),
		translator.WithMetrics(metrics.Propagation{}),
	}
}

type propagateRequest struct {
	Line1      string             `json:"line1"`
	Line2      string             `json:"line2"`
	Frame      string             `json:"frame"`
	Start      timesys.JulianDate `json:"start"`
	Stop       timesys.JulianDate `json:"stop"`
	Step       float64            `json:"step"` // seconds
	TimeFormat string             `json:"time_format,omitempty"`
}

type keplerianRequest struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// truncatedResponse is returned with 422 when the model fails inside the
// requested window. Record holds the samples before the failure.
type truncatedResponse struct {
	Error  string                       `json:"error"`
	Record translator.PropagationRecord `json:"record"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseTimeForm(s string) (translator.TimeForm, error) {
	switch s {
	case "", "iso":
		return translator.CartesianISO, nil
	case "epoch":
		return translator.CartesianEpoch, nil
	}
	return 0, fmt.Errorf("invalid time_format %q, must be iso or epoch", s)
}

// checkBudget rejects windows that would produce more than maxSamples.
func (h *handlers) checkBudget(start, stop timesys.JulianDate, step float64) error {
	if !(step > 0) || math.IsInf(step, 0) {
		return fmt.Errorf("%w: %g s", translator.ErrInvalidStep, step)
	}
	if n := math.Floor(stop.Sub(start).Seconds()/step) + 1; n > float64(h.maxSamples) {
		return fmt.Errorf("window needs %.0f samples, limit is %d", n, h.maxSamples)
	}
	return nil
}

// propagate handles POST /api/v1/propagate.
func (h *handlers) propagate(w http.ResponseWriter, r *http.Request) {
	var req propagateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Start == (timesys.JulianDate{}) || req.Stop == (timesys.JulianDate{}) {
		writeError(w, http.StatusBadRequest, "start and stop are required")
		return
	}
	form, err := parseTimeForm(req.TimeFormat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.checkBudget(req.Start, req.Stop, req.Step); err != nil {
		if errors.Is(err, translator.ErrInvalidStep) {
			respondError(w, h.logger, err)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	tr, err := translator.New(req.Line1, req.Line2, req.Frame, h.options()...)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.run(w, r, tr, req.Start, req.Stop, timesys.Duration(req.Step), form)
}

func (h *handlers) run(w http.ResponseWriter, r *http.Request, tr *translator.Translator,
	start, stop timesys.JulianDate, step timesys.Duration, form translator.TimeForm) {
	samples, err := tr.Propagate(r.Context(), start, stop, step)
	rec := translator.NewPropagationRecord(tr.Frame(), samples, form)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rec)
	case truncated(err):
		writeJSON(w, http.StatusUnprocessableEntity, truncatedResponse{Error: err.Error(), Record: rec})
	default:
		respondError(w, h.logger, err)
	}
}

// truncated reports whether err cut a propagation short, leaving the
// samples before it valid.
func truncated(err error) bool {
	var me *propagation.ModelError
	return errors.Is(err, propagation.ErrDecayed) || errors.As(err, &me)
}

// keplerian handles POST /api/v1/keplerian.
func (h *handlers) keplerian(w http.ResponseWriter, r *http.Request) {
	var req keplerianRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	// The frame is irrelevant for the elements.
	tr, err := translator.New(req.Line1, req.Line2, "ECI", h.options()...)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	k, err := tr.KeplerianElements()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, translator.NewKeplerianRecord(k))
}

func (h *handlers) catalogModel(w http.ResponseWriter, r *http.Request) (*propagation.SGP4, tle.Entry, bool) {
	n, err := strconv.Atoi(r.PathValue("catalog_number"))
	if err != nil || n < 0 || n > 99999 {
		writeError(w, http.StatusBadRequest, "invalid catalog number")
		return nil, tle.Entry{}, false
	}
	model, entry, err := h.catalog.Model(n)
	if err != nil {
		respondError(w, h.logger, err)
		return nil, tle.Entry{}, false
	}
	return model, entry, true
}

func queryTime(r *http.Request, key string, def timesys.JulianDate) (timesys.JulianDate, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return timesys.Parse(v)
}

// catalogPropagate handles GET /api/v1/catalog/{catalog_number}/propagate.
// start defaults to now, stop to start plus 90 minutes and step to 60 s.
func (h *handlers) catalogPropagate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	frameTag := q.Get("frame")
	if frameTag == "" {
		frameTag = "ECEF"
	}
	frame, err := transform.ParseFrame(frameTag)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	start, err := queryTime(r, "start", timesys.FromTime(h.now()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	stop, err := queryTime(r, "stop", start.Add(timesys.FromStd(defaultCatalogWindow)))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	step := defaultCatalogStep
	if v := q.Get("step"); v != "" {
		if step, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid step parameter")
			return
		}
	}
	form, err := parseTimeForm(q.Get("time_format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.checkBudget(start, stop, step); err != nil {
		if errors.Is(err, translator.ErrInvalidStep) {
			respondError(w, h.logger, err)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	model, _, ok := h.catalogModel(w, r)
	if !ok {
		return
	}
	tr, err := translator.NewFromModel(model, frame, h.options()...)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.run(w, r, tr, start, stop, timesys.Duration(step), form)
}

type catalogKeplerianResponse struct {
	Name          string                     `json:"name"`
	CatalogNumber int                        `json:"catalog_number"`
	Elements      translator.KeplerianRecord `json:"elements"`
}

// catalogKeplerian handles GET /api/v1/catalog/{catalog_number}/keplerian.
func (h *handlers) catalogKeplerian(w http.ResponseWriter, r *http.Request) {
	model, entry, ok := h.catalogModel(w, r)
	if !ok {
		return
	}
	tr, err := translator.NewFromModel(model, transform.Inertial, h.options()...)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	k, err := tr.KeplerianElements()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogKeplerianResponse{
		Name:          entry.Name,
		CatalogNumber: entry.CatalogNumber,
		Elements:      translator.NewKeplerianRecord(k),
	})
}

type catalogMetadata struct {
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
	AgeSeconds float64   `json:"age_seconds"`
	Count      int       `json:"count"`
	EpochMin   string    `json:"epoch_min"`
	EpochMax   string    `json:"epoch_max"`
}

func metadataOf(ds *tle.Dataset, now time.Time) catalogMetadata {
	return catalogMetadata{
		Source:     ds.Source,
		FetchedAt:  ds.FetchedAt.UTC(),
		AgeSeconds: math.Round(now.Sub(ds.FetchedAt).Seconds()),
		Count:      ds.Len(),
		EpochMin:   ds.EpochRange.Min.String(),
		EpochMax:   ds.EpochRange.Max.String(),
	}
}

// metadata handles GET /api/v1/catalog/metadata.
func (h *handlers) metadata(w http.ResponseWriter, r *http.Request) {
	ds := h.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}
	writeJSON(w, http.StatusOK, metadataOf(ds, h.now()))
}

// catalogFetch handles POST /api/v1/catalog/fetch.
func (h *handlers) catalogFetch(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusServiceUnavailable, tle.ErrFetchDisabled.Error())
		return
	}
	ds, err := h.loader.Refresh(r.Context())
	if err != nil {
		metrics.IncCatalogFetch("error")
		if errors.Is(err, tle.ErrFetchDisabled) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Warn("catalog fetch failed", "component", "api", "error", err)
		writeError(w, http.StatusBadGateway, "catalog fetch failed: "+err.Error())
		return
	}
	metrics.IncCatalogFetch("ok")
	metrics.SetCatalogEntries(ds.Len())
	writeJSON(w, http.StatusOK, metadataOf(ds, h.now()))
}
