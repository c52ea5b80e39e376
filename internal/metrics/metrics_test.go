package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/propagate", "/api/v1/propagate"},
		{"/api/v1/keplerian", "/api/v1/keplerian"},
		{"/api/v1/catalog/metadata", "/api/v1/catalog/metadata"},
		{"/api/v1/catalog/fetch", "/api/v1/catalog/fetch"},

		// Parameterized catalog routes collapse to one label each.
		{"/api/v1/catalog/25544/propagate", "/api/v1/catalog/{catalog_number}/propagate"},
		{"/api/v1/catalog/5/propagate", "/api/v1/catalog/{catalog_number}/propagate"},
		{"/api/v1/catalog/20724/keplerian", "/api/v1/catalog/{catalog_number}/keplerian"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/catalog/abc/propagate", "other"},
		{"/api/v1/catalog/25544", "other"},
		{"/api/v1/catalog/25544/delete", "other"},
		{"/api/v1/catalog//propagate", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unique catalog numbers produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute("/api/v1/catalog/" + strconv.Itoa(10000+i) + "/propagate")
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestPropagationRecorder(t *testing.T) {
	before := testutil.ToFloat64(propagationSamplesTotal.WithLabelValues("decayed"))
	beforeOK := testutil.ToFloat64(propagationSamplesTotal.WithLabelValues("ok"))

	var p Propagation
	p.ObserveSamples(61, 12, 0)
	p.ObservePropagation(3 * time.Millisecond)

	if got := testutil.ToFloat64(propagationSamplesTotal.WithLabelValues("decayed")) - before; got != 12 {
		t.Errorf("decayed delta = %g, want 12", got)
	}
	if got := testutil.ToFloat64(propagationSamplesTotal.WithLabelValues("ok")) - beforeOK; got != 61 {
		t.Errorf("ok delta = %g, want 61", got)
	}
}

func TestMiddlewareUsesNormalizedRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/43210/propagate", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/catalog/{catalog_number}/propagate", "GET", "404"))
	if got < 1 {
		t.Errorf("request not counted under normalized label")
	}
}

func TestCatalogGauges(t *testing.T) {
	SetCatalogEntries(31)
	if got := testutil.ToFloat64(catalogEntries); got != 31 {
		t.Errorf("catalog entries = %g", got)
	}

	RegisterCatalogAge(func() float64 { return 42 })
	RegisterCatalogAge(func() float64 { return 7 }) // ignored

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "orbitd_catalog_age_seconds 42") {
		t.Errorf("age gauge missing from exposition")
	}
}
