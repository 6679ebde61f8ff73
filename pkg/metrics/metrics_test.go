package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenantkit/pkg/metrics"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/tenants/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/tenants/{id}", "418"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/tenants/{id}", "418"))
	assert.Equal(t, float64(2), after-before)
}
