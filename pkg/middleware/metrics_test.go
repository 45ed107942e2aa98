package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsByRoutePattern(t *testing.T) {
	h := routed(Metrics("metrics-test"))

	for _, id := range []string{"a", "b", "c"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/doctors/"+id, nil))
	}

	count := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/api/doctors/{id}", "200"))
	assert.Equal(t, float64(3), count)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-test")))
}

func TestMetrics_UnknownRoute(t *testing.T) {
	h := routed(Metrics("metrics-404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	count := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-404", http.MethodGet, "unknown", "404"))
	assert.Equal(t, float64(1), count)
}
