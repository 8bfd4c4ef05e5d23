package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndUnmatchedLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/statusonly", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Baselines: other tests share the default registry.
	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))
	base204 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/statusonly", "204"))

	for _, p := range []string{"/ok", "/does-not-exist", "/also/missing", "/statusonly"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200")); got != baseOK+1 {
		t.Fatalf("counter /ok 200 = %v; want %v", got, baseOK+1)
	}
	// every unrouted path shares one series
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != base404+2 {
		t.Fatalf("counter unmatched 404 = %v; want %v", got, base404+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/statusonly", "204")); got != base204+1 {
		t.Fatalf("counter 204 = %v; want %v", got, base204+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestObserveAPIError(t *testing.T) {
	c := apiErrors.WithLabelValues("not_found", "404", "client")
	base := testutil.ToFloat64(c)

	ObserveAPIError("not_found", 404, "client")
	ObserveAPIError("not_found", 404, "client")

	if got := testutil.ToFloat64(c); got != base+2 {
		t.Fatalf("api_errors_total = %v; want %v", got, base+2)
	}
}
