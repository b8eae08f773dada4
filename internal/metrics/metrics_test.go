package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/grants/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/grants/:id", "204"))
	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/grants/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/grants/:id", "204"))
	assert.Equal(t, 3.0, after-before)
}

func TestDomainCounters(t *testing.T) {
	hit := testutil.ToFloat64(referralChecks.WithLabelValues("hit"))
	RecordReferralCheck(true)
	assert.Equal(t, hit+1, testutil.ToFloat64(referralChecks.WithLabelValues("hit")))

	q := testutil.ToFloat64(applicationsSubmitted.WithLabelValues("qualified", "true"))
	RecordApplication("qualified", true)
	assert.Equal(t, q+1, testutil.ToFloat64(applicationsSubmitted.WithLabelValues("qualified", "true")))

	closed := testutil.ToFloat64(grantsClosed)
	RecordGrantsClosed(0)
	RecordGrantsClosed(4)
	assert.Equal(t, closed+4, testutil.ToFloat64(grantsClosed))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordReferralCheck(false)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grant_portal_referrals_checks_total")
}
