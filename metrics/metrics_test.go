package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseCountsRevenueOnlyOnSuccess(t *testing.T) {
	m := New()

	m.Purchase(ResultSuccess, 200)
	m.Purchase("INSUFFICIENT_STOCK", 500)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchasesTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchasesTotal.WithLabelValues("INSUFFICIENT_STOCK")))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.revenueTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Purchase(ResultSuccess, 1)
		m.Checkout(ResultFailure)
		m.AddressSave("remote")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Checkout(ResultSuccess)
	m.AddressSave("local_only")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `krushee_checkouts_total{result="success"} 1`))
	assert.True(t, strings.Contains(string(body), `krushee_address_saves_total{outcome="local_only"} 1`))
}
