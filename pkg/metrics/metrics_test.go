package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentCountsStatus(t *testing.T) {
	h := Instrument("instrument-test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("instrument-test", http.MethodGet, "418"))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/exec", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("instrument-test", http.MethodGet, "418"))

	assert.Equal(t, before+1, after)
}

func TestInstrumentDefaultsToOK(t *testing.T) {
	h := Instrument("implicit-ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fine"))
	})

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("implicit-ok", http.MethodGet, "200")))
}
