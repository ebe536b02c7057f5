package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetch("keyword", OutcomeSuccess, 120*time.Millisecond)
	c.RecordFetch("keyword", OutcomeSuccess, 80*time.Millisecond)
	c.RecordFetch("category", OutcomeTransport, time.Second)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(429)
	c.RecordDeduped(3)
	c.RecordPersisted(17)
	c.RecordPersistFailure()
	c.RecordStaleResponse()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.fetches.WithLabelValues("keyword", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetches.WithLabelValues("category", OutcomeTransport)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("429")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.deduped))
	assert.Equal(t, 17.0, testutil.ToFloat64(c.persisted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.persistFailure))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stale))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPersisted(5)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "headlines_articles_persisted_total 5"))
}

func TestNoopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordFetch("keyword", OutcomeDecode, 0)
	r.RecordPersisted(1)
}
