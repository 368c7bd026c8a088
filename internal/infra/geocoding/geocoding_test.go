package geocoding

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofialert/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShouldTryFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "syntax remark", err: &RemarkError{Remark: "Query syntax error at line 2"}, want: false},
		{name: "parse error remark", err: &RemarkError{Remark: "parse error: unknown token"}, want: false},
		{name: "unexpected token remark", err: &RemarkError{Remark: `unexpected token: ")"`}, want: false},
		{name: "invalid regex remark", err: &RemarkError{Remark: "Invalid regular expression"}, want: false},
		{name: "timeout remark", err: &RemarkError{Remark: "runtime error: query timed out"}, want: true},
		{name: "bad request", err: &HTTPError{StatusCode: http.StatusBadRequest}, want: false},
		{name: "not found", err: &HTTPError{StatusCode: http.StatusNotFound}, want: false},
		{name: "rate limited", err: &HTTPError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "gateway timeout", err: &HTTPError{StatusCode: http.StatusGatewayTimeout}, want: true},
		{name: "server error", err: &HTTPError{StatusCode: http.StatusInternalServerError}, want: true},
		{name: "network error", err: assert.AnError, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldTryFallback(tt.err))
		})
	}
}

func TestOverpassClient_Geocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.Form.Get("data"), "Кричим")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"elements": [
				{"type": "node", "id": 1, "lat": 42.67, "lon": 23.33,
				 "tags": {"addr:street": "улица Кричим", "addr:housenumber": "1", "addr:city": "София"}},
				{"type": "way", "id": 2, "center": {"lat": 42.671, "lon": 23.331},
				 "tags": {"name": "улица Кричим"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewOverpassClient(server.URL, time.Second, discardLogger())
	addresses, err := client.Geocode(context.Background(), "ул. Кричим 1")
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	assert.Equal(t, "ул. Кричим 1", addresses[0].OriginalText)
	assert.Equal(t, "улица Кричим 1, София", addresses[0].FormattedAddress)
	assert.InDelta(t, 42.67, addresses[0].Latitude, 1e-9)

	// Way elements resolve through their center.
	assert.InDelta(t, 23.331, addresses[1].Longitude, 1e-9)
	assert.Equal(t, "улица Кричим", addresses[1].FormattedAddress)
}

func TestOverpassClient_RemarkBecomesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"remark": "Query syntax error: unexpected end of input", "elements": []}`))
	}))
	defer server.Close()

	client := NewOverpassClient(server.URL, time.Second, discardLogger())
	_, err := client.Geocode(context.Background(), "ул. Кричим")
	require.Error(t, err)

	var remarkErr *RemarkError
	require.ErrorAs(t, err, &remarkErr)
	assert.False(t, ShouldTryFallback(err))
}

func TestOverpassClient_HTTPErrorCarriesRemark(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<html><body><p><strong style="color:#FF0000">Error</strong>: line 1: parse error: Unknown type &quot;x&quot; </p></body></html>`))
	}))
	defer server.Close()

	client := NewOverpassClient(server.URL, time.Second, discardLogger())
	_, err := client.Geocode(context.Background(), "x")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Remark, `parse error: Unknown type "x"`)
}

func TestChain_FallsBackToSecondEndpoint(t *testing.T) {
	var primaryCalls atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		primaryCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements": [{"type": "node", "lat": 42.69, "lon": 23.32}]}`))
	}))
	defer fallback.Close()

	geocoder, err := NewChain(&config.GeocodingConfig{
		Endpoints: []string{primary.URL, fallback.URL},
		Timeout:   time.Second,
	}, discardLogger())
	require.NoError(t, err)

	addresses, err := geocoder.Geocode(context.Background(), "бул. Витоша")
	require.NoError(t, err)
	require.Len(t, addresses, 1)

	// Primary was retried before the chain moved on.
	assert.Equal(t, int32(maxRetries+1), primaryCalls.Load())
}

func TestChain_NonRetryableAbortsChain(t *testing.T) {
	var fallbackCalled atomic.Bool

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"remark": "Query syntax error at line 1"}`))
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fallbackCalled.Store(true)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer fallback.Close()

	geocoder, err := NewChain(&config.GeocodingConfig{
		Endpoints: []string{primary.URL, fallback.URL},
		Timeout:   time.Second,
	}, discardLogger())
	require.NoError(t, err)

	_, err = geocoder.Geocode(context.Background(), "((broken")
	require.Error(t, err)
	assert.False(t, fallbackCalled.Load(), "fallback should not run for a broken query")
}

func TestChain_RequiresEndpoints(t *testing.T) {
	_, err := NewChain(&config.GeocodingConfig{}, discardLogger())
	assert.Error(t, err)
}

func TestEscapeRegex(t *testing.T) {
	assert.Equal(t, `ул\. Кричим`, escapeRegex("ул. Кричим"))
	assert.Equal(t, `a\(b\)\"c`, escapeRegex(`a(b)"c`))
}
