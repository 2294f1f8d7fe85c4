package exchange

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(apiURL string) *Client {
	return NewClient(apiURL, "test-key", "ETB", time.Second, time.Hour, nil, discardLogger())
}

func TestClient_FetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/test-key/latest/ETB", r.URL.Path)
		_, _ = w.Write([]byte(`{"conversion_rates":{"USD":0.0175,"AED":0.0643}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	rate := client.FetchRate(context.Background(), "USD")
	assert.True(t, rate.Equal(decimal.NewFromFloat(0.0175)))
}

func TestClient_FetchRate_BaseCurrency(t *testing.T) {
	// Same currency conversion never hits the network.
	client := newTestClient("http://127.0.0.1:0")
	rate := client.FetchRate(context.Background(), "ETB")
	assert.True(t, Unavailable(rate))
}

func TestClient_FetchRate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	rate := client.FetchRate(context.Background(), "USD")
	assert.True(t, Unavailable(rate))
}

func TestClient_FetchRate_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	rate := client.FetchRate(context.Background(), "USD")
	assert.True(t, Unavailable(rate))
}

func TestClient_FetchRate_MissingCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"conversion_rates":{"USD":0.0175}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	rate := client.FetchRate(context.Background(), "KES")
	assert.True(t, Unavailable(rate))
}

func TestClient_FetchRate_Unreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	rate := client.FetchRate(context.Background(), "USD")
	assert.True(t, Unavailable(rate))
}

func TestUnavailable(t *testing.T) {
	assert.True(t, Unavailable(decimal.NewFromInt(1)))
	assert.True(t, Unavailable(decimal.RequireFromString("1.00")))
	assert.False(t, Unavailable(decimal.NewFromFloat(0.0175)))
}
