package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/account-tracker/internal/models"
	"github.com/account-tracker/internal/render"
)

// fakeStore serves a fixed snapshot series.
type fakeStore struct {
	series []models.Snapshot
	err    error
}

func (f *fakeStore) All(ctx context.Context) ([]models.Snapshot, error) {
	return f.series, f.err
}

func (f *fakeStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.series) == 0 {
		return nil, nil
	}
	return &f.series[len(f.series)-1], nil
}

func testSeries() []models.Snapshot {
	d1, _ := time.Parse("2006-01-02", "2026-02-01")
	d2, _ := time.Parse("2006-01-02", "2026-02-02")
	return []models.Snapshot{
		{SnapshotDate: d1, TotalValue: decimal.RequireFromString("2782.79")},
		{SnapshotDate: d2, TotalValue: decimal.RequireFromString("3000.00")},
	}
}

func newTestServer(store *fakeStore) *Server {
	return NewServer(
		&ServerConfig{Host: "127.0.0.1", Port: "0"},
		store,
		render.NewRenderer("Test"),
		zerolog.Nop(),
	)
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleChart(t *testing.T) {
	t.Run("renders the stored series", func(t *testing.T) {
		server := newTestServer(&fakeStore{series: testSeries()})

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "$3,000.00")
	})

	t.Run("empty store is 404", func(t *testing.T) {
		server := newTestServer(&fakeStore{})

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		server := newTestServer(&fakeStore{err: fmt.Errorf("connection lost")})

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleSnapshots(t *testing.T) {
	server := newTestServer(&fakeStore{series: testSeries()})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/snapshots", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count     int               `json:"count"`
		Snapshots []models.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Snapshots, 2)
	assert.True(t, body.Snapshots[1].TotalValue.Equal(decimal.RequireFromString("3000.00")))
}

func TestHandleLatest(t *testing.T) {
	t.Run("returns the most recent snapshot", func(t *testing.T) {
		server := newTestServer(&fakeStore{series: testSeries()})

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/snapshots/latest", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var snap models.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.True(t, snap.TotalValue.Equal(decimal.RequireFromString("3000.00")))
	})

	t.Run("empty store is 404", func(t *testing.T) {
		server := newTestServer(&fakeStore{})

		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/snapshots/latest", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(&fakeStore{series: testSeries()})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/snapshots", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
