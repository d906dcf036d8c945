package saih

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><body>
<h1>Resumen de rios</h1>
<table>
  <tr><th>Numero</th><th>Nombre</th><th>Nivel Medio (m)</th><th>Caudal Medio</th></tr>
  <tr><td>22</td><td>Guadalhorce en <b>Cartama</b> (MA)</td><td>0,93</td><td>12,1</td></tr>
  <tr><td>31</td><td>Barbate en Vejer (CA)</td><td>N/D</td><td></td></tr>
  <tr><td>40</td><td>Guadalquivir en Cordoba (CO)</td><td>1.234,5</td><td>88</td></tr>
  <tr><td colspan="4">nota al pie</td></tr>
</table>
<div class="footer">Datos actualizados a: 12-01-2026 13:00:00</div>
</body></html>`

var fetchedAt = time.Date(2026, 1, 12, 13, 5, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(samplePage), fetchedAt)
	require.NoError(t, err)

	assert.Equal(t, "12-01-2026 13:00:00", snap.SourceUpdated)
	assert.Equal(t, fetchedAt, snap.FetchedAt)
	require.Len(t, snap.Readings, 3)

	first := snap.Readings[0]
	assert.Equal(t, "22", first.Station.ID)
	assert.Equal(t, "Guadalhorce en Cartama (MA)", first.Station.Name, "nested markup collapses to spaces")
	assert.Equal(t, "MA", first.Station.Region)
	require.NotNil(t, first.Level)
	assert.InDelta(t, 0.93, *first.Level, 1e-9)

	second := snap.Readings[1]
	assert.Equal(t, "CA", second.Station.Region)
	assert.Nil(t, second.Level, "N/D reads as absent")

	third := snap.Readings[2]
	assert.Equal(t, "CO", third.Station.Region)
	require.NotNil(t, third.Level)
	assert.InDelta(t, 1234.5, *third.Level, 1e-9)
}

func TestParse_NoTable(t *testing.T) {
	_, err := Parse([]byte("<html><body><p>mantenimiento</p></body></html>"), fetchedAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no station table")
}

func TestParse_EmptyTable(t *testing.T) {
	snap, err := Parse([]byte("<html><table><tr><th>Numero</th><th>Nombre</th><th>Nivel</th></tr></table></html>"), fetchedAt)
	require.NoError(t, err)
	assert.Empty(t, snap.Readings)
	assert.Empty(t, snap.SourceUpdated)
}

func TestParse_SkipsRowsWithoutID(t *testing.T) {
	page := `<table>
	  <tr><td></td><td>Sin numero</td><td>1,0</td></tr>
	  <tr><td>22</td><td>Con numero</td><td>1,0</td></tr>
	</table>`
	snap, err := Parse([]byte(page), fetchedAt)
	require.NoError(t, err)
	require.Len(t, snap.Readings, 1)
	assert.Equal(t, "22", snap.Readings[0].Station.ID)
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "river-alert-feed")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Readings, 3)
	assert.Equal(t, "12-01-2026 13:00:00", snap.SourceUpdated)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestClient_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.Fetch(ctx)
	require.Error(t, err)
}
