package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"medinet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nairobi = models.Location{Latitude: -1.2921, Longitude: 36.8219}
	thika   = models.Location{Latitude: -1.0333, Longitude: 37.0693}
)

func TestDistanceRejectsInvalidCoordinates(t *testing.T) {
	t.Parallel()

	svc := NewLocationService("", nil)
	_, err := svc.Distance(context.Background(), models.Location{Latitude: 91}, thika)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = svc.Distance(context.Background(), nairobi, models.Location{Longitude: -181})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestDistanceWithoutKeyEstimates(t *testing.T) {
	t.Parallel()

	res, err := NewLocationService("", nil).Distance(context.Background(), nairobi, thika)
	require.NoError(t, err)
	assert.True(t, res.Estimated)
	assert.InDelta(t, 39.9, res.DistanceKm, 1.0)
	assert.Equal(t, int(res.DistanceKm/40*60+0.5), res.DurationMin)
	assert.Contains(t, res.NavigationURL, "origin=-1.2921,36.8219")
	assert.Contains(t, res.NavigationURL, "destination=-1.0333,37.0693")
	assert.Contains(t, res.NavigationURL, "travelmode=driving")
}

func TestDistanceUsesMatrixAPI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "driving", r.URL.Query().Get("mode"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"text":"45.3 km","value":45300},"duration":{"text":"58 mins","value":3480}}]}]}`))
	}))
	defer srv.Close()

	svc := NewLocationService("secret", nil)
	svc.BaseURL = srv.URL
	res, err := svc.Distance(context.Background(), nairobi, thika)
	require.NoError(t, err)
	assert.False(t, res.Estimated)
	assert.Equal(t, "45.3 km", res.DistanceText)
	assert.Equal(t, 58, res.DurationMin)
	assert.InDelta(t, 45.3, res.DistanceKm, 0.001)
}

func TestDistanceFallsBackOnAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","rows":[]}`))
	}))
	defer srv.Close()

	svc := NewLocationService("bad", nil)
	svc.BaseURL = srv.URL
	res, err := svc.Distance(context.Background(), nairobi, thika)
	require.NoError(t, err)
	assert.True(t, res.Estimated)
}

func TestHaversineZero(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, Haversine(nairobi, nairobi), 1e-9)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	s := Summary("1 Main St", *Estimate(nairobi, thika))
	assert.Contains(t, s, "1 Main St")
	assert.Contains(t, s, "google.com/maps/dir")
}
