package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telebox/telebox/internal/consts"
)

func TestAddressForCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"lat":"-6.2","lon":"106.8","display_name":"Jalan Sudirman, Jakarta"}`))
	}))
	defer srv.Close()

	c := NewClientWithBases("", srv.URL, srv.URL)
	addr, err := c.AddressForCoordinates(context.Background(), -6.2, 106.8)
	require.NoError(t, err)
	assert.Equal(t, "Jalan Sudirman, Jakarta", addr)
}

func TestCoordinatesForAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "monas", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"lat":"-6.1754","lon":"106.8272","display_name":"Monumen Nasional"}]`))
	}))
	defer srv.Close()

	c := NewClientWithBases("", srv.URL, srv.URL)
	place, err := c.CoordinatesForAddress(context.Background(), "monas")
	require.NoError(t, err)
	assert.InDelta(t, -6.1754, place.Latitude, 1e-6)
	assert.InDelta(t, 106.8272, place.Longitude, 1e-6)
	assert.Equal(t, "Monumen Nasional", place.DisplayName)
}

func TestCoordinatesForAddressNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClientWithBases("", srv.URL, srv.URL)
	_, err := c.CoordinatesForAddress(context.Background(), "xyzzy")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRouteViaService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/"+consts.OrsProfileCar, r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"features":[{"properties":{"summary":{"distance":12345,"duration":900}}}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBases("test-key", srv.URL, srv.URL)
	route, err := c.Route(context.Background(), -6.2, 106.8, -6.9, 107.6, consts.TransportCar)
	require.NoError(t, err)
	assert.Equal(t, 12345.0, route.DistanceMeters)
	assert.Equal(t, 900.0, route.DurationSeconds)
	assert.False(t, route.Estimated)
}

func TestRouteFallsBackWithoutKey(t *testing.T) {
	c := NewClientWithBases("", "http://unused", "http://unused")
	route, err := c.Route(context.Background(), -6.2, 106.8, -6.9, 107.6, consts.TransportFoot)
	require.NoError(t, err)
	assert.True(t, route.Estimated)
	assert.Greater(t, route.DistanceMeters, 0.0)
	assert.Greater(t, route.DurationSeconds, 0.0)
}

func TestRouteFallsBackOnServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClientWithBases("test-key", srv.URL, srv.URL)
	route, err := c.Route(context.Background(), -6.2, 106.8, -6.9, 107.6, consts.TransportCar)
	require.NoError(t, err)
	assert.True(t, route.Estimated)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Jakarta to Bandung, roughly 118 km
	d := Haversine(-6.2088, 106.8456, -6.9175, 107.6191)
	assert.InDelta(t, 118000, d, 5000)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850 m", FormatDistance(850))
	assert.Equal(t, "1.5 km", FormatDistance(1500))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "kurang dari 1 menit", FormatDuration(20))
	assert.Equal(t, "12 menit", FormatDuration(720))
	assert.Equal(t, "2 jam", FormatDuration(7200))
	assert.Equal(t, "1 jam 5 menit", FormatDuration(3900))
}
