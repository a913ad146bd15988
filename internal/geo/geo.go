// Package geo wraps the two external geography collaborators: Nominatim for
// forward/reverse geocoding and OpenRouteService for routing. Routing
// degrades to a locally computed great-circle estimate when the service is
// unconfigured or unreachable.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/logger"
)

// ErrNotFound is returned when a geocoding query yields no result.
var ErrNotFound = errors.New("no geocoding result")

const (
	defaultNominatimBase = "https://nominatim.openstreetmap.org"
	defaultOrsBase       = "https://api.openrouteservice.org"
	requestTimeout       = 15 * time.Second
	userAgent            = "telebox/1.0"
)

// Place is a forward-geocoding result.
type Place struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Route is a routing result. Estimated marks the haversine fallback path,
// where duration is a rough 50 km/h guess.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Estimated       bool
}

type Client struct {
	httpClient    *http.Client
	nominatimBase string
	orsBase       string
	orsAPIKey     string
}

// NewClient builds a client against the public endpoints. An empty
// orsAPIKey disables routed measurement; every route falls back to the
// estimate.
func NewClient(orsAPIKey string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: requestTimeout},
		nominatimBase: defaultNominatimBase,
		orsBase:       defaultOrsBase,
		orsAPIKey:     orsAPIKey,
	}
}

// NewClientWithBases is used by tests to point at local servers.
func NewClientWithBases(orsAPIKey, nominatimBase, orsBase string) *Client {
	c := NewClient(orsAPIKey)
	c.nominatimBase = nominatimBase
	c.orsBase = orsBase
	return c
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// AddressForCoordinates reverse-geocodes a point into a display address.
func (c *Client) AddressForCoordinates(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))

	var result nominatimResult
	if err := c.getJSON(ctx, c.nominatimBase+"/reverse?"+q.Encode(), &result); err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if result.DisplayName == "" {
		return "", ErrNotFound
	}
	return result.DisplayName, nil
}

// CoordinatesForAddress forward-geocodes free text into the best match.
func (c *Client) CoordinatesForAddress(ctx context.Context, query string) (*Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", "1")

	var results []nominatimResult
	if err := c.getJSON(ctx, c.nominatimBase+"/search?"+q.Encode(), &results); err != nil {
		return nil, fmt.Errorf("forward geocoding failed: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return nil, fmt.Errorf("invalid latitude in geocoding result: %w", err)
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &lon); err != nil {
		return nil, fmt.Errorf("invalid longitude in geocoding result: %w", err)
	}
	return &Place{Latitude: lat, Longitude: lon, DisplayName: results[0].DisplayName}, nil
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Route computes distance and duration between two points for a transport
// mode. OpenRouteService failures are logged and absorbed into the
// haversine fallback; the caller always gets a usable result.
func (c *Client) Route(ctx context.Context, lat1, lon1, lat2, lon2 float64, transport string) (*Route, error) {
	if c.orsAPIKey == "" {
		return estimate(lat1, lon1, lat2, lon2), nil
	}

	routed, err := c.routeORS(ctx, lat1, lon1, lat2, lon2, transport)
	if err != nil {
		logger.Warn("routing service unavailable, falling back to estimate", map[string]interface{}{
			"error": err.Error(),
		})
		return estimate(lat1, lon1, lat2, lon2), nil
	}
	return routed, nil
}

func (c *Client) routeORS(ctx context.Context, lat1, lon1, lat2, lon2 float64, transport string) (*Route, error) {
	q := url.Values{}
	q.Set("api_key", c.orsAPIKey)
	q.Set("start", fmt.Sprintf("%f,%f", lon1, lat1))
	q.Set("end", fmt.Sprintf("%f,%f", lon2, lat2))

	endpoint := fmt.Sprintf("%s/v2/directions/%s?%s", c.orsBase, profileFor(transport), q.Encode())
	var result orsResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if len(result.Features) == 0 {
		return nil, errors.New("routing response has no features")
	}

	summary := result.Features[0].Properties.Summary
	return &Route{
		DistanceMeters:  summary.Distance,
		DurationSeconds: summary.Duration,
	}, nil
}

// profileFor maps transport modes to routing profiles. Motorcycles share
// the car profile; the service has no dedicated one.
func profileFor(transport string) string {
	if transport == consts.TransportFoot {
		return consts.OrsProfileFoot
	}
	return consts.OrsProfileCar
}

func estimate(lat1, lon1, lat2, lon2 float64) *Route {
	dist := Haversine(lat1, lon1, lat2, lon2)
	return &Route{
		DistanceMeters: dist,
		// assume 50 km/h
		DurationSeconds: dist / 50 * 3.6,
		Estimated:       true,
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
