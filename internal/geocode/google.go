package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const googleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google is the Google Maps Geocoding API. It needs an API key.
type Google struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogle creates the provider. An empty baseURL selects the public endpoint.
func NewGoogle(baseURL, apiKey string) *Google {
	if baseURL == "" {
		baseURL = googleURL
	}
	return &Google{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

func (g *Google) Name() string { return "google" }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Lookup geocodes the query.
func (g *Google) Lookup(ctx context.Context, query string) (Result, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("google geocoder returned status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("malformed google response: %w", err)
	}
	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Result{}, errNoResult
	default:
		return Result{}, fmt.Errorf("google geocoder status %s", body.Status)
	}
	if len(body.Results) == 0 {
		return Result{}, errNoResult
	}
	first := body.Results[0]
	loc := first.Geometry.Location
	if !validCoordinates(loc.Lat, loc.Lng) {
		return Result{}, fmt.Errorf("google geocoder returned invalid coordinates %f,%f", loc.Lat, loc.Lng)
	}
	return Result{Lat: loc.Lat, Lng: loc.Lng, Formatted: first.FormattedAddress}, nil
}
