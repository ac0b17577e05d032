package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const nominatimURL = "https://nominatim.openstreetmap.org/search"

// Nominatim is the free OpenStreetMap geocoder. Its usage policy allows about one request per
// second and requires an identifying User-Agent.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatim creates the provider. An empty baseURL selects the public endpoint.
func NewNominatim(baseURL, userAgent string) *Nominatim {
	if baseURL == "" {
		baseURL = nominatimURL
	}
	if userAgent == "" {
		userAgent = "contacts-globe/1.0"
	}
	return &Nominatim{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{},
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup geocodes the query.
func (n *Nominatim) Lookup(ctx context.Context, query string) (Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", n.userAgent)
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Result{}, fmt.Errorf("malformed nominatim response: %w", err)
	}
	if len(places) == 0 {
		return Result{}, errNoResult
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("malformed nominatim latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("malformed nominatim longitude: %w", err)
	}
	if !validCoordinates(lat, lng) {
		return Result{}, fmt.Errorf("nominatim returned invalid coordinates %f,%f", lat, lng)
	}
	return Result{Lat: lat, Lng: lng, Formatted: places[0].DisplayName}, nil
}
