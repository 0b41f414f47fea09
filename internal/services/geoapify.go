package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"city-advizor-attractions/internal/config"
)

const (
	// DefaultSearchRadiusMeters is the circle filter radius around the requested point
	DefaultSearchRadiusMeters = 5000
	// DefaultPlacesLimit caps how many features the places API returns
	DefaultPlacesLimit = 6

	geoapifyRequestTimeout = 15 * time.Second
)

// DefaultAttractionCategories are the Geoapify categories queried for attractions
var DefaultAttractionCategories = []string{"tourism", "entertainment.culture"}

// GeoapifyClient performs searches against the Geoapify Places API
type GeoapifyClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// PlacesQuery holds the parameters of a single places search
type PlacesQuery struct {
	Categories   []string
	Lat          float64
	Lon          float64
	RadiusMeters int
	Limit        int
}

// RawPlacesResponse is the unparsed outcome of a places request
type RawPlacesResponse struct {
	StatusCode int
	URL        string
	Body       []byte
}

// PlacesResponse is the GeoJSON FeatureCollection returned by the places API
type PlacesResponse struct {
	Type     string         `json:"type"`
	Features []PlaceFeature `json:"features"`
}

// PlaceFeature is a single point of interest
type PlaceFeature struct {
	Type       string          `json:"type"`
	Properties PlaceProperties `json:"properties"`
}

// PlaceProperties carries the fields we read from a feature. Nullable values are pointers.
type PlaceProperties struct {
	Name         string   `json:"name,omitempty"`
	Formatted    string   `json:"formatted,omitempty"`
	AddressLine1 string   `json:"address_line1,omitempty"`
	AddressLine2 string   `json:"address_line2,omitempty"`
	City         string   `json:"city,omitempty"`
	Country      string   `json:"country,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	PlaceID      string   `json:"place_id,omitempty"`
}

// APIError is returned when the places API answers with a non-200 status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("geoapify returned status %d: %s", e.StatusCode, e.Body)
}

// NewAttractionsQuery builds the standard attraction search around a point
func NewAttractionsQuery(lat, lon float64) PlacesQuery {
	return PlacesQuery{
		Categories:   DefaultAttractionCategories,
		Lat:          lat,
		Lon:          lon,
		RadiusMeters: DefaultSearchRadiusMeters,
		Limit:        DefaultPlacesLimit,
	}
}

// NewGeoapifyClient creates a client for the given endpoint and API key
func NewGeoapifyClient(baseURL, apiKey string) *GeoapifyClient {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		IdleConnTimeout: 90 * time.Second,
	}

	if baseURL == "" {
		baseURL = config.DefaultGeoapifyBaseURL
	}

	return &GeoapifyClient{
		httpClient: &http.Client{
			Timeout:   geoapifyRequestTimeout,
			Transport: transport,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// NewGeoapifyClientFromConfig creates a client from loaded configuration
func NewGeoapifyClientFromConfig(cfg *config.Config) *GeoapifyClient {
	return NewGeoapifyClient(cfg.GeoapifyBaseURL, cfg.GeoapifyAPIKey)
}

// SearchPlaces runs a places search and decodes a successful response
func (g *GeoapifyClient) SearchPlaces(ctx context.Context, query PlacesQuery) (*PlacesResponse, error) {
	raw, err := g.SearchPlacesRaw(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: raw.StatusCode, Body: string(raw.Body)}
	}

	var places PlacesResponse
	if err := json.Unmarshal(raw.Body, &places); err != nil {
		return nil, fmt.Errorf("failed to decode geoapify response: %w", err)
	}

	return &places, nil
}

// SearchPlacesRaw runs a places search and returns the response as received, whatever its status
func (g *GeoapifyClient) SearchPlacesRaw(ctx context.Context, query PlacesQuery) (*RawPlacesResponse, error) {
	requestURL, err := g.BuildURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoapify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geoapify response: %w", err)
	}

	return &RawPlacesResponse{
		StatusCode: resp.StatusCode,
		URL:        requestURL,
		Body:       body,
	}, nil
}

// BuildURL renders the request URL for a query, including the API key
func (g *GeoapifyClient) BuildURL(query PlacesQuery) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid geoapify base URL: %w", err)
	}

	radius := query.RadiusMeters
	if radius <= 0 {
		radius = DefaultSearchRadiusMeters
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPlacesLimit
	}
	categories := query.Categories
	if len(categories) == 0 {
		categories = DefaultAttractionCategories
	}

	params := u.Query()
	params.Set("categories", strings.Join(categories, ","))
	params.Set("filter", CircleFilter(query.Lon, query.Lat, radius))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("apiKey", g.apiKey)
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// CircleFilter renders a Geoapify circle filter; note longitude comes first
func CircleFilter(lon, lat float64, radiusMeters int) string {
	return fmt.Sprintf("circle:%s,%s,%d",
		strconv.FormatFloat(lon, 'f', -1, 64),
		strconv.FormatFloat(lat, 'f', -1, 64),
		radiusMeters)
}

// GetBaseURL returns the configured endpoint
func (g *GeoapifyClient) GetBaseURL() string {
	return g.baseURL
}
