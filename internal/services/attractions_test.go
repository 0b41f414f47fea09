package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city-advizor-attractions/internal/models"
)

var ratingPattern = regexp.MustCompile(`^\d\.\d/5$`)

func float(v float64) *float64 {
	return &v
}

// newPlacesServer serves the given status and body and counts requests
func newPlacesServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &hits
}

func newTestService(baseURL string) *AttractionService {
	service := NewAttractionService(NewGeoapifyClient(baseURL, "test-key"), nil)
	service.SetRandomSource(func() float64 { return 0.42 })
	return service
}

func featureCollection(n int) string {
	features := make([]string, 0, n)
	for i := 0; i < n; i++ {
		features = append(features, fmt.Sprintf(`{
			"type": "Feature",
			"properties": {
				"name": "Place %d",
				"address_line2": "%d Main Street, London",
				"formatted": "Place %d, %d Main Street, London",
				"lat": 51.5%d,
				"lon": -0.12%d,
				"categories": ["tourism.sights", "entertainment.culture", "building.historic", "heritage"]
			}
		}`, i, i, i, i, i, i))
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

func TestAttractionService_NoCoordinates(t *testing.T) {
	server, hits := newPlacesServer(t, http.StatusOK, featureCollection(2))
	service := newTestService(server.URL)

	tests := []struct {
		name     string
		lat, lon *float64
	}{
		{"both missing", nil, nil},
		{"lat missing", nil, float(-0.1278)},
		{"lon missing", float(51.5074), nil},
		{"zero lat", float(0), float(-0.1278)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.Lookup(context.Background(), LookupRequest{City: "London", Lat: tt.lat, Lon: tt.lon})
			assert.NotNil(t, result.Attractions)
			assert.Empty(t, result.Attractions)
			assert.Equal(t, models.SourceSkipped, result.Source)
			assert.Zero(t, result.UpstreamStatus)
		})
	}

	assert.Zero(t, atomic.LoadInt32(hits), "no request should reach the places API")
}

func TestAttractionService_MapsFeatures(t *testing.T) {
	for _, n := range []int{1, 3, 6} {
		t.Run(fmt.Sprintf("%d features", n), func(t *testing.T) {
			server, hits := newPlacesServer(t, http.StatusOK, featureCollection(n))
			service := NewAttractionService(NewGeoapifyClient(server.URL, "test-key"), nil)

			records := service.GetTouristAttractions(context.Background(), "London", float(51.5074), float(-0.1278))
			require.Len(t, records, n)
			assert.EqualValues(t, 1, atomic.LoadInt32(hits))

			for i, r := range records {
				assert.Equal(t, fmt.Sprintf("Place %d", i), r.Name)
				assert.Equal(t, fmt.Sprintf("%d Main Street, London", i), r.Address)
				assert.Regexp(t, ratingPattern, r.Rating)
				assert.GreaterOrEqual(t, r.Rating, "4.0/5")
				assert.LessOrEqual(t, r.Rating, "5.0/5")
				assert.Equal(t, "Tourism Sights, Entertainment Culture, Building Historic", r.Description)
				require.NotNil(t, r.Lat)
				require.NotNil(t, r.Lng)
			}
		})
	}
}

func TestAttractionService_Lookup_Source(t *testing.T) {
	server, _ := newPlacesServer(t, http.StatusOK, featureCollection(2))
	service := newTestService(server.URL)

	result := service.Lookup(context.Background(), LookupRequest{City: "London", Lat: float(51.5), Lon: float(-0.12)})
	assert.Equal(t, models.SourceGeoapify, result.Source)
	assert.Equal(t, http.StatusOK, result.UpstreamStatus)
	require.Len(t, result.Attractions, 2)
	assert.Equal(t, "4.4/5", result.Attractions[0].Rating)
}

func TestAttractionService_FieldFallbacks(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[
		{"properties": {"formatted": "Tower Bridge, London SE1 2UP", "lat": 51.5055, "lon": -0.0754}},
		{"properties": {"name": "Nameless Gardens", "categories": []}},
		{"properties": {}}
	]}`
	server, _ := newPlacesServer(t, http.StatusOK, body)
	service := newTestService(server.URL)

	records := service.GetTouristAttractions(context.Background(), "London", float(51.5074), float(-0.1278))
	require.Len(t, records, 3)

	assert.Equal(t, "Tower Bridge, London SE1 2UP", records[0].Name)
	assert.Equal(t, "Tower Bridge, London SE1 2UP", records[0].Address)
	assert.Equal(t, models.DefaultDescription, records[0].Description)
	require.NotNil(t, records[0].Lng)
	assert.InDelta(t, -0.0754, *records[0].Lng, 1e-9)

	assert.Equal(t, "Nameless Gardens", records[1].Name)
	assert.Equal(t, "", records[1].Address)
	assert.Nil(t, records[1].Lat)
	assert.Nil(t, records[1].Lng)

	assert.Equal(t, models.UnknownAttraction, records[2].Name)
	assert.Equal(t, models.DefaultDescription, records[2].Description)
}

func TestAttractionService_FallbackOnErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server, _ := newPlacesServer(t, status, `{"message":"nope"}`)
			service := newTestService(server.URL)

			result := service.Lookup(context.Background(), LookupRequest{City: "Madrid", Lat: float(40.4168), Lon: float(-3.7038)})
			assert.Equal(t, models.SourceFallback, result.Source)
			assert.Equal(t, status, result.UpstreamStatus)
			assertFallback(t, "Madrid", result.Attractions)
		})
	}
}

func TestAttractionService_FallbackOnEmptyFeatures(t *testing.T) {
	server, _ := newPlacesServer(t, http.StatusOK, `{"type":"FeatureCollection","features":[]}`)
	service := newTestService(server.URL)

	result := service.Lookup(context.Background(), LookupRequest{City: "Vienna", Lat: float(48.2082), Lon: float(16.3738)})
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Equal(t, http.StatusOK, result.UpstreamStatus)
	assertFallback(t, "Vienna", result.Attractions)
}

func TestAttractionService_FallbackOnMissingFeatures(t *testing.T) {
	server, _ := newPlacesServer(t, http.StatusOK, `{"type":"FeatureCollection"}`)
	service := newTestService(server.URL)

	records := service.GetTouristAttractions(context.Background(), "Vienna", float(48.2082), float(16.3738))
	assertFallback(t, "Vienna", records)
}

func TestAttractionService_FallbackOnBadJSON(t *testing.T) {
	server, _ := newPlacesServer(t, http.StatusOK, `<html>maintenance</html>`)
	service := newTestService(server.URL)

	records := service.GetTouristAttractions(context.Background(), "Prague", float(50.0755), float(14.4378))
	assertFallback(t, "Prague", records)
}

type failingSearcher struct{}

func (failingSearcher) SearchPlaces(ctx context.Context, query PlacesQuery) (*PlacesResponse, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestAttractionService_FallbackOnTransportError(t *testing.T) {
	service := NewAttractionService(failingSearcher{}, nil)

	result := service.Lookup(context.Background(), LookupRequest{City: "Berlin", Lat: float(52.52), Lon: float(13.405)})
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Zero(t, result.UpstreamStatus)
	assertFallback(t, "Berlin", result.Attractions)
}

func TestAttractionService_FallbackIsDeterministic(t *testing.T) {
	service := NewAttractionService(failingSearcher{}, nil)

	first := service.GetTouristAttractions(context.Background(), "Athens", float(37.98), float(23.72))
	second := service.GetTouristAttractions(context.Background(), "Athens", float(37.98), float(23.72))
	assert.Equal(t, first, second)
}

func assertFallback(t *testing.T, city string, records []models.AttractionRecord) {
	t.Helper()

	require.Len(t, records, 3)
	assert.Equal(t, models.FallbackAttractions(city), records)
	for _, r := range records {
		assert.Contains(t, r.Name, city)
		assert.Contains(t, r.Address, city)
		assert.Regexp(t, ratingPattern, r.Rating)
	}
}
