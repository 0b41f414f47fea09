package services

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"city-advizor-attractions/internal/models"
)

// PlacesSearcher is the part of the places client the lookup needs
type PlacesSearcher interface {
	SearchPlaces(ctx context.Context, query PlacesQuery) (*PlacesResponse, error)
}

// AttractionService turns places API results into attraction listings
type AttractionService struct {
	places PlacesSearcher
	logger *zap.Logger
	// randFloat returns a sample in [0, 1) used for synthetic ratings
	randFloat func() float64
}

// LookupRequest is a single attraction lookup. Lat and Lon are optional.
type LookupRequest struct {
	City string
	Lat  *float64
	Lon  *float64
}

// LookupResult is the listing plus how it was produced
type LookupResult struct {
	Attractions    []models.AttractionRecord
	Source         string // models.Source*
	UpstreamStatus int    // 0 when no response was received
	Duration       time.Duration
}

// NewAttractionService creates a lookup service on top of a places searcher
func NewAttractionService(places PlacesSearcher, logger *zap.Logger) *AttractionService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AttractionService{
		places:    places,
		logger:    logger,
		randFloat: rand.Float64,
	}
}

// SetRandomSource replaces the sampler used for synthetic ratings
func (s *AttractionService) SetRandomSource(randFloat func() float64) {
	if randFloat != nil {
		s.randFloat = randFloat
	}
}

// GetTouristAttractions returns attractions near the given coordinates.
// Without coordinates it returns an empty list; on any upstream problem it returns the canned fallback.
func (s *AttractionService) GetTouristAttractions(ctx context.Context, city string, lat, lon *float64) []models.AttractionRecord {
	return s.Lookup(ctx, LookupRequest{City: city, Lat: lat, Lon: lon}).Attractions
}

// Lookup performs the attraction lookup and reports where the result came from
func (s *AttractionService) Lookup(ctx context.Context, req LookupRequest) LookupResult {
	start := time.Now()

	if !hasCoordinate(req.Lat) || !hasCoordinate(req.Lon) {
		s.logger.Debug("No coordinates provided, skipping places lookup", zap.String("city", req.City))
		return LookupResult{
			Attractions: []models.AttractionRecord{},
			Source:      models.SourceSkipped,
			Duration:    time.Since(start),
		}
	}

	lat, lon := *req.Lat, *req.Lon
	log := s.logger.With(
		zap.String("city", req.City),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
	)
	log.Debug("Looking up attractions")

	result := LookupResult{Source: models.SourceFallback}

	places, err := s.places.SearchPlaces(ctx, NewAttractionsQuery(lat, lon))
	switch {
	case err != nil:
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			result.UpstreamStatus = apiErr.StatusCode
			log.Warn("Places API returned an error status",
				zap.Int("status", apiErr.StatusCode),
				zap.String("body", apiErr.Body))
		} else {
			log.Error("Places API call failed", zap.Error(err))
		}

	case places == nil || len(places.Features) == 0:
		result.UpstreamStatus = http.StatusOK
		log.Info("Places API returned no features")

	default:
		result.UpstreamStatus = http.StatusOK
		result.Source = models.SourceGeoapify
		result.Attractions = s.mapFeatures(places.Features)
		log.Debug("Places API returned features", zap.Int("count", len(places.Features)))
	}

	if result.Source == models.SourceFallback {
		result.Attractions = models.FallbackAttractions(req.City)
	}

	result.Duration = time.Since(start)
	return result
}

func (s *AttractionService) mapFeatures(features []PlaceFeature) []models.AttractionRecord {
	records := make([]models.AttractionRecord, 0, len(features))
	for _, feature := range features {
		records = append(records, s.toAttraction(feature.Properties))
	}
	return records
}

func (s *AttractionService) toAttraction(props PlaceProperties) models.AttractionRecord {
	name := firstNonEmpty(props.Name, props.Formatted, models.UnknownAttraction)
	address := firstNonEmpty(props.AddressLine2, props.Formatted)

	return models.AttractionRecord{
		Name:        name,
		Address:     address,
		Rating:      models.SyntheticRating(s.randFloat()),
		Lat:         props.Lat,
		Lng:         props.Lon,
		Description: models.DescribeCategories(props.Categories),
	}
}

// hasCoordinate treats a zero coordinate the same as a missing one
func hasCoordinate(v *float64) bool {
	return v != nil && *v != 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
