package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AttractionRecord is a single entry in the simplified attraction listing
type AttractionRecord struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Rating      string   `json:"rating"` // "X.X/5", always synthetic
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Description string   `json:"description"` // comma-joined category labels
}

// AttractionsOutput is the JSON document written for listing snapshots
type AttractionsOutput struct {
	Metadata    AttractionsMetadata `json:"metadata"`
	Attractions []AttractionRecord  `json:"attractions"`
}

// AttractionsMetadata describes a listing snapshot
type AttractionsMetadata struct {
	City             string    `json:"city"`
	TotalAttractions int       `json:"totalAttractions"`
	Source           string    `json:"source"` // geoapify|fallback|skipped
	GeneratedAt      time.Time `json:"generatedAt"`
	Version          string    `json:"version"`
}

// Lookup source constants
const (
	SourceGeoapify = "geoapify"
	SourceFallback = "fallback"
	SourceSkipped  = "skipped"
)

const (
	DefaultDescription = "Tourist Attraction"
	UnknownAttraction  = "Unknown Attraction"

	// MaxDescriptionCategories caps how many category labels end up in a description
	MaxDescriptionCategories = 3

	minSyntheticRating = 4.0
	maxSyntheticRating = 5.0

	SnapshotVersion = "1.0.0"
)

// NewAttractionsMetadata creates snapshot metadata stamped with the current time
func NewAttractionsMetadata(city, source string, total int) AttractionsMetadata {
	return AttractionsMetadata{
		City:             city,
		TotalAttractions: total,
		Source:           source,
		GeneratedAt:      time.Now().UTC(),
		Version:          SnapshotVersion,
	}
}

// FormatRating renders a rating value as "X.X/5"
func FormatRating(value float64) string {
	return fmt.Sprintf("%.1f/5", math.Round(value*10)/10)
}

// SyntheticRating maps a sample in [0, 1) to a rating in [4.0, 5.0]
func SyntheticRating(sample float64) string {
	return FormatRating(minSyntheticRating + sample*(maxSyntheticRating-minSyntheticRating))
}

// CleanCategory turns an upstream tag like "entertainment.culture" into "Entertainment Culture"
func CleanCategory(category string) string {
	cleaned := strings.ReplaceAll(category, ".", " ")
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	// Casers keep state between calls, so each call gets its own
	return cases.Title(language.Und).String(cleaned)
}

// DescribeCategories builds a description from the first few cleaned categories
func DescribeCategories(categories []string) string {
	if len(categories) == 0 {
		return DefaultDescription
	}

	labels := make([]string, 0, MaxDescriptionCategories)
	for _, category := range categories {
		if len(labels) == MaxDescriptionCategories {
			break
		}
		labels = append(labels, CleanCategory(category))
	}

	return strings.Join(labels, ", ")
}

// FallbackAttractions returns the canned listing used when the places API gives nothing usable.
// The result depends only on city.
func FallbackAttractions(city string) []AttractionRecord {
	zero := func() *float64 {
		v := 0.0
		return &v
	}

	return []AttractionRecord{
		{
			Name:        city + " National Museum",
			Address:     "123 Museum Way, " + city,
			Rating:      "4.8/5",
			Lat:         zero(),
			Lng:         zero(),
			Description: "Museum, Art Gallery, Historical Landmark",
		},
		{
			Name:        "Great Park of " + city,
			Address:     "45 Green Ave, " + city,
			Rating:      "4.6/5",
			Lat:         zero(),
			Lng:         zero(),
			Description: "Park, Tourist Attraction, Nature Reserve",
		},
		{
			Name:        "The " + city + " Tower",
			Address:     "1 Skyline Blvd, " + city,
			Rating:      "4.7/5",
			Lat:         zero(),
			Lng:         zero(),
			Description: "Observation Deck, Landmark, Skyscraper",
		},
	}
}
