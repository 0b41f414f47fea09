package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// LookupRecord is one attraction lookup as stored in the history table
type LookupRecord struct {
	// Primary Keys
	PK string `json:"PK" dynamodbav:"PK"` // CITY#{normalized city}
	SK string `json:"SK" dynamodbav:"SK"` // LOOKUP#{RFC3339 time}#{lookup_id}

	LookupID string   `json:"lookup_id" dynamodbav:"lookup_id"`
	City     string   `json:"city" dynamodbav:"city"`
	Lat      *float64 `json:"lat,omitempty" dynamodbav:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty" dynamodbav:"lon,omitempty"`

	// Outcome
	Source         string `json:"source" dynamodbav:"source"` // geoapify|fallback|skipped
	ResultCount    int    `json:"result_count" dynamodbav:"result_count"`
	UpstreamStatus int    `json:"upstream_status,omitempty" dynamodbav:"upstream_status,omitempty"`
	DurationMS     int64  `json:"duration_ms" dynamodbav:"duration_ms"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	TTL       int64     `json:"TTL" dynamodbav:"TTL"` // auto-expire timestamp
}

func (lr *LookupRecord) Validate() error {
	if lr.LookupID == "" {
		return fmt.Errorf("lookup_id is required")
	}
	if strings.TrimSpace(lr.City) == "" {
		return fmt.Errorf("city is required")
	}
	switch lr.Source {
	case SourceGeoapify, SourceFallback, SourceSkipped:
	default:
		return fmt.Errorf("invalid source: %q", lr.Source)
	}
	return nil
}

// NormalizeCity lowercases and trims a city name for use in keys
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// CityKey generates the partition key for a city's lookup history
func CityKey(city string) string {
	return "CITY#" + NormalizeCity(city)
}

// CreateLookupSK generates the sort key; lexical order equals chronological order
func CreateLookupSK(createdAt time.Time, lookupID string) string {
	return "LOOKUP#" + createdAt.UTC().Format(time.RFC3339) + "#" + lookupID
}

// CitySlug turns a city name into a path-safe segment, e.g. "New York" -> "new-york"
func CitySlug(city string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range NormalizeCity(city) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "unknown"
	}
	return slug
}

// CalculateTTL calculates TTL timestamp for auto-expiring data
func CalculateTTL(duration time.Duration) int64 {
	return time.Now().Add(duration).Unix()
}
