package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ratingPattern = regexp.MustCompile(`^\d\.\d/5$`)

func TestCleanCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"entertainment.culture", "Entertainment Culture"},
		{"tourism.sights.place_of_worship", "Tourism Sights Place Of Worship"},
		{"tourism", "Tourism"},
		{"BUILDING.historic", "Building Historic"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCategory(tt.in), "input %q", tt.in)
	}
}

func TestDescribeCategories(t *testing.T) {
	t.Run("no categories", func(t *testing.T) {
		assert.Equal(t, DefaultDescription, DescribeCategories(nil))
		assert.Equal(t, DefaultDescription, DescribeCategories([]string{}))
	})

	t.Run("keeps at most three", func(t *testing.T) {
		got := DescribeCategories([]string{
			"tourism.attraction",
			"entertainment.museum",
			"building.historic",
			"heritage",
		})
		assert.Equal(t, "Tourism Attraction, Entertainment Museum, Building Historic", got)
	})

	t.Run("single", func(t *testing.T) {
		assert.Equal(t, "Tourism Sights", DescribeCategories([]string{"tourism.sights"}))
	})
}

func TestSyntheticRating(t *testing.T) {
	for _, sample := range []float64{0, 0.04, 0.05, 0.5, 0.94, 0.96, 0.999999} {
		rating := SyntheticRating(sample)
		assert.Regexp(t, ratingPattern, rating, "sample %v", sample)
		assert.GreaterOrEqual(t, rating, "4.0/5")
		assert.LessOrEqual(t, rating, "5.0/5")
	}

	assert.Equal(t, "4.0/5", SyntheticRating(0))
	assert.Equal(t, "4.5/5", SyntheticRating(0.5))
	assert.Equal(t, "5.0/5", SyntheticRating(0.999999))
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "4.8/5", FormatRating(4.8))
	assert.Equal(t, "4.3/5", FormatRating(4.26))
	assert.Equal(t, "5.0/5", FormatRating(5))
}

func TestFallbackAttractions(t *testing.T) {
	records := FallbackAttractions("Lisbon")
	require.Len(t, records, 3)

	assert.Equal(t, "Lisbon National Museum", records[0].Name)
	assert.Equal(t, "123 Museum Way, Lisbon", records[0].Address)
	assert.Equal(t, "Great Park of Lisbon", records[1].Name)
	assert.Equal(t, "45 Green Ave, Lisbon", records[1].Address)
	assert.Equal(t, "The Lisbon Tower", records[2].Name)
	assert.Equal(t, "1 Skyline Blvd, Lisbon", records[2].Address)

	for _, r := range records {
		assert.Regexp(t, ratingPattern, r.Rating)
		require.NotNil(t, r.Lat)
		require.NotNil(t, r.Lng)
		assert.Zero(t, *r.Lat)
		assert.Zero(t, *r.Lng)
		assert.NotEmpty(t, r.Description)
	}
}

func TestFallbackAttractions_Deterministic(t *testing.T) {
	assert.Equal(t, FallbackAttractions("Porto"), FallbackAttractions("Porto"))
	assert.NotEqual(t, FallbackAttractions("Porto"), FallbackAttractions("Braga"))
}

func TestNewAttractionsMetadata(t *testing.T) {
	before := time.Now().UTC()
	meta := NewAttractionsMetadata("Rome", SourceGeoapify, 6)

	assert.Equal(t, "Rome", meta.City)
	assert.Equal(t, 6, meta.TotalAttractions)
	assert.Equal(t, SourceGeoapify, meta.Source)
	assert.Equal(t, SnapshotVersion, meta.Version)
	assert.False(t, meta.GeneratedAt.Before(before.Add(-time.Second)))
}
