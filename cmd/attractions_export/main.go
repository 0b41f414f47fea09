package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"city-advizor-attractions/internal/config"
	"city-advizor-attractions/internal/logging"
	"city-advizor-attractions/internal/services"
)

type exportOptions struct {
	City    string
	Lat     float64
	Lon     float64
	Archive bool
}

type attractionLookup interface {
	Lookup(ctx context.Context, req services.LookupRequest) services.LookupResult
}

// exportAttractions runs one lookup and writes the listing as the city's latest snapshot,
// plus a timestamped copy when archive is set
func exportAttractions(ctx context.Context, lookup attractionLookup, store *services.S3Client, opts exportOptions, logger *zap.Logger) ([]*services.S3UploadResult, error) {
	req := services.LookupRequest{City: opts.City, Lat: &opts.Lat, Lon: &opts.Lon}
	result := lookup.Lookup(ctx, req)

	logger.Info("Lookup finished",
		zap.String("city", opts.City),
		zap.String("source", result.Source),
		zap.Int("count", len(result.Attractions)))

	keys := []string{services.AttractionsKey(opts.City)}
	if opts.Archive {
		keys = append(keys, services.TimestampedAttractionsKey(opts.City, time.Now()))
	}

	uploads := make([]*services.S3UploadResult, 0, len(keys))
	for _, key := range keys {
		upload, err := store.UploadAttractions(ctx, opts.City, result.Source, result.Attractions, key)
		if err != nil {
			return uploads, fmt.Errorf("failed to export %s: %w", key, err)
		}
		logger.Info("Snapshot uploaded", zap.String("key", upload.Key), zap.Int64("size", upload.Size))
		uploads = append(uploads, upload)
	}

	return uploads, nil
}

func main() {
	var opts exportOptions
	flag.StringVar(&opts.City, "city", "", "city name (required)")
	flag.Float64Var(&opts.Lat, "lat", 0, "latitude (required)")
	flag.Float64Var(&opts.Lon, "lon", 0, "longitude (required)")
	flag.BoolVar(&opts.Archive, "archive", false, "also write a timestamped copy")
	flag.Parse()

	if opts.City == "" || opts.Lat == 0 || opts.Lon == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if cfg.S3BucketName == "" {
		log.Fatal("S3_BUCKET_NAME environment variable not set")
	}

	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Could not parse log level: %v", err)
	}
	logger := logging.New(false, level)
	defer logger.Sync()

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	store := services.NewS3Client(s3.NewFromConfig(awsCfg), cfg.S3BucketName, awsCfg.Region)
	lookup := services.NewAttractionService(services.NewGeoapifyClientFromConfig(cfg), logger)

	uploads, err := exportAttractions(ctx, lookup, store, opts, logger)
	if err != nil {
		logger.Fatal("Export failed", zap.Error(err))
	}

	for _, upload := range uploads {
		fmt.Println(upload.PublicURL)
	}
}
