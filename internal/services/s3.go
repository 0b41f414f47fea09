package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"city-advizor-attractions/internal/models"
)

// S3API is the subset of the S3 client used for snapshots
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Client writes attraction listing snapshots to S3
type S3Client struct {
	client     S3API
	bucketName string
	region     string
}

// S3UploadResult represents the result of an S3 upload operation
type S3UploadResult struct {
	Key         string    `json:"key"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType string    `json:"content_type"`
	PublicURL   string    `json:"public_url"`
}

// NewS3Client creates a snapshot client for a bucket
func NewS3Client(client S3API, bucketName, region string) *S3Client {
	return &S3Client{
		client:     client,
		bucketName: bucketName,
		region:     region,
	}
}

// AttractionsKey is the "latest" snapshot key for a city
func AttractionsKey(city string) string {
	return fmt.Sprintf("attractions/%s/latest.json", models.CitySlug(city))
}

// TimestampedAttractionsKey is an archival snapshot key for a city
func TimestampedAttractionsKey(city string, at time.Time) string {
	return fmt.Sprintf("attractions/%s/%s.json", models.CitySlug(city), at.UTC().Format("2006-01-02T15-04-05Z"))
}

// UploadAttractions uploads a listing snapshot as JSON
func (s *S3Client) UploadAttractions(ctx context.Context, city, source string, attractions []models.AttractionRecord, key string) (*S3UploadResult, error) {
	output := models.AttractionsOutput{
		Metadata:    models.NewAttractionsMetadata(city, source, len(attractions)),
		Attractions: attractions,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attractions to JSON: %w", err)
	}

	return s.uploadJSON(ctx, jsonData, key)
}

// UploadLatestAttractions uploads a listing as the city's latest snapshot
func (s *S3Client) UploadLatestAttractions(ctx context.Context, city, source string, attractions []models.AttractionRecord) (*S3UploadResult, error) {
	return s.UploadAttractions(ctx, city, source, attractions, AttractionsKey(city))
}

// DownloadAttractions downloads and parses a listing snapshot
func (s *S3Client) DownloadAttractions(ctx context.Context, key string) (*models.AttractionsOutput, error) {
	key = strings.TrimPrefix(key, "/")

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	var output models.AttractionsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attractions JSON: %w", err)
	}

	return &output, nil
}

func (s *S3Client) uploadJSON(ctx context.Context, data []byte, key string) (*S3UploadResult, error) {
	key = strings.TrimPrefix(key, "/")
	const contentType = "application/json"

	result, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=300"),
		Metadata: map[string]string{
			"uploaded-by": "city-advizor-attractions",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &S3UploadResult{
		Key:         key,
		ETag:        strings.Trim(aws.ToString(result.ETag), `"`),
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
		ContentType: contentType,
		PublicURL:   s.GetPublicURL(key),
	}, nil
}

// GetBucketName returns the configured bucket name
func (s *S3Client) GetBucketName() string {
	return s.bucketName
}

// GetPublicURL generates the public URL for an S3 object
func (s *S3Client) GetPublicURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}
