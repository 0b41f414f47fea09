package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"city-advizor-attractions/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// DynamoDBAPI is the subset of the DynamoDB client used for lookup history
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// LookupHistoryService stores and reads attraction lookups in DynamoDB
type LookupHistoryService struct {
	client    DynamoDBAPI
	tableName string
	ttl       time.Duration
}

// NewLookupHistoryService creates a history service for the given table
func NewLookupHistoryService(client DynamoDBAPI, tableName string, ttl time.Duration) *LookupHistoryService {
	return &LookupHistoryService{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
	}
}

// NewLookupRecord builds a history record for a finished lookup
func NewLookupRecord(req LookupRequest, result LookupResult) *models.LookupRecord {
	return &models.LookupRecord{
		LookupID:       uuid.NewString(),
		City:           req.City,
		Lat:            req.Lat,
		Lon:            req.Lon,
		Source:         result.Source,
		ResultCount:    len(result.Attractions),
		UpstreamStatus: result.UpstreamStatus,
		DurationMS:     result.Duration.Milliseconds(),
	}
}

// RecordLookup stores a lookup record, filling in keys, timestamp and TTL
func (s *LookupHistoryService) RecordLookup(ctx context.Context, record *models.LookupRecord) error {
	if record.LookupID == "" {
		record.LookupID = uuid.NewString()
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid lookup record: %w", err)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.PK = models.CityKey(record.City)
	record.SK = models.CreateLookupSK(record.CreatedAt, record.LookupID)
	record.TTL = models.CalculateTTL(s.ttl)

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}

	return nil
}

// QueryLookupsByCity returns the most recent lookups for a city, newest first
func (s *LookupHistoryService) QueryLookupsByCity(ctx context.Context, city string, limit int32) ([]models.LookupRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: models.CityKey(city)},
			":prefix": &types.AttributeValueMemberS{Value: "LOOKUP#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups by city: %w", err)
	}

	var records []models.LookupRecord
	err = attributevalue.UnmarshalListOfMaps(result.Items, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup records: %w", err)
	}
	if records == nil {
		records = []models.LookupRecord{}
	}

	return records, nil
}

// GetTableName returns the configured table name
func (s *LookupHistoryService) GetTableName() string {
	return s.tableName
}
