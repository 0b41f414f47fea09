package main

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"city-advizor-attractions/internal/config"
	"city-advizor-attractions/internal/logging"
	"city-advizor-attractions/internal/models"
	"city-advizor-attractions/internal/services"
)

// ResponseBody represents the response body structure
type ResponseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type attractionLookup interface {
	Lookup(ctx context.Context, req services.LookupRequest) services.LookupResult
}

type lookupHistory interface {
	RecordLookup(ctx context.Context, record *models.LookupRecord) error
	QueryLookupsByCity(ctx context.Context, city string, limit int32) ([]models.LookupRecord, error)
}

type apiHandler struct {
	attractions attractionLookup
	history     lookupHistory // nil when history is disabled
	logger      *zap.Logger
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
	"Access-Control-Allow-Methods": "GET,OPTIONS",
	"Content-Type":                 "application/json",
}

func (h *apiHandler) handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return respond(http.StatusOK, ""), nil
	}

	path := strings.TrimSuffix(request.Path, "/")
	method := request.HTTPMethod

	h.logger.Debug("API request", zap.String("method", method), zap.String("path", path))

	var responseBody ResponseBody
	var statusCode int

	switch {
	case method == http.MethodGet && path == "/api/attractions":
		responseBody, statusCode = h.handleGetAttractions(ctx, request.QueryStringParameters)

	case method == http.MethodGet && path == "/api/attractions/history":
		responseBody, statusCode = h.handleGetHistory(ctx, request.QueryStringParameters)

	default:
		responseBody = ResponseBody{
			Success: false,
			Error:   "Not found",
		}
		statusCode = http.StatusNotFound
	}

	bodyJSON, err := json.Marshal(responseBody)
	if err != nil {
		h.logger.Error("Error marshaling response body", zap.Error(err))
		return respond(http.StatusInternalServerError, `{"success":false,"error":"Internal server error"}`), nil
	}

	return respond(statusCode, string(bodyJSON)), nil
}

// handleGetAttractions handles GET /api/attractions?city=&lat=&lon=
func (h *apiHandler) handleGetAttractions(ctx context.Context, queryParams map[string]string) (ResponseBody, int) {
	city := strings.TrimSpace(queryParams["city"])
	if city == "" {
		return ResponseBody{Success: false, Error: "city is required"}, http.StatusBadRequest
	}

	lat, err := parseCoordinate(queryParams["lat"], 90)
	if err != nil {
		return ResponseBody{Success: false, Error: "Invalid latitude"}, http.StatusBadRequest
	}
	lon, err := parseCoordinate(queryParams["lon"], 180)
	if err != nil {
		return ResponseBody{Success: false, Error: "Invalid longitude"}, http.StatusBadRequest
	}

	req := services.LookupRequest{City: city, Lat: lat, Lon: lon}
	result := h.attractions.Lookup(ctx, req)

	h.logger.Info("Attraction lookup finished",
		zap.String("city", city),
		zap.String("source", result.Source),
		zap.Int("count", len(result.Attractions)),
		zap.Int("upstream_status", result.UpstreamStatus),
		zap.Duration("duration", result.Duration))

	if h.history != nil {
		if err := h.history.RecordLookup(ctx, services.NewLookupRecord(req, result)); err != nil {
			h.logger.Warn("Failed to record lookup history", zap.String("city", city), zap.Error(err))
		}
	}

	return ResponseBody{
		Success: true,
		Message: "Attractions retrieved successfully",
		Data:    result.Attractions,
	}, http.StatusOK
}

// handleGetHistory handles GET /api/attractions/history?city=&limit=
func (h *apiHandler) handleGetHistory(ctx context.Context, queryParams map[string]string) (ResponseBody, int) {
	if h.history == nil {
		return ResponseBody{Success: false, Error: "Lookup history is not enabled"}, http.StatusServiceUnavailable
	}

	city := strings.TrimSpace(queryParams["city"])
	if city == "" {
		return ResponseBody{Success: false, Error: "city is required"}, http.StatusBadRequest
	}

	records, err := h.history.QueryLookupsByCity(ctx, city, parseLimit(queryParams["limit"]))
	if err != nil {
		h.logger.Error("Error querying lookup history", zap.String("city", city), zap.Error(err))
		return ResponseBody{Success: false, Error: "Failed to retrieve lookup history"}, http.StatusInternalServerError
	}

	return ResponseBody{
		Success: true,
		Message: "Lookup history retrieved successfully",
		Data:    records,
	}, http.StatusOK
}

// parseCoordinate returns nil for a missing value and an error for an unparseable or out of range one
func parseCoordinate(raw string, bound float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.Abs(v) > bound {
		return nil, strconv.ErrRange
	}

	return &v, nil
}

// parseLimit returns 0 (service default) for missing or invalid values
func parseLimit(limitStr string) int32 {
	limit, err := strconv.ParseInt(strings.TrimSpace(limitStr), 10, 32)
	if err != nil || limit <= 0 {
		return 0
	}
	if limit > services.MaxHistoryLimit {
		return services.MaxHistoryLimit
	}
	return int32(limit)
}

func respond(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    corsHeaders,
		Body:       body,
	}
}

func newAPIHandler(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*apiHandler, error) {
	if cfg.GeoapifyAPIKey == "" {
		logger.Warn("GEOAPIFY_API_KEY is not set, lookups will fall back to placeholder data")
	}

	h := &apiHandler{
		attractions: services.NewAttractionService(services.NewGeoapifyClientFromConfig(cfg), logger),
		logger:      logger,
	}

	if cfg.HistoryEnabled() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		h.history = services.NewLookupHistoryService(dynamodb.NewFromConfig(awsCfg), cfg.HistoryTable, cfg.HistoryTTL)
		logger.Info("Lookup history enabled", zap.String("table", cfg.HistoryTable))
	}

	return h, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Could not parse log level: %v", err)
	}

	logger := logging.New(cfg.JSONLog, level).With(zap.String("component", "attractions-api"))
	defer logger.Sync()

	h, err := newAPIHandler(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Could not initialize API handler", zap.Error(err))
	}

	lambda.Start(h.handleRequest)
}
