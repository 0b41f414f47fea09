package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdaclient "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/tidwall/gjson"

	"city-advizor-attractions/internal/config"
	"city-advizor-attractions/internal/services"
)

// debugOptions are the command line settings; defaults point at central London
type debugOptions struct {
	City       string
	Lat        float64
	Lon        float64
	Categories string
	Radius     int
	Limit      int
	Function   string
	Samples    int
}

type lambdaInvoker interface {
	Invoke(ctx context.Context, params *lambdaclient.InvokeInput, optFns ...func(*lambdaclient.Options)) (*lambdaclient.InvokeOutput, error)
}

func parseFlags(args []string) (debugOptions, error) {
	var opts debugOptions

	fs := flag.NewFlagSet("places_debug", flag.ContinueOnError)
	fs.StringVar(&opts.City, "city", "London", "city name used for remote lookups")
	fs.Float64Var(&opts.Lat, "lat", 51.5074, "latitude")
	fs.Float64Var(&opts.Lon, "lon", -0.1278, "longitude")
	fs.StringVar(&opts.Categories, "categories", "tourism", "comma separated Geoapify categories")
	fs.IntVar(&opts.Radius, "radius", services.DefaultSearchRadiusMeters, "search radius in meters")
	fs.IntVar(&opts.Limit, "limit", 5, "maximum number of places")
	fs.IntVar(&opts.Samples, "samples", 2, "number of places to print")
	fs.StringVar(&opts.Function, "function", "", "invoke this deployed API Lambda instead of calling Geoapify directly")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// runDirect queries the places API and prints what came back
func runDirect(ctx context.Context, w io.Writer, cfg *config.Config, opts debugOptions) error {
	fmt.Fprintf(w, "Using API Key: %s\n", cfg.MaskedAPIKey())

	client := services.NewGeoapifyClientFromConfig(cfg)
	raw, err := client.SearchPlacesRaw(ctx, services.PlacesQuery{
		Categories:   splitCategories(opts.Categories),
		Lat:          opts.Lat,
		Lon:          opts.Lon,
		RadiusMeters: opts.Radius,
		Limit:        opts.Limit,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Status: %d\n", raw.StatusCode)
	fmt.Fprintf(w, "URL: %s\n", redactAPIKey(raw.URL))

	if raw.StatusCode != http.StatusOK {
		fmt.Fprintf(w, "Error Body: %s\n", string(raw.Body))
		return nil
	}

	features := gjson.GetBytes(raw.Body, "features")
	fmt.Fprintf(w, "Feature Count: %d\n", len(features.Array()))

	for i, feature := range features.Array() {
		if i >= opts.Samples {
			break
		}
		props := feature.Get("properties")
		fmt.Fprintf(w, "Item %d: %s - %s\n", i+1, props.Get("name").String(), props.Get("formatted").String())
	}

	return nil
}

// runRemote invokes the deployed API function with a synthetic API Gateway request
func runRemote(ctx context.Context, w io.Writer, invoker lambdaInvoker, opts debugOptions) error {
	request := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/attractions",
		QueryStringParameters: map[string]string{
			"city": opts.City,
			"lat":  strconv.FormatFloat(opts.Lat, 'f', -1, 64),
			"lon":  strconv.FormatFloat(opts.Lon, 'f', -1, 64),
		},
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := invoker.Invoke(ctx, &lambdaclient.InvokeInput{
		FunctionName:   aws.String(opts.Function),
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", opts.Function, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("function %s failed: %s: %s", opts.Function, aws.ToString(out.FunctionError), string(out.Payload))
	}

	var response events.APIGatewayProxyResponse
	if err := json.Unmarshal(out.Payload, &response); err != nil {
		return fmt.Errorf("failed to decode function response: %w", err)
	}

	fmt.Fprintf(w, "Status: %d\n", response.StatusCode)

	data := gjson.Get(response.Body, "data")
	fmt.Fprintf(w, "Attraction Count: %d\n", len(data.Array()))
	for i, item := range data.Array() {
		if i >= opts.Samples {
			break
		}
		fmt.Fprintf(w, "Item %d: %s - %s (%s)\n", i+1, item.Get("name").String(), item.Get("address").String(), item.Get("rating").String())
	}

	return nil
}

func splitCategories(raw string) []string {
	var categories []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return categories
}

// redactAPIKey hides the apiKey query value so URLs can be printed
func redactAPIKey(rawURL string) string {
	idx := strings.Index(rawURL, "apiKey=")
	if idx < 0 {
		return rawURL
	}
	start := idx + len("apiKey=")
	end := strings.IndexByte(rawURL[start:], '&')
	if end < 0 {
		return rawURL[:start] + "REDACTED"
	}
	return rawURL[:start] + "REDACTED" + rawURL[start+end:]
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx := context.Background()

	if opts.Function != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		if err := runRemote(ctx, os.Stdout, lambdaclient.NewFromConfig(awsCfg), opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	if err := runDirect(ctx, os.Stdout, cfg, opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
