package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ryadav/skycast/internal/metrics"
	"github.com/ryadav/skycast/internal/models"
)

// Fallback sentences used when the model is unavailable or returns nothing.
// Advisory failure never surfaces as an error, only as substitute text.
const (
	FallbackAdvice = "Weather looks typical for the season. Stay safe!"
	EmptyAdvice    = "Stay prepared for the changing conditions today!"
)

// Client issues the two LLM-backed calls: short weather advisories and
// best-effort coordinate resolution for place names the gazetteer misses.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient creates an advisory client. Extra request options are applied
// after the defaults, so tests can point the client at a stub server.
func NewClient(apiKey string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("advisory: API key not set")
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &Client{
		client: openai.NewClient(opts...),
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Advice generates a short resident-facing advisory from current weather and
// air quality. It always produces a value: any error degrades to a fixed
// fallback sentence.
func (c *Client) Advice(ctx context.Context, cond *models.CurrentConditions, air *models.AirQualitySnapshot) string {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(advicePrompt(cond, air)),
		},
	})
	if err != nil {
		metrics.AdvisoryCallsTotal.WithLabelValues("advice", "error").Inc()
		log.Printf("advisory: advice call failed: %v", err)
		return FallbackAdvice
	}
	metrics.AdvisoryCallsTotal.WithLabelValues("advice", "ok").Inc()

	if len(resp.Choices) == 0 {
		return EmptyAdvice
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return EmptyAdvice
	}
	return text
}

// Coordinates resolves an unstructured place description to coordinates using
// a JSON-mode completion. Any parse failure or missing field is an error; the
// caller treats it as a miss, not a fatal condition.
func (c *Client) Coordinates(ctx context.Context, query string) (models.Coordinates, string, error) {
	prompt := fmt.Sprintf(
		`Find the precise geographic coordinates (latitude and longitude) and the official name for this location: %q. `+
			`It could be a village, block, district, or any landmark. `+
			`Respond with a JSON object with numeric "lat" and "lon" fields and a string "name" field.`, query)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		metrics.AdvisoryCallsTotal.WithLabelValues("geocode", "error").Inc()
		return models.Coordinates{}, "", fmt.Errorf("ai geocode: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.AdvisoryCallsTotal.WithLabelValues("geocode", "empty").Inc()
		return models.Coordinates{}, "", errors.New("ai geocode: no completion returned")
	}

	var out struct {
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
		Name string   `json:"name"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		metrics.AdvisoryCallsTotal.WithLabelValues("geocode", "parse_error").Inc()
		return models.Coordinates{}, "", fmt.Errorf("ai geocode: parse response: %w", err)
	}
	if out.Lat == nil || out.Lon == nil {
		metrics.AdvisoryCallsTotal.WithLabelValues("geocode", "parse_error").Inc()
		return models.Coordinates{}, "", errors.New("ai geocode: missing lat/lon in response")
	}
	if *out.Lat < -90 || *out.Lat > 90 || *out.Lon < -180 || *out.Lon > 180 {
		metrics.AdvisoryCallsTotal.WithLabelValues("geocode", "parse_error").Inc()
		return models.Coordinates{}, "", fmt.Errorf("ai geocode: coordinates out of range: %f,%f", *out.Lat, *out.Lon)
	}

	metrics.AdvisoryCallsTotal.WithLabelValues("geocode", "ok").Inc()
	return models.Coordinates{Lat: *out.Lat, Lon: *out.Lon}, out.Name, nil
}

func advicePrompt(cond *models.CurrentConditions, air *models.AirQualitySnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Act as a local weather expert. Given the current weather in %s:\n", cond.Name)
	fmt.Fprintf(&b, "- Condition: %s\n", cond.Description)
	fmt.Fprintf(&b, "- Temperature: %.1f°\n", cond.Temp)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", cond.Humidity)
	fmt.Fprintf(&b, "- Wind: %.1f m/s\n", cond.WindSpeed)
	if air != nil {
		fmt.Fprintf(&b, "Air Quality Index is %d (1-5).\n", air.AQI)
	}
	b.WriteString("\nProvide a concise 2-sentence piece of advice for residents. ")
	b.WriteString("Mention what to wear and any health/activity tips. ")
	b.WriteString("Keep it professional but friendly.")
	return b.String()
}
