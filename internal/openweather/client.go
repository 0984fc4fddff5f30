package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ryadav/skycast/internal/httputil"
	"github.com/ryadav/skycast/internal/metrics"
	"github.com/ryadav/skycast/internal/models"
)

const (
	// DefaultBaseURL serves current weather, forecast and air pollution.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	// DefaultGeoURL serves the structured geocoding lookup.
	DefaultGeoURL = "https://api.openweathermap.org/geo/1.0"
)

// ErrNotFound means the provider had no match for the given input.
var ErrNotFound = errors.New("openweather: not found")

// Client issues the remote lookups against OpenWeatherMap and parses the
// responses into domain records. No caching, no retries; repeated calls
// re-issue the network request.
type Client struct {
	apiKey     string
	baseURL    string
	geoURL     string
	httpClient *http.Client
}

// NewClient creates a client for the production OpenWeatherMap endpoints.
func NewClient(apiKey string) *Client {
	return NewClientWithURLs(apiKey, DefaultBaseURL, DefaultGeoURL)
}

// NewClientWithURLs creates a client against explicit endpoint roots.
func NewClientWithURLs(apiKey, baseURL, geoURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		geoURL:     geoURL,
		httpClient: httputil.NewClient(),
	}
}

// Geocode looks up a free-text place name, returning up to limit candidates
// ranked by provider relevance. An empty result is not an error.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]models.GeocodeMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var matches []models.GeocodeMatch
	if err := c.get(ctx, "geo/direct", c.geoURL+"/direct", params, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// CurrentByName fetches current conditions by free-text city name, relying on
// the provider's own fuzzy matching. A miss surfaces as ErrNotFound.
func (c *Client) CurrentByName(ctx context.Context, name string, unit models.Unit) (*models.CurrentConditions, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("units", string(unit))

	var resp weatherResponse
	if err := c.get(ctx, "weather/by-name", c.baseURL+"/weather", params, &resp); err != nil {
		return nil, err
	}
	return conditionsFromResponse(resp), nil
}

// CurrentByCoords fetches current conditions for explicit coordinates.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64, unit models.Unit) (*models.CurrentConditions, error) {
	params := coordParams(lat, lon)
	params.Set("units", string(unit))

	var resp weatherResponse
	if err := c.get(ctx, "weather/by-coords", c.baseURL+"/weather", params, &resp); err != nil {
		return nil, err
	}
	return conditionsFromResponse(resp), nil
}

// Forecast fetches the 5-day/3-hour forecast, time-ascending.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, unit models.Unit) ([]models.ForecastSample, error) {
	params := coordParams(lat, lon)
	params.Set("units", string(unit))

	var resp forecastResponse
	if err := c.get(ctx, "forecast", c.baseURL+"/forecast", params, &resp); err != nil {
		return nil, err
	}

	samples := make([]models.ForecastSample, 0, len(resp.List))
	for _, item := range resp.List {
		sample := models.ForecastSample{
			At:   time.Unix(item.Dt, 0),
			Temp: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			sample.Icon = item.Weather[0].Icon
			sample.Description = item.Weather[0].Description
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// AirQuality fetches the current air-pollution reading for coordinates.
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (*models.AirQualitySnapshot, error) {
	var resp airQualityResponse
	if err := c.get(ctx, "air_pollution", c.baseURL+"/air_pollution", coordParams(lat, lon), &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, fmt.Errorf("air quality: %w", ErrNotFound)
	}

	entry := resp.List[0]
	return &models.AirQualitySnapshot{
		AQI:  entry.Main.AQI,
		CO:   entry.Components.CO,
		NO2:  entry.Components.NO2,
		O3:   entry.Components.O3,
		SO2:  entry.Components.SO2,
		PM25: entry.Components.PM25,
		PM10: entry.Components.PM10,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint, rawURL string, params url.Values, out any) error {
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "SkyCast/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.WeatherAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return params
}

func conditionsFromResponse(resp weatherResponse) *models.CurrentConditions {
	cond := &models.CurrentConditions{
		Name:             resp.Name,
		Coord:            models.Coordinates{Lat: resp.Coord.Lat, Lon: resp.Coord.Lon},
		Temp:             resp.Main.Temp,
		FeelsLike:        resp.Main.FeelsLike,
		TempMin:          resp.Main.TempMin,
		TempMax:          resp.Main.TempMax,
		Humidity:         resp.Main.Humidity,
		WindSpeed:        resp.Wind.Speed,
		VisibilityMeters: resp.Visibility,
		Sunrise:          time.Unix(resp.Sys.Sunrise, 0),
		Sunset:           time.Unix(resp.Sys.Sunset, 0),
		ObservedAt:       time.Unix(resp.Dt, 0),
	}
	if len(resp.Weather) > 0 {
		cond.Icon = resp.Weather[0].Icon
		cond.Description = resp.Weather[0].Description
	}
	return cond
}
