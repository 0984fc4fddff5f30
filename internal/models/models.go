package models

import "time"

// Unit selects the measurement system requested from the weather provider.
// Temperatures come back pre-converted, so changing unit requires a refetch.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == UnitImperial {
		return UnitMetric
	}
	return UnitImperial
}

// TempSuffix returns the display suffix for temperatures in this unit.
func (u Unit) TempSuffix() string {
	if u == UnitImperial {
		return "°F"
	}
	return "°C"
}

// WindSuffix returns the display suffix for wind speed in this unit.
func (u Unit) WindSuffix() string {
	if u == UnitImperial {
		return "mph"
	}
	return "m/s"
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlaceQuery is either a free-text location or explicit coordinates.
type PlaceQuery struct {
	Text   string
	Coords *Coordinates
}

// GeocodeMatch is one candidate from the structured geocoding lookup.
// Results arrive ranked by provider relevance; the first is the best match.
type GeocodeMatch struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

// CurrentConditions is one current-weather reading. It is replaced wholesale
// on refresh, never merged.
type CurrentConditions struct {
	Name             string      `json:"name"`
	Coord            Coordinates `json:"coord"`
	Temp             float64     `json:"temp"`
	FeelsLike        float64     `json:"feels_like"`
	TempMin          float64     `json:"temp_min"`
	TempMax          float64     `json:"temp_max"`
	Humidity         int         `json:"humidity"`
	WindSpeed        float64     `json:"wind_speed"`
	VisibilityMeters int         `json:"visibility_meters"`
	Icon             string      `json:"icon"`
	Description      string      `json:"description"`
	Sunrise          time.Time   `json:"sunrise"`
	Sunset           time.Time   `json:"sunset"`
	ObservedAt       time.Time   `json:"observed_at"`
}

// ForecastSample is one 3-hour forecast point. The fetched sequence is
// time-ascending and never reordered or mutated, only regrouped.
type ForecastSample struct {
	At          time.Time `json:"at"`
	Temp        float64   `json:"temp"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// DailySummary reduces the samples of one calendar date to min/max and the
// condition of the warmest part of the day. Derived on render, never stored.
type DailySummary struct {
	DateLabel   string  `json:"date_label"`
	MinTemp     float64 `json:"min_temp"`
	MaxTemp     float64 `json:"max_temp"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
}

// HourlyEntry is the 1:1 per-sample projection used by the timeline.
type HourlyEntry struct {
	TimeLabel string `json:"time_label"`
	DateLabel string `json:"date_label"`
	Temp      int    `json:"temp"`
	Icon      string `json:"icon"`
}

// AirQualitySnapshot holds one air-pollution reading. AQI uses the provider's
// 1-5 scale.
type AirQualitySnapshot struct {
	AQI  int     `json:"aqi"`
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
}

// Label returns the human-readable AQI band.
func (a AirQualitySnapshot) Label() string {
	switch a.AQI {
	case 1:
		return "Good"
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return "Unknown"
	}
}

// Phase is the dashboard state-machine phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseReady      Phase = "ready"
	PhaseErrorShown Phase = "error"
)

// AppState is the single mutable aggregate owned by the dashboard controller.
// It is replaced as one merge per completed transition; readers only ever see
// fully-formed snapshots.
type AppState struct {
	Phase           Phase               `json:"phase"`
	Conditions      *CurrentConditions  `json:"conditions,omitempty"`
	ForecastSamples []ForecastSample    `json:"forecast_samples,omitempty"`
	AirQuality      *AirQualitySnapshot `json:"air_quality,omitempty"`
	AdvisoryText    string              `json:"advisory_text,omitempty"`
	Unit            Unit                `json:"unit"`
	Theme           string              `json:"theme"`
	Error           string              `json:"error,omitempty"`
	Warning         string              `json:"warning,omitempty"`
	LastUpdated     time.Time           `json:"last_updated"`
}
