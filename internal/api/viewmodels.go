package api

import (
	"fmt"
	"html/template"

	"github.com/ryadav/skycast/internal/forecast"
	"github.com/ryadav/skycast/internal/models"
)

// Page is the view model behind the dashboard page, partials and JSON state.
// Daily summaries and the hourly timeline are recomputed from the sample
// sequence on every render, never stored.
type Page struct {
	State      models.AppState       `json:"state"`
	Daily      []models.DailySummary `json:"daily,omitempty"`
	Hourly     []models.HourlyEntry  `json:"hourly,omitempty"`
	TempUnit   string                `json:"temp_unit"`
	WindUnit   string                `json:"wind_unit"`
	AQILabel   string                `json:"aqi_label,omitempty"`
	MapURL     template.URL          `json:"map_url,omitempty"`
	MapLinkURL string                `json:"map_link_url,omitempty"`
}

func (s *Server) page() Page {
	state := s.controller.State()
	page := Page{
		State:    state,
		TempUnit: state.Unit.TempSuffix(),
		WindUnit: state.Unit.WindSuffix(),
	}

	loc := s.controller.Location()
	page.Daily = forecast.SummarizeByDay(state.ForecastSamples, loc)
	page.Hourly = forecast.HourlyView(state.ForecastSamples, loc)

	if state.AirQuality != nil {
		page.AQILabel = state.AirQuality.Label()
	}
	if state.Conditions != nil {
		coord := state.Conditions.Coord
		page.MapURL = template.URL(osmEmbedURL(coord.Lat, coord.Lon))
		page.MapLinkURL = fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", coord.Lat, coord.Lon)
	}
	return page
}

// osmEmbedURL builds an OpenStreetMap iframe URL with a small bounding box
// around the location and a marker on it.
func osmEmbedURL(lat, lon float64) string {
	const span = 0.05
	return fmt.Sprintf(
		"https://www.openstreetmap.org/export/embed.html?bbox=%f%%2C%f%%2C%f%%2C%f&layer=mapnik&marker=%f%%2C%f",
		lon-span, lat-span, lon+span, lat+span, lat, lon)
}
