package forecast

import (
	"math"
	"time"

	"github.com/ryadav/skycast/internal/models"
)

const (
	dayLabelFormat  = "Mon 2 Jan"
	hourLabelFormat = "3 PM"
)

// SummarizeByDay groups 3-hour forecast samples by local calendar date and
// reduces each group to min/max plus the condition of the warmest sample.
// Days appear in first-occurrence order. Pure and total: empty input yields
// empty output.
//
// The representative icon/description only updates when a sample strictly
// exceeds the running maximum, so on a tie the earlier sample wins.
func SummarizeByDay(samples []models.ForecastSample, loc *time.Location) []models.DailySummary {
	if loc == nil {
		loc = time.Local
	}

	var days []models.DailySummary
	index := make(map[string]int)

	for _, s := range samples {
		label := s.At.In(loc).Format(dayLabelFormat)
		i, ok := index[label]
		if !ok {
			index[label] = len(days)
			days = append(days, models.DailySummary{
				DateLabel:   label,
				MinTemp:     s.Temp,
				MaxTemp:     s.Temp,
				Icon:        s.Icon,
				Description: s.Description,
			})
			continue
		}

		day := &days[i]
		if s.Temp > day.MaxTemp {
			day.MaxTemp = s.Temp
			day.Icon = s.Icon
			day.Description = s.Description
		}
		if s.Temp < day.MinTemp {
			day.MinTemp = s.Temp
		}
	}

	return days
}

// HourlyView projects the sample sequence 1:1 into timeline entries with
// rounded temperatures, preserving order.
func HourlyView(samples []models.ForecastSample, loc *time.Location) []models.HourlyEntry {
	if loc == nil {
		loc = time.Local
	}

	entries := make([]models.HourlyEntry, 0, len(samples))
	for _, s := range samples {
		at := s.At.In(loc)
		entries = append(entries, models.HourlyEntry{
			TimeLabel: at.Format(hourLabelFormat),
			DateLabel: at.Format("2 Jan"),
			Temp:      int(math.Round(s.Temp)),
			Icon:      s.Icon,
		})
	}
	return entries
}
