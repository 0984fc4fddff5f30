package location

import (
	"context"
	"fmt"
	"log"

	"github.com/ryadav/skycast/internal/models"
)

// maxCandidates caps the structured geocoding result set.
const maxCandidates = 5

// Geocoder is the structured (gazetteer) lookup.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]models.GeocodeMatch, error)
}

// AIGeocoder resolves place names the gazetteer has no entry for.
type AIGeocoder interface {
	Coordinates(ctx context.Context, query string) (models.Coordinates, string, error)
}

// NameLookup is the direct weather-by-name endpoint, used last because its
// fuzzy matching doubles as a geocoder of sorts.
type NameLookup interface {
	CurrentByName(ctx context.Context, name string, unit models.Unit) (*models.CurrentConditions, error)
}

// UnresolvableError means every resolution strategy failed for a query.
type UnresolvableError struct {
	Query string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("location: could not resolve %q", e.Query)
}

// Message returns the user-facing text for this failure.
func (e *UnresolvableError) Message() string {
	return fmt.Sprintf("Could not find %q. Try adding a district or state name.", e.Query)
}

// Resolver turns a place query into coordinates via an ordered fallback
// chain: explicit coordinates, structured geocoding, AI geocoding, direct
// weather-by-name lookup. Cheaper and more reliable sources come first.
type Resolver struct {
	geocoder Geocoder
	ai       AIGeocoder // may be nil when no model is configured
	lookup   NameLookup
}

func NewResolver(geocoder Geocoder, ai AIGeocoder, lookup NameLookup) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		ai:       ai,
		lookup:   lookup,
	}
}

// Resolve returns the best-effort coordinates for a query, short-circuiting
// on the first strategy that succeeds. Individual strategy errors are misses,
// not failures; only exhausting the whole chain returns an error, and that
// error is always an *UnresolvableError carrying the original query.
func (r *Resolver) Resolve(ctx context.Context, query models.PlaceQuery) (models.Coordinates, error) {
	if query.Coords != nil {
		return *query.Coords, nil
	}

	matches, err := r.geocoder.Geocode(ctx, query.Text, maxCandidates)
	if err != nil {
		log.Printf("location: geocode %q: %v", query.Text, err)
	} else if len(matches) > 0 {
		best := matches[0]
		return models.Coordinates{Lat: best.Lat, Lon: best.Lon}, nil
	}

	if r.ai != nil {
		coords, name, err := r.ai.Coordinates(ctx, query.Text)
		if err != nil {
			log.Printf("location: ai geocode %q: %v", query.Text, err)
		} else {
			log.Printf("location: ai resolved %q to %s (%.4f, %.4f)", query.Text, name, coords.Lat, coords.Lon)
			return coords, nil
		}
	}

	cond, err := r.lookup.CurrentByName(ctx, query.Text, models.UnitMetric)
	if err != nil {
		log.Printf("location: direct lookup %q: %v", query.Text, err)
	} else {
		return cond.Coord, nil
	}

	return models.Coordinates{}, &UnresolvableError{Query: query.Text}
}
