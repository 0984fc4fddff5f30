package location

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ryadav/skycast/internal/models"
)

// calls records strategy invocations in order so tests can assert both the
// chain order and the short-circuiting.
type calls struct {
	order []string
}

type fakeGeocoder struct {
	calls   *calls
	matches []models.GeocodeMatch
	err     error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, query string, limit int) ([]models.GeocodeMatch, error) {
	f.calls.order = append(f.calls.order, "geocode")
	return f.matches, f.err
}

type fakeAIGeocoder struct {
	calls  *calls
	coords models.Coordinates
	name   string
	err    error
}

func (f *fakeAIGeocoder) Coordinates(ctx context.Context, query string) (models.Coordinates, string, error) {
	f.calls.order = append(f.calls.order, "ai")
	return f.coords, f.name, f.err
}

type fakeNameLookup struct {
	calls *calls
	cond  *models.CurrentConditions
	err   error
}

func (f *fakeNameLookup) CurrentByName(ctx context.Context, name string, unit models.Unit) (*models.CurrentConditions, error) {
	f.calls.order = append(f.calls.order, "lookup")
	return f.cond, f.err
}

func newFakes() (*calls, *fakeGeocoder, *fakeAIGeocoder, *fakeNameLookup) {
	c := &calls{}
	miss := errors.New("miss")
	return c,
		&fakeGeocoder{calls: c, err: miss},
		&fakeAIGeocoder{calls: c, err: miss},
		&fakeNameLookup{calls: c, err: miss}
}

func TestResolve_ExplicitCoordsSkipNetwork(t *testing.T) {
	t.Parallel()
	c, geo, ai, lookup := newFakes()
	r := NewResolver(geo, ai, lookup)

	got, err := r.Resolve(context.Background(), models.PlaceQuery{
		Text:   "ignored",
		Coords: &models.Coordinates{Lat: -36.794, Lon: 146.977},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Lat != -36.794 || got.Lon != 146.977 {
		t.Errorf("got %+v, want the explicit coordinates", got)
	}
	if len(c.order) != 0 {
		t.Errorf("expected no network calls, got %v", c.order)
	}
}

func TestResolve_GeocodeShortCircuits(t *testing.T) {
	t.Parallel()
	c, geo, ai, lookup := newFakes()
	geo.err = nil
	geo.matches = []models.GeocodeMatch{
		{Name: "Patna", Lat: 25.594, Lon: 85.138, Country: "IN"},
		{Name: "Patna Rural", Lat: 25.5, Lon: 85.0, Country: "IN"},
	}
	r := NewResolver(geo, ai, lookup)

	got, err := r.Resolve(context.Background(), models.PlaceQuery{Text: "Patna"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Lat != 25.594 || got.Lon != 85.138 {
		t.Errorf("got %+v, want the first (best) match", got)
	}
	if len(c.order) != 1 || c.order[0] != "geocode" {
		t.Errorf("expected only a geocode call, got %v", c.order)
	}
}

func TestResolve_FallsBackToAI(t *testing.T) {
	t.Parallel()
	c, geo, ai, lookup := newFakes()
	geo.err = nil // empty result set, not an error
	ai.err = nil
	ai.coords = models.Coordinates{Lat: 24.88, Lon: 85.54}
	ai.name = "Nawada"
	r := NewResolver(geo, ai, lookup)

	got, err := r.Resolve(context.Background(), models.PlaceQuery{Text: "Nawada block"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != ai.coords {
		t.Errorf("got %+v, want AI coordinates %+v", got, ai.coords)
	}
	want := []string{"geocode", "ai"}
	if strings.Join(c.order, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", c.order, want)
	}
}

func TestResolve_FallsBackToDirectLookup(t *testing.T) {
	t.Parallel()
	c, geo, ai, lookup := newFakes()
	lookup.err = nil
	lookup.cond = &models.CurrentConditions{
		Name:  "Goroka",
		Coord: models.Coordinates{Lat: -6.08, Lon: 145.39},
	}
	r := NewResolver(geo, ai, lookup)

	got, err := r.Resolve(context.Background(), models.PlaceQuery{Text: "Goroka"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != lookup.cond.Coord {
		t.Errorf("got %+v, want embedded coordinates %+v", got, lookup.cond.Coord)
	}
	want := []string{"geocode", "ai", "lookup"}
	if strings.Join(c.order, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", c.order, want)
	}
}

func TestResolve_AllStrategiesMiss(t *testing.T) {
	t.Parallel()
	c, geo, ai, lookup := newFakes()
	r := NewResolver(geo, ai, lookup)

	_, err := r.Resolve(context.Background(), models.PlaceQuery{Text: "Xyzzyville"})
	if err == nil {
		t.Fatal("expected an error when every strategy misses")
	}

	var unresolvable *UnresolvableError
	if !errors.As(err, &unresolvable) {
		t.Fatalf("expected *UnresolvableError, got %T", err)
	}
	if unresolvable.Query != "Xyzzyville" {
		t.Errorf("Query = %q, want %q", unresolvable.Query, "Xyzzyville")
	}
	if !strings.Contains(unresolvable.Message(), `"Xyzzyville"`) {
		t.Errorf("user message %q should reference the query", unresolvable.Message())
	}

	want := []string{"geocode", "ai", "lookup"}
	if strings.Join(c.order, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", c.order, want)
	}
}

func TestResolve_NoAIGeocoderConfigured(t *testing.T) {
	t.Parallel()
	c, geo, _, lookup := newFakes()
	r := NewResolver(geo, nil, lookup)

	_, err := r.Resolve(context.Background(), models.PlaceQuery{Text: "nowhere"})
	var unresolvable *UnresolvableError
	if !errors.As(err, &unresolvable) {
		t.Fatalf("expected *UnresolvableError, got %v", err)
	}

	want := []string{"geocode", "lookup"}
	if strings.Join(c.order, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", c.order, want)
	}
}
