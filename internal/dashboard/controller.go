package dashboard

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ryadav/skycast/internal/location"
	"github.com/ryadav/skycast/internal/metrics"
	"github.com/ryadav/skycast/internal/models"
)

const advisoryTimeout = 30 * time.Second

// Provider issues the weather lookups the dashboard needs per location.
type Provider interface {
	CurrentByCoords(ctx context.Context, lat, lon float64, unit models.Unit) (*models.CurrentConditions, error)
	Forecast(ctx context.Context, lat, lon float64, unit models.Unit) ([]models.ForecastSample, error)
	AirQuality(ctx context.Context, lat, lon float64) (*models.AirQualitySnapshot, error)
}

// Resolver turns a place query into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, query models.PlaceQuery) (models.Coordinates, error)
}

// Advisor produces enrichment text. It never fails; degraded calls return
// substitute text.
type Advisor interface {
	Advice(ctx context.Context, cond *models.CurrentConditions, air *models.AirQualitySnapshot) string
}

// Controller owns the single AppState aggregate and serializes every write to
// it. Each user action bumps a generation counter; a transition commits only
// if no newer action was dispatched while it was in flight, so a slow stale
// response can never overwrite newer state.
type Controller struct {
	provider     Provider
	resolver     Resolver
	advisor      Advisor // may be nil when no model is configured
	defaultQuery string
	interval     time.Duration
	loc          *time.Location

	mu    sync.Mutex
	state models.AppState
	gen   uint64
}

func NewController(provider Provider, resolver Resolver, advisor Advisor, defaultQuery string, interval time.Duration, loc *time.Location) *Controller {
	if loc == nil {
		loc = time.Local
	}
	return &Controller{
		provider:     provider,
		resolver:     resolver,
		advisor:      advisor,
		defaultQuery: defaultQuery,
		interval:     interval,
		loc:          loc,
		state: models.AppState{
			Phase: models.PhaseIdle,
			Unit:  models.UnitMetric,
			Theme: "light",
		},
	}
}

// Location returns the timezone used for day grouping.
func (c *Controller) Location() *time.Location {
	return c.loc
}

// State returns a snapshot copy of the application state. Slices in the
// snapshot are shared but never mutated after a commit.
func (c *Controller) State() models.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Search resolves a free-text query and loads the dashboard for it.
func (c *Controller) Search(ctx context.Context, query string) error {
	return c.load(ctx, "search", models.PlaceQuery{Text: query})
}

// Locate loads the dashboard for explicit coordinates, typically from the
// browser's geolocation.
func (c *Controller) Locate(ctx context.Context, lat, lon float64) error {
	return c.load(ctx, "locate", models.PlaceQuery{Coords: &models.Coordinates{Lat: lat, Lon: lon}})
}

// LocateDenied handles a refused geolocation request: a warning, and the
// default location when nothing is on screen yet. Soft failure, never an
// error transition.
func (c *Controller) LocateDenied(ctx context.Context) error {
	c.mu.Lock()
	c.state.Warning = "Location access denied. Showing default city."
	hasData := c.state.Conditions != nil
	c.mu.Unlock()

	if hasData {
		return nil
	}
	return c.Search(ctx, c.defaultQuery)
}

// Refresh re-runs the load pipeline against the last-known coordinates, or
// the default query when no location has been resolved yet.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	var coords *models.Coordinates
	if c.state.Conditions != nil {
		coord := c.state.Conditions.Coord
		coords = &coord
	}
	c.mu.Unlock()

	if coords == nil {
		return c.load(ctx, "refresh", models.PlaceQuery{Text: c.defaultQuery})
	}
	return c.load(ctx, "refresh", models.PlaceQuery{Coords: coords})
}

// ToggleUnit switches the measurement system and refetches everything with
// the new unit. The provider bakes unit conversion server-side, so stored
// readings cannot be converted locally.
func (c *Controller) ToggleUnit(ctx context.Context) error {
	c.mu.Lock()
	c.state.Unit = c.state.Unit.Toggle()
	var coords *models.Coordinates
	if c.state.Conditions != nil {
		coord := c.state.Conditions.Coord
		coords = &coord
	}
	c.mu.Unlock()

	if coords == nil {
		return nil
	}
	return c.load(ctx, "unit", models.PlaceQuery{Coords: coords})
}

// ToggleTheme flips between light and dark. Pure state, no fetch.
func (c *Controller) ToggleTheme() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Theme == "dark" {
		c.state.Theme = "light"
	} else {
		c.state.Theme = "dark"
	}
}

// DismissError clears the error slot and returns to Idle, keeping any
// last-good data on screen.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = ""
	c.state.Warning = ""
	if c.state.Phase == models.PhaseErrorShown {
		c.state.Phase = models.PhaseIdle
	}
}

// Run performs an initial load and then re-runs the refresh transition at a
// fixed interval until the context is cancelled.
func (c *Controller) Run(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		log.Printf("dashboard: initial load: %v", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("dashboard: refresh loop shutting down")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				log.Printf("dashboard: background refresh: %v", err)
			}
		}
	}
}

// load runs the full transition pipeline: resolve, current conditions,
// forecast and air quality in parallel, then best-effort advisory. The
// advisory step can never turn a Ready-eligible result into ErrorShown.
func (c *Controller) load(ctx context.Context, action string, query models.PlaceQuery) error {
	gen, unit := c.begin()

	coords, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		c.fail(gen, action, err)
		return err
	}

	cond, err := c.provider.CurrentByCoords(ctx, coords.Lat, coords.Lon, unit)
	if err != nil {
		c.fail(gen, action, err)
		return err
	}

	var (
		wg      sync.WaitGroup
		samples []models.ForecastSample
		air     *models.AirQualitySnapshot
		fcErr   error
		airErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		samples, fcErr = c.provider.Forecast(ctx, coords.Lat, coords.Lon, unit)
	}()
	go func() {
		defer wg.Done()
		air, airErr = c.provider.AirQuality(ctx, coords.Lat, coords.Lon)
	}()
	wg.Wait()

	if fcErr != nil {
		c.fail(gen, action, fcErr)
		return fcErr
	}
	if airErr != nil {
		c.fail(gen, action, airErr)
		return airErr
	}

	advice := ""
	if c.advisor != nil {
		actx, cancel := context.WithTimeout(ctx, advisoryTimeout)
		advice = c.advisor.Advice(actx, cond, air)
		cancel()
	}

	committed := c.commit(gen, func(st *models.AppState) {
		st.Phase = models.PhaseReady
		st.Conditions = cond
		st.ForecastSamples = samples
		st.AirQuality = air
		st.AdvisoryText = advice
		st.LastUpdated = time.Now()
	})
	if committed {
		metrics.TransitionsTotal.WithLabelValues(action, "ready").Inc()
	}
	return nil
}

// begin marks a new transition: Loading phase, error cleared, generation
// bumped. Returns the transition's generation and the unit to fetch with.
func (c *Controller) begin() (uint64, models.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state.Phase = models.PhaseLoading
	c.state.Error = ""
	return c.gen, c.state.Unit
}

// commit applies a state mutation if the transition is still the latest one.
// Stale completions are discarded so they cannot clobber newer state.
func (c *Controller) commit(gen uint64, apply func(*models.AppState)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		log.Printf("dashboard: discarding stale transition (gen %d, latest %d)", gen, c.gen)
		metrics.TransitionsTotal.WithLabelValues("any", "stale").Inc()
		return false
	}
	apply(&c.state)
	return true
}

func (c *Controller) fail(gen uint64, action string, err error) {
	log.Printf("dashboard: %s failed: %v", action, err)
	committed := c.commit(gen, func(st *models.AppState) {
		st.Phase = models.PhaseErrorShown
		st.Error = userMessage(err)
	})
	if committed {
		metrics.TransitionsTotal.WithLabelValues(action, "error").Inc()
	}
}

// userMessage converts a pipeline error into the single user-facing string.
// Previously displayed data stays untouched; only the error slot changes.
func userMessage(err error) string {
	var unresolvable *location.UnresolvableError
	if errors.As(err, &unresolvable) {
		return unresolvable.Message()
	}
	return "Unable to fetch weather data. Please try again."
}
