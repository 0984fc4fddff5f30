package api

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryadav/skycast/internal/dashboard"
	"github.com/ryadav/skycast/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

type Server struct {
	controller *dashboard.Controller
	port       string
	tmpl       *template.Template
}

func NewServer(controller *dashboard.Controller, port string) *Server {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
	return &Server{
		controller: controller,
		port:       port,
		tmpl:       tmpl,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/partials/current", s.handleCurrentPartial)
	mux.HandleFunc("/partials/forecast", s.handleForecastPartial)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/locate", s.handleLocate)
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/unit", s.handleUnit)
	mux.HandleFunc("/theme", s.handleTheme)
	mux.HandleFunc("/dismiss", s.handleDismiss)
	mux.HandleFunc("/api/state", s.handleAPIState)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", s.page()); err != nil {
		log.Printf("api: render index: %v", err)
	}
}

func (s *Server) handleCurrentPartial(w http.ResponseWriter, r *http.Request) {
	if err := s.tmpl.ExecuteTemplate(w, "current.html", s.page()); err != nil {
		log.Printf("api: render current partial: %v", err)
	}
}

func (s *Server) handleForecastPartial(w http.ResponseWriter, r *http.Request) {
	if err := s.tmpl.ExecuteTemplate(w, "forecast.html", s.page()); err != nil {
		log.Printf("api: render forecast partial: %v", err)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	query := r.FormValue("q")
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.controller.Search(r.Context(), query); err != nil {
		log.Printf("api: search %q: %v", query, err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLocate accepts browser geolocation results. Missing coordinates mean
// the user denied the prompt; that downgrades to the default location.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lat, latErr := strconv.ParseFloat(r.FormValue("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.FormValue("lon"), 64)
	if latErr != nil || lonErr != nil {
		if err := s.controller.LocateDenied(r.Context()); err != nil {
			log.Printf("api: locate fallback: %v", err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := s.controller.Locate(r.Context(), lat, lon); err != nil {
		log.Printf("api: locate: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.controller.Refresh(r.Context()); err != nil {
		log.Printf("api: refresh: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.controller.ToggleUnit(r.Context()); err != nil {
		log.Printf("api: unit toggle: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.ToggleTheme()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.DismissError()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.page()); err != nil {
		log.Printf("api: encode state: %v", err)
	}
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Phase       string    `json:"phase"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.controller.State()
	health := HealthStatus{
		Status:      "ok",
		Phase:       string(state.Phase),
		LastUpdated: state.LastUpdated,
	}
	if state.Phase == models.PhaseErrorShown && state.Conditions == nil {
		health.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("api: health: write response: %v", err)
	}
}
