package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/ryadav/skycast/internal/advisory"
	"github.com/ryadav/skycast/internal/api"
	"github.com/ryadav/skycast/internal/dashboard"
	"github.com/ryadav/skycast/internal/location"
	"github.com/ryadav/skycast/internal/openweather"
)

type CLI struct {
	Port            string        `help:"HTTP server port." default:"8080" env:"PORT"`
	OpenWeatherKey  string        `help:"OpenWeatherMap API key." env:"OPENWEATHER_API_KEY" required:""`
	OpenAIKey       string        `help:"OpenAI API key for advisories and AI geocoding (optional)." env:"OPENAI_API_KEY"`
	DefaultLocation string        `help:"Fallback location when none is known." default:"India" env:"DEFAULT_LOCATION"`
	RefreshInterval time.Duration `help:"Background refresh interval." default:"5m" env:"REFRESH_INTERVAL"`
	Timezone        string        `help:"IANA timezone for day grouping (default: system local)." env:"DISPLAY_TIMEZONE"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("skycast"),
		kong.Description("Weather dashboard with AI-assisted location resolution and advisories."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	loc := time.Local
	if cli.Timezone != "" {
		parsed, err := time.LoadLocation(cli.Timezone)
		if err != nil {
			log.Printf("Warning: could not load timezone %s, using local: %v", cli.Timezone, err)
		} else {
			loc = parsed
		}
	}

	weather := openweather.NewClient(cli.OpenWeatherKey)

	var advisor dashboard.Advisor
	var aiGeocoder location.AIGeocoder
	if cli.OpenAIKey != "" {
		client, err := advisory.NewClient(cli.OpenAIKey)
		if err != nil {
			log.Printf("Advisory disabled: %v", err)
		} else {
			advisor = client
			aiGeocoder = client
		}
	} else {
		log.Println("Advisory disabled: no OpenAI API key configured")
	}

	resolver := location.NewResolver(weather, aiGeocoder, weather)
	controller := dashboard.NewController(weather, resolver, advisor, cli.DefaultLocation, cli.RefreshInterval, loc)
	server := api.NewServer(controller, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go controller.Run(ctx)

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
