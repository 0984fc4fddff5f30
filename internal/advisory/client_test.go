package advisory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"github.com/ryadav/skycast/internal/models"
)

// completionServer stubs the chat completions endpoint, answering every
// request with the given assistant message content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": %q},
				"finish_reason": "stop"
			}]
		}`, content)
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("test-key", option.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func testConditions() *models.CurrentConditions {
	return &models.CurrentConditions{
		Name:        "Patna",
		Temp:        31.2,
		Humidity:    48,
		WindSpeed:   3.6,
		Description: "clear sky",
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(""); err == nil {
		t.Fatal("expected an error for an empty API key")
	}
}

func TestAdvice(t *testing.T) {
	t.Parallel()
	srv := completionServer(t, "Light cotton clothes today. Stay hydrated and avoid the midday sun.")
	defer srv.Close()

	got := newTestClient(t, srv).Advice(context.Background(), testConditions(), &models.AirQualitySnapshot{AQI: 2})
	if got != "Light cotton clothes today. Stay hydrated and avoid the midday sun." {
		t.Errorf("Advice = %q", got)
	}
}

func TestAdvice_ServerErrorFallsBack(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := newTestClient(t, srv).Advice(context.Background(), testConditions(), nil)
	if got != FallbackAdvice {
		t.Errorf("Advice = %q, want the fallback sentence", got)
	}
}

func TestAdvice_EmptyContentFallsBack(t *testing.T) {
	t.Parallel()
	srv := completionServer(t, "  ")
	defer srv.Close()

	got := newTestClient(t, srv).Advice(context.Background(), testConditions(), nil)
	if got != EmptyAdvice {
		t.Errorf("Advice = %q, want the empty-response sentence", got)
	}
}

func TestCoordinates(t *testing.T) {
	t.Parallel()
	srv := completionServer(t, `{"lat": 24.886, "lon": 85.543, "name": "Nawada"}`)
	defer srv.Close()

	coords, name, err := newTestClient(t, srv).Coordinates(context.Background(), "Nawada block, Bihar")
	if err != nil {
		t.Fatalf("Coordinates failed: %v", err)
	}
	if coords.Lat != 24.886 || coords.Lon != 85.543 {
		t.Errorf("coords = %+v", coords)
	}
	if name != "Nawada" {
		t.Errorf("name = %q", name)
	}
}

func TestCoordinates_BadPayloads(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"missing lon", `{"lat": 24.886, "name": "Nawada"}`},
		{"not json", `sorry, I cannot determine that location`},
		{"latitude out of range", `{"lat": 120.0, "lon": 85.543, "name": "nowhere"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := completionServer(t, tt.content)
			defer srv.Close()

			_, _, err := newTestClient(t, srv).Coordinates(context.Background(), "somewhere")
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestCoordinates_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv).Coordinates(context.Background(), "somewhere")
	if err == nil {
		t.Fatal("expected an error")
	}
}
