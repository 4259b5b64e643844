package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sameearif/JourneyLens/internal/config"
)

func testConfig(baseURL string) config.ImageConfig {
	return config.ImageConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "black-forest-labs/FLUX.1-schnell",
		ReferenceModel: "black-forest-labs/FLUX.1-kontext-dev",
		Width:          1792,
		Height:         960,
		TimeoutSeconds: 5,
		RatePerMinute:  0,
	}
}

func TestGenerateReturnsDataURI(t *testing.T) {
	var captured generationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"b64_json": "aW1n"}},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	got, err := client.Generate(context.Background(), "a runner at dawn", "")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "data:image/png;base64,aW1n" {
		t.Errorf("unexpected image payload: %s", got)
	}

	if captured.Model != "black-forest-labs/FLUX.1-schnell" {
		t.Errorf("unexpected model: %s", captured.Model)
	}
	if captured.Steps != 4 {
		t.Errorf("unexpected steps: %d", captured.Steps)
	}
	if captured.Width != 1792 || captured.Height != 960 {
		t.Errorf("unexpected dimensions: %dx%d", captured.Width, captured.Height)
	}
	if captured.ImageURL != "" {
		t.Errorf("reference image should be empty, got %s", captured.ImageURL)
	}
}

func TestGenerateWithReferenceSwitchesModel(t *testing.T) {
	var captured generationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://cdn.example.com/img.png"}},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	got, err := client.Generate(context.Background(), "chapter scene", "data:image/png;base64,cmVm")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "https://cdn.example.com/img.png" {
		t.Errorf("unexpected image payload: %s", got)
	}

	if captured.Model != "black-forest-labs/FLUX.1-kontext-dev" {
		t.Errorf("unexpected model: %s", captured.Model)
	}
	if captured.Steps != 28 {
		t.Errorf("unexpected steps: %d", captured.Steps)
	}
	if captured.ImageURL != "data:image/png;base64,cmVm" {
		t.Errorf("unexpected reference image: %s", captured.ImageURL)
	}
	if !strings.Contains(captured.Prompt, "Style reference") {
		t.Errorf("prompt missing style reference suffix: %s", captured.Prompt)
	}
}

func TestGenerateProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if _, err := client.Generate(context.Background(), "prompt", ""); err == nil {
		t.Fatal("expected error for provider failure")
	}
}

func TestGenerateDisabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = ""

	client := NewClient(cfg)
	if _, err := client.Generate(context.Background(), "prompt", ""); err != ErrDisabled {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
