package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSyntheticDeckIsDeterministicAndValid(t *testing.T) {
	client := NewClient(Options{})
	req := Request{
		JobID:       "job-1",
		ProjectName: "Warung Kopi",
		Industry:    "food & beverage",
		Locale:      "en",
	}

	first, err := client.GenerateDeck(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateDeck: %v", err)
	}
	if err := first.Validate(); err != nil {
		t.Fatalf("synthetic deck invalid: %v", err)
	}
	if first.SlideCount() == 0 {
		t.Fatal("synthetic deck has no slides")
	}
	if !strings.Contains(first.Title, "Warung Kopi") {
		t.Errorf("title = %q, want project name included", first.Title)
	}

	second, err := client.GenerateDeck(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateDeck: %v", err)
	}
	if first.Title != second.Title {
		t.Errorf("titles differ across identical requests: %q vs %q", first.Title, second.Title)
	}
}

func TestRemoteGenerationParsesResponse(t *testing.T) {
	deckText := `{"title":"Remote Deck","slides":[{"title":"Problem","content":"x","type":"problem"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) == 0 || !strings.Contains(req.Messages[0].Content, "Warung Kopi") {
			t.Errorf("user prompt missing project name")
		}
		json.NewEncoder(w).Encode(apiResponse{
			Content: []apiContentBlock{{Type: "text", Text: "```json\n" + deckText + "\n```"}},
			Usage:   apiUsage{InputTokens: 100, OutputTokens: 400},
		})
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	deck, err := client.GenerateDeck(context.Background(), Request{JobID: "job-1", ProjectName: "Warung Kopi"})
	if err != nil {
		t.Fatalf("GenerateDeck: %v", err)
	}
	if deck.Title != "Remote Deck" {
		t.Errorf("title = %q", deck.Title)
	}
	if deck.Metadata.OutputTokens != 400 {
		t.Errorf("output tokens = %d", deck.Metadata.OutputTokens)
	}
	if deck.Metadata.Model != "test-model" {
		t.Errorf("metadata model = %q", deck.Metadata.Model)
	}
}

func TestRemoteFailureFallsBackToSynthetic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error","message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL})
	deck, err := client.GenerateDeck(context.Background(), Request{JobID: "job-1", ProjectName: "Fallback Co"})
	if err != nil {
		t.Fatalf("GenerateDeck: %v", err)
	}
	if err := deck.Validate(); err != nil {
		t.Fatalf("fallback deck invalid: %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"Here is the deck:\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range tests {
		if got := extractJSON(tc.in); got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
