package deckjson

import "testing"

func TestParseValidDeck(t *testing.T) {
	raw := []byte(`{
		"title": "Acme Robotics",
		"slides": [
			{"title": "Vision", "content": "Robots everywhere", "type": "title"},
			{"title": "The Gap", "content": "Manual labor is costly", "type": "PROBLEM"}
		],
		"metadata": {"model": "claude-sonnet-4", "duration_ms": 4200}
	}`)

	deck, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if deck.Title != "Acme Robotics" {
		t.Fatalf("Title = %q", deck.Title)
	}
	if deck.SlideCount() != 2 {
		t.Fatalf("SlideCount = %d, want 2", deck.SlideCount())
	}
	if deck.Slides[1].Type != "problem" {
		t.Fatalf("slide type not lowercased: %q", deck.Slides[1].Type)
	}
}

func TestParseUnknownSlideTypeFallsBack(t *testing.T) {
	raw := []byte(`{"title":"x","slides":[{"title":"a","content":"b","type":"interpretive-dance"}]}`)
	deck, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if deck.Slides[0].Type != DefaultSlideType {
		t.Fatalf("Type = %q, want %q", deck.Slides[0].Type, DefaultSlideType)
	}
}

func TestParseRejectsInvalidDecks(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"title": "x", "slides":`,
		"no title":      `{"slides":[{"title":"a","content":"b","type":"title"}]}`,
		"no slides":     `{"title":"x","slides":[]}`,
		"empty content": `{"title":"x","slides":[{"title":"a","content":"","type":"title"}]}`,
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}
