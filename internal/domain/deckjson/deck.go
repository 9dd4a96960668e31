package deckjson

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Slide is a single slide of a generated deck.
type Slide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Metadata describes how the deck was produced.
type Metadata struct {
	Model        string    `json:"model"`
	DurationMs   int64     `json:"duration_ms"`
	GeneratedAt  time.Time `json:"generated_at"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
}

// Deck is the content contract stored in pitch_decks.content and produced
// by the compute unit.
type Deck struct {
	Title    string   `json:"title"`
	Slides   []Slide  `json:"slides"`
	Metadata Metadata `json:"metadata"`
}

var allowedSlideTypes = map[string]struct{}{
	"title":     {},
	"problem":   {},
	"solution":  {},
	"market":    {},
	"product":   {},
	"traction":  {},
	"team":      {},
	"financial": {},
	"ask":       {},
	"closing":   {},
	"other":     {},
}

const (
	// MaxSlides caps the number of slides accepted from the generator.
	MaxSlides = 40
	// DefaultSlideType is substituted for unrecognized slide types.
	DefaultSlideType = "other"
)

// Parse decodes and validates raw deck content.
func Parse(raw []byte) (*Deck, error) {
	var d Deck
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("deckjson: decode: %w", err)
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Normalize trims fields and substitutes defaults for unknown slide types.
func (d *Deck) Normalize() {
	if d == nil {
		return
	}
	d.Title = strings.TrimSpace(d.Title)
	for i := range d.Slides {
		d.Slides[i].Title = strings.TrimSpace(d.Slides[i].Title)
		d.Slides[i].Type = strings.ToLower(strings.TrimSpace(d.Slides[i].Type))
		if _, ok := allowedSlideTypes[d.Slides[i].Type]; !ok {
			d.Slides[i].Type = DefaultSlideType
		}
	}
}

// Validate enforces the structural invariants of the contract.
func (d *Deck) Validate() error {
	if d == nil {
		return fmt.Errorf("deckjson: deck is nil")
	}
	if d.Title == "" {
		return fmt.Errorf("deckjson: title is required")
	}
	if len(d.Slides) == 0 {
		return fmt.Errorf("deckjson: at least one slide is required")
	}
	if len(d.Slides) > MaxSlides {
		return fmt.Errorf("deckjson: %d slides exceeds limit of %d", len(d.Slides), MaxSlides)
	}
	for i, s := range d.Slides {
		if s.Title == "" {
			return fmt.Errorf("deckjson: slide %d missing title", i+1)
		}
		if s.Content == "" {
			return fmt.Errorf("deckjson: slide %d missing content", i+1)
		}
	}
	return nil
}

// SlideCount returns the number of slides.
func (d *Deck) SlideCount() int {
	if d == nil {
		return 0
	}
	return len(d.Slides)
}
