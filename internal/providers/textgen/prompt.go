package textgen

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"deckserver/internal/domain/deckjson"
)

const defaultSystemPrompt = `You are a pitch deck writer. Produce a single JSON object with the shape
{"title": string, "slides": [{"title": string, "content": string, "type": string}]}.
Slide types: title, problem, solution, market, product, traction, team, financial, ask, closing, other.
Write concise, investor-ready content. Output only the JSON object, no commentary.`

func buildSystemPrompt(req Request) string {
	if s := strings.TrimSpace(req.SystemPrompt); s != "" {
		return s
	}
	return defaultSystemPrompt
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a pitch deck for the project %q.\n", req.ProjectName)
	if d := strings.TrimSpace(req.Description); d != "" {
		fmt.Fprintf(&b, "Description: %s\n", d)
	}
	if ind := strings.TrimSpace(req.Industry); ind != "" {
		fmt.Fprintf(&b, "Industry: %s\n", ind)
	}
	if aud := strings.TrimSpace(req.TargetAudience); aud != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", aud)
	}
	if loc := strings.TrimSpace(req.Locale); loc != "" {
		fmt.Fprintf(&b, "Write the deck in locale %q.\n", loc)
	}
	if p := strings.TrimSpace(req.UserPrompt); p != "" {
		fmt.Fprintf(&b, "Instructions: %s\n", p)
	}
	for i, excerpt := range req.InputExcerpts {
		fmt.Fprintf(&b, "\nSource document %d:\n%s\n", i+1, excerpt)
	}
	return b.String()
}

// syntheticSections is the fixed outline of a fallback deck.
var syntheticSections = []struct {
	kind  string
	title string
	body  string
}{
	{"title", "%s", "An investor pitch for %s."},
	{"problem", "the problem", "Customers in the %s space lack an accessible, affordable option."},
	{"solution", "our solution", "%s closes that gap with a focused product and a simple pricing model."},
	{"market", "market opportunity", "The addressable market for %s is large and underserved."},
	{"product", "the product", "A working product is in the hands of early users today."},
	{"traction", "traction", "Usage grows month over month with no paid acquisition."},
	{"team", "the team", "A small team with direct experience in %s."},
	{"ask", "the ask", "We are raising to extend runway and accelerate growth."},
	{"closing", "thank you", "Contact us to learn more about %s."},
}

// buildSyntheticDeck renders a deterministic deck from the request alone.
// The locale drives title casing through x/text so a deck requested in "id"
// or "tr" is cased by that language's rules.
func buildSyntheticDeck(req Request, seed string) *deckjson.Deck {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		name = "Untitled Project"
	}
	industry := strings.TrimSpace(req.Industry)
	if industry == "" {
		industry = "its"
	}

	caser := cases.Title(localeTag(req.Locale))
	slides := make([]deckjson.Slide, 0, len(syntheticSections))
	for _, s := range syntheticSections {
		title := s.title
		if strings.Contains(title, "%s") {
			title = fmt.Sprintf(title, name)
		} else {
			title = caser.String(title)
		}
		body := s.body
		if strings.Contains(body, "%s") {
			arg := name
			if s.kind == "problem" || s.kind == "market" || s.kind == "team" {
				arg = industry
			}
			body = fmt.Sprintf(body, arg)
		}
		slides = append(slides, deckjson.Slide{Title: title, Content: body, Type: s.kind})
	}

	return &deckjson.Deck{
		Title:  fmt.Sprintf("%s Pitch Deck (%s)", name, seed[:8]),
		Slides: slides,
	}
}

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.English
	}
	return tag
}
