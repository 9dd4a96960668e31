package textgen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"deckserver/internal/domain/deckjson"
)

// Options controls how the text generation client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client generates pitch deck content through an Anthropic-compatible
// messages API. Without an API key it produces deterministic synthetic
// decks, which keeps the whole pipeline (dispatch, callback, versioning)
// exercised in local and CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// Request carries everything one deck generation needs.
type Request struct {
	JobID          string
	ProjectName    string
	Description    string
	Industry       string
	TargetAudience string
	SystemPrompt   string
	UserPrompt     string
	Locale         string
	InputExcerpts  []string
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
	Usage   apiUsage          `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults. A nil HTTP client gets a
// reusable one with a generous timeout; generation calls are slow.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	model := opts.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: client,
		logger:     logger,
	}
}

// Model returns the configured default model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateDeck produces a validated deck for the request. With no API key it
// synthesizes a deterministic deck; with one it calls the remote API and
// falls back to the synthetic deck on failure, so a worker never produces a
// generation failure just because the upstream model is unavailable.
func (c *Client) GenerateDeck(ctx context.Context, req Request) (*deckjson.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	if c.apiKey == "" {
		return c.syntheticDeck(req, start), nil
	}

	deck, err := c.remoteGenerateDeck(ctx, req, start)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("model", c.model).
			Str("job_id", req.JobID).
			Msg("textgen: remote generation failed; falling back to synthetic deck")
		return c.syntheticDeck(req, start), nil
	}
	return deck, nil
}

func (c *Client) remoteGenerateDeck(ctx context.Context, req Request, start time.Time) (*deckjson.Deck, error) {
	payload := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    buildSystemPrompt(req),
		Messages: []apiMessage{
			{Role: "user", Content: buildUserPrompt(req)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke model api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("model api status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model api status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	text := firstTextBlock(decoded.Content)
	if text == "" {
		return nil, fmt.Errorf("response carries no text content")
	}
	deck, err := deckjson.Parse([]byte(extractJSON(text)))
	if err != nil {
		return nil, fmt.Errorf("model output: %w", err)
	}
	deck.Metadata = deckjson.Metadata{
		Model:        c.model,
		DurationMs:   time.Since(start).Milliseconds(),
		GeneratedAt:  time.Now().UTC(),
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}
	return deck, nil
}

func firstTextBlock(blocks []apiContentBlock) string {
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			return b.Text
		}
	}
	return ""
}

// extractJSON strips markdown fences models like to wrap JSON output in.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}
	if start := strings.Index(text, "{"); start > 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return text
}

func (c *Client) syntheticDeck(req Request, start time.Time) *deckjson.Deck {
	seed := deterministicSeed(req.JobID, req.ProjectName, req.UserPrompt, req.Locale)
	deck := buildSyntheticDeck(req, seed)
	deck.Metadata = deckjson.Metadata{
		Model:       c.model,
		DurationMs:  time.Since(start).Milliseconds(),
		GeneratedAt: time.Now().UTC(),
	}

	c.logger.Debug().
		Str("job_id", req.JobID).
		Str("model", c.model).
		Int("slides", deck.SlideCount()).
		Msg("textgen: generated synthetic deck")
	return deck
}

func deterministicSeed(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
