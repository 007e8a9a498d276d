package lyrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"localify/internal/config"
	"localify/pkg/models"

	"github.com/sirupsen/logrus"
)

// Client talks to the generative-AI service that supplies lyrics and
// descriptive tags for songs. Failures are logged and reported as "no data
// found"; they are never surfaced as a distinct error state.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
	model      string
	apiKey     string
}

// NewClient builds a lyrics/tag client from config. The API key comes from
// the LOCALIFY_AI_API_KEY environment variable (a .env file is honored via
// config loading). Returns nil when the feature is disabled or no key is
// configured; a nil client safely reports no data.
func NewClient(cfg *config.LyricsConfig, logger *logrus.Logger) *Client {
	if !cfg.Enabled {
		return nil
	}

	apiKey := os.Getenv("LOCALIFY_AI_API_KEY")
	if apiKey == "" {
		logger.Warn("LOCALIFY_AI_API_KEY not set, lyrics and tagging disabled")
		return nil
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger:  logger,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  apiKey,
	}
}

// generateContent request/response shapes for the AI service.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Structured response schemas sent with each request so the service
// replies with parseable JSON.
var lyricsSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"plainLyrics": {"type": "STRING", "description": "The full, unsynchronized lyrics of the song as a single string with newline characters."},
		"syncedLyrics": {"type": "STRING", "description": "The synchronized lyrics in LRC format (e.g., [mm:ss.xx]Lyric line). If not available, this should be an empty string."},
		"isExplicit": {"type": "BOOLEAN", "description": "Whether the song contains explicit content."}
	},
	"required": ["plainLyrics", "syncedLyrics", "isExplicit"]
}`)

var tagsSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"genres": {"type": "ARRAY", "description": "A list of musical genres for this song (e.g., 'Pop', 'Indie Rock', 'Synthwave').", "items": {"type": "STRING"}},
		"moods": {"type": "ARRAY", "description": "A list of moods or feelings this song evokes (e.g., 'energetic', 'calm', 'workout', 'focus', 'late night', 'upbeat', 'sad', 'happy').", "items": {"type": "STRING"}},
		"styles": {"type": "ARRAY", "description": "A list of musical styles or characteristics (e.g., 'acoustic', 'electronic', 'instrumental', 'lo-fi').", "items": {"type": "STRING"}}
	},
	"required": ["genres", "moods"]
}`)

type lyricsResponse struct {
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
	IsExplicit   bool   `json:"isExplicit"`
}

// FetchLyrics asks the AI service for lyrics for a song. Returns nil on any
// failure or when nothing was found.
func (c *Client) FetchLyrics(ctx context.Context, title, artist string) *models.LyricsData {
	if c == nil {
		return nil
	}

	prompt := fmt.Sprintf("Find lyrics for the song %q by %q. Provide plain lyrics, LRC formatted synced lyrics if available, and determine if it's explicit.", title, artist)

	var parsed lyricsResponse
	if !c.generate(ctx, prompt, lyricsSchema, &parsed) {
		return nil
	}

	return &models.LyricsData{
		PlainLyrics:  parsed.PlainLyrics,
		SyncedLyrics: ParseLRC(parsed.SyncedLyrics),
		IsExplicit:   parsed.IsExplicit,
	}
}

// AnalyzeTags asks the AI service for genre/mood/style tags. Returns nil on
// any failure or invalid response.
func (c *Client) AnalyzeTags(ctx context.Context, title, artist, album string) *models.SongTags {
	if c == nil {
		return nil
	}

	prompt := fmt.Sprintf("Analyze the song %q by %q from the album %q. Based on this information, provide relevant tags for genre, mood, and style.", title, artist, album)

	var tags models.SongTags
	if !c.generate(ctx, prompt, tagsSchema, &tags) {
		return nil
	}

	if tags.Genres == nil || tags.Moods == nil {
		c.logger.WithField("title", title).Warn("Tag response missing required fields")
		return nil
	}
	return &tags
}

// generate performs one generateContent call and unmarshals the structured
// JSON reply into dst. Returns false on any failure.
func (c *Client) generate(ctx context.Context, prompt string, schema json.RawMessage, dst interface{}) bool {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal AI request")
		return false
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.logger.WithError(err).Error("Failed to create AI request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("AI request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("AI service returned non-OK status")
		return false
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		c.logger.WithError(err).Warn("Failed to decode AI response")
		return false
	}

	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		c.logger.Warn("AI response contained no candidates")
		return false
	}

	text := gen.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		c.logger.WithError(err).Warn("AI response text is not valid JSON")
		return false
	}
	return true
}
