// internal/catalog/gemini.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/tidwall/gjson"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// ErrNoFamilyInReply is returned when the model answered without a usable family object.
var ErrNoFamilyInReply = errors.New("no family found in model reply")

// GeminiConfig configures the generateContent endpoint and HTTP behavior.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// GeminiGenerator invents new families through the Gemini generateContent API.
type GeminiGenerator struct {
	cfg GeminiConfig
}

// NewGeminiGenerator builds a generator, filling in the public endpoint and model when unset.
func NewGeminiGenerator(cfg GeminiConfig) *GeminiGenerator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &GeminiGenerator{cfg: cfg}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// Generate asks the model for one family that does not collide with existingIDs.
// The returned family has no color; the catalog assigns one.
func (g *GeminiGenerator) Generate(ctx context.Context, existingIDs []string) (models.Family, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: familyPrompt(existingIDs)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.9,
			MaxOutputTokens: 256,
			TopK:            40,
			TopP:            0.95,
		},
	})
	if err != nil {
		return models.Family{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model, url.QueryEscape(g.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Family{}, fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return models.Family{}, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Family{}, fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Family{}, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	text := gjson.GetBytes(payload, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return models.Family{}, ErrNoFamilyInReply
	}
	return parseFamilyReply(text)
}

// parseFamilyReply extracts the first {...} object from free-form model output.
func parseFamilyReply(text string) (models.Family, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.Family{}, ErrNoFamilyInReply
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return models.Family{}, fmt.Errorf("%w: invalid JSON", ErrNoFamilyInReply)
	}

	obj := gjson.Parse(raw)
	f := models.Family{
		ID:    strings.TrimSpace(obj.Get("id").String()),
		Name:  strings.TrimSpace(obj.Get("name").String()),
		Theme: strings.TrimSpace(obj.Get("theme").String()),
		Emoji: strings.TrimSpace(obj.Get("emoji").String()),
	}
	if f.Name == "" {
		return models.Family{}, fmt.Errorf("%w: missing name", ErrNoFamilyInReply)
	}
	return f, nil
}

func familyPrompt(existingIDs []string) string {
	existing := "There are no existing families yet."
	if len(existingIDs) > 0 {
		existing = "Existing families to avoid: " + strings.Join(existingIDs, ", ")
	}
	return `You design families for a Happy Families card game.
Invent ONE new, original family for the deck.

` + existing + `

The family must be:
- a trade, a profession or an appealing theme
- easy to illustrate in a vintage, retro or whimsical style
- different from the existing families
- suitable for all ages

Reply ONLY with valid JSON in exactly this format:
{
  "id": "simple_identifier_without_accents",
  "name": "Family Name",
  "theme": "Short description of the theme for the illustrator",
  "emoji": "one emoji"
}

Good examples: Astronaut, Magician, Pirate, Inventor, Explorer, Chocolatier, Clockmaker, Acrobat, Detective, Photographer, Pilot, Librarian, Beekeeper...`
}
