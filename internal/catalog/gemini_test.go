// internal/catalog/gemini_test.go
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func geminiReply(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]interface{}{"text": text}},
				},
			},
		},
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotBody, _ = io.ReadAll(r.Body)

		reply := "Here you go:\n```json\n{\"id\": \"clockmaker\", \"name\": \"Clockmaker\", \"theme\": \"Gears and pendulums\", \"emoji\": \"🕰️\"}\n```"
		_ = json.NewEncoder(w).Encode(geminiReply(reply))
	}))
	defer srv.Close()

	g := NewGeminiGenerator(GeminiConfig{APIKey: "secret", BaseURL: srv.URL, Model: "test-model"})
	f, err := g.Generate(context.Background(), []string{"baker", "pirate"})
	require.NoError(t, err)

	assert.Equal(t, "clockmaker", f.ID)
	assert.Equal(t, "Clockmaker", f.Name)
	assert.Equal(t, "Gears and pendulums", f.Theme)
	assert.Equal(t, "🕰️", f.Emoji)
	assert.Empty(t, f.Color, "colors are assigned by the catalog")

	assert.Equal(t, "/test-model:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	prompt := gjson.GetBytes(gotBody, "contents.0.parts.0.text").String()
	assert.Contains(t, prompt, "baker, pirate")
	assert.Equal(t, 256.0, gjson.GetBytes(gotBody, "generationConfig.maxOutputTokens").Float())
}

func TestGeminiGenerateErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}},
		{"no candidates", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates": []}`))
		}},
		{"no json in text", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(geminiReply("I cannot help with that."))
		}},
		{"missing name", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(geminiReply(`{"id": "ghost"}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			g := NewGeminiGenerator(GeminiConfig{APIKey: "k", BaseURL: srv.URL})
			_, err := g.Generate(context.Background(), nil)
			assert.Error(t, err)
		})
	}
}

func TestParseFamilyReplyRejectsBrokenJSON(t *testing.T) {
	_, err := parseFamilyReply(`{"id": "x", "name": }`)
	assert.ErrorIs(t, err, ErrNoFamilyInReply)
}
