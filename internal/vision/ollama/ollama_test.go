package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaRecognizeImage(t *testing.T) {
	var got struct {
		Model  string   `json:"model"`
		Images []string `json:"images"`
		Format string   `json:"format"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		resp := map[string]interface{}{
			"model":    got.Model,
			"response": `[{"count":2,"name":"Egg","portionSize":"50g","totalNutrition":{"calories":140,"protein":12,"carbs":1,"fat":10}}]`,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	rec := NewOllamaRecognizer(server.URL, "llava")

	imageData := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	raw, err := rec.RecognizeImage(context.Background(), bytes.NewReader(imageData), "image/jpeg")

	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"Egg"`)
	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.Len(t, got.Images, 1)
}

func TestOllamaEstimateText(t *testing.T) {
	var got struct {
		Prompt string   `json:"prompt"`
		Images []string `json:"images"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": `{"name":"Salad","canEstimate":false}`})
	}))
	defer server.Close()

	rec := NewOllamaRecognizer(server.URL, "llama3")

	raw, err := rec.EstimateText(context.Background(), "caesar salad")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Salad","canEstimate":false}`, string(raw))
	assert.Contains(t, got.Prompt, "caesar salad")
	assert.Empty(t, got.Images)
}

func TestOllamaNetworkError(t *testing.T) {
	rec := NewOllamaRecognizer("http://localhost:99999", "llava")

	_, err := rec.EstimateText(context.Background(), "toast")
	assert.Error(t, err)
}

func TestOllamaErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := NewOllamaRecognizer(server.URL, "llava")

	_, err := rec.RecognizeImage(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.Error(t, err)
}

func TestOllamaReadError(t *testing.T) {
	rec := NewOllamaRecognizer("http://localhost:11434", "llava")

	_, err := rec.RecognizeImage(context.Background(), &failingReader{}, "image/jpeg")
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) {
	return 0, io.ErrClosedPipe
}
