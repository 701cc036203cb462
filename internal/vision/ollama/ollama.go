package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/mealledger/internal/vision"
)

type OllamaRecognizer struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaRecognizer(host, model string) *OllamaRecognizer {
	return &OllamaRecognizer{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (a *OllamaRecognizer) RecognizeImage(ctx context.Context, r io.Reader, mimeType string) ([]byte, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return a.generate(ctx, map[string]interface{}{
		"model":  a.model,
		"prompt": vision.MultiItemPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(imageData)},
		"format": "json",
		"stream": false,
	})
}

func (a *OllamaRecognizer) EstimateText(ctx context.Context, description string) ([]byte, error) {
	return a.generate(ctx, map[string]interface{}{
		"model":  a.model,
		"prompt": vision.SingleEstimatePrompt(description),
		"format": "json",
		"stream": false,
	})
}

func (a *OllamaRecognizer) generate(ctx context.Context, reqBody map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return []byte(respBody.Response), nil
}
