package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/mealledger/internal/vision"
)

// maxTokens comfortably fits a JSON array for a crowded plate (~20 foods).
const maxTokens = 2048

type ClaudeRecognizer struct {
	client *anthropic.Client
	model  string
}

// NewClaudeRecognizer builds a recognizer for the Anthropic Messages API.
// opts are passed to the SDK client, e.g. anthropic.WithBaseURL in tests.
func NewClaudeRecognizer(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeRecognizer {
	return &ClaudeRecognizer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// RecognizeImage returns the model's multi-item JSON for a food photo.
func (c *ClaudeRecognizer) RecognizeImage(ctx context.Context, r io.Reader, mimeType string) ([]byte, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	msg := anthropic.Message{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				normaliseMIME(mimeType),
				base64.StdEncoding.EncodeToString(imageData),
			)),
			anthropic.NewTextMessageContent(vision.MultiItemPrompt),
		},
	}
	return c.complete(ctx, msg)
}

// EstimateText returns the model's single-estimate JSON for a description.
func (c *ClaudeRecognizer) EstimateText(ctx context.Context, description string) ([]byte, error) {
	return c.complete(ctx, anthropic.NewUserTextMessage(vision.SingleEstimatePrompt(description)))
}

func (c *ClaudeRecognizer) complete(ctx context.Context, msg anthropic.Message) ([]byte, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{msg},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			return []byte(content.GetText()), nil
		}
	}
	return nil, fmt.Errorf("claude response contained no text")
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// Unknown types are sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
