// Package ai implements the completion service client used to generate
// replies. It translates the composer's ordered role/content list into a
// genai request and extracts the text result.
package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Roles used in composed prompt messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one ordered role/content pair of a completion request.
type Message struct {
	Role    string
	Content string
}

// Request is the full payload for a single completion call: the model name,
// the ordered message list, and the fixed sampling parameters. All values
// are deployment configuration, not user data.
type Request struct {
	Model            string
	Messages         []Message
	MaxOutputTokens  int32
	Temperature      float32
	TopP             float32
	PresencePenalty  float32
	FrequencyPenalty float32
}

// Client performs a single completion attempt. Implementations do not retry;
// the caller decides the failure policy.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type genaiClient struct {
	client *genai.Client
	log    *slog.Logger
}

// NewClient creates a completion client backed by the genai SDK.
func NewClient(ctx context.Context, apiKey string, log *slog.Logger) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "ai_client")
	logger.Info("Completion client initialized")
	return &genaiClient{client: gc, log: logger}, nil
}

// Complete performs one completion call. System messages are folded into the
// system instruction in order; user and assistant messages become the
// conversation contents. Assistant turns map to the model role, everything
// else to the user role.
func (c *genaiClient) Complete(ctx context.Context, req Request) (string, error) {
	c.log.DebugContext(ctx, "Requesting completion", "model", req.Model, "message_count", len(req.Messages))

	var systemParts []*genai.Part
	var contents []*genai.Content

	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: m.Content})
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	temperature := req.Temperature
	topP := req.TopP
	presencePenalty := req.PresencePenalty
	frequencyPenalty := req.FrequencyPenalty

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  req.MaxOutputTokens,
		Temperature:      &temperature,
		TopP:             &topP,
		PresencePenalty:  &presencePenalty,
		FrequencyPenalty: &frequencyPenalty,
	}
	if len(systemParts) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: systemParts}
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Completion call failed", "error", err)
		return "", fmt.Errorf("completion call failed: %w", err)
	}

	return c.extractText(ctx, resp)
}

func (c *genaiClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Completion request blocked", "reason", reason)
		return "", fmt.Errorf("completion blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Completion response missing content", "finish_reason", finishReason)
		return "", fmt.Errorf("completion returned no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("completion returned empty text")
	}

	return text, nil
}
