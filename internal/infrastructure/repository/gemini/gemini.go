package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fxgdesigns1/cohost/internal/domain/reply"
	"github.com/fxgdesigns1/cohost/internal/domain/tenant"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemPromptBase = `You are an AI co-host for Airbnb. Always be concise, friendly, and professional.
Never commit to refunds, discounts, or rule exceptions. If asked about them, recommend escalation to the host.
Use British English and local time. If you don't know, ask a brief clarifying question.`

type geminiRepo struct {
	client    *genai.Client
	modelName string
}

var _ reply.Generator = (*geminiRepo)(nil)

func NewGeminiRepo(ctx context.Context, apiKey, modelName string) (reply.Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiRepo{
		client:    client,
		modelName: modelName,
	}, nil
}

func buildSystemPrompt(cfg *tenant.ListingConfig) string {
	parts := []string{
		systemPromptBase,
		fmt.Sprintf("Check-in after: %s", cfg.CheckInAfter),
		fmt.Sprintf("Check-out before: %s", cfg.CheckOutBefore),
		fmt.Sprintf("Wi-Fi: SSID %s, Password %s", cfg.WifiSSID, cfg.WifiPassword),
		fmt.Sprintf("Parking: %s", cfg.ParkingNotes),
	}
	if cfg.Tone != "" {
		parts = append(parts, fmt.Sprintf("Tone: %s", cfg.Tone))
	}
	return strings.Join(parts, "\n")
}

func (r *geminiRepo) Generate(ctx context.Context, messageText string, cfg *tenant.ListingConfig, guestName string) (string, error) {
	if cfg == nil {
		cfg = tenant.DefaultListingConfig()
	}
	if guestName == "" {
		guestName = "there"
	}

	model := r.client.GenerativeModel(r.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(buildSystemPrompt(cfg))},
	}
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(256)

	prompt := fmt.Sprintf("Guest (%s) asked:\n%s\n\nReply in 1-4 concise sentences.", guestName, messageText)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", reply.ErrGeneration, err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", reply.ErrGeneration)
	}

	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
