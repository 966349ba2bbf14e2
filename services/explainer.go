package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"
)

const explainSystemPrompt = "You are a procurement analyst. In at most two sentences, explain to a buyer why a quoted unit price may be above the expected price and what to check with the vendor. Do not invent facts."

// chatCompleter is the part of the OpenAI client the explainer uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExplainer asks a chat model for a short explanation of a flagged price.
// Requests are rate limited; a request that cannot get a token before the caller's
// deadline fails.
type OpenAIExplainer struct {
	client  chatCompleter
	model   string
	limiter *rate.Limiter
	printer *message.Printer
}

// NewOpenAIExplainer returns a nil Explainer when apiKey is empty, so callers can pass
// the result straight to the engine.
func NewOpenAIExplainer(apiKey, model string, perMinute int) Explainer {
	if apiKey == "" {
		log.Printf("OPENAI_API_KEY not set, anomaly explanations disabled")
		return nil
	}
	return newOpenAIExplainer(openai.NewClient(apiKey), model, perMinute)
}

func newOpenAIExplainer(client chatCompleter, model string, perMinute int) *OpenAIExplainer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if perMinute <= 0 {
		perMinute = 30
	}
	log.Printf("Initializing OpenAI explainer with model %s (%d req/min)", model, perMinute)
	return &OpenAIExplainer{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		printer: message.NewPrinter(language.English),
	}
}

func (o *OpenAIExplainer) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("explainer rate limit: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: explainSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: o.prompt(req)},
		},
		MaxCompletionTokens: 120,
		Temperature:         0.2,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAIExplainer) prompt(req ExplainRequest) string {
	name := req.ItemName
	if name == "" {
		name = req.ItemID
	}
	return o.printer.Sprintf(
		"Item: %s\nExpected unit price: %.2f\nQuoted unit price: %.2f\nDeviation: %.1f%%\nSeverity: %s",
		name,
		req.ExpectedPrice.InexactFloat64(),
		req.ActualPrice.InexactFloat64(),
		req.Deviation.InexactFloat64()*100,
		req.Severity,
	)
}
