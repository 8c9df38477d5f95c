package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kerlann/pharmatools/logging"
)

// suspiciousSystemPrompt requests a strict binary relevance classification.
const suspiciousSystemPrompt = `You are a helpful and intelligent assistant. Your task is to classify any given product as either suspicious (1) or not suspicious (0), strictly based on the product details provided by the user. A product is suspicious when it appears to offer medicinal products outside regular distribution channels. Respond only with the number 1 or 0.`

// missingFieldPlaceholder is substituted when a crawled product lacks a name
// or description, so the classifier still receives a usable prompt.
const missingFieldPlaceholder = "MISSING DATA - treat as a relevant product"

// SuspiciousClassifier flags crawled product offers through a completion call.
type SuspiciousClassifier struct {
	client Client
}

// NewSuspiciousClassifier creates a classifier backed by the given client.
func NewSuspiciousClassifier(client Client) *SuspiciousClassifier {
	return &SuspiciousClassifier{client: client}
}

// Classify returns true when the model marks the product as suspicious.
// An unexpected model reply is an error, not a silent default.
func (c *SuspiciousClassifier) Classify(ctx context.Context, name, description string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		name = missingFieldPlaceholder
	}
	if strings.TrimSpace(description) == "" {
		description = missingFieldPlaceholder
	}

	userPrompt := fmt.Sprintf("Product Details: %s\n%s\nSuspicious:", name, description)

	reply, err := c.client.Complete(ctx, suspiciousSystemPrompt, userPrompt)
	if err != nil {
		return false, fmt.Errorf("classification call failed: %w", err)
	}

	switch strings.TrimSpace(reply) {
	case "1":
		logging.Debug("Product classified as suspicious", "name", name)
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected classification reply: %q", truncate(reply, 50))
	}
}
