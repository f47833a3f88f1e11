package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Turn is one prior conversational exchange forwarded as context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized payload sent to a text-generation backend.
type Request struct {
	SessionID    string   `json:"session_id"`
	InputText    string   `json:"input_text"`
	Intent       string   `json:"intent,omitempty"`
	ContextParts []string `json:"context,omitempty"`
	History      []Turn   `json:"history,omitempty"`
}

// Response is the generated reply.
type Response struct {
	Text string `json:"text"`
}

// Generator produces a reply for unmatched or deferred queries.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Config controls generator construction.
type Config struct {
	Mode          string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	HTTPURL       string
	Timeout       time.Duration
}

// New builds a generator for the configured mode. "auto" prefers OpenAI
// when a key is present, then a generic HTTP backend, then the mock.
func New(cfg Config) (Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
		}
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPGenerator(cfg.HTTPURL, cfg.Timeout), nil
		}
		return NewMockGenerator(), nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, errors.New("OpenAI API key is required for openai mode")
		}
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("generator HTTP url is required for http mode")
		}
		return NewHTTPGenerator(cfg.HTTPURL, cfg.Timeout), nil
	case "mock":
		return NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported generator mode %q", cfg.Mode)
	}
}

// SystemPrompt positions the model as the TruePass support assistant.
const SystemPrompt = `You are the official AI assistant for TruePass, an NFT marketplace and blockchain ticket validation platform.

TruePass combines NFT trading with TOTP-based ticket validation. Users buy NFTs and tickets using Indian Rupees through UPI, Paytm, cards and net banking; payments are converted to ETH behind the scenes.

Your expertise covers the NFT marketplace, blockchain ticket generation and validation, INR payment processing, wallet connections, and onboarding new users to crypto.

Be warm and patient, explain blockchain concepts in simple language, give numbered step-by-step instructions, and prioritize user security. Use Indian context (INR, UPI) when relevant. Start with a brief direct answer, then details.`

// BuildPrompt renders the system prompt plus per-request context.
func BuildPrompt(req Request) string {
	if len(req.ContextParts) == 0 && req.Intent == "" {
		return SystemPrompt
	}
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\nCURRENT CONTEXT:\n")
	if req.Intent != "" {
		fmt.Fprintf(&b, "User intent detected: %s\n", req.Intent)
	}
	for _, part := range req.ContextParts {
		b.WriteString(part)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
