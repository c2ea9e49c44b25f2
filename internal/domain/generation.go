package domain

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one utterance in a chat exchange.
type Message struct {
	Role    Role
	Content string
}

// Generator is the text-generation contract shared by the rewrite, answer,
// review and claim-extraction steps. History may be empty; System is the
// instruction that constrains the completion.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message, prompt string) (GenerationResult, error)
}

// GenerationResult carries the completion text and token usage.
type GenerationResult struct {
	Text         string
	PromptTokens int
	OutputTokens int
}
