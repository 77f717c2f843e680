package domain

import (
	"context"
	"fmt"
)

// Message roles understood by the assistant.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of an assistant conversation.
type Message struct {
	Role    string
	Content string
}

// Completion is the assistant reply with token usage.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Assistant is the shared chat completion contract between layers.
type Assistant interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// InstructionAssistant is a domain decorator that prepends a system instruction to every conversation.
type InstructionAssistant struct {
	inner       Assistant
	instruction string
}

// NewInstructionAssistant creates a decorator that prepends a system instruction.
func NewInstructionAssistant(inner Assistant, instruction string) *InstructionAssistant {
	return &InstructionAssistant{inner: inner, instruction: instruction}
}

// Complete prepends the instruction and delegates to the inner assistant.
// A conversation that already starts with a system message keeps it after the instruction.
func (a *InstructionAssistant) Complete(ctx context.Context, messages []Message) (Completion, error) {
	msgs := messages
	if a.instruction != "" {
		msgs = make([]Message, 0, len(messages)+1)
		msgs = append(msgs, Message{Role: RoleSystem, Content: a.instruction})
		msgs = append(msgs, messages...)
	}
	c, err := a.inner.Complete(ctx, msgs)
	if err != nil {
		return Completion{}, fmt.Errorf("instruction complete: %w", err)
	}
	return c, nil
}

// HealthCheck delegates to the inner assistant when it supports health checks.
func (a *InstructionAssistant) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
