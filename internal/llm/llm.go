// Package llm talks to an OpenAI-compatible chat completion API and holds
// the prompt catalogue used by the idea workflows.
//
// TWO HALVES:
//
//	prompts.go  → what to ask: prompts.yaml, embedded, optionally
//	              overridden per entry by PROMPTS_FILE
//	openai.go   → how to ask: go-openai, one span per call
//
// Services only see the Completer interface. Tests script it with a map
// from workflow name to canned answer; nothing in the test suite reaches
// the network.
//
// TIERS:
// A prompt picks a tier instead of a model name. "fast" serves the short
// extraction jobs (titles, questions, tasks), "chat" serves the
// conversational ones. LLM_MODEL and LLM_CHAT_MODEL map tiers to models,
// so switching providers never touches the catalogue.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by every call when no API key was provided.
var ErrNotConfigured = errors.New("llm: completion API is not configured")

// ErrEmptyResponse is returned when the API answers without any content.
var ErrEmptyResponse = errors.New("llm: empty completion")

// Tier selects which configured model serves a prompt.
type Tier string

const (
	TierFast Tier = "fast"
	TierChat Tier = "chat"
)

// Request is one rendered prompt, ready to send.
type Request struct {
	// Name is the workflow the prompt belongs to. It labels logs and spans.
	Name   string
	Tier   Tier
	System string
	User   string
}

// Completer is the subset of the completion API the services depend on.
type Completer interface {
	// Complete returns the model's free-text answer.
	Complete(ctx context.Context, req Request) (string, error)
	// CompleteJSON asks for output matching the JSON schema derived from
	// out's type and decodes the answer into out.
	CompleteJSON(ctx context.Context, req Request, schemaName string, out any) error
}
