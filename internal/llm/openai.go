package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("llm")

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	ChatModel string
	Timeout   time.Duration
}

// Client implements Completer on top of go-openai.
type Client struct {
	api        *openai.Client
	models     map[Tier]string
	configured bool
	logger     *slog.Logger
}

var _ Completer = (*Client)(nil)

// NewClient always returns a usable client. Without an API key every call
// fails with ErrNotConfigured so the rest of the application still runs.
func NewClient(opts Options, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &Client{
		api: openai.NewClientWithConfig(cfg),
		models: map[Tier]string{
			TierFast: opts.Model,
			TierChat: opts.ChatModel,
		},
		configured: opts.APIKey != "",
		logger:     logger,
	}
}

func (c *Client) model(tier Tier) string {
	if m, ok := c.models[tier]; ok && m != "" {
		return m
	}
	return c.models[TierFast]
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	return c.complete(ctx, "llm.Complete", req, nil)
}

// CompleteJSON asks for structured output shaped like out.
//
// STRUCTURED OUTPUT:
// The JSON schema is generated from out's Go type by reflection, so the
// struct the service decodes into is the single source of truth:
//
//	type questionsOutput struct {
//	    Questions []struct {
//	        Text string `json:"text"`
//	    } `json:"questions"`
//	}
//
// becomes {"type":"object","properties":{"questions":{"type":"array",...}},
// "required":["questions"],"additionalProperties":false}. With Strict set,
// the API only returns documents that validate against it.
//
// Some OpenAI-compatible servers ignore response_format and wrap the JSON
// in a markdown fence anyway; trimCodeFence takes care of those.
func (c *Client) CompleteJSON(ctx context.Context, req Request, schemaName string, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(reflect.Indirect(reflect.ValueOf(out)).Interface())
	if err != nil {
		return fmt.Errorf("llm: building schema %s: %w", schemaName, err)
	}

	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schemaName,
			Schema: schema,
			Strict: true,
		},
	}

	content, err := c.complete(ctx, "llm.CompleteJSON", req, format)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(trimCodeFence(content)), out); err != nil {
		return fmt.Errorf("llm: decoding %s response: %w", schemaName, err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, spanName string, req Request, format *openai.ChatCompletionResponseFormat) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	model := c.model(req.Tier)
	ctx, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("llm.workflow", req.Name),
		attribute.String("llm.model", model),
		attribute.Int("llm.prompt_chars", len(req.System)+len(req.User)),
	))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: format,
	})
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		c.logger.Error("completion failed", "workflow", req.Name, "model", model, "duration", elapsed, "error", err)
		return "", fmt.Errorf("llm: %s: %w", req.Name, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		span.SetStatus(codes.Error, "empty completion")
		c.logger.Error("completion returned no content", "workflow", req.Name, "model", model)
		return "", fmt.Errorf("llm: %s: %w", req.Name, ErrEmptyResponse)
	}

	span.SetAttributes(attribute.Int("llm.total_tokens", resp.Usage.TotalTokens))
	c.logger.Debug("completion done", "workflow", req.Name, "model", model, "duration", elapsed,
		"tokens", resp.Usage.TotalTokens)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// trimCodeFence strips a ```json fence some compatible servers wrap
// structured output in.
func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
