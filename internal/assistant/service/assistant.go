package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	assistantmetrics "cropchain/internal/assistant/metrics"
	"cropchain/internal/assistant/models"
	"cropchain/pkg/platform/circuit"
	"cropchain/pkg/requestcontext"
)

// Assistant answers chat messages. With a model it runs at most one tool
// call per message; without one, or when the model fails, it answers from
// keyword rules. Chat never fails.
type Assistant struct {
	model    Model
	executor *Executor
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *assistantmetrics.Metrics
	timeout  time.Duration
}

type Option func(*Assistant)

// WithModel enables model answers. A nil model keeps the assistant on
// fallback replies.
func WithModel(m Model) Option {
	return func(a *Assistant) {
		a.model = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(a *Assistant) {
		a.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

func WithMetrics(m *assistantmetrics.Metrics) Option {
	return func(a *Assistant) {
		a.metrics = m
	}
}

// WithTimeout bounds both model round trips of one message together.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		a.timeout = d
	}
}

func New(batches BatchReader, opts ...Option) *Assistant {
	a := &Assistant{
		logger:  slog.Default(),
		timeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.breaker == nil {
		a.breaker = circuit.New("assistant-model", circuit.WithFailureThreshold(3), circuit.WithCooldown(30*time.Second))
	}
	a.executor = NewExecutor(batches, a.logger)
	return a
}

// ModelConfigured reports whether a model backs the assistant.
func (a *Assistant) ModelConfigured() bool {
	return a.model != nil
}

func (a *Assistant) Chat(ctx context.Context, message string) models.Reply {
	message = strings.TrimSpace(message)
	if a.model == nil {
		return a.fallback(ctx, message, "unconfigured", nil)
	}
	if !a.breaker.Allow() {
		return a.fallback(ctx, message, "circuit_open", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.converse(callCtx, message)
	if err != nil {
		if _, change := a.breaker.RecordFailure(); change.Opened {
			a.logger.WarnContext(ctx, "assistant model circuit opened",
				"breaker", a.breaker.Name(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return a.fallback(ctx, message, "model_error", err)
	}
	if _, change := a.breaker.RecordSuccess(); change.Closed {
		a.logger.InfoContext(ctx, "assistant model circuit closed", "breaker", a.breaker.Name())
	}
	if a.metrics != nil {
		a.metrics.IncrementReply("model", string(reply.FunctionCalled))
	}
	return reply
}

func (a *Assistant) converse(ctx context.Context, message string) (models.Reply, error) {
	conversation := []models.Message{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: message},
	}
	first, err := a.model.Complete(ctx, conversation, true)
	if err != nil {
		return models.Reply{}, err
	}
	if len(first.ToolCalls) == 0 {
		return models.Reply{Success: true, Message: first.Content}, nil
	}

	// Only the first tool call runs; the assistant turn is trimmed to match
	// so every offered call has a response.
	call := first.ToolCalls[0]
	first.ToolCalls = first.ToolCalls[:1]
	result := a.executor.Run(ctx, call.Name, call.Arguments)
	payload, err := json.Marshal(result)
	if err != nil {
		return models.Reply{}, err
	}

	conversation = append(conversation, first, models.Message{
		Role:       models.RoleTool,
		Content:    string(payload),
		ToolCallID: call.ID,
		Name:       call.Name,
	})
	second, err := a.model.Complete(ctx, conversation, false)
	if err != nil {
		return models.Reply{}, err
	}
	return models.Reply{
		Success:        true,
		Message:        second.Content,
		FunctionCalled: models.ToolName(call.Name),
		FunctionResult: &result,
	}, nil
}

func (a *Assistant) fallback(ctx context.Context, message, reason string, err error) models.Reply {
	if err != nil {
		a.logger.WarnContext(ctx, "assistant model failed, using fallback",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if a.metrics != nil {
		a.metrics.IncrementReply("fallback_"+reason, "")
	}
	return Fallback(message)
}
