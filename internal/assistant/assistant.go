// Package assistant bridges the storefront conversation to an external
// recommendation model.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eventhorizon/internal/status"
	"eventhorizon/models"
	"eventhorizon/utils"
)

const (
	Greeting = "E aí! Qual a boa de hoje?"

	FallbackUnavailable = "Desculpe, não consigo me conectar ao serviço de IA no momento. Verifique sua configuração."
	FallbackError       = "Estou com dificuldades para pensar agora. Por favor, tente novamente mais tarde."
	FallbackEmpty       = "Não encontrei uma correspondência exata, mas todos os nossos eventos são ótimos!"

	DefaultTimeout = 60 * time.Second
)

// Outcomes reported to the Observer.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeEmpty       = "empty"
)

// Recommender answers a query given the concierge instructions. It returns
// status.ErrAssistantUnavailable when it has no credential.
type Recommender interface {
	Recommend(ctx context.Context, instructions, query string) (string, error)
}

type Observer interface {
	ObserveAssistant(outcome string, elapsed time.Duration)
}

type Bridge struct {
	recommender  Recommender
	instructions string
	guard        Guard
	local        *LocalGuard
	breaker      *utils.CircuitBreaker
	timeout      time.Duration
	observer     Observer
	logger       *slog.Logger

	mu      sync.Mutex
	history []models.ChatMessage
}

type Option func(*Bridge)

func WithGuard(g Guard) Option { return func(b *Bridge) { b.guard = g } }

// WithTimeout bounds each recommender call; zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(b *Bridge) { b.timeout = d } }

func WithBreaker(cb *utils.CircuitBreaker) Option { return func(b *Bridge) { b.breaker = cb } }

func WithObserver(o Observer) Option { return func(b *Bridge) { b.observer = o } }

func WithLogger(l *slog.Logger) Option { return func(b *Bridge) { b.logger = l } }

// NewBridge starts a conversation holding only the greeting. The concierge
// instructions are built once from events.
func NewBridge(rec Recommender, events []models.Event, opts ...Option) *Bridge {
	b := &Bridge{
		recommender:  rec,
		instructions: BuildInstructions(events),
		local:        &LocalGuard{},
		breaker:      utils.NewCircuitBreaker("assistant", utils.DefaultBreakerSettings),
		timeout:      DefaultTimeout,
		logger:       slog.Default(),
		history:      []models.ChatMessage{{Role: models.RoleAssistant, Text: Greeting}},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.guard == nil {
		b.guard = b.local
	}
	return b
}

// Ask appends the query and the reply to the conversation and returns the
// reply. Recommender failures become fallback replies; only an empty query or
// a busy slot are returned as errors.
func (b *Bridge) Ask(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", status.ErrEmptyQuery
	}

	release, err := b.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	b.append(models.RoleUser, query)

	start := time.Now()
	reply, outcome := b.recommend(ctx, query)
	if b.observer != nil {
		b.observer.ObserveAssistant(outcome, time.Since(start))
	}

	b.append(models.RoleAssistant, reply)
	return reply, nil
}

// acquire takes the shared slot, falling back to the in-process one when the
// shared guard itself fails.
func (b *Bridge) acquire(ctx context.Context) (func(), error) {
	release, err := b.guard.Acquire(ctx)
	if err == nil || errors.Is(err, status.ErrAssistantBusy) {
		return release, err
	}
	b.logger.Warn("assistant guard unavailable, using in-process slot", "error", err)
	return b.local.Acquire(ctx)
}

func (b *Bridge) recommend(ctx context.Context, query string) (string, string) {
	if b.recommender == nil {
		return FallbackUnavailable, OutcomeUnavailable
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	var (
		text        string
		unavailable bool
	)
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		text, err = b.recommender.Recommend(ctx, b.instructions, query)
		if errors.Is(err, status.ErrAssistantUnavailable) {
			unavailable = true
			return nil
		}
		return err
	})

	switch {
	case unavailable:
		return FallbackUnavailable, OutcomeUnavailable
	case err != nil:
		b.logger.Error("assistant recommendation failed", "error", err, "breaker", b.breaker.State().String())
		return FallbackError, OutcomeError
	case strings.TrimSpace(text) == "":
		return FallbackEmpty, OutcomeEmpty
	}
	return text, OutcomeOK
}

func (b *Bridge) append(role models.ChatRole, text string) {
	b.mu.Lock()
	b.history = append(b.history, models.ChatMessage{Role: role, Text: text})
	b.mu.Unlock()
}

// History returns a copy of the conversation, oldest first.
func (b *Bridge) History() []models.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.ChatMessage(nil), b.history...)
}

func (b *Bridge) Instructions() string { return b.instructions }
