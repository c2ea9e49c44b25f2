// Package engine runs the conversational question-answering pipeline:
// rewrite the utterance into a standalone query using session history,
// retrieve supporting chunks, assemble the tagged context, and generate a
// grounded answer with source citations.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
	"github.com/docuchat/medreview/internal/metrics"
	"github.com/docuchat/medreview/internal/session"
)

// ContextRetriever supplies chunks relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Chunk, error)
}

// Answer is the result of one conversational turn.
type Answer struct {
	Text    string
	Sources []string
}

// Engine ties the retriever, the generator and the session store into the
// per-turn pipeline. Sessions are independent; history grows only with the
// raw utterance and the final answer.
type Engine struct {
	retriever ContextRetriever
	generator domain.Generator
	sessions  *session.Store
	logger    *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(retriever ContextRetriever, generator domain.Generator, sessions *session.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		logger:    logger,
	}
}

// Ask answers one utterance within the given session and records the turn.
// A failed turn leaves the session history untouched.
func (e *Engine) Ask(ctx context.Context, sessionKey, utterance string) (Answer, error) {
	if strings.TrimSpace(utterance) == "" {
		return Answer{}, fmt.Errorf("%w: empty utterance", domain.ErrInvalidArgument)
	}

	log := e.logger.With(zap.String("session", sessionKey))
	log.Debug("turn received", zap.String("stage", "received"))

	history := e.history(sessionKey)
	query := e.rewrite(ctx, log, history, utterance)
	log.Debug("query rewritten", zap.String("stage", "rewritten"), zap.String("query", query))

	chunks, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}
	log.Debug("context retrieved", zap.String("stage", "retrieved"), zap.Int("chunks", len(chunks)))

	contextBlock := domain.FormatContext(chunks)
	sources := domain.SourceList(chunks)
	log.Debug("context assembled", zap.String("stage", "context_built"), zap.Int("sources", len(sources)))

	prompt := fmt.Sprintf(answerPromptFormat, query, contextBlock)
	res, err := e.generator.Generate(ctx, answerSystemPrompt, history, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	log.Debug("turn answered", zap.String("stage", "answered"))

	e.sessions.Append(sessionKey, utterance, res.Text)

	return Answer{Text: res.Text, Sources: sources}, nil
}

// rewrite condenses the utterance and the session history into a standalone
// query. The first turn has no history to fold in, so the model round trip
// is skipped. A failed or empty rewrite falls back to the raw utterance.
func (e *Engine) rewrite(ctx context.Context, log *zap.Logger, history []domain.Message, utterance string) string {
	if len(history) == 0 {
		return utterance
	}

	res, err := e.generator.Generate(ctx, rewriteSystemPrompt, history, utterance)
	if err != nil {
		metrics.RewriteFallbacksTotal.Inc()
		log.Warn("query rewrite failed, using raw utterance", zap.Error(err))
		return utterance
	}
	rewritten := strings.TrimSpace(res.Text)
	if rewritten == "" {
		metrics.RewriteFallbacksTotal.Inc()
		log.Warn("query rewrite returned empty output, using raw utterance")
		return utterance
	}
	return rewritten
}

func (e *Engine) history(sessionKey string) []domain.Message {
	turns := e.sessions.History(sessionKey)
	if len(turns) == 0 {
		return nil
	}
	msgs := make([]domain.Message, 0, len(turns)*2)
	for _, t := range turns {
		msgs = append(msgs,
			domain.Message{Role: domain.RoleUser, Content: t.User},
			domain.Message{Role: domain.RoleAssistant, Content: t.Assistant},
		)
	}
	return msgs
}
