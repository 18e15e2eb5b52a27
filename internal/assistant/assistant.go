// Package assistant answers questions from previously ingested content by
// retrieving relevant chunks and composing a cited answer over them.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"knowledge-assistant/internal/contextutil"
	"knowledge-assistant/internal/llm"
	"knowledge-assistant/internal/retriever"
)

// NoContextAnswer is returned verbatim when retrieval yields nothing.
const NoContextAnswer = "I don't know based on the available sources."

// responseSnippetLimit bounds snippet length in API responses.
const responseSnippetLimit = 300

// Source is one cited source in an answer, in citation order. Title is
// populated only when a human-readable title is known.
type Source struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Answer is the composed reply plus the sources it cites.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Retriever is the slice of the retrieval engine the service needs.
//
//go:generate mockgen -source=assistant.go -destination=mocks/mock_retriever.go -package=mocks
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int, collection string) ([]retriever.Chunk, error)
}

// Service wires retrieval and answer composition together.
type Service struct {
	retriever Retriever
	composer  llm.Composer
}

// NewService creates an answering service.
func NewService(r Retriever, c llm.Composer) *Service {
	return &Service{retriever: r, composer: c}
}

// Ask retrieves at most topK chunks for the question and composes an answer
// citing them. An empty collection searches every collection. When nothing
// relevant is indexed the service answers that it does not know, with no
// sources and no error.
func (s *Service) Ask(ctx context.Context, question string, topK int, collection string) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks, err := s.retriever.Retrieve(ctx, question, topK, collection)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(chunks) == 0 {
		logger.InfoContext(ctx, "no context retrieved", "question_len", len(question))
		return Answer{Answer: NoContextAnswer, Sources: []Source{}}, nil
	}

	prompt := make([]llm.Source, len(chunks))
	cited := make([]Source, len(chunks))
	for i, c := range chunks {
		text := strings.TrimSpace(c.Text)
		prompt[i] = llm.Source{URL: c.URL, Snippet: text}
		cited[i] = Source{URL: c.URL, Snippet: llm.Clip(text, responseSnippetLimit)}
	}

	answer, err := s.composer.Compose(ctx, question, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("answer composition failed: %w", err)
	}

	logger.InfoContext(ctx, "question answered", "sources", len(cited), "top_k", topK)
	return Answer{Answer: answer, Sources: cited}, nil
}
