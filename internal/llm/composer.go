package llm

import (
	"context"
	"fmt"
	"strings"
)

// promptSnippetLimit bounds per-source snippet length in constructed prompts.
const promptSnippetLimit = 500

// Source is one numbered context source handed to the composer.
type Source struct {
	URL     string
	Snippet string
}

// Composer turns a question plus numbered sources into an answer.
// Implementations may call an external model or compose locally.
type Composer interface {
	Compose(ctx context.Context, question string, sources []Source) (string, error)
}

// NewComposer selects a composer by backend name. Unknown backends fall back
// to the local dummy composer so the pipeline works without any external LLM.
func NewComposer(backend string, client *Client) Composer {
	if strings.ToLower(backend) == "chat" && client != nil {
		return &ChatComposer{client: client}
	}
	return DummyComposer{}
}

// BuildPrompt formats the question and numbered sources into a single prompt.
// Snippets are clipped to keep the prompt bounded regardless of chunk size.
func BuildPrompt(question string, sources []Source) string {
	numbered := make([]string, 0, len(sources))
	for i, s := range sources {
		clip := Clip(strings.TrimSpace(s.Snippet), promptSnippetLimit)
		numbered = append(numbered, fmt.Sprintf("[%d] %s\n(%s)", i+1, clip, s.URL))
	}
	block := "[1] (no context provided)"
	if len(numbered) > 0 {
		block = strings.Join(numbered, "\n\n")
	}
	return "You are a careful assistant. Using only the information in the numbered sources, " +
		"answer the question concisely in 2-6 sentences. Cite sources inline like [1], [2]. " +
		"If the sources are insufficient, say you don't know.\n\n" +
		fmt.Sprintf("Question: %s\n\nSources:\n%s\n", question, block)
}

// DummyComposer stitches a short answer from the first snippet with inline
// citations. It exists so the full pipeline runs without any external model.
type DummyComposer struct{}

// Compose returns a trivial synthesis of the lead snippet citing at most the
// first three sources.
func (DummyComposer) Compose(_ context.Context, _ string, sources []Source) (string, error) {
	if len(sources) == 0 {
		return "I don't know based on the available sources.", nil
	}
	used := len(sources)
	if used > 3 {
		used = 3
	}
	cites := make([]string, used)
	for i := range cites {
		cites[i] = fmt.Sprintf("[%d]", i+1)
	}
	lead := Clip(strings.TrimSpace(sources[0].Snippet), 240)
	return fmt.Sprintf("%s %s", lead, strings.Join(cites, " ")), nil
}

// ChatComposer generates answers through the chat completions client.
type ChatComposer struct {
	client *Client
}

// Compose builds the citation prompt and asks the chat backend to answer.
func (c *ChatComposer) Compose(ctx context.Context, question string, sources []Source) (string, error) {
	answer, err := c.client.Chat(ctx, BuildPrompt(question, sources))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return answer, nil
}

// Clip truncates s to at most limit runes, appending an ellipsis when
// truncation occurred.
func Clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
