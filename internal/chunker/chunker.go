package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

// charsPerToken approximates how many characters one lexical token spans.
// Used to scale window sizes when chunking by raw characters.
const charsPerToken = 4

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs to a single space and trims the ends.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Tokenizer splits text into lexical units and reassembles them.
type Tokenizer interface {
	Encode(text string) []string
	Decode(tokens []string) string
}

// WordTokenizer approximates lexical tokens by whitespace-delimited words.
type WordTokenizer struct{}

func (WordTokenizer) Encode(text string) []string { return strings.Fields(text) }

func (WordTokenizer) Decode(tokens []string) string { return strings.Join(tokens, " ") }

// Chunker splits cleaned text into overlapping bounded-size segments using a
// sliding window. The window is measured in tokens when a tokenizer is
// available, otherwise in characters with sizes scaled to cover a comparable
// span of text.
type Chunker struct {
	tokenizer Tokenizer
}

// New returns a chunker that measures windows with the given tokenizer.
// A nil tokenizer selects the character-based fallback strategy.
func New(tokenizer Tokenizer) *Chunker {
	return &Chunker{tokenizer: tokenizer}
}

// Chunk splits text into overlapping segments of at most maxUnits lexical
// units, each consecutive pair overlapping by overlap units. Empty or
// whitespace-only input yields no chunks. maxUnits must be strictly greater
// than overlap so the window always advances.
func (c *Chunker) Chunk(text string, maxUnits, overlap int) ([]string, error) {
	if maxUnits <= 0 || overlap < 0 {
		return nil, fmt.Errorf("invalid chunk sizes: maxUnits=%d overlap=%d", maxUnits, overlap)
	}
	if maxUnits <= overlap {
		return nil, fmt.Errorf("maxUnits (%d) must be greater than overlap (%d)", maxUnits, overlap)
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, nil
	}

	if c.tokenizer == nil {
		return chunkByChars(cleaned, maxUnits*charsPerToken, overlap*charsPerToken), nil
	}
	return c.chunkByTokens(cleaned, maxUnits, overlap), nil
}

func (c *Chunker) chunkByTokens(text string, maxTokens, overlap int) []string {
	tokens := c.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	step := maxTokens - overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := CleanText(c.tokenizer.Decode(tokens[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func chunkByChars(text string, maxChars, overlapChars int) []string {
	runes := []rune(text)
	step := maxChars - overlapChars
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunk := CleanText(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
