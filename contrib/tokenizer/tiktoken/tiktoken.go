package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/tokenizer"
)

var _ tokenizer.Counter = (*Counter)(nil)

// Counter counts tokens with a BPE encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New resolves name as a model first, then as an encoding name such as
// "cl100k_base".
func New(name string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("tiktoken: unknown model or encoding %q: %w", name, err)
		}
	}
	return &Counter{enc: enc}, nil
}

// CountTokens implements tokenizer.Counter.
func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
