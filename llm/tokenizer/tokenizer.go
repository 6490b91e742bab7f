// Package tokenizer provides token counting for generation inputs and
// outputs, used to fill usage figures in completion events when the
// backend does not report them.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens in a piece of text.
type Counter interface {
	CountTokens(text string) (int, error)
}

// Tiktoken counts tokens with a tiktoken encoding. The encoding is
// initialized lazily because the first use may download encoding data.
type Tiktoken struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktoken creates a tiktoken-backed counter. An empty encoding
// defaults to cl100k_base, a reasonable approximation for llama-family
// models that do not publish their own encoding.
func NewTiktoken(encoding string) *Tiktoken {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &Tiktoken{encoding: encoding}
}

func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// Estimator is a character-count fallback used when tiktoken data is
// unavailable (offline environments). Roughly 4 ASCII chars per token.
type Estimator struct{}

func (Estimator) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	estimated := len(text) / 4
	if estimated == 0 {
		estimated = 1
	}
	return estimated, nil
}
