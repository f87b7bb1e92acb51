// Package tiktoken adapts github.com/pkoukk/tiktoken-go to the encoder's Tokenizer.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used by current OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

// Tokenizer encodes text into BPE token ids. Safe for concurrent use.
type Tokenizer struct {
	name string
	enc  *tiktoken.Tiktoken
}

// New loads the named encoding. An empty name selects DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &Tokenizer{name: encoding, enc: enc}, nil
}

// Tokenize returns the token ids of text. Special-token markup is encoded
// as ordinary text.
func (t *Tokenizer) Tokenize(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

// Encoding returns the loaded encoding name.
func (t *Tokenizer) Encoding() string { return t.name }
