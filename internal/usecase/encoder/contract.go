package encoder

import "github.com/kailas-cloud/vecrank/internal/domain"

// Tokenizer converts text into sub-word token ids.
type Tokenizer interface {
	Tokenize(text string) ([]int, error)
}

// Embedder embeds a padded batch of windows in a single call.
type Embedder interface {
	domain.WindowEmbedder
}
