package port

import "github.com/dmitriid/svx/internal/domain"

// Tokenizer turns masked document text into a flat ordered token stream.
type Tokenizer interface {
	Tokenize(text string) ([]domain.Token, error)
}
