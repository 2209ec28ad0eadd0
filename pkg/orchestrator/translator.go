package orchestrator

import (
	"context"

	"golang.org/x/text/language"
)

// Translator detects and translates notification content. Any error
// from either method falls back to the original text; translation never
// blocks creation.
type Translator interface {
	Detect(ctx context.Context, text string) (language.Tag, error)
	Translate(ctx context.Context, text string, from, to language.Tag) (string, error)
}
