package translate

import (
	"fmt"
	"strings"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// RateLimitError marks a provider call rejected for quota or pacing reasons.
// The engine skips the provider for the remainder of the batch and moves on
// to the next one; the error only surfaces if every provider exhausts.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// LanguageUnsupportedError reports a language pair a provider cannot serve.
type LanguageUnsupportedError struct {
	Provider  string
	Language  inktranslator.Language
	Supported []inktranslator.Language
}

func (e *LanguageUnsupportedError) Error() string {
	msg := fmt.Sprintf("language %q not supported by %s", e.Language, e.Provider)
	if len(e.Supported) > 0 {
		names := make([]string, len(e.Supported))
		for i, lang := range e.Supported {
			names[i] = string(lang)
		}
		msg += fmt.Sprintf(" (supported: %s)", strings.Join(names, ", "))
	}
	return msg
}

// InvalidServerResponseError reports a provider response that could not be
// interpreted as a translation.
type InvalidServerResponseError struct {
	Provider string
	Reason   string
}

func (e *InvalidServerResponseError) Error() string {
	return fmt.Sprintf("%s returned an invalid response: %s", e.Provider, e.Reason)
}

// ExhaustedError reports that every configured provider failed for a batch.
// Callers decide the fallback; the orchestrator substitutes original text.
type ExhaustedError struct {
	From    inktranslator.Language
	To      inktranslator.Language
	LastErr error
}

func (e *ExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all translation providers failed for %s->%s: %v", e.From, e.To, e.LastErr)
	}
	return fmt.Sprintf("all translation providers failed for %s->%s", e.From, e.To)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }
