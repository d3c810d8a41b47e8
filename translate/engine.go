package translate

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// Wait between attempts when a provider returned degenerate output.
const invalidRetryDelay = 100 * time.Millisecond

// Engine routes batches through an ordered list of providers, falling back
// to the next provider when one is unavailable, rate limited or failing.
// The order is fixed at construction; only availability is dynamic.
type Engine struct {
	providers []Provider
}

// NewEngine builds an engine over the given providers in fallback order,
// highest quality first.
func NewEngine(providers ...Provider) *Engine {
	return &Engine{providers: providers}
}

// ProviderStatus is a point-in-time snapshot of one provider.
type ProviderStatus struct {
	Name      string
	Available bool
	Requests  int
}

// Status reports each provider's availability and process-wide request
// count, in fallback order.
func (e *Engine) Status() []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(e.providers))
	for _, p := range e.providers {
		status := ProviderStatus{Name: p.Name(), Available: p.IsAvailable()}
		if counter, ok := p.(requestCounter); ok {
			status.Requests = counter.RequestCount()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// AvailableProviders lists the names of providers currently willing to
// serve calls.
func (e *Engine) AvailableProviders() []string {
	var names []string
	for _, p := range e.providers {
		if p.IsAvailable() {
			names = append(names, p.Name())
		}
	}
	return names
}

// ResetProviders clears sticky unavailability (quota flags, 429 latches).
// This is the explicit operator action; nothing resets automatically.
func (e *Engine) ResetProviders() {
	for _, p := range e.providers {
		if resetter, ok := p.(availabilityResetter); ok {
			resetter.ResetAvailability()
		}
	}
}

// Translate runs a single text through the batch path.
func (e *Engine) Translate(ctx context.Context, text string, from, to inktranslator.Language) (string, error) {
	results, err := e.TranslateBatch(ctx, []string{text}, from, to)
	if err != nil {
		return "", err
	}
	return results[0], nil
}

// TranslateBatch translates texts from one language to another, returning
// one output per input in order, always the same length as the input.
// Trivial inputs (mostly punctuation, too short) are returned verbatim
// without a provider call. When every provider fails, the affected outputs
// are empty strings and an *ExhaustedError is returned alongside them.
func (e *Engine) TranslateBatch(ctx context.Context, texts []string, from, to inktranslator.Language) ([]string, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("unsupported source language %q", from)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("unsupported target language %q", to)
	}

	results := make([]string, len(texts))
	copy(results, texts)
	if from == to || len(texts) == 0 {
		return results, nil
	}

	// Trivial texts never reach a provider.
	var queryIndices []int
	for i, text := range texts {
		if isValuableText(text) {
			queryIndices = append(queryIndices, i)
		}
	}
	if len(queryIndices) == 0 {
		return results, nil
	}
	queries := make([]string, len(queryIndices))
	for i, idx := range queryIndices {
		queries[i] = texts[idx]
	}

	log.Printf("Translating %d texts from %s into %s", len(queries), from.DisplayName(), to.DisplayName())

	var lastErr error
	skipped := map[string]bool{}
	for _, provider := range e.providers {
		if skipped[provider.Name()] {
			continue
		}
		if !provider.IsAvailable() {
			log.Printf("%s not available, skipping", provider.Name())
			continue
		}
		if !provider.SupportsPair(from, to) {
			log.Printf("%s does not support %s->%s, skipping", provider.Name(), from, to)
			continue
		}

		translations, err := e.translateWith(ctx, provider, from, to, queries)
		if err != nil {
			if rateLimited, ok := err.(*RateLimitError); ok {
				// Out of quota for the remainder of this batch only.
				log.Printf("%s rate limited: %v", provider.Name(), rateLimited.Err)
				skipped[provider.Name()] = true
			} else {
				log.Printf("%s failed: %v", provider.Name(), err)
			}
			lastErr = err
			continue
		}

		for i, idx := range queryIndices {
			results[idx] = translations[i]
		}
		return results, nil
	}

	for _, idx := range queryIndices {
		results[idx] = ""
	}
	return results, &ExhaustedError{From: from, To: to, LastErr: lastErr}
}

// translateWith performs one provider's attempt over the batch, including
// the provider's bounded retry on degenerate output. Outputs are padded or
// truncated to the query count and normalized before returning.
func (e *Engine) translateWith(ctx context.Context, provider Provider, from, to inktranslator.Language, queries []string) ([]string, error) {
	invalidRetries := 0
	retrier, canRetry := provider.(invalidRetrier)
	if canRetry {
		invalidRetries = retrier.InvalidRetries()
	}

	working := make([]string, len(queries))
	copy(working, queries)
	translations := make([]string, len(queries))
	pending := make([]int, len(queries))
	for i := range pending {
		pending[i] = i
	}

	for attempt := 0; attempt <= invalidRetries; attempt++ {
		if attempt > 0 {
			log.Printf("%s returned invalid output, retrying (attempt %d)", provider.Name(), attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(invalidRetryDelay):
			}
		}

		raw, err := provider.TranslateRaw(ctx, from, to, working)
		if err != nil {
			if attempt == 0 {
				return nil, err
			}
			// Keep whatever the earlier attempt produced.
			log.Printf("%s retry failed: %v", provider.Name(), err)
			break
		}

		for len(raw) < len(working) {
			raw = append(raw, "")
		}
		raw = raw[:len(working)]
		for _, i := range pending {
			translations[i] = raw[i]
		}

		if invalidRetries == 0 {
			break
		}
		var stillInvalid []int
		for _, i := range pending {
			if isTranslationInvalid(working[i], translations[i]) {
				stillInvalid = append(stillInvalid, i)
				working[i] = retrier.ModifyInvalidQuery(working[i])
			}
		}
		pending = stillInvalid
		if len(pending) == 0 {
			break
		}
	}

	cleaned := make([]string, len(queries))
	for i := range queries {
		cleaned[i] = cleanTranslationOutput(working[i], translations[i])
	}
	return cleaned, nil
}

// TranslateMany translates independent texts with bounded concurrency.
// Unlike TranslateBatch this issues one provider round trip per text, so it
// is only for texts with no cross-text context; in-flight calls are capped
// to respect provider rate limits and failures yield empty strings rather
// than failing the whole set.
func (e *Engine) TranslateMany(ctx context.Context, texts []string, from, to inktranslator.Language, maxConcurrent int) []string {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	results := make([]string, len(texts))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrent)
	for i, text := range texts {
		i, text := i, text
		group.Go(func() error {
			translated, err := e.Translate(groupCtx, text, from, to)
			if err != nil {
				log.Printf("Failed to translate text %d: %v", i, err)
				return nil
			}
			results[i] = translated
			return nil
		})
	}
	group.Wait()
	return results
}

// SupportedLanguages maps each language to its display name.
func (e *Engine) SupportedLanguages() map[inktranslator.Language]string {
	supported := map[inktranslator.Language]string{}
	for _, lang := range inktranslator.Languages() {
		supported[lang] = lang.DisplayName()
	}
	return supported
}
