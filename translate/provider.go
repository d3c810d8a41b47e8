package translate

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/time/rate"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// Provider is one translation backend. Implementations resolve the canonical
// languages to their own wire codes and return one output per query, padding
// defensively when the service comes up short.
type Provider interface {
	Name() string

	// IsAvailable reports whether the provider believes it can serve calls
	// right now (API key present, quota not exhausted).
	IsAvailable() bool

	// SupportsPair reports whether both languages have a wire code.
	SupportsPair(from, to inktranslator.Language) bool

	// TranslateRaw performs one provider round trip.
	TranslateRaw(ctx context.Context, from, to inktranslator.Language, queries []string) ([]string, error)
}

// invalidRetrier is implemented by providers that want the engine to retry
// degenerate output, optionally rewriting the query between attempts.
type invalidRetrier interface {
	InvalidRetries() int
	ModifyInvalidQuery(query string) string
}

// availabilityResetter is implemented by providers whose unavailable state
// is sticky (quota, repeated 429s) and clearable by operator action.
type availabilityResetter interface {
	ResetAvailability()
}

// requestCounter exposes the process-wide outbound call count.
type requestCounter interface {
	RequestCount() int
}

// providerBase carries the state every provider shares: the language code
// map, the pacing limiter and the request counter. Counters and availability
// are process-wide and only reset by explicit operator action.
type providerBase struct {
	name  string
	codes map[inktranslator.Language]string

	// Enforces the 60/N-seconds minimum spacing between outbound calls.
	// Nil means unlimited.
	limiter *rate.Limiter

	mu       sync.Mutex
	requests int
}

func newProviderBase(name string, codes map[inktranslator.Language]string, requestsPerMinute int) providerBase {
	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
	}
	return providerBase{name: name, codes: codes, limiter: limiter}
}

func (b *providerBase) Name() string { return b.name }

func (b *providerBase) SupportsPair(from, to inktranslator.Language) bool {
	_, fromOK := b.codes[from]
	_, toOK := b.codes[to]
	return fromOK && toOK
}

// languageCodes resolves the pair to wire codes, failing on the first
// unsupported language.
func (b *providerBase) languageCodes(from, to inktranslator.Language) (string, string, error) {
	supported := make([]inktranslator.Language, 0, len(b.codes))
	for _, lang := range inktranslator.Languages() {
		if _, ok := b.codes[lang]; ok {
			supported = append(supported, lang)
		}
	}
	fromCode, ok := b.codes[from]
	if !ok {
		return "", "", &LanguageUnsupportedError{Provider: b.name, Language: from, Supported: supported}
	}
	toCode, ok := b.codes[to]
	if !ok {
		return "", "", &LanguageUnsupportedError{Provider: b.name, Language: to, Supported: supported}
	}
	return fromCode, toCode, nil
}

// pace blocks until the provider's minimum inter-request spacing allows the
// next outbound call.
func (b *providerBase) pace(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *providerBase) recordRequest() {
	b.mu.Lock()
	b.requests++
	b.mu.Unlock()
}

func (b *providerBase) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

// isValuableText reports whether the text is worth a provider round trip:
// at least two non-whitespace characters, of which at least 30% are
// alphanumeric. Pure punctuation like "???" is returned verbatim instead.
func isValuableText(text string) bool {
	var cleaned []rune
	for _, r := range text {
		if !unicode.IsSpace(r) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) < 2 {
		return false
	}
	alnum := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	return float64(alnum) >= float64(len(cleaned))*0.3
}

// repeatingSequence finds the shortest sequence that tiles the text, or the
// text itself when none does. Used to detect providers stuck in a loop.
func repeatingSequence(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	for seqLen := 1; seqLen <= len(runes)/2; seqLen++ {
		repeats := len(runes) / seqLen
		tiled := strings.Repeat(string(runes[:seqLen]), repeats)
		if tiled == string(runes[:repeats*seqLen]) {
			return string(runes[:seqLen])
		}
	}
	return text
}

// isTranslationInvalid flags degenerate output: the input had real character
// diversity but the output collapsed to a handful of distinct characters.
func isTranslationInvalid(query, translation string) bool {
	if translation == "" && query != "" {
		return true
	}
	if query == "" || translation == "" {
		return false
	}
	queryUnique := distinctRunes(query)
	transUnique := distinctRunes(translation)
	transLen := len([]rune(translation))
	return queryUnique > 6 && transUnique < 6 && float64(transUnique) < 0.25*float64(transLen)
}

func distinctRunes(s string) int {
	seen := map[rune]struct{}{}
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// cleanTranslationOutput normalizes provider output: collapses whitespace,
// fixes spacing around punctuation and repairs looping output by tiling the
// repeated sequence back up to the query's length with the query's
// capitalization transferred positionally.
func cleanTranslationOutput(query, translation string) string {
	if query == "" || translation == "" {
		return ""
	}

	translation = strings.Join(strings.Fields(translation), " ")
	translation = normalizePunctuation(translation)

	seq := repeatingSequence(strings.ToLower(translation))
	transLen := len([]rune(translation))
	queryRunes := []rune(query)
	seqRunes := []rune(seq)
	if transLen < len(queryRunes) && len(seqRunes) > 0 && float64(len(seqRunes)) < 0.5*float64(transLen) {
		repeats := len(queryRunes) / len(seqRunes)
		if repeats < 1 {
			repeats = 1
		}
		rebuilt := []rune(strings.Repeat(seq, repeats))
		for i := 0; i < len(rebuilt) && i < len(queryRunes); i++ {
			if unicode.IsUpper(queryRunes[i]) {
				rebuilt[i] = unicode.ToUpper(rebuilt[i])
			}
		}
		translation = string(rebuilt)
	}

	return strings.TrimSpace(translation)
}

func isSentencePunct(r rune) bool {
	switch r {
	case '.', ',', ';', '!', '?':
		return true
	}
	return false
}

// normalizePunctuation removes spaces before sentence punctuation and puts
// exactly one space after a punctuation mark followed by a word character.
// Runs of punctuation like "..." or "!?" stay glued together.
func normalizePunctuation(s string) string {
	runes := []rune(s)
	var out []rune
	i := 0
	for i < len(runes) {
		r := runes[i]
		if r == ' ' {
			j := i
			for j < len(runes) && runes[j] == ' ' {
				j++
			}
			if j >= len(runes) || isSentencePunct(runes[j]) {
				i = j
				continue
			}
			out = append(out, ' ')
			i = j
			continue
		}
		out = append(out, r)
		i++
		if isSentencePunct(r) {
			// Only the last mark of a punctuation run earns a space, and
			// only when a word follows.
			runEnd := len(out) >= 2 && isSentencePunct(out[len(out)-2])
			for i < len(runes) && runes[i] == ' ' {
				i++
			}
			if i < len(runes) && !isSentencePunct(runes[i]) && !runEnd {
				out = append(out, ' ')
			}
		}
	}
	return string(out)
}
