package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	inktranslator "github.com/miya-dang/InkTranslator"
)

const (
	googleDefaultBaseURL    = "https://translate.googleapis.com/translate_a/single"
	googleRequestsPerMinute = 3
	googleRequestTimeout    = 30 * time.Second

	// The free endpoint throttles unrecognized clients aggressively.
	googleUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// GoogleFree translates through the free web endpoint. It covers every
// supported language and requires no key, so it sits last in the fallback
// order as the provider of last resort. A 429 latches the provider
// unavailable until reset.
type GoogleFree struct {
	providerBase
	baseURL string
	client  *http.Client

	mu          sync.Mutex
	rateLimited bool
}

// NewGoogleFree builds the free-endpoint provider. An empty baseURL selects
// the public endpoint.
func NewGoogleFree(baseURL string) *GoogleFree {
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	return &GoogleFree{
		providerBase: newProviderBase("Google", map[inktranslator.Language]string{
			inktranslator.LanguageSimChinese:  "zh-cn",
			inktranslator.LanguageTradChinese: "zh-tw",
			inktranslator.LanguageKorean:      "ko",
			inktranslator.LanguageVietnamese:  "vi",
			inktranslator.LanguageJapanese:    "ja",
			inktranslator.LanguageEnglish:     "en",
		}, googleRequestsPerMinute),
		baseURL: baseURL,
		client:  &http.Client{Timeout: googleRequestTimeout},
	}
}

func (g *GoogleFree) IsAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.rateLimited
}

func (g *GoogleFree) ResetAvailability() {
	g.mu.Lock()
	g.rateLimited = false
	g.mu.Unlock()
}

// InvalidRetries allows one rewrite-and-retry pass; the free endpoint is
// prone to echoing input or looping on short queries.
func (g *GoogleFree) InvalidRetries() int { return 1 }

// ModifyInvalidQuery prefixes a disambiguating label so the endpoint treats
// the query as prose rather than a lookup.
func (g *GoogleFree) ModifyInvalidQuery(query string) string {
	if len(strings.Fields(query)) == 1 {
		return "Word: " + query
	}
	return "Text: " + query
}

func (g *GoogleFree) TranslateRaw(ctx context.Context, from, to inktranslator.Language, queries []string) ([]string, error) {
	fromCode, toCode, err := g.languageCodes(from, to)
	if err != nil {
		return nil, err
	}

	translations := make([]string, 0, len(queries))
	for _, query := range queries {
		if strings.TrimSpace(query) == "" {
			translations = append(translations, "")
			continue
		}
		if err := g.pace(ctx); err != nil {
			return nil, err
		}
		translated, err := backoff.RetryWithData(func() (string, error) {
			return g.translateOne(ctx, query, fromCode, toCode)
		}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 2), ctx))
		if err != nil {
			return nil, err
		}
		g.recordRequest()
		translations = append(translations, translated)
	}
	return translations, nil
}

func (g *GoogleFree) translateOne(ctx context.Context, text, fromCode, toCode string) (string, error) {
	params := url.Values{
		"client": {"gtx"},
		"sl":     {fromCode},
		"tl":     {toCode},
		"dt":     {"t"},
		"q":      {text},
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	request.Header.Set("User-Agent", googleUserAgent)

	response, err := g.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusTooManyRequests {
		g.mu.Lock()
		g.rateLimited = true
		g.mu.Unlock()
		return "", backoff.Permanent(&RateLimitError{Provider: g.name, Err: fmt.Errorf("HTTP 429")})
	}
	if response.StatusCode != http.StatusOK {
		if response.StatusCode >= 500 {
			return "", fmt.Errorf("HTTP %d", response.StatusCode)
		}
		return "", backoff.Permanent(&InvalidServerResponseError{Provider: g.name, Reason: fmt.Sprintf("HTTP %d", response.StatusCode)})
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}
	translated, err := parseGoogleResponse(raw)
	if err != nil {
		return "", backoff.Permanent(&InvalidServerResponseError{Provider: g.name, Reason: err.Error()})
	}
	return translated, nil
}

// parseGoogleResponse extracts the translation from the endpoint's nested
// array shape: [[["translated","original",...],...],...].
func parseGoogleResponse(raw []byte) (string, error) {
	var data []any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty response data")
	}
	segments, ok := data[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var parts []string
	for _, segment := range segments {
		fields, ok := segment.([]any)
		if !ok || len(fields) == 0 {
			continue
		}
		if text, ok := fields[0].(string); ok && text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no translation in response")
	}
	return strings.Join(parts, ""), nil
}
