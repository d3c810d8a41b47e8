package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	inktranslator "github.com/miya-dang/InkTranslator"
)

const (
	deeplDefaultBaseURL = "https://api-free.deepl.com"
	// Conservative pacing for the free tier.
	deeplRequestsPerMinute = 3
	deeplRequestTimeout    = 30 * time.Second
)

// DeepL is the highest-quality provider and sits first in the fallback
// order. The free tier is quota limited; once the quota trips the provider
// stays unavailable until an operator resets it.
type DeepL struct {
	providerBase
	apiKey  string
	baseURL string
	client  *http.Client

	mu            sync.Mutex
	quotaExceeded bool
	authFailed    bool
}

// NewDeepL builds the DeepL provider. An empty baseURL selects the free-tier
// endpoint. DeepL has no Vietnamese support, so that pair routes elsewhere.
func NewDeepL(apiKey, baseURL string) *DeepL {
	if baseURL == "" {
		baseURL = deeplDefaultBaseURL
	}
	return &DeepL{
		providerBase: newProviderBase("DeepL", map[inktranslator.Language]string{
			inktranslator.LanguageSimChinese:  "zh",
			inktranslator.LanguageTradChinese: "zh-hant",
			inktranslator.LanguageKorean:      "ko",
			inktranslator.LanguageJapanese:    "ja",
			inktranslator.LanguageEnglish:     "en",
		}, deeplRequestsPerMinute),
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: deeplRequestTimeout},
	}
}

func (d *DeepL) IsAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.apiKey != "" && !d.quotaExceeded && !d.authFailed
}

func (d *DeepL) ResetAvailability() {
	d.mu.Lock()
	d.quotaExceeded = false
	d.authFailed = false
	d.mu.Unlock()
}

func (d *DeepL) TranslateRaw(ctx context.Context, from, to inktranslator.Language, queries []string) ([]string, error) {
	fromCode, toCode, err := d.languageCodes(from, to)
	if err != nil {
		return nil, err
	}

	translations := make([]string, 0, len(queries))
	for _, query := range queries {
		if strings.TrimSpace(query) == "" {
			translations = append(translations, "")
			continue
		}
		if err := d.pace(ctx); err != nil {
			return nil, err
		}
		translated, err := backoff.RetryWithData(func() (string, error) {
			return d.translateOne(ctx, query, fromCode, toCode)
		}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 2), ctx))
		if err != nil {
			return nil, err
		}
		d.recordRequest()
		translations = append(translations, translated)
	}
	return translations, nil
}

func (d *DeepL) translateOne(ctx context.Context, text, fromCode, toCode string) (string, error) {
	form := url.Values{
		"text":        {text},
		"source_lang": {strings.ToUpper(fromCode)},
		"target_lang": {strings.ToUpper(toCode)},
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	request.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := d.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", backoff.Permanent(&RateLimitError{Provider: d.name, Err: fmt.Errorf("HTTP 429")})
	case 456: // DeepL's quota-exceeded status
		d.mu.Lock()
		d.quotaExceeded = true
		d.mu.Unlock()
		return "", backoff.Permanent(&RateLimitError{Provider: d.name, Err: fmt.Errorf("character quota exceeded")})
	case http.StatusForbidden:
		d.mu.Lock()
		d.authFailed = true
		d.mu.Unlock()
		return "", backoff.Permanent(&InvalidServerResponseError{Provider: d.name, Reason: "authorization failed"})
	default:
		if response.StatusCode >= 500 {
			return "", fmt.Errorf("HTTP %d", response.StatusCode)
		}
		return "", backoff.Permanent(&InvalidServerResponseError{Provider: d.name, Reason: fmt.Sprintf("HTTP %d", response.StatusCode)})
	}

	var body struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		return "", backoff.Permanent(&InvalidServerResponseError{Provider: d.name, Reason: err.Error()})
	}
	if len(body.Translations) == 0 {
		return "", backoff.Permanent(&InvalidServerResponseError{Provider: d.name, Reason: "empty translations"})
	}
	return body.Translations[0].Text, nil
}
