package translate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	inktranslator "github.com/miya-dang/InkTranslator"
)

const openaiRequestsPerMinute = 20

const translatorSystemPrompt = "You are a professional translator. Translate text accurately while preserving the original meaning and tone. Preserve any inline markup such as [0]...[/0] exactly."

// chatCompleter is the slice of the OpenAI client the provider needs;
// narrowed for tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI translates through a chat model with an indexed-line prompt, one
// line per query, and recovers the outputs by index.
type OpenAI struct {
	providerBase
	client chatCompleter
	model  string
}

// NewOpenAI builds the LLM provider. An empty model selects gpt-3.5-turbo.
func NewOpenAI(client *openai.Client, model string) *OpenAI {
	return newOpenAIWithCompleter(client, model)
}

func newOpenAIWithCompleter(client chatCompleter, model string) *OpenAI {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAI{
		providerBase: newProviderBase("OpenAI", allLanguageNames(), openaiRequestsPerMinute),
		client:       client,
		model:        model,
	}
}

func (o *OpenAI) IsAvailable() bool { return o.client != nil }

func (o *OpenAI) TranslateRaw(ctx context.Context, from, to inktranslator.Language, queries []string) ([]string, error) {
	if _, _, err := o.languageCodes(from, to); err != nil {
		return nil, err
	}
	if err := o.pace(ctx); err != nil {
		return nil, err
	}

	prompt := buildIndexedPrompt(queries, from, to)
	response, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit") {
			return nil, &RateLimitError{Provider: o.name, Err: err}
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}
	o.recordRequest()

	return parseIndexedResponse(response.Choices[0].Message.Content, len(queries)), nil
}

// buildIndexedPrompt numbers each query so translations can be matched back
// regardless of reordering in the model output.
func buildIndexedPrompt(queries []string, from, to inktranslator.Language) string {
	var combined strings.Builder
	for i, query := range queries {
		fmt.Fprintf(&combined, "[%d] %s\n", i, query)
	}
	return fmt.Sprintf(`Translate the following texts from %s to %s. Return only the translations in the same order, each on its own line prefixed with its index number [0], [1], etc. Do not include explanations or additional text.

%s`, from.DisplayName(), to.DisplayName(), combined.String())
}

// parseIndexedResponse pulls "[i] translation" lines back into index order.
// Lines without a recognizable index are ignored; missing indices stay "".
func parseIndexedResponse(responseText string, count int) []string {
	translations := make([]string, count)
	for _, line := range strings.Split(responseText, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		closing := strings.Index(line, "]")
		if closing <= 1 {
			continue
		}
		index, err := strconv.Atoi(line[1:closing])
		if err != nil || index < 0 || index >= count {
			continue
		}
		translations[index] = strings.TrimSpace(line[closing+1:])
	}
	return translations
}

// allLanguageNames maps every supported language to its display name; LLM
// providers take language names in the prompt rather than wire codes.
func allLanguageNames() map[inktranslator.Language]string {
	codes := map[inktranslator.Language]string{}
	for _, lang := range inktranslator.Languages() {
		codes[lang] = lang.DisplayName()
	}
	return codes
}
