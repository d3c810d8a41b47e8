package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	inktranslator "github.com/miya-dang/InkTranslator"
)

const (
	geminiRequestsPerMinute = 15
	// GeminiModelFlash is the default generation model.
	GeminiModelFlash = "gemini-1.5-flash"
)

// geminiModel is the slice of the genai generative model the provider
// needs; narrowed for tests.
type geminiModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini translates through Google's generative models using the same
// indexed-line prompt as the OpenAI provider.
type Gemini struct {
	providerBase
	model geminiModel
}

// NewGemini builds the Gemini provider from a configured generative model,
// e.g. client.GenerativeModel(translate.GeminiModelFlash).
func NewGemini(model *genai.GenerativeModel) *Gemini {
	return newGeminiWithModel(model)
}

func newGeminiWithModel(model geminiModel) *Gemini {
	return &Gemini{
		providerBase: newProviderBase("Gemini", allLanguageNames(), geminiRequestsPerMinute),
		model:        model,
	}
}

func (g *Gemini) IsAvailable() bool { return g.model != nil }

func (g *Gemini) TranslateRaw(ctx context.Context, from, to inktranslator.Language, queries []string) ([]string, error) {
	if _, _, err := g.languageCodes(from, to); err != nil {
		return nil, err
	}
	if err := g.pace(ctx); err != nil {
		return nil, err
	}

	prompt := translatorSystemPrompt + "\n\n" + buildIndexedPrompt(queries, from, to)
	response, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "quota") {
			return nil, &RateLimitError{Provider: g.name, Err: err}
		}
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, &InvalidServerResponseError{Provider: g.name, Reason: "no candidates in response"}
	}
	g.recordRequest()

	text, ok := response.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, &InvalidServerResponseError{Provider: g.name, Reason: "non-text response part"}
	}
	return parseIndexedResponse(string(text), len(queries)), nil
}
