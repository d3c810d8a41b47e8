package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	documentaiapi "cloud.google.com/go/documentai/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gcs "cloud.google.com/go/storage"
	visionapi "cloud.google.com/go/vision/apiv1"
	"github.com/google/generative-ai-go/genai"
	"github.com/ridge/must/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	inktranslator "github.com/miya-dang/InkTranslator"
	"github.com/miya-dang/InkTranslator/archive"
	"github.com/miya-dang/InkTranslator/inpaint"
	"github.com/miya-dang/InkTranslator/layout"
	"github.com/miya-dang/InkTranslator/ocr"
	"github.com/miya-dang/InkTranslator/pipeline"
	"github.com/miya-dang/InkTranslator/pkg/env"
	"github.com/miya-dang/InkTranslator/render"
	"github.com/miya-dang/InkTranslator/translate"
)

func main() {
	env.Load()

	inPath := flag.String("in", "", "input image (png, jpeg or gif)")
	outPath := flag.String("out", "", "output image path, defaults to <in>.translated.png")
	fromName := flag.String("from", string(inktranslator.LanguageJapanese), "source language")
	toName := flag.String("to", string(inktranslator.LanguageEnglish), "target language")
	preview := flag.Bool("preview", false, "only detect text and write an annotated preview")
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	from := must.OK1(inktranslator.ParseLanguage(*fromName))
	to := must.OK1(inktranslator.ParseLanguage(*toName))
	if *outPath == "" {
		*outPath = strings.TrimSuffix(*inPath, filepath.Ext(*inPath)) + ".translated.png"
	}

	ctx := context.Background()
	imageBytes := must.OK1(os.ReadFile(*inPath))

	p := buildPipeline(ctx)

	if *preview {
		result := must.OK1(p.DetectOnly(ctx, imageBytes, from))
		must.OK(os.WriteFile(*outPath, result.Image, 0o644))
		for i, box := range result.Boxes {
			fmt.Printf("%d: %s\n", i+1, box.Text)
		}
		log.Printf("Preview with %d boxes written to %s", len(result.Boxes), *outPath)
		return
	}

	result := must.OK1(p.Process(ctx, imageBytes, from, to))
	must.OK(os.WriteFile(*outPath, result.Image, 0o644))
	log.Printf("Translated %d boxes, written to %s", len(result.Boxes), *outPath)
}

func buildPipeline(ctx context.Context) *pipeline.Pipeline {
	fonts := must.OK1(layout.NewFontProvider(fontPaths(env.StringVariable("FONT_DIR", "cmd/inktranslator/fonts"))))
	layoutEngine := layout.NewEngine(fonts)

	visionClient := must.OK1(visionapi.NewImageAnnotatorClient(ctx))
	var documentAI ocr.Service
	if processorID := os.Getenv("DOCUMENTAI_PROCESSOR_ID"); processorID != "" {
		client := must.OK1(documentaiapi.NewDocumentProcessorClient(ctx,
			option.WithEndpoint(env.StringVariable("DOCUMENTAI_ENDPOINT", "us-documentai.googleapis.com:443"))))
		documentAI = ocr.NewDocumentAI(client, ocr.DocumentAISpec{
			ProjectID:   env.RequiredStringVariable("GCP_PROJECT_ID"),
			Location:    env.StringVariable("DOCUMENTAI_LOCATION", "us"),
			ProcessorID: processorID,
		})
	}

	var inpainter inpaint.Inpainter = inpaint.NewBorderFill()
	if lamaURL := os.Getenv("LAMA_URL"); lamaURL != "" {
		inpainter = inpaint.NewLama(lamaURL, os.Getenv("LAMA_API_KEY"))
	}

	opts := []pipeline.Option{
		pipeline.WithProgress(func(status pipeline.Status) {
			if status.Detail != "" {
				log.Printf("Stage %s (%s)", status.Stage, status.Detail)
				return
			}
			log.Printf("Stage %s", status.Stage)
		}),
	}
	if bucket := os.Getenv("GCP_ARCHIVE_BUCKET"); bucket != "" {
		opts = append(opts, pipeline.WithArchive(archive.New(must.OK1(gcs.NewClient(ctx)), bucket)))
	}

	return pipeline.New(
		ocr.NewManager(ocr.NewVision(visionClient), documentAI),
		translate.NewEngine(buildProviders(ctx)...),
		inpainter,
		render.New(layoutEngine),
		opts...,
	)
}

// buildProviders assembles the fallback chain in preference order. Paid
// providers come first; the free endpoint is the last resort and needs no
// credentials.
func buildProviders(ctx context.Context) []translate.Provider {
	var providers []translate.Provider

	if key := apiKey(ctx, "DEEPL_API_KEY", "DEEPL_KEY_SECRET_NAME"); key != "" {
		providers = append(providers, translate.NewDeepL(key, os.Getenv("DEEPL_API_URL")))
	}
	if key := apiKey(ctx, "OPENAI_API_KEY", "OPENAI_KEY_SECRET_NAME"); key != "" {
		providers = append(providers, translate.NewOpenAI(openai.NewClient(key), env.StringVariable("OPENAI_MODEL", "")))
	}
	if key := apiKey(ctx, "GEMINI_API_KEY", "GEMINI_KEY_SECRET_NAME"); key != "" {
		client := must.OK1(genai.NewClient(ctx, option.WithAPIKey(key)))
		providers = append(providers, translate.NewGemini(client.GenerativeModel(translate.GeminiModelFlash)))
	}
	providers = append(providers, translate.NewGoogleFree(""))
	return providers
}

// apiKey reads a credential from the environment, falling back to GCP
// Secret Manager when only the secret name is configured.
func apiKey(ctx context.Context, envName, secretEnvName string) string {
	if key := os.Getenv(envName); key != "" {
		return key
	}
	secretName := os.Getenv(secretEnvName)
	if secretName == "" {
		return ""
	}
	client := must.OK1(secretmanager.NewClient(ctx))
	defer client.Close()
	secret := must.OK1(client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
			env.RequiredStringVariable("GCP_PROJECT_ID"),
			secretName,
		),
	}))
	return string(secret.Payload.Data)
}

// fontPaths maps every pipeline language to a font file under baseDir,
// sharing one face per script family.
func fontPaths(baseDir string) map[inktranslator.Language]string {
	file := func(dir string) string {
		return filepath.Join(baseDir, dir, "SansSerif-Regular.ttf")
	}
	return map[inktranslator.Language]string{
		inktranslator.LanguageJapanese:    file("Japanese"),
		inktranslator.LanguageSimChinese:  file("Chinese"),
		inktranslator.LanguageTradChinese: file("Chinese"),
		inktranslator.LanguageKorean:      file("Korean"),
		inktranslator.LanguageEnglish:     file("English"),
		inktranslator.LanguageVietnamese:  file("English"),
	}
}
