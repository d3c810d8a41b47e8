package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// fakeProvider scripts one backend for engine tests.
type fakeProvider struct {
	name      string
	available bool
	reset     int
	translate func(queries []string) ([]string, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string      { return f.name }
func (f *fakeProvider) IsAvailable() bool { return f.available }

func (f *fakeProvider) SupportsPair(from, to inktranslator.Language) bool { return true }

func (f *fakeProvider) TranslateRaw(_ context.Context, _, _ inktranslator.Language, queries []string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.translate(queries)
}

func (f *fakeProvider) ResetAvailability() {
	f.reset++
	f.available = true
}

func uppercase(queries []string) ([]string, error) {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = "T:" + q
	}
	return out, nil
}

func TestTranslateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("same language pair returns input without provider calls", func(t *testing.T) {
		p := &fakeProvider{name: "p", available: true, translate: uppercase}
		engine := NewEngine(p)

		got, err := engine.TranslateBatch(ctx, []string{"hello", "world"}, inktranslator.LanguageEnglish, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "hello" || got[1] != "world" {
			t.Errorf("got %v", got)
		}
		if p.calls != 0 {
			t.Errorf("provider called %d times, want 0", p.calls)
		}
	})

	t.Run("trivial texts skip providers and pass through", func(t *testing.T) {
		p := &fakeProvider{name: "p", available: true, translate: uppercase}
		engine := NewEngine(p)

		got, err := engine.TranslateBatch(ctx, []string{"?!", "..."}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "?!" || got[1] != "..." {
			t.Errorf("got %v", got)
		}
		if p.calls != 0 {
			t.Errorf("provider called %d times, want 0", p.calls)
		}
	})

	t.Run("mixed batch only sends valuable texts", func(t *testing.T) {
		var received []string
		p := &fakeProvider{name: "p", available: true, translate: func(queries []string) ([]string, error) {
			received = queries
			return uppercase(queries)
		}}
		engine := NewEngine(p)

		got, err := engine.TranslateBatch(ctx, []string{"hello there", "?!"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if len(received) != 1 || received[0] != "hello there" {
			t.Errorf("provider received %v", received)
		}
		if got[0] != "T:hello there" || got[1] != "?!" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("falls back past failing provider", func(t *testing.T) {
		failing := &fakeProvider{name: "failing", available: true, translate: func([]string) ([]string, error) {
			return nil, fmt.Errorf("boom")
		}}
		working := &fakeProvider{name: "working", available: true, translate: uppercase}
		engine := NewEngine(failing, working)

		got, err := engine.TranslateBatch(ctx, []string{"some text"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "T:some text" {
			t.Errorf("got %v", got)
		}
		if failing.calls != 1 || working.calls != 1 {
			t.Errorf("calls: failing=%d working=%d", failing.calls, working.calls)
		}
	})

	t.Run("skips unavailable provider", func(t *testing.T) {
		down := &fakeProvider{name: "down", available: false, translate: uppercase}
		up := &fakeProvider{name: "up", available: true, translate: uppercase}
		engine := NewEngine(down, up)

		if _, err := engine.TranslateBatch(ctx, []string{"some text"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish); err != nil {
			t.Fatal(err)
		}
		if down.calls != 0 {
			t.Errorf("unavailable provider was called %d times", down.calls)
		}
		if up.calls != 1 {
			t.Errorf("available provider called %d times, want 1", up.calls)
		}
	})

	t.Run("rate limited provider falls through to next", func(t *testing.T) {
		limited := &fakeProvider{name: "limited", available: true, translate: func([]string) ([]string, error) {
			return nil, &RateLimitError{Provider: "limited", Err: fmt.Errorf("429")}
		}}
		working := &fakeProvider{name: "working", available: true, translate: uppercase}
		engine := NewEngine(limited, working)

		got, err := engine.TranslateBatch(ctx, []string{"some text"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "T:some text" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("exhaustion yields empty strings and typed error", func(t *testing.T) {
		failing := &fakeProvider{name: "failing", available: true, translate: func([]string) ([]string, error) {
			return nil, fmt.Errorf("boom")
		}}
		engine := NewEngine(failing)

		got, err := engine.TranslateBatch(ctx, []string{"some text", "?!"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish)
		var exhausted *ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("got error %v, want ExhaustedError", err)
		}
		if got[0] != "" {
			t.Errorf("valuable text should be empty on exhaustion, got %q", got[0])
		}
		if got[1] != "?!" {
			t.Errorf("trivial text should pass through, got %q", got[1])
		}
	})

	t.Run("short provider output is padded", func(t *testing.T) {
		p := &fakeProvider{name: "short", available: true, translate: func(queries []string) ([]string, error) {
			return []string{"only one"}, nil
		}}
		engine := NewEngine(p)

		got, err := engine.TranslateBatch(ctx, []string{"first text", "second text"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
		if got[0] != "only one" || got[1] != "" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("rejects unsupported languages", func(t *testing.T) {
		engine := NewEngine()
		if _, err := engine.TranslateBatch(ctx, []string{"x"}, "martian", inktranslator.LanguageEnglish); err == nil {
			t.Error("expected error for unsupported source language")
		}
	})
}

func TestEngineIntrospection(t *testing.T) {
	down := &fakeProvider{name: "down", available: false, translate: uppercase}
	up := &fakeProvider{name: "up", available: true, translate: uppercase}
	engine := NewEngine(down, up)

	t.Run("status lists providers in order", func(t *testing.T) {
		statuses := engine.Status()
		if len(statuses) != 2 {
			t.Fatalf("got %d statuses", len(statuses))
		}
		if statuses[0].Name != "down" || statuses[0].Available {
			t.Errorf("got %+v", statuses[0])
		}
		if statuses[1].Name != "up" || !statuses[1].Available {
			t.Errorf("got %+v", statuses[1])
		}
	})

	t.Run("available providers filters", func(t *testing.T) {
		names := engine.AvailableProviders()
		if len(names) != 1 || names[0] != "up" {
			t.Errorf("got %v", names)
		}
	})

	t.Run("reset restores sticky providers", func(t *testing.T) {
		engine.ResetProviders()
		if down.reset != 1 || !down.available {
			t.Errorf("reset=%d available=%v", down.reset, down.available)
		}
	})
}

func TestTranslateMany(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, translate: uppercase}
	engine := NewEngine(p)

	got := engine.TranslateMany(context.Background(), []string{"first text", "second text", "third text"}, inktranslator.LanguageJapanese, inktranslator.LanguageEnglish, 2)
	want := []string{"T:first text", "T:second text", "T:third text"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
