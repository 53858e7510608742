package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"contentforge/internal/domain"
	"contentforge/internal/providers/genai"
)

func TestStaticGeneratorAllKinds(t *testing.T) {
	gen := NewStaticGenerator()
	variants, err := gen.Generate(context.Background(), Request{
		Topic:        "hand-poured soy candles",
		Category:     "Home Goods",
		InterestTags: []string{"cozy living"},
		Kinds:        []domain.VariantKind{domain.VariantKindTitle, domain.VariantKindDescription, domain.VariantKindOverlay},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(variants))
	}
	byKind := map[domain.VariantKind]string{}
	for _, v := range variants {
		byKind[v.Kind] = v.Text
	}
	if byKind[domain.VariantKindTitle] != "Hand-Poured Soy Candles" {
		t.Errorf("title = %q", byKind[domain.VariantKindTitle])
	}
	if !strings.Contains(byKind[domain.VariantKindDescription], "home goods") {
		t.Errorf("description missing category: %q", byKind[domain.VariantKindDescription])
	}
	if overlay := byKind[domain.VariantKindOverlay]; len(overlay) > 30 {
		t.Errorf("overlay too long: %q", overlay)
	}
}

func TestStaticGeneratorEmptyTopic(t *testing.T) {
	gen := NewStaticGenerator()
	if _, err := gen.Generate(context.Background(), Request{Topic: "  "}); err == nil {
		t.Fatal("expected error for blank topic")
	}
}

func TestTruncateBreaksOnWord(t *testing.T) {
	if got := truncate("Fresh Sourdough Every Single Morning", 20); got != "Fresh Sourdough" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 30); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestTruncateKeepsMultiByteRunesIntact(t *testing.T) {
	if got := truncate("Kürbiskernbrötchen für Naschkatzen", 20); got != "Kürbiskernbrötchen" {
		t.Fatalf("truncate = %q", got)
	}
	got := truncate("こんにちはこんにちはこんにちは", 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Fatalf("got %d runes, want 10", n)
	}
}

func geminiTestClient(t *testing.T, handler http.HandlerFunc) *genai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := genai.NewClient(genai.Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "gemini-2.0-flash",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
}

func TestGeminiGeneratorParsesPayload(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		payload := `{"title":"Banana Bread Bonanza","description":"Warm loaves daily.","overlay":"Fresh Today"}`
		_ = json.NewEncoder(w).Encode(candidateResponse(payload))
	})

	gen := NewGeminiGenerator(client)
	variants, err := gen.Generate(context.Background(), Request{
		Topic: "banana bread",
		Kinds: []domain.VariantKind{domain.VariantKindTitle, domain.VariantKindOverlay},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(variants))
	}
	if variants[0].Kind != domain.VariantKindTitle || variants[0].Text != "Banana Bread Bonanza" {
		t.Fatalf("title variant = %+v", variants[0])
	}
	if variants[1].Kind != domain.VariantKindOverlay || variants[1].Text != "Fresh Today" {
		t.Fatalf("overlay variant = %+v", variants[1])
	}
}

func TestGeminiGeneratorEmptyFieldsIsError(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse(`{"title":"","description":"","overlay":""}`))
	})

	gen := NewGeminiGenerator(client)
	if _, err := gen.Generate(context.Background(), Request{
		Topic: "espresso",
		Kinds: []domain.VariantKind{domain.VariantKindTitle},
	}); err == nil {
		t.Fatal("expected error when every field is blank")
	}
}

func TestGeminiGeneratorMalformedPayloadIsError(t *testing.T) {
	client := geminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse("not json at all"))
	})

	gen := NewGeminiGenerator(client)
	if _, err := gen.Generate(context.Background(), Request{
		Topic: "espresso",
		Kinds: []domain.VariantKind{domain.VariantKindTitle},
	}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGeminiGeneratorNotConfigured(t *testing.T) {
	client, err := genai.NewClient(genai.Options{})
	if err != nil {
		t.Fatal(err)
	}
	gen := NewGeminiGenerator(client)
	if _, err := gen.Generate(context.Background(), Request{Topic: "x", Kinds: []domain.VariantKind{domain.VariantKindTitle}}); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
