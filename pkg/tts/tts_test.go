package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestVoiceForLanguage(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"pt-BR", "nova"},
		{"pt_br", "nova"},
		{"pt-PT", "nova"},
		{"en-GB", "fable"},
		{"en-US", "alloy"},
		{"ja-JP", DefaultVoice},
		{"", DefaultVoice},
	}
	for _, tt := range tests {
		if got := VoiceForLanguage(tt.tag); got != tt.want {
			t.Errorf("VoiceForLanguage(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
	for _, v := range LanguageVoices {
		if !IsVoice(v) {
			t.Errorf("LanguageVoices references unknown voice %q", v)
		}
	}
}

func TestPCMDuration(t *testing.T) {
	if got := PCMDuration(48000, PCM24); got != time.Second {
		t.Errorf("PCMDuration = %v, want 1s", got)
	}
	if got := PCMDuration(100, AudioFormat{}); got != 0 {
		t.Errorf("PCMDuration of zero format = %v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	cfg.Apply(WithAPIKey("k"), WithSpeed(9))
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}
}

func TestOpenAISynthesize(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(make([]byte, 4800))
	}))
	defer srv.Close()

	p, err := NewOpenAI(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL+"/v1/"),
		WithLanguage("pt-BR"),
	)
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if p.Voice() != "nova" {
		t.Errorf("voice = %q, want nova", p.Voice())
	}

	res, err := p.Synthesize(context.Background(), "  Olá, tudo bem?  ")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(res.Audio) != 4800 {
		t.Errorf("audio bytes = %d", len(res.Audio))
	}
	if res.Duration != 100*time.Millisecond {
		t.Errorf("duration = %v, want 100ms", res.Duration)
	}
	if res.Format.SampleRate != 24000 {
		t.Errorf("sample rate = %d", res.Format.SampleRate)
	}
	for _, want := range []string{`"response_format":"pcm"`, `"voice":"nova"`, `"input":"Olá, tudo bem?"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body %s missing %s", gotBody, want)
		}
	}
}

func TestOpenAIEmptyText(t *testing.T) {
	p, err := NewOpenAI(WithAPIKey("k"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Synthesize(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestOpenAIErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	p, _ := NewOpenAI(WithAPIKey("k"), WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "oi")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Provider != "openai" {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestChainFallsThrough(t *testing.T) {
	failing := NewMock()
	failing.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		return nil, errors.New("boom")
	}
	ok := NewMock()

	chain, err := NewChain(nil, failing, ok)
	if err != nil {
		t.Fatal(err)
	}
	res, err := chain.Synthesize(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.CharCount != 3 {
		t.Errorf("char count = %d", res.CharCount)
	}
	if len(failing.Texts()) != 1 || len(ok.Texts()) != 1 {
		t.Errorf("expected both providers tried")
	}
}

func TestChainAllFail(t *testing.T) {
	sentinel := errors.New("down")
	m := NewMock()
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		return nil, sentinel
	}
	chain, _ := NewChain(nil, m, m)
	_, err := chain.Synthesize(context.Background(), "x")
	var cerr *ChainError
	if !errors.As(err, &cerr) || len(cerr.Errors) != 2 {
		t.Fatalf("expected ChainError with 2 errors, got %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("ChainError should unwrap to provider errors")
	}
}

func TestNewChainEmpty(t *testing.T) {
	if _, err := NewChain(nil); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestChainCloseAndHealth(t *testing.T) {
	a, b := NewMock(), NewMock()
	a.HealthFunc = func(ctx context.Context) error { return errors.New("sick") }
	chain, _ := NewChain(nil, a, b)
	if err := chain.Health(context.Background()); err != nil {
		t.Errorf("Health with one healthy provider: %v", err)
	}
	chain.Close()
	if !a.Closed() || !b.Closed() {
		t.Error("Close should close every provider")
	}
}
