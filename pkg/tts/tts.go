// Package tts converts assistant replies to speech for the fallback path.
//
// Providers implement Provider and return PCM16 audio ready for the
// player. OpenAI (through go-openai, optionally against any compatible base
// URL) is the built-in provider; Chain tries several in order.
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithLanguage("pt-BR"),
//	)
//	result, _ := provider.Synthesize(ctx, "Olá!")
package tts

import (
	"context"
	"time"
)

// Provider synthesizes speech.
type Provider interface {
	// Synthesize converts text to a complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks that the provider is usable.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// Audio is little-endian PCM16.
	Audio  []byte
	Format AudioFormat

	// Voice actually used.
	Voice string

	Duration  time.Duration
	CharCount int
	Latency   time.Duration
}

// AudioFormat describes PCM audio.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// Encoding identifies a PCM layout.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM24 Encoding = "pcm_24000"
)

// PCM24 is the format returned by OpenAI speech with response_format=pcm.
var PCM24 = AudioFormat{Encoding: EncodingPCM24, SampleRate: 24000, Channels: 1, BitDepth: 16}

// SampleRateFromEncoding extracts the sample rate from an encoding.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	default:
		return 24000
	}
}

// PCMDuration returns the play time of n bytes of audio in format f.
func PCMDuration(n int, f AudioFormat) time.Duration {
	bytesPerSecond := f.SampleRate * f.Channels * f.BitDepth / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bytesPerSecond)
}
