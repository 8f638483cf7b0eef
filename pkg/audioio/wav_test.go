package audioio

import (
	"bytes"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	in := []int16{0, 1000, -1000, 32767, -32768, 7}
	data, err := WAVBytes(in, 16000, 1)
	if err != nil {
		t.Fatalf("WAVBytes() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("missing RIFF header: %q", data[:4])
	}

	chunk, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if chunk.SampleRate != 16000 || chunk.Channels != 1 {
		t.Errorf("format = %d Hz / %d ch", chunk.SampleRate, chunk.Channels)
	}
	if len(chunk.Samples) != len(in) {
		t.Fatalf("samples = %d, want %d", len(chunk.Samples), len(in))
	}
	for i := range in {
		if chunk.Samples[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, chunk.Samples[i], in[i])
		}
	}
}

func TestEncodeWAVChannels(t *testing.T) {
	if _, err := WAVBytes([]int16{1}, 16000, 3); err == nil {
		t.Error("expected error for 3 channels")
	}
}
