package audioio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/youpy/go-wav"
)

// EncodeWAV writes interleaved PCM16 samples as a WAV stream.
func EncodeWAV(w io.Writer, samples []int16, sampleRate, channels int) error {
	if channels < 1 || channels > 2 {
		return fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	frames := len(samples) / channels
	ww := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), 16)

	out := make([]wav.Sample, frames)
	for i := range out {
		for ch := 0; ch < channels; ch++ {
			out[i].Values[ch] = int(samples[i*channels+ch])
		}
	}
	if err := ww.WriteSamples(out); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// WAVBytes encodes samples into an in-memory WAV file.
func WAVBytes(samples []int16, sampleRate, channels int) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, samples, sampleRate, channels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeWAV reads a PCM16 WAV file into an AudioChunk.
func DecodeWAV(data []byte) (AudioChunk, error) {
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		return AudioChunk{}, fmt.Errorf("wav: read format: %w", err)
	}
	if format.BitsPerSample != 16 {
		return AudioChunk{}, fmt.Errorf("wav: unsupported bit depth %d", format.BitsPerSample)
	}
	pcm, err := io.ReadAll(r)
	if err != nil {
		return AudioChunk{}, fmt.Errorf("wav: read data: %w", err)
	}
	return AudioChunk{
		Samples:    BytesToSamples(pcm),
		SampleRate: int(format.SampleRate),
		Channels:   int(format.NumChannels),
	}, nil
}
