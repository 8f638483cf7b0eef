package audioio

import (
	"math"
	"time"
)

// Resample converts mono PCM16 between sample rates with linear interpolation.
// Good enough for speech.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	n := int(float64(len(samples)) / ratio)
	out := make([]int16, n)
	last := len(samples) - 1

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		a, b := float64(samples[idx]), float64(samples[idx+1])
		out[i] = int16(a + frac*(b-a))
	}
	return out
}

// BytesToSamples decodes little-endian PCM16. A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes encodes samples as little-endian PCM16.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// Level returns the RMS level of samples in [0, 1].
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Tone renders a sequence of sine segments, one per frequency, each lasting
// step. A triangular envelope fades the whole cue in and out.
func Tone(rate int, step time.Duration, amplitude float64, freqs ...float64) []int16 {
	per := int(step.Seconds() * float64(rate))
	total := per * len(freqs)
	if total == 0 {
		return nil
	}
	out := make([]int16, total)
	var phase float64
	for i := range out {
		f := freqs[i/per]
		phase += 2 * math.Pi * f / float64(rate)
		env := 1 - math.Abs(2*float64(i)/float64(total)-1)
		out[i] = int16(math.Sin(phase) * env * amplitude * 32767)
	}
	return out
}
