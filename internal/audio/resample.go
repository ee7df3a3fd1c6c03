package audio

import (
	"encoding/binary"
	"math"
)

// Resample converts 16-bit signed little-endian mono PCM between sample rates
// using linear interpolation. The output holds round(n * dstRate / srcRate)
// samples; when the rates are equal the input is returned unchanged. No
// anti-aliasing filter is applied.
func Resample(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	samples := DecodePCM16(pcm)
	if len(samples) == 0 {
		return nil
	}

	outLen := int(math.Round(float64(len(samples)) * float64(dstRate) / float64(srcRate)))
	if outLen <= 0 {
		return nil
	}
	out := make([]int16, outLen)

	if len(samples) == 1 {
		for i := range out {
			out[i] = samples[0]
		}
		return EncodePCM16(out)
	}

	// Positions spread evenly over [0, len(samples)-1], matching a
	// linspace-style index mapping.
	step := float64(len(samples)-1) / float64(outLen-1)
	if outLen == 1 {
		step = 0
	}
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = int16(math.Round(a + (b-a)*frac))
	}
	return EncodePCM16(out)
}

// DecodePCM16 interprets raw bytes as little-endian int16 samples. A trailing
// odd byte is dropped.
func DecodePCM16(pcm []byte) []int16 {
	n := len(pcm) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// EncodePCM16 writes samples as little-endian int16 bytes.
func EncodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// PlaybackSeconds returns the duration of 16-bit mono PCM at sampleRate.
func PlaybackSeconds(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)) / float64(sampleRate*2)
}
