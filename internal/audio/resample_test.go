package audio

import (
	"bytes"
	"testing"
)

func TestResample_DownsampleCount(t *testing.T) {
	// 100ms at 48kHz mono s16le.
	in := make([]byte, 4800*2)
	out := Resample(in, 48000, 16000)
	if len(out) != 1600*2 {
		t.Fatalf("expected 1600 samples, got %d", len(out)/2)
	}
}

func TestResample_UpsampleCount(t *testing.T) {
	in := make([]byte, 1600*2)
	out := Resample(in, 16000, 48000)
	if len(out) != 4800*2 {
		t.Fatalf("expected 4800 samples, got %d", len(out)/2)
	}
}

func TestResample_IdentityOnEqualRates(t *testing.T) {
	in := EncodePCM16([]int16{1, -2, 3, -4})
	out := Resample(in, 16000, 16000)
	if !bytes.Equal(in, out) {
		t.Fatal("expected input returned unchanged for equal rates")
	}
}

func TestResample_PreservesConstantSignal(t *testing.T) {
	samples := make([]int16, 480)
	for i := range samples {
		samples[i] = 1000
	}
	out := DecodePCM16(Resample(EncodePCM16(samples), 48000, 16000))
	for i, s := range out {
		if s != 1000 {
			t.Fatalf("sample %d: expected 1000, got %d", i, s)
		}
	}
}

func TestResample_PreservesEndpoints(t *testing.T) {
	samples := []int16{100, 200, 300, 400, 500, 600}
	out := DecodePCM16(Resample(EncodePCM16(samples), 48000, 24000))
	if len(out) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(out))
	}
	if out[0] != 100 {
		t.Fatalf("expected first sample preserved, got %d", out[0])
	}
	if out[len(out)-1] != 600 {
		t.Fatalf("expected last sample preserved, got %d", out[len(out)-1])
	}
}

func TestResample_EmptyInput(t *testing.T) {
	if out := Resample(nil, 48000, 16000); len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}

func TestPlaybackSeconds(t *testing.T) {
	// 1 second at 24kHz mono s16le.
	pcm := make([]byte, 24000*2)
	if got := PlaybackSeconds(pcm, 24000); got != 1.0 {
		t.Fatalf("expected 1.0s, got %f", got)
	}
	if got := PlaybackSeconds(pcm, 0); got != 0 {
		t.Fatalf("expected 0 for invalid rate, got %f", got)
	}
}
