//go:build lame

package audio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/viert/go-lame"
)

type lameEncoder struct {
	mu          sync.Mutex
	bitrateKbps int
}

func NewLameEncoder(bitrateKbps int) audio.Encoder {
	return &lameEncoder{bitrateKbps: bitrateKbps}
}

func (e *lameEncoder) EncodeMP3(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var out bytes.Buffer
	wr := lame.NewWriter(&out)
	wr.Encoder.SetNumChannels(1)
	wr.Encoder.SetInSamplerate(sampleRate)
	wr.Encoder.SetBrate(e.bitrateKbps)
	if _, err := wr.Write(pcm); err != nil {
		wr.Close()
		return nil, fmt.Errorf("failed to encode mp3: %w", err)
	}
	if err := wr.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush mp3 encoder: %w", err)
	}
	return out.Bytes(), nil
}
