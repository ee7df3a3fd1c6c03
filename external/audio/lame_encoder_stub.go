//go:build !lame

package audio

import "github.com/Uto-inc/ai-meeting-proxy/internal/audio"

type noopEncoder struct{}

func NewLameEncoder(_ int) audio.Encoder {
	return &noopEncoder{}
}

func (e *noopEncoder) EncodeMP3(_ []byte, _ int) ([]byte, error) {
	return nil, nil
}
