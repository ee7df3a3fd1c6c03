package wsbridge

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/outbound"
)

// streamFeedRate is the sample rate of the provider's mixed-audio feed.
const streamFeedRate = 16000

const sinkSendTimeout = 15 * time.Second

// StreamTransport is the network-bridged audio transport: capture chunks are
// pushed in from websocket events, playback goes out as base64 MP3 through
// the provider's output-audio endpoint.
type StreamTransport struct {
	botID      string
	targetRate int
	encoder    audio.Encoder
	sink       outbound.AudioSink

	mu      sync.Mutex
	onChunk audio.ChunkFunc
	stopped bool
}

func NewStreamTransport(botID string, targetRate int, encoder audio.Encoder, sink outbound.AudioSink) *StreamTransport {
	return &StreamTransport{
		botID:      botID,
		targetRate: targetRate,
		encoder:    encoder,
		sink:       sink,
	}
}

func (t *StreamTransport) Start(_ context.Context, onChunk audio.ChunkFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return fmt.Errorf("stream transport is stopped")
	}
	t.onChunk = onChunk
	return nil
}

// HandleAudio feeds one chunk of meeting audio from the websocket loop into
// the capture callback.
func (t *StreamTransport) HandleAudio(pcm []byte) {
	t.mu.Lock()
	onChunk := t.onChunk
	stopped := t.stopped
	t.mu.Unlock()
	if stopped || onChunk == nil {
		return
	}
	onChunk(audio.Resample(pcm, streamFeedRate, t.targetRate))
}

func (t *StreamTransport) PlayAudio(pcm []byte, sourceRate int) error {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return fmt.Errorf("stream transport is stopped")
	}

	mp3, err := t.encoder.EncodeMP3(pcm, sourceRate)
	if err != nil {
		return fmt.Errorf("encode turn audio: %w", err)
	}
	if len(mp3) == 0 {
		slog.Warn("mp3 encoder produced no output, dropping turn audio", "bot_id", t.botID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkSendTimeout)
	defer cancel()
	b64 := base64.StdEncoding.EncodeToString(mp3)
	if err := t.sink.SendAudio(ctx, t.botID, b64); err != nil {
		return fmt.Errorf("send turn audio: %w", err)
	}
	slog.Info("turn audio sent to meeting", "bot_id", t.botID, "mp3_bytes", len(mp3))
	return nil
}

func (t *StreamTransport) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.onChunk = nil
	t.mu.Unlock()
}
