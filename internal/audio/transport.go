package audio

import (
	"context"
	"errors"
)

// ErrDeviceNotFound is returned by transport implementations when the
// configured capture or playback device cannot be resolved. It is fatal for
// that bridge instance.
var ErrDeviceNotFound = errors.New("audio device not found")

// ChunkFunc receives one fixed-duration chunk of 16-bit signed little-endian
// mono PCM at the transport's target sample rate.
type ChunkFunc func(pcm []byte)

// Transport is the duplex audio contract between a meeting and the live
// session: continuous capture in, on-demand playback out. Both the physical
// device bridge and the streamed-network variant satisfy it.
type Transport interface {
	// Start begins continuous capture and invokes onChunk for every chunk
	// until Stop is called. ctx bounds startup work only; the capture
	// pipeline outlives it. The callback runs on the transport's consumer
	// goroutine, never on the device callback thread.
	Start(ctx context.Context, onChunk ChunkFunc) error
	// PlayAudio resamples pcm from sourceRate to the playback sink's native
	// rate and writes it to the sink.
	PlayAudio(pcm []byte, sourceRate int) error
	// Stop tears down capture and playback resources. Idempotent, never
	// panics; every step is best-effort.
	Stop()
}

// TransportFactory builds one transport per bot bridge.
type TransportFactory func() (Transport, error)

// Encoder converts raw PCM to a compressed payload for the network sink.
type Encoder interface {
	// EncodeMP3 encodes 16-bit mono PCM at sampleRate into MP3 at the
	// configured bitrate.
	EncodeMP3(pcm []byte, sampleRate int) ([]byte, error)
}
