package live

import "context"

// ConnectConfig carries the per-connection settings the backend adapter needs
// beyond its static configuration. ResumptionHandle is empty on the first
// connect and carries the server-issued handle on reconnects so the new
// connection continues the same logical conversation.
type ConnectConfig struct {
	SystemInstruction string
	ResumptionHandle  string
}

// ServerEvent is one decoded event from the backend's server-push stream.
// Exactly the fields relevant to the session are surfaced; unrecognized
// backend payloads never reach this layer.
type ServerEvent struct {
	// Audio is an inline PCM fragment of the in-progress turn.
	Audio []byte
	// Text is an output-transcription fragment of the in-progress turn.
	Text string
	// TurnComplete marks the end of the current model turn.
	TurnComplete bool
	// ResumptionHandle is non-empty when the server issued a new handle.
	ResumptionHandle string
}

// Stream is one live bidirectional connection to the generative backend.
type Stream interface {
	SendAudio(pcm []byte) error
	// SendText submits a complete text turn, prompting a model response.
	SendText(text string) error
	// Receive blocks until the next server event. It returns an error when
	// the stream ends or breaks; closing the stream unblocks it.
	Receive() (*ServerEvent, error)
	Close() error
}

// Client dials live streams against the generative backend.
type Client interface {
	Connect(ctx context.Context, cfg ConnectConfig) (Stream, error)
}

// Handler observes session output. All methods are fire-and-forget: a
// misbehaving handler is isolated by the session and cannot break the
// receive loop.
type Handler interface {
	// OnAudioChunk is invoked for every inline audio fragment, ahead of turn
	// completion, for low-latency partial playback.
	OnAudioChunk(pcm []byte)
	// OnTextChunk is invoked for every transcription fragment.
	OnTextChunk(text string)
	// OnTurnComplete delivers the full accumulated audio and text of one
	// turn. Invoked only when at least one of the two is non-empty.
	OnTurnComplete(audio []byte, text string)
}
