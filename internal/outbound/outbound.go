package outbound

import "context"

// AudioSink delivers the bot's synthesized speech back into the meeting when
// the audio path is the streamed network bridge instead of a local device.
type AudioSink interface {
	// SendAudio pushes one complete turn of bot speech, already encoded as
	// base64 MP3, to the meeting bot identified by botID.
	SendAudio(ctx context.Context, botID, b64MP3 string) error
}
