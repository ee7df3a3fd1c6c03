package wsbridge

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
)

type fakeEncoder struct {
	out []byte
	err error

	mu    sync.Mutex
	calls int
	rates []int
}

func (f *fakeEncoder) EncodeMP3(_ []byte, sampleRate int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rates = append(f.rates, sampleRate)
	return f.out, f.err
}

type fakeSink struct {
	mu     sync.Mutex
	botIDs []string
	b64s   []string
	err    error
}

func (f *fakeSink) SendAudio(_ context.Context, botID, b64MP3 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.botIDs = append(f.botIDs, botID)
	f.b64s = append(f.b64s, b64MP3)
	return nil
}

func TestStreamTransport_HandleAudioForwardsChunks(t *testing.T) {
	transport := NewStreamTransport("bot-1", 16000, &fakeEncoder{}, &fakeSink{})

	var received [][]byte
	if err := transport.Start(context.Background(), func(pcm []byte) {
		received = append(received, pcm)
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	transport.HandleAudio([]byte{1, 2, 3, 4})
	if len(received) != 1 || len(received[0]) != 4 {
		t.Fatalf("expected one forwarded chunk, got %v", received)
	}

	transport.Stop()
	transport.HandleAudio([]byte{5, 6})
	if len(received) != 1 {
		t.Fatal("expected no forwarding after stop")
	}
}

func TestStreamTransport_HandleAudioBeforeStart(t *testing.T) {
	transport := NewStreamTransport("bot-1", 16000, &fakeEncoder{}, &fakeSink{})
	// Must not panic without a registered callback.
	transport.HandleAudio([]byte{1, 2})
}

func TestStreamTransport_PlayAudioEncodesAndSends(t *testing.T) {
	encoder := &fakeEncoder{out: []byte{0xff, 0xfb, 0x01}}
	sink := &fakeSink{}
	transport := NewStreamTransport("bot-1", 16000, encoder, sink)

	if err := transport.PlayAudio(make([]byte, 2400), 24000); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	encoder.mu.Lock()
	if encoder.calls != 1 || encoder.rates[0] != 24000 {
		t.Fatalf("unexpected encoder calls: %d rates %v", encoder.calls, encoder.rates)
	}
	encoder.mu.Unlock()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.b64s) != 1 || sink.botIDs[0] != "bot-1" {
		t.Fatalf("expected one sink send for bot-1, got %v", sink.botIDs)
	}
	want := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfb, 0x01})
	if sink.b64s[0] != want {
		t.Fatalf("expected base64 mp3 %q, got %q", want, sink.b64s[0])
	}
}

func TestStreamTransport_PlayAudioDropsEmptyEncoderOutput(t *testing.T) {
	sink := &fakeSink{}
	transport := NewStreamTransport("bot-1", 16000, &fakeEncoder{}, sink)

	if err := transport.PlayAudio(make([]byte, 2400), 24000); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.b64s) != 0 {
		t.Fatal("expected no sink send for empty encoder output")
	}
}

func TestStreamTransport_PlayAudioAfterStop(t *testing.T) {
	transport := NewStreamTransport("bot-1", 16000, &fakeEncoder{out: []byte{1}}, &fakeSink{})
	transport.Stop()
	if err := transport.PlayAudio([]byte{1, 2}, 24000); err == nil {
		t.Fatal("expected error after stop")
	}
}
