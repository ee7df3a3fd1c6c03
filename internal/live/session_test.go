package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStream struct {
	mu         sync.Mutex
	events     chan *ServerEvent
	sentChunks [][]byte
	sentTexts  []string
	sendErr    error
	closed     bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan *ServerEvent, 16)}
}

func (f *fakeStream) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	chunk := make([]byte, len(pcm))
	copy(chunk, pcm)
	f.sentChunks = append(f.sentChunks, chunk)
	return nil
}

func (f *fakeStream) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTexts = append(f.sentTexts, text)
	return nil
}

func (f *fakeStream) Receive() (*ServerEvent, error) {
	event, ok := <-f.events
	if !ok {
		return nil, errors.New("stream closed")
	}
	return event, nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeStream) push(event *ServerEvent) {
	f.events <- event
}

func (f *fakeStream) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sentChunks...)
}

type fakeClient struct {
	mu         sync.Mutex
	streams    []*fakeStream
	handles    []string
	connectErr error
	// gate, when set, blocks Connect until it is closed.
	gate chan struct{}
}

func (c *fakeClient) Connect(_ context.Context, cfg ConnectConfig) (Stream, error) {
	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	stream := newFakeStream()
	c.streams = append(c.streams, stream)
	c.handles = append(c.handles, cfg.ResumptionHandle)
	return stream, nil
}

func (c *fakeClient) setGate(gate chan struct{}) {
	c.mu.Lock()
	c.gate = gate
	c.mu.Unlock()
}

func (c *fakeClient) connectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

func (c *fakeClient) stream(i int) *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[i]
}

func (c *fakeClient) handle(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles[i]
}

type turnRecord struct {
	audio []byte
	text  string
}

type recordingHandler struct {
	mu     sync.Mutex
	turns  []turnRecord
	turnCh chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{turnCh: make(chan struct{}, 16)}
}

func (h *recordingHandler) OnAudioChunk(_ []byte) {}
func (h *recordingHandler) OnTextChunk(_ string)  {}

func (h *recordingHandler) OnTurnComplete(audio []byte, text string) {
	h.mu.Lock()
	h.turns = append(h.turns, turnRecord{audio: append([]byte(nil), audio...), text: text})
	h.mu.Unlock()
	h.turnCh <- struct{}{}
}

func (h *recordingHandler) recorded() []turnRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]turnRecord(nil), h.turns...)
}

func (h *recordingHandler) awaitTurn(t *testing.T) {
	t.Helper()
	select {
	case <-h.turnCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for turn delivery")
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func newConnectedSession(t *testing.T, client *fakeClient, handler Handler) *Session {
	t.Helper()
	session := NewSession("bot-1", "system prompt", client, handler, time.Hour)
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(session.Disconnect)
	return session
}

func TestSession_TurnDeliveredOnceWithBufferReset(t *testing.T) {
	client := &fakeClient{}
	handler := newRecordingHandler()
	newConnectedSession(t, client, handler)

	stream := client.stream(0)
	stream.push(&ServerEvent{Audio: []byte{1, 2}})
	stream.push(&ServerEvent{Audio: []byte{3, 4}, Text: "こん"})
	stream.push(&ServerEvent{Text: "にちは"})
	stream.push(&ServerEvent{TurnComplete: true})
	handler.awaitTurn(t)

	turns := handler.recorded()
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if string(turns[0].audio) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("unexpected turn audio: %v", turns[0].audio)
	}
	if turns[0].text != "こんにちは" {
		t.Fatalf("unexpected turn text: %q", turns[0].text)
	}

	// A turn with no accumulated content is not delivered.
	stream.push(&ServerEvent{TurnComplete: true})

	// The next turn carries only its own content.
	stream.push(&ServerEvent{Audio: []byte{9}})
	stream.push(&ServerEvent{TurnComplete: true})
	handler.awaitTurn(t)

	turns = handler.recorded()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if string(turns[1].audio) != string([]byte{9}) || turns[1].text != "" {
		t.Fatalf("expected buffers reset between turns: %+v", turns[1])
	}
}

func TestSession_TextOnlyTurnDelivered(t *testing.T) {
	client := &fakeClient{}
	handler := newRecordingHandler()
	newConnectedSession(t, client, handler)

	stream := client.stream(0)
	stream.push(&ServerEvent{Text: "音声なしの応答"})
	stream.push(&ServerEvent{TurnComplete: true})
	handler.awaitTurn(t)

	turns := handler.recorded()
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if len(turns[0].audio) != 0 || turns[0].text != "音声なしの応答" {
		t.Fatalf("unexpected turn: %+v", turns[0])
	}
}

func TestSession_SendAudioCounters(t *testing.T) {
	client := &fakeClient{}
	session := newConnectedSession(t, client, newRecordingHandler())

	// 100ms chunks at 16kHz mono s16le.
	chunk := make([]byte, 3200)
	for i := 0; i < 10; i++ {
		session.SendAudio(chunk)
	}

	if got := session.ChunksSent(); got != 10 {
		t.Fatalf("expected 10 chunks sent, got %d", got)
	}
	if got := session.BytesSent(); got != 32000 {
		t.Fatalf("expected 32000 bytes sent, got %d", got)
	}
	if got := len(client.stream(0).sent()); got != 10 {
		t.Fatalf("expected 10 chunks on the stream, got %d", got)
	}
}

func TestSession_SendAudioNoopWhenDisconnected(t *testing.T) {
	session := NewSession("bot-1", "system prompt", &fakeClient{}, newRecordingHandler(), time.Hour)
	session.SendAudio([]byte{1, 2, 3})
	if session.ChunksSent() != 0 {
		t.Fatal("expected no chunks counted while disconnected")
	}
}

func TestSession_ResumptionHandleSurvivesReconnect(t *testing.T) {
	client := &fakeClient{}
	session := newConnectedSession(t, client, newRecordingHandler())

	stream := client.stream(0)
	stream.push(&ServerEvent{ResumptionHandle: "handle-1"})
	waitFor(t, "handle stored", func() bool { return session.currentHandle() == "handle-1" })

	// Breaking the stream while connected triggers a reconnect that carries
	// the stored handle.
	_ = stream.Close()
	waitFor(t, "reconnect", func() bool { return client.connectCount() == 2 })

	if got := client.handle(0); got != "" {
		t.Fatalf("expected empty handle on first connect, got %q", got)
	}
	if got := client.handle(1); got != "handle-1" {
		t.Fatalf("expected stored handle on reconnect, got %q", got)
	}
	waitFor(t, "session connected", session.Connected)
}

func TestSession_SendFailureSingleFlightReconnect(t *testing.T) {
	client := &fakeClient{}
	session := newConnectedSession(t, client, newRecordingHandler())

	gate := make(chan struct{})
	client.setGate(gate)
	stream := client.stream(0)
	stream.mu.Lock()
	stream.sendErr = errors.New("send failed")
	stream.mu.Unlock()

	// The first failed send marks the session disconnected and schedules the
	// reconnect, which blocks at the gated dial. Later sends are no-ops.
	for i := 0; i < 5; i++ {
		session.SendAudio([]byte{1, 2})
	}
	if got := session.ChunksSent(); got != 1 {
		t.Fatalf("expected sends after the failure to be no-ops, got %d counted", got)
	}

	// Repeated reconnect requests while one is in flight must not stack up
	// additional dials.
	session.scheduleReconnect()
	session.scheduleReconnect()
	if got := client.connectCount(); got != 1 {
		t.Fatalf("expected no dial before the gate opens, got %d", got)
	}

	close(gate)
	waitFor(t, "reconnect", func() bool { return client.connectCount() == 2 })
	waitFor(t, "session connected", session.Connected)
	time.Sleep(50 * time.Millisecond)
	if got := client.connectCount(); got != 2 {
		t.Fatalf("expected exactly one reconnect dial, got %d total connects", got)
	}
}

func TestSession_DisconnectIdempotent(t *testing.T) {
	client := &fakeClient{}
	session := newConnectedSession(t, client, newRecordingHandler())

	session.Disconnect()
	session.Disconnect()

	if session.Connected() {
		t.Fatal("expected session disconnected")
	}
	session.SendAudio([]byte{1})
	if session.ChunksSent() != 0 {
		t.Fatal("expected no sends after disconnect")
	}
}

func TestRegistry_CreateReplacesExisting(t *testing.T) {
	client := &fakeClient{}
	registry := NewRegistry(client, time.Hour)
	t.Cleanup(registry.Shutdown)

	first, err := registry.CreateSession(context.Background(), "bot-1", "system", newRecordingHandler())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := registry.CreateSession(context.Background(), "bot-1", "system", newRecordingHandler())
	if err != nil {
		t.Fatalf("recreate failed: %v", err)
	}

	if first.Connected() {
		t.Fatal("expected first session torn down")
	}
	if !second.Connected() {
		t.Fatal("expected second session connected")
	}
	if registry.GetSession("bot-1") != second {
		t.Fatal("expected registry to hold the replacement session")
	}
}

func TestRegistry_RemoveSession(t *testing.T) {
	client := &fakeClient{}
	registry := NewRegistry(client, time.Hour)

	session, err := registry.CreateSession(context.Background(), "bot-1", "system", newRecordingHandler())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	registry.RemoveSession("bot-1")

	if registry.HasSession("bot-1") {
		t.Fatal("expected session removed")
	}
	if session.Connected() {
		t.Fatal("expected session disconnected")
	}
}
