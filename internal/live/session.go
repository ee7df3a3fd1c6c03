package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Session manages one long-lived streaming connection to the generative
// backend for a single bot: connect, audio send, event receive, proactive
// reconnection before the backend's hard session-lifetime limit, and
// resumable reconnection with the server-issued handle.
type Session struct {
	botID         string
	system        string
	client        Client
	handler       Handler
	timeoutMargin time.Duration

	mu               sync.Mutex
	stream           Stream
	connected        bool
	closed           bool
	reconnecting     bool
	sendErrorLogged  bool
	resumptionHandle string
	sessionStart     time.Time
	audioBuf         []byte
	textBuf          []byte

	loopCancel  context.CancelFunc
	loopDone    chan struct{}
	timerCancel context.CancelFunc
	timerDone   chan struct{}

	chunksSent     atomic.Int64
	bytesSent      atomic.Int64
	chunksReceived atomic.Int64
}

func NewSession(botID, systemInstruction string, client Client, handler Handler, timeoutMargin time.Duration) *Session {
	return &Session{
		botID:         botID,
		system:        systemInstruction,
		client:        client,
		handler:       handler,
		timeoutMargin: timeoutMargin,
	}
}

func (s *Session) BotID() string { return s.botID }

// Connected reports whether the session currently holds a usable stream.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ChunksSent returns the number of audio chunks streamed to the backend.
func (s *Session) ChunksSent() int64 { return s.chunksSent.Load() }

// BytesSent returns the total audio bytes streamed to the backend.
func (s *Session) BytesSent() int64 { return s.bytesSent.Load() }

// Connect opens the stream and starts the receive loop and reconnect timer.
func (s *Session) Connect(ctx context.Context) error {
	stream, err := s.client.Connect(ctx, ConnectConfig{
		SystemInstruction: s.system,
		ResumptionHandle:  s.currentHandle(),
	})
	if err != nil {
		return fmt.Errorf("connect live session: %w", err)
	}

	s.mu.Lock()
	s.stream = stream
	s.connected = true
	s.sendErrorLogged = false
	s.sessionStart = time.Now()
	s.mu.Unlock()
	slog.Info("live session connected", "bot_id", s.botID)

	s.startReceiveLoop(stream)
	s.startReconnectTimer()
	return nil
}

// SendAudio streams one PCM chunk to the backend. It is a no-op while
// disconnected. A send failure marks the session disconnected and schedules a
// single asynchronous reconnect; chunks lost in the reconnect window are
// accepted loss.
func (s *Session) SendAudio(pcm []byte) {
	s.mu.Lock()
	stream := s.stream
	connected := s.connected
	s.mu.Unlock()
	if !connected || stream == nil {
		return
	}

	sent := s.chunksSent.Add(1)
	s.bytesSent.Add(int64(len(pcm)))

	if err := stream.SendAudio(pcm); err != nil {
		s.mu.Lock()
		logged := s.sendErrorLogged
		s.sendErrorLogged = true
		s.connected = false
		s.mu.Unlock()
		if !logged {
			slog.Warn("live session send failed, triggering reconnect", "bot_id", s.botID, "error", err)
		}
		s.scheduleReconnect()
		return
	}

	s.mu.Lock()
	s.sendErrorLogged = false
	s.mu.Unlock()
	if sent == 1 {
		slog.Info("first audio chunk sent to live session", "bot_id", s.botID, "bytes", len(pcm))
	} else if sent%100 == 0 {
		slog.Info("live session audio stats", "bot_id", s.botID, "chunks_sent", sent, "bytes_sent", s.bytesSent.Load())
	}
}

// SendText submits a text turn to the backend. Unlike SendAudio a failure is
// returned to the caller, because a lost prompt means a lost response; the
// reconnect handling is the same.
func (s *Session) SendText(text string) error {
	s.mu.Lock()
	stream := s.stream
	connected := s.connected
	s.mu.Unlock()
	if !connected || stream == nil {
		return fmt.Errorf("live session is not connected")
	}

	if err := stream.SendText(text); err != nil {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		s.scheduleReconnect()
		return fmt.Errorf("send text to live session: %w", err)
	}
	return nil
}

func (s *Session) startReceiveLoop(stream Stream) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.loopCancel = cancel
	s.loopDone = done
	s.mu.Unlock()
	go s.receiveLoop(ctx, stream, done)
}

func (s *Session) receiveLoop(ctx context.Context, stream Stream, done chan struct{}) {
	defer close(done)
	slog.Info("live session receive loop started", "bot_id", s.botID)

	for {
		event, err := stream.Receive()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("live session receive loop cancelled", "bot_id", s.botID)
				return
			}
			slog.Error("live session receive loop error", "bot_id", s.botID, "error", err)
			// Only reconnect on unexpected breakage; an intentional
			// disconnect already flipped connected off.
			if s.Connected() {
				s.scheduleReconnect()
			}
			return
		}
		if event == nil {
			continue
		}
		s.handleEvent(event)
	}
}

func (s *Session) handleEvent(event *ServerEvent) {
	if event.ResumptionHandle != "" {
		s.mu.Lock()
		s.resumptionHandle = event.ResumptionHandle
		s.mu.Unlock()
		slog.Info("live session resumption handle updated", "bot_id", s.botID)
	}

	if len(event.Audio) > 0 {
		received := s.chunksReceived.Add(1)
		s.mu.Lock()
		s.audioBuf = append(s.audioBuf, event.Audio...)
		s.mu.Unlock()
		if received == 1 {
			slog.Info("first audio chunk received from live session", "bot_id", s.botID, "bytes", len(event.Audio))
		}
		s.dispatch("on_audio_chunk", func() { s.handler.OnAudioChunk(event.Audio) })
	}

	if event.Text != "" {
		s.mu.Lock()
		s.textBuf = append(s.textBuf, event.Text...)
		s.mu.Unlock()
		s.dispatch("on_text_chunk", func() { s.handler.OnTextChunk(event.Text) })
	}

	if event.TurnComplete {
		s.mu.Lock()
		audio := s.audioBuf
		text := string(s.textBuf)
		s.audioBuf = nil
		s.textBuf = nil
		s.mu.Unlock()

		slog.Info("live session turn complete", "bot_id", s.botID, "audio_bytes", len(audio), "text_len", len(text))
		if len(audio) > 0 || text != "" {
			s.dispatch("on_turn_complete", func() { s.handler.OnTurnComplete(audio, text) })
		}
	}
}

// dispatch isolates handler failures from the receive loop.
func (s *Session) dispatch(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("live session handler panicked", "bot_id", s.botID, "handler", name, "panic", r)
		}
	}()
	fn()
}

func (s *Session) startReconnectTimer() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.timerCancel = cancel
	s.timerDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		timer := time.NewTimer(s.timeoutMargin)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if !s.Connected() {
			return
		}
		s.mu.Lock()
		elapsed := time.Since(s.sessionStart)
		s.mu.Unlock()
		slog.Info("live session timeout approaching, reconnecting", "bot_id", s.botID, "elapsed", elapsed.Round(time.Second))
		// Reconnect on a separate goroutine so the timer goroutine can
		// exit and close its done channel; reconnect awaits it before
		// arming the next timer.
		s.scheduleReconnect()
	}()
}

// scheduleReconnect runs reconnect on its own goroutine at most once per
// failure streak.
func (s *Session) scheduleReconnect() {
	s.mu.Lock()
	if s.reconnecting {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			s.reconnecting = false
			s.mu.Unlock()
		}()
		s.reconnect()
	}()
}

// reconnect tears the current connection down and dials again with the most
// recent resumption handle. On failure the session stays disconnected until a
// caller recreates it.
func (s *Session) reconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.connected = false
	stream := s.stream
	s.stream = nil
	loopCancel := s.loopCancel
	loopDone := s.loopDone
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			slog.Warn("error closing old live stream", "bot_id", s.botID, "error", err)
		}
	}
	if loopCancel != nil {
		loopCancel()
	}
	if loopDone != nil {
		<-loopDone
	}

	newStream, err := s.client.Connect(context.Background(), ConnectConfig{
		SystemInstruction: s.system,
		ResumptionHandle:  s.currentHandle(),
	})
	if err != nil {
		slog.Error("failed to reconnect live session", "bot_id", s.botID, "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = newStream.Close()
		return
	}
	s.stream = newStream
	s.connected = true
	s.sendErrorLogged = false
	s.sessionStart = time.Now()
	hasHandle := s.resumptionHandle != ""
	timerCancel := s.timerCancel
	timerDone := s.timerDone
	s.mu.Unlock()
	slog.Info("live session reconnected", "bot_id", s.botID, "resumption", hasHandle)

	s.startReceiveLoop(newStream)

	if timerCancel != nil {
		timerCancel()
	}
	if timerDone != nil {
		<-timerDone
	}
	s.startReconnectTimer()
}

// Disconnect cancels the background goroutines, awaits them and closes the
// stream. Idempotent; never panics.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.closed = true
	stream := s.stream
	s.stream = nil
	loopCancel := s.loopCancel
	loopDone := s.loopDone
	timerCancel := s.timerCancel
	timerDone := s.timerDone
	s.loopCancel = nil
	s.loopDone = nil
	s.timerCancel = nil
	s.timerDone = nil
	s.mu.Unlock()

	if timerCancel != nil {
		timerCancel()
	}
	if loopCancel != nil {
		loopCancel()
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			slog.Warn("error closing live stream", "bot_id", s.botID, "error", err)
		}
	}
	if loopDone != nil {
		<-loopDone
	}
	if timerDone != nil {
		<-timerDone
	}
	slog.Info("live session disconnected", "bot_id", s.botID)
}

func (s *Session) currentHandle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumptionHandle
}
