package wsbridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/bot"
	"github.com/Uto-inc/ai-meeting-proxy/internal/outbound"
	"github.com/gorilla/websocket"
)

const (
	firstMessageTimeout = 10 * time.Second
	botCreateTimeout    = 30 * time.Second
)

// Handler serves the /ws/audio realtime feed. One websocket connection
// carries one bot's meeting: the first event identifies the bot, then mixed
// audio and transcript events stream until the meeting ends.
type Handler struct {
	bots        *bot.Registry
	encoder     audio.Encoder
	sink        outbound.AudioSink
	captureRate int
}

func NewHandler(bots *bot.Registry, encoder audio.Encoder, sink outbound.AudioSink, captureRate int) *Handler {
	return &Handler{
		bots:        bots,
		encoder:     encoder,
		sink:        sink,
		captureRate: captureRate,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(firstMessageTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		slog.Warn("audio feed closed before first event", "error", err)
		return
	}
	var first envelope
	if err := json.Unmarshal(raw, &first); err != nil {
		slog.Warn("audio feed first event is not valid JSON", "error", err)
		return
	}

	botID := first.Data.Bot.ID
	if botID == "" {
		botID = r.URL.Query().Get("bot_id")
	}
	if botID == "" {
		slog.Warn("audio feed carries no bot id, closing")
		return
	}
	meetingID := r.URL.Query().Get("meeting_id")

	transport := NewStreamTransport(botID, h.captureRate, h.encoder, h.sink)
	ctx, cancel := context.WithTimeout(context.Background(), botCreateTimeout)
	orchestrator, err := h.bots.CreateWithTransport(ctx, bot.CreateParams{BotID: botID, MeetingID: meetingID}, transport)
	cancel()
	if err != nil {
		slog.Error("failed to create bot for audio feed", "bot_id", botID, "error", err)
		return
	}
	defer h.bots.Remove(botID)
	slog.Info("audio feed connected", "bot_id", botID, "meeting_id", meetingID)

	_ = conn.SetReadDeadline(time.Time{})
	h.dispatch(orchestrator, transport, &first)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			slog.Info("audio feed disconnected", "bot_id", botID, "error", err)
			return
		}
		var event envelope
		if err := json.Unmarshal(raw, &event); err != nil {
			slog.Warn("dropping undecodable feed event", "bot_id", botID, "error", err)
			continue
		}
		h.dispatch(orchestrator, transport, &event)
	}
}

// dispatch routes one decoded event. Payload decode failures drop that event
// only; the feed loop keeps running.
func (h *Handler) dispatch(orchestrator *bot.Orchestrator, transport *StreamTransport, event *envelope) {
	switch event.Event {
	case eventAudioMixedRaw:
		var payload audioPayload
		if err := json.Unmarshal(event.Data.Data, &payload); err != nil {
			slog.Warn("dropping undecodable audio event", "bot_id", orchestrator.BotID(), "error", err)
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(payload.Buffer)
		if err != nil {
			slog.Warn("dropping audio event with invalid base64", "bot_id", orchestrator.BotID(), "error", err)
			return
		}
		transport.HandleAudio(pcm)

	case eventTranscript:
		var payload transcriptPayload
		if err := json.Unmarshal(event.Data.Data, &payload); err != nil {
			slog.Warn("dropping undecodable transcript event", "bot_id", orchestrator.BotID(), "error", err)
			return
		}
		texts := make([]string, 0, len(payload.Words))
		for _, w := range payload.Words {
			if w.Text != "" {
				texts = append(texts, w.Text)
			}
		}
		text := strings.TrimSpace(strings.Join(texts, " "))
		if text == "" {
			return
		}
		orchestrator.HandleUtterance(payload.Participant.Name, text)

	case eventSpeechOn, eventSpeechOff:
		var payload participantEventPayload
		if err := json.Unmarshal(event.Data.Data, &payload); err != nil {
			return
		}
		slog.Debug("participant speech event", "bot_id", orchestrator.BotID(), "event", event.Event, "participant", payload.Participant.Name)

	default:
		// Unknown events are ignored.
	}
}
