package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/conversation"
	"github.com/Uto-inc/ai-meeting-proxy/internal/live"
	"github.com/Uto-inc/ai-meeting-proxy/internal/repository"
)

const (
	// preMuteLead is applied immediately before playback starts so the bot's
	// own voice cannot be recaptured in the scheduling gap.
	preMuteLead = 500 * time.Millisecond
	muteTailSec = 0.6
	muteMinSec  = 0.5
	muteMaxSec  = 12.0

	persistTimeout = 10 * time.Second

	playbackQueueSize = 4
)

// ComputeMuteWindow bounds the echo-suppression window around one playback:
// the playback duration plus a tail, clamped to [0.5s, 12s]. Zero-length
// playback gets the floor. The heuristic is empirical, not adaptive.
func ComputeMuteWindow(playbackSeconds float64) time.Duration {
	if playbackSeconds <= 0 {
		return time.Duration(muteMinSec * float64(time.Second))
	}
	muteSec := playbackSeconds + muteTailSec
	if muteSec < muteMinSec {
		muteSec = muteMinSec
	}
	if muteSec > muteMaxSec {
		muteSec = muteMaxSec
	}
	return time.Duration(muteSec * float64(time.Second))
}

// Orchestrator wires one bot's audio transport, live session, conversation
// state and persistence together. It implements live.Handler so the session
// delivers model turns straight to it.
type Orchestrator struct {
	botID       string
	meetingID   string
	displayName string
	outputRate  int
	deferrals   []string

	transport    audio.Transport
	liveRegistry *live.Registry
	state        *conversation.MeetingState
	repo         repository.Repository

	mu      sync.Mutex
	session *live.Session
	started bool
	stopped bool

	playCh   chan []byte
	playStop chan struct{}
	playDone chan struct{}

	muteMu    sync.Mutex
	muteUntil time.Time
}

type OrchestratorParams struct {
	BotID       string
	MeetingID   string
	DisplayName string
	// OutputRate is the sample rate of the model's synthesized audio.
	OutputRate      int
	DeferralPhrases []string

	Transport    audio.Transport
	LiveRegistry *live.Registry
	State        *conversation.MeetingState
	Repo         repository.Repository
}

func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	return &Orchestrator{
		botID:        p.BotID,
		meetingID:    p.MeetingID,
		displayName:  p.DisplayName,
		outputRate:   p.OutputRate,
		deferrals:    p.DeferralPhrases,
		transport:    p.Transport,
		liveRegistry: p.LiveRegistry,
		state:        p.State,
		repo:         p.Repo,
	}
}

func (o *Orchestrator) BotID() string     { return o.botID }
func (o *Orchestrator) MeetingID() string { return o.meetingID }

// Start loads the meeting materials, connects the live session with the
// assembled system instruction and begins forwarding captured audio.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true
	o.mu.Unlock()

	o.loadMaterials(ctx)
	o.startPlayback()

	system := o.state.BuildSystemPrompt(o.personaPrompt())
	session, err := o.liveRegistry.CreateSession(ctx, o.botID, system, o)
	if err != nil {
		o.stopPlayback()
		return fmt.Errorf("start bot %s: %w", o.botID, err)
	}
	o.mu.Lock()
	o.session = session
	o.mu.Unlock()

	if err := o.transport.Start(ctx, o.onCaptureChunk); err != nil {
		o.liveRegistry.RemoveSession(o.botID)
		o.stopPlayback()
		return fmt.Errorf("start bot %s: %w", o.botID, err)
	}

	o.updateBotStatus(ctx, repository.BotStatusJoined)
	slog.Info("bot started", "bot_id", o.botID, "meeting_id", o.meetingID, "display_name", o.displayName)
	return nil
}

// Stop tears the bot down. Every step is best-effort and independent; it is
// safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	o.transport.Stop()
	o.liveRegistry.RemoveSession(o.botID)
	o.stopPlayback()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	o.updateBotStatus(ctx, repository.BotStatusLeft)
	slog.Info("bot stopped", "bot_id", o.botID)
}

func (o *Orchestrator) personaPrompt() string {
	return fmt.Sprintf("あなたは会議に参加しているAIアシスタント「%s」です。参加者の代理として、丁寧な日本語で発言してください。", o.displayName)
}

func (o *Orchestrator) loadMaterials(ctx context.Context) {
	if o.meetingID == "" {
		return
	}
	materials, err := o.repo.ListMaterials(ctx, o.meetingID)
	if err != nil {
		slog.Warn("failed to load meeting materials", "bot_id", o.botID, "meeting_id", o.meetingID, "error", err)
		return
	}
	converted := make([]conversation.Material, 0, len(materials))
	for _, m := range materials {
		converted = append(converted, conversation.Material{Filename: m.Filename, ExtractedText: m.ExtractedText})
	}
	o.state.BuildMaterialsContext(converted)
	slog.Info("meeting materials loaded", "bot_id", o.botID, "meeting_id", o.meetingID, "count", len(converted))
}

func (o *Orchestrator) updateBotStatus(ctx context.Context, status repository.BotStatus) {
	if o.meetingID == "" {
		return
	}
	if err := o.repo.UpdateBotStatus(ctx, o.meetingID, o.botID, status); err != nil {
		slog.Warn("failed to update bot status", "bot_id", o.botID, "status", status, "error", err)
	}
}

// onCaptureChunk forwards meeting audio into the live session, dropping
// chunks while the echo-suppression window is active.
func (o *Orchestrator) onCaptureChunk(pcm []byte) {
	if o.isMuted() {
		return
	}
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		return
	}
	session.SendAudio(pcm)
}

// HandleUtterance records a participant's line and, when it warrants a reply
// and no response is already in flight, prompts the live session. The
// in-flight lock is released when the resulting turn completes.
func (o *Orchestrator) HandleUtterance(speaker, text string) {
	if speaker == "" || text == "" {
		return
	}
	o.state.AddUtterance(speaker, text)
	if !o.state.ShouldRespond(speaker, text) {
		return
	}
	o.state.SetResponding(true)

	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		o.state.SetResponding(false)
		return
	}

	prompt := o.state.BuildPrompt(speaker, text)
	if err := session.SendText(prompt); err != nil {
		slog.Warn("failed to prompt live session", "bot_id", o.botID, "error", err)
		o.state.SetResponding(false)
		return
	}
	slog.Info("response triggered", "bot_id", o.botID, "speaker", speaker)
}

// OnAudioChunk implements live.Handler. Inline fragments are accumulated by
// the session; playback happens on turn completion to keep the mute window
// aligned with one contiguous utterance.
func (o *Orchestrator) OnAudioChunk(_ []byte) {}

// OnTextChunk implements live.Handler.
func (o *Orchestrator) OnTextChunk(text string) {
	slog.Debug("transcription fragment", "bot_id", o.botID, "text", text)
}

// OnTurnComplete implements live.Handler: queue the turn's audio for playback
// and classify + persist its transcription. It runs on the session's receive
// goroutine, so playback (which can block on a slow sink) is handed off to the
// playback worker instead of being played inline.
func (o *Orchestrator) OnTurnComplete(turnAudio []byte, text string) {
	defer o.state.SetResponding(false)

	if len(turnAudio) > 0 {
		o.enqueuePlayback(turnAudio)
	}
	if text != "" {
		o.persistBotReply(text)
	}
}

func (o *Orchestrator) startPlayback() {
	o.mu.Lock()
	o.playCh = make(chan []byte, playbackQueueSize)
	o.playStop = make(chan struct{})
	o.playDone = make(chan struct{})
	ch, stop, done := o.playCh, o.playStop, o.playDone
	o.mu.Unlock()
	go o.playbackLoop(ch, stop, done)
}

func (o *Orchestrator) stopPlayback() {
	o.mu.Lock()
	stop := o.playStop
	done := o.playDone
	o.playStop = nil
	o.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (o *Orchestrator) playbackLoop(ch chan []byte, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case pcm := <-ch:
			o.playTurnAudio(pcm)
		}
	}
}

func (o *Orchestrator) enqueuePlayback(turnAudio []byte) {
	o.mu.Lock()
	ch := o.playCh
	o.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- turnAudio:
	default:
		// Turns arriving faster than the sink can play are accepted loss.
		slog.Warn("playback queue full, dropping turn audio", "bot_id", o.botID, "bytes", len(turnAudio))
	}
}

func (o *Orchestrator) playTurnAudio(turnAudio []byte) {
	// Pre-mute before playback starts so the first played samples cannot be
	// recaptured as a participant utterance.
	o.muteFor(preMuteLead)

	if err := o.transport.PlayAudio(turnAudio, o.outputRate); err != nil {
		slog.Warn("failed to play turn audio", "bot_id", o.botID, "error", err)
		return
	}

	playbackSec := audio.PlaybackSeconds(turnAudio, o.outputRate)
	window := ComputeMuteWindow(playbackSec)
	o.muteFor(window)
	slog.Info("turn audio playing", "bot_id", o.botID, "playback_sec", playbackSec, "mute_window", window)
}

func (o *Orchestrator) persistBotReply(text string) {
	clean, category := conversation.ClassifyResponse(text)
	if category == conversation.CategoryNone {
		category = conversation.ClassifyByContent(clean, o.deferrals)
	}
	o.state.AddBotResponse(clean)

	if o.meetingID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := o.repo.AddConversationEntry(ctx, repository.AddConversationEntryInput{
		MeetingID: o.meetingID,
		BotID:     o.botID,
		Speaker:   o.displayName,
		Content:   clean,
		Kind:      repository.EntryKindBot,
		Category:  string(category),
	})
	if err != nil {
		slog.Error("failed to persist bot reply", "bot_id", o.botID, "error", err)
		return
	}
	slog.Info("bot reply persisted", "bot_id", o.botID, "category", category, "text_len", len(clean))
}

// muteFor extends the mute deadline; overlapping windows never shorten it.
func (o *Orchestrator) muteFor(d time.Duration) {
	until := time.Now().Add(d)
	o.muteMu.Lock()
	if until.After(o.muteUntil) {
		o.muteUntil = until
	}
	o.muteMu.Unlock()
}

func (o *Orchestrator) isMuted() bool {
	o.muteMu.Lock()
	defer o.muteMu.Unlock()
	return time.Now().Before(o.muteUntil)
}
