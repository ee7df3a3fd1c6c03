package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/Uto-inc/ai-meeting-proxy/internal/conversation"
	"github.com/Uto-inc/ai-meeting-proxy/internal/live"
	"github.com/Uto-inc/ai-meeting-proxy/internal/repository"
)

// Registry owns the bot-id to orchestrator mapping. Map mutations happen
// under its mutex; orchestrator lifecycles run outside it.
type Registry struct {
	cfg              *config.Config
	liveRegistry     *live.Registry
	repo             repository.Repository
	transportFactory audio.TransportFactory

	mu   sync.Mutex
	bots map[string]*Orchestrator
}

func NewRegistry(cfg *config.Config, liveRegistry *live.Registry, repo repository.Repository, transportFactory audio.TransportFactory) *Registry {
	return &Registry{
		cfg:              cfg,
		liveRegistry:     liveRegistry,
		repo:             repo,
		transportFactory: transportFactory,
		bots:             make(map[string]*Orchestrator),
	}
}

type CreateParams struct {
	BotID       string
	MeetingID   string
	DisplayName string
}

// CreateDeviceBot starts a bot bridged to the local capture and playback
// devices.
func (r *Registry) CreateDeviceBot(ctx context.Context, p CreateParams) (*Orchestrator, error) {
	transport, err := r.transportFactory()
	if err != nil {
		return nil, fmt.Errorf("create device transport: %w", err)
	}
	return r.CreateWithTransport(ctx, p, transport)
}

// CreateWithTransport starts a bot on the given transport. An existing bot
// with the same id is fully torn down first.
func (r *Registry) CreateWithTransport(ctx context.Context, p CreateParams, transport audio.Transport) (*Orchestrator, error) {
	if p.BotID == "" {
		return nil, fmt.Errorf("bot id is required")
	}
	displayName := p.DisplayName
	if displayName == "" {
		displayName = r.cfg.BotDisplayName
	}

	r.mu.Lock()
	old := r.bots[p.BotID]
	delete(r.bots, p.BotID)
	r.mu.Unlock()
	if old != nil {
		slog.Info("replacing existing bot", "bot_id", p.BotID)
		old.Stop()
	}

	state := conversation.NewMeetingState(
		p.BotID, p.MeetingID, displayName,
		r.cfg.TriggerKeywords(),
		r.cfg.MaxConversationHistory,
		r.cfg.MaxMaterialChars,
	)
	orchestrator := NewOrchestrator(OrchestratorParams{
		BotID:           p.BotID,
		MeetingID:       p.MeetingID,
		DisplayName:     displayName,
		OutputRate:      r.cfg.OutputSampleRate,
		DeferralPhrases: r.cfg.DeferralPhrases(),
		Transport:       transport,
		LiveRegistry:    r.liveRegistry,
		State:           state,
		Repo:            r.repo,
	})
	if err := orchestrator.Start(ctx); err != nil {
		transport.Stop()
		return nil, err
	}

	r.mu.Lock()
	r.bots[p.BotID] = orchestrator
	total := len(r.bots)
	r.mu.Unlock()
	slog.Info("bot registered", "bot_id", p.BotID, "total", total)
	return orchestrator, nil
}

// Get returns the orchestrator for botID, or nil.
func (r *Registry) Get(botID string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bots[botID]
}

// Remove stops and discards the bot, if present.
func (r *Registry) Remove(botID string) {
	r.mu.Lock()
	orchestrator := r.bots[botID]
	delete(r.bots, botID)
	total := len(r.bots)
	r.mu.Unlock()
	if orchestrator == nil {
		return
	}
	orchestrator.Stop()
	slog.Info("bot removed", "bot_id", botID, "total", total)
}

// Shutdown stops every bot. Teardown of each bot is independent.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	botIDs := make([]string, 0, len(r.bots))
	for id := range r.bots {
		botIDs = append(botIDs, id)
	}
	r.mu.Unlock()
	for _, id := range botIDs {
		r.Remove(id)
	}
	slog.Info("all bots shut down")
}
