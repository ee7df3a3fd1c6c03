package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Uto-inc/ai-meeting-proxy/internal/bot"
	"github.com/google/uuid"
)

const botCreateTimeout = 30 * time.Second

type createBotRequest struct {
	BotID       string `json:"bot_id"`
	MeetingID   string `json:"meeting_id"`
	DisplayName string `json:"display_name"`
}

type createBotResponse struct {
	BotID string `json:"bot_id"`
}

// registerAdminRoutes mounts the local-bot management surface: bots created
// here bridge the host's capture and playback devices instead of a
// network feed.
func registerAdminRoutes(mux *http.ServeMux, bots *bot.Registry) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /bots", func(w http.ResponseWriter, r *http.Request) {
		var req createBotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.BotID == "" {
			req.BotID = uuid.NewString()
		}

		// Bot lifecycles outlive the request; only the create is bounded.
		ctx, cancel := context.WithTimeout(context.Background(), botCreateTimeout)
		defer cancel()
		_, err := bots.CreateDeviceBot(ctx, bot.CreateParams{
			BotID:       req.BotID,
			MeetingID:   req.MeetingID,
			DisplayName: req.DisplayName,
		})
		if err != nil {
			slog.Error("failed to create device bot", "bot_id", req.BotID, "error", err)
			http.Error(w, "failed to create bot", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createBotResponse{BotID: req.BotID})
	})

	mux.HandleFunc("DELETE /bots/{id}", func(w http.ResponseWriter, r *http.Request) {
		botID := r.PathValue("id")
		if botID == "" {
			http.Error(w, "bot id is required", http.StatusBadRequest)
			return
		}
		bots.Remove(botID)
		w.WriteHeader(http.StatusNoContent)
	})
}
