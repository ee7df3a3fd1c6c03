package config

import (
	"fmt"

	internalconfig "github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	Env        string `env:"ENV" envDefault:"production"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	GeminiAPIKey          string  `env:"GEMINI_API_KEY,required"`
	GeminiLiveModel       string  `env:"GEMINI_LIVE_MODEL" envDefault:"gemini-live-2.5-flash-native-audio"`
	GeminiLiveVoiceName   string  `env:"GEMINI_LIVE_VOICE_NAME" envDefault:"Kore"`
	GeminiLiveLanguage    string  `env:"GEMINI_LIVE_LANGUAGE_CODE" envDefault:"ja-JP"`
	GeminiLiveTemperature float64 `env:"GEMINI_LIVE_TEMPERATURE" envDefault:"0.7"`
	SessionTimeoutMarginS int     `env:"GEMINI_LIVE_SESSION_TIMEOUT" envDefault:"840"`

	CaptureSampleRate  int    `env:"CAPTURE_SAMPLE_RATE" envDefault:"16000"`
	CaptureChunkMs     int    `env:"CAPTURE_CHUNK_MS" envDefault:"100"`
	OutputSampleRate   int    `env:"OUTPUT_SAMPLE_RATE" envDefault:"24000"`
	MP3BitrateKbps     int    `env:"MP3_BITRATE_KBPS" envDefault:"64"`
	CaptureDeviceName  string `env:"CAPTURE_DEVICE_NAME" envDefault:"BlackHole 2ch"`
	PlaybackDeviceName string `env:"PLAYBACK_DEVICE_NAME" envDefault:"BlackHole 16ch"`

	BotDisplayName         string `env:"BOT_DISPLAY_NAME" envDefault:"AI Avatar"`
	ResponseTriggers       string `env:"RESPONSE_TRIGGERS"`
	MaxConversationHistory int    `env:"MAX_CONVERSATION_HISTORY" envDefault:"20"`
	MaxMaterialChars       int    `env:"MAX_MATERIAL_CHARS" envDefault:"5000"`
	TakenBackPhrases       string `env:"TAKEN_BACK_PHRASES" envDefault:"持ち帰,確認して,検討し,後日,本人に確認"`

	MeetingAPIBaseURL string `env:"MEETING_API_BASE_URL"`
	MeetingAPIKey     string `env:"MEETING_API_KEY"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                    raw.Env,
		ListenAddr:             raw.ListenAddr,
		DatabaseURL:            raw.DatabaseURL,
		GeminiAPIKey:           raw.GeminiAPIKey,
		GeminiLiveModel:        raw.GeminiLiveModel,
		GeminiLiveVoiceName:    raw.GeminiLiveVoiceName,
		GeminiLiveLanguage:     raw.GeminiLiveLanguage,
		GeminiLiveTemperature:  raw.GeminiLiveTemperature,
		SessionTimeoutMarginS:  raw.SessionTimeoutMarginS,
		CaptureSampleRate:      raw.CaptureSampleRate,
		CaptureChunkMs:         raw.CaptureChunkMs,
		OutputSampleRate:       raw.OutputSampleRate,
		MP3BitrateKbps:         raw.MP3BitrateKbps,
		CaptureDeviceName:      raw.CaptureDeviceName,
		PlaybackDeviceName:     raw.PlaybackDeviceName,
		BotDisplayName:         raw.BotDisplayName,
		ResponseTriggers:       raw.ResponseTriggers,
		MaxConversationHistory: raw.MaxConversationHistory,
		MaxMaterialChars:       raw.MaxMaterialChars,
		TakenBackPhrases:       raw.TakenBackPhrases,
		MeetingAPIBaseURL:      raw.MeetingAPIBaseURL,
		MeetingAPIKey:          raw.MeetingAPIKey,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
