package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Env        string
	ListenAddr string

	DatabaseURL string

	GeminiAPIKey          string
	GeminiLiveModel       string
	GeminiLiveVoiceName   string
	GeminiLiveLanguage    string
	GeminiLiveTemperature float64
	SessionTimeoutMarginS int

	CaptureSampleRate  int
	CaptureChunkMs     int
	OutputSampleRate   int
	MP3BitrateKbps     int
	CaptureDeviceName  string
	PlaybackDeviceName string

	BotDisplayName         string
	ResponseTriggers       string
	MaxConversationHistory int
	MaxMaterialChars       int
	TakenBackPhrases       string

	MeetingAPIBaseURL string
	MeetingAPIKey     string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.CaptureSampleRate <= 0 {
		return fmt.Errorf("CAPTURE_SAMPLE_RATE must be positive, got %d", c.CaptureSampleRate)
	}
	if c.CaptureChunkMs <= 0 {
		return fmt.Errorf("CAPTURE_CHUNK_MS must be positive, got %d", c.CaptureChunkMs)
	}
	if c.OutputSampleRate <= 0 {
		return fmt.Errorf("OUTPUT_SAMPLE_RATE must be positive, got %d", c.OutputSampleRate)
	}
	if c.SessionTimeoutMarginS <= 0 {
		return fmt.Errorf("GEMINI_LIVE_SESSION_TIMEOUT must be positive, got %d", c.SessionTimeoutMarginS)
	}
	if c.MaxConversationHistory <= 0 {
		return fmt.Errorf("MAX_CONVERSATION_HISTORY must be positive, got %d", c.MaxConversationHistory)
	}
	if c.MaxMaterialChars <= 0 {
		return fmt.Errorf("MAX_MATERIAL_CHARS must be positive, got %d", c.MaxMaterialChars)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "GEMINI_API_KEY", value: c.GeminiAPIKey},
		{name: "GEMINI_LIVE_MODEL", value: c.GeminiLiveModel},
		{name: "BOT_DISPLAY_NAME", value: c.BotDisplayName},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// TriggerKeywords splits RESPONSE_TRIGGERS into lowercased keywords,
// dropping empty entries.
func (c *Config) TriggerKeywords() []string {
	var keywords []string
	for _, raw := range strings.Split(c.ResponseTriggers, ",") {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	return keywords
}

// DeferralPhrases splits TAKEN_BACK_PHRASES into the phrase list used by the
// content-based response classifier.
func (c *Config) DeferralPhrases() []string {
	var phrases []string
	for _, raw := range strings.Split(c.TakenBackPhrases, ",") {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		phrases = append(phrases, p)
	}
	return phrases
}
