package genlive

import (
	"context"

	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/Uto-inc/ai-meeting-proxy/internal/live"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (live.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewGeminiClient(context.Background(), GeminiConfig{
			APIKey:       c.GeminiAPIKey,
			Model:        c.GeminiLiveModel,
			VoiceName:    c.GeminiLiveVoiceName,
			LanguageCode: c.GeminiLiveLanguage,
			Temperature:  c.GeminiLiveTemperature,
		})
	})
}
