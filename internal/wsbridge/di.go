package wsbridge

import (
	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/bot"
	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/Uto-inc/ai-meeting-proxy/internal/outbound"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		bots := do.MustInvoke[*bot.Registry](i)
		encoder := do.MustInvoke[audio.Encoder](i)
		sink := do.MustInvoke[outbound.AudioSink](i)
		return NewHandler(bots, encoder, sink, cfg.CaptureSampleRate), nil
	})
}
