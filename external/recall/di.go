package recall

import (
	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/Uto-inc/ai-meeting-proxy/internal/outbound"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (outbound.AudioSink, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPAudioSink(c.MeetingAPIBaseURL, c.MeetingAPIKey), nil
	})
}
