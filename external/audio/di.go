package audio

import (
	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Encoder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewLameEncoder(cfg.MP3BitrateKbps), nil
	})
	do.Provide(injector, func(i do.Injector) (audio.TransportFactory, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return audio.TransportFactory(func() (audio.Transport, error) {
			return NewDeviceTransport(
				cfg.CaptureDeviceName,
				cfg.PlaybackDeviceName,
				cfg.CaptureSampleRate,
				cfg.CaptureChunkMs,
			), nil
		}), nil
	})
}
