package bot

import (
	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/Uto-inc/ai-meeting-proxy/internal/live"
	"github.com/Uto-inc/ai-meeting-proxy/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Registry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		liveRegistry := do.MustInvoke[*live.Registry](i)
		repo := do.MustInvoke[repository.Repository](i)
		transportFactory := do.MustInvoke[audio.TransportFactory](i)
		return NewRegistry(cfg, liveRegistry, repo, transportFactory), nil
	})
}
