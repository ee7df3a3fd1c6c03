package live

import (
	"time"

	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Registry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[Client](i)
		margin := time.Duration(cfg.SessionTimeoutMarginS) * time.Second
		return NewRegistry(client, margin), nil
	})
}
