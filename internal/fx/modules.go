package fx

import (
	"valorant-companion/internal/api"
	"valorant-companion/internal/config"
	"valorant-companion/internal/database"
	"valorant-companion/internal/logger"
	"valorant-companion/internal/metrics"
	"valorant-companion/internal/repository"
	"valorant-companion/internal/scheduler"
	"valorant-companion/internal/server"
	"valorant-companion/internal/service"
	"valorant-companion/internal/session"

	"go.uber.org/fx"
)

// the bootstrap logger serves config loading; everything else gets the
// logger re-levelled from config.
const bootstrapTag = `name:"bootstrap"`

var Module = fx.Options(
	fx.Provide(fx.Annotate(logger.New, fx.ResultTags(bootstrapTag))),
	fx.Provide(fx.Annotate(config.Load, fx.ParamTags(bootstrapTag))),
	fx.Provide(fx.Annotate(logger.Configured, fx.ParamTags(bootstrapTag, ``))),
	fx.Provide(metrics.New),
	fx.Provide(database.New),
	// repos
	fx.Provide(fx.Annotate(repository.NewRegionRepository, fx.As(new(service.RegionStore)))),
	// transport
	fx.Provide(fx.Annotate(api.NewTransport,
		fx.As(fx.Self()),
		fx.As(new(session.Transport)),
		fx.As(new(service.HTTPDoer)),
		fx.As(new(server.RateLimitReporter)),
	)),
	fx.Provide(fx.Annotate(api.NewLockfileProvider, fx.As(new(session.CredentialProvider)))),
	// session
	fx.Provide(fx.Annotate(service.NewRegionService, fx.As(new(session.RegionLocator)))),
	fx.Provide(fx.Annotate(session.New, fx.As(fx.Self()), fx.As(new(service.GameSession)))),
	// svc
	fx.Provide(fx.Annotate(service.NewRankResolver, fx.As(new(service.RankLookup)))),
	fx.Provide(fx.Annotate(service.NewTracker, fx.As(fx.Self()), fx.As(new(scheduler.Tracker)))),
	fx.Provide(service.NewHistoryService),
	fx.Provide(service.NewAnalyticsService),
	// scheduler
	fx.Provide(scheduler.NewPoller),
	fx.Invoke(scheduler.Register),
	// server
	fx.Provide(server.NewCompanionServer),
)
