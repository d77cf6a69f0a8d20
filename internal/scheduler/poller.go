package scheduler

import (
	"context"
	"sync"
	"time"
	"valorant-companion/internal/config"
	"valorant-companion/internal/domain"
	"valorant-companion/internal/metrics"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Tracker interface {
	Poll(ctx context.Context) domain.Snapshot
	Snapshot() domain.Snapshot
}

// Status describes the refresh gates at a point in time.
type Status struct {
	LastRefresh     time.Time
	MatchActive     bool
	RefreshCooldown time.Duration // remaining enforced cooldown
	ButtonCooldown  time.Duration // remaining button countdown shown by the UI
}

// Poller drives the tracker. Automatic ticks only poll while no match is
// tracked; manual refreshes are gated by a cooldown that applies only while a
// match is tracked. Both automatic and manual polls count as a refresh.
type Poller struct {
	tracker        Tracker
	interval       time.Duration
	matchCooldown  time.Duration
	buttonCooldown time.Duration
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	now            func() time.Time

	mu          sync.Mutex
	inFlight    bool
	lastRefresh time.Time
	lastPress   time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(tracker Tracker, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Poller {
	return &Poller{
		tracker:        tracker,
		interval:       cfg.PollInterval,
		matchCooldown:  cfg.MatchRefreshCooldown,
		buttonCooldown: cfg.ButtonCooldown,
		metrics:        m,
		logger:         logger.With().Str("component", "scheduler").Logger(),
		now:            time.Now,
	}
}

// Tick runs one automatic poll unless a match is being tracked. It reports
// whether a poll ran.
func (p *Poller) Tick(ctx context.Context) bool {
	if p.tracker.Snapshot().Phase.Active() {
		p.metrics.RefreshSkipped("match_active")
		return false
	}
	if !p.begin("tick") {
		return false
	}
	defer p.end()

	snap := p.tracker.Poll(ctx)
	p.logger.Debug().Str("poll_id", snap.PollID).Str("phase", snap.Phase.String()).Msg("automatic poll")
	return true
}

// Refresh runs a manual poll. Inside the cooldown it does nothing and returns
// the current snapshot with false.
func (p *Poller) Refresh(ctx context.Context) (domain.Snapshot, bool) {
	current := p.tracker.Snapshot()

	p.mu.Lock()
	now := p.now()
	if remaining := p.cooldownLocked(now, current.Phase.Active()); remaining > 0 {
		p.mu.Unlock()
		p.metrics.RefreshSkipped("cooldown")
		p.logger.Debug().Dur("remaining", remaining).Msg("manual refresh inside cooldown")
		return current, false
	}
	if p.inFlight {
		p.mu.Unlock()
		p.metrics.RefreshSkipped("in_flight")
		return current, false
	}
	p.inFlight = true
	p.lastRefresh = now
	p.lastPress = now
	p.mu.Unlock()
	defer p.end()

	snap := p.tracker.Poll(ctx)
	p.logger.Info().Str("poll_id", snap.PollID).Str("phase", snap.Phase.String()).Msg("manual refresh")
	return snap, true
}

func (p *Poller) Status() Status {
	active := p.tracker.Snapshot().Phase.Active()

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()

	var button time.Duration
	if !p.lastPress.IsZero() {
		button = max(p.buttonCooldown-now.Sub(p.lastPress), 0)
	}
	return Status{
		LastRefresh:     p.lastRefresh,
		MatchActive:     active,
		RefreshCooldown: p.cooldownLocked(now, active),
		ButtonCooldown:  button,
	}
}

func (p *Poller) cooldownLocked(now time.Time, active bool) time.Duration {
	if !active || p.lastRefresh.IsZero() {
		return 0
	}
	return max(p.matchCooldown-now.Sub(p.lastRefresh), 0)
}

func (p *Poller) begin(source string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		p.metrics.RefreshSkipped("in_flight")
		p.logger.Debug().Str("source", source).Msg("poll already in flight")
		return false
	}
	p.inFlight = true
	p.lastRefresh = p.now()
	return true
}

func (p *Poller) end() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

// Start polls once and then on every interval until Stop.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Tick(ctx)
			}
		}
	}()
	p.logger.Info().Dur("interval", p.interval).Msg("poller started")
}

func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case <-p.done:
		p.logger.Info().Msg("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register ties the poller to the application lifecycle.
func Register(lc fx.Lifecycle, p *Poller) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Start()
			return nil
		},
		OnStop: p.Stop,
	})
}
