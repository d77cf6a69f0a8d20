package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/domain"
	"valorant-companion/internal/metrics"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type RankLookup interface {
	Resolve(ctx context.Context, playerID string) Rank
}

// Tracker follows the match the local player is in across polls. Phase moves
// None -> Pregame -> Live -> None (Pregame may drop straight to None); a new
// match id always starts over from None.
type Tracker struct {
	session GameSession
	ranks   RankLookup
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time

	pollMu sync.Mutex

	mu      sync.RWMutex
	current domain.MatchSession
	last    domain.Snapshot
}

type observation struct {
	phase    domain.Phase
	matchID  string
	selfTeam string
	roster   []domain.RosterEntry
}

func NewTracker(session GameSession, ranks RankLookup, m *metrics.Metrics, logger zerolog.Logger) *Tracker {
	return &Tracker{
		session: session,
		ranks:   ranks,
		metrics: m,
		logger:  logger.With().Str("component", "tracker").Logger(),
		now:     time.Now,
	}
}

// Snapshot returns the result of the most recent poll.
func (t *Tracker) Snapshot() domain.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySnapshot(t.last)
}

// Session returns the tracked match state.
func (t *Tracker) Session() domain.MatchSession {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.current
	s.Roster = append([]domain.RosterEntry(nil), s.Roster...)
	return s
}

// Poll checks pregame first, then the live match, and records what it sees.
// It never returns an error: failures collapse the snapshot to PhaseNone with
// the error attached, while the tracked match survives until the endpoints
// report no session. Retrying is the caller's job.
func (t *Tracker) Poll(ctx context.Context) domain.Snapshot {
	t.pollMu.Lock()
	defer t.pollMu.Unlock()

	pollID, err := gonanoid.New()
	if err != nil {
		pollID = fmt.Sprintf("%d", t.now().UnixNano())
	}
	logger := t.logger.With().Str("poll_id", pollID).Logger()

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	obs, err := t.observe(ctx)
	if err != nil && api.KindOf(err) != api.KindNotFound {
		kind := api.KindOf(err)
		logger.Warn().Err(err).Str("kind", kind.String()).Msg("poll failed, no match tracked")
		t.metrics.PollError(kind.String())
		return t.fail(pollID, err)
	}
	if err != nil {
		logger.Debug().Err(err).Msg("session vanished mid-poll")
		obs = &observation{phase: domain.PhaseNone}
	}

	return t.apply(pollID, obs, logger)
}

func (t *Tracker) observe(ctx context.Context) (*observation, error) {
	self, err := t.session.AccountID(ctx)
	if err != nil {
		return nil, err
	}

	pre, err := t.session.PregamePlayer(ctx, self)
	switch {
	case err == nil && pre.MatchID != "":
		return t.observePregame(ctx, self, pre.MatchID)
	case err != nil && !errors.Is(err, api.ErrNotFound):
		return nil, err
	}

	core, err := t.session.CoregamePlayer(ctx, self)
	switch {
	case err == nil && core.MatchID != "":
		return t.observeLive(ctx, self, core.MatchID)
	case err != nil && !errors.Is(err, api.ErrNotFound):
		return nil, err
	}

	return &observation{phase: domain.PhaseNone}, nil
}

func (t *Tracker) observePregame(ctx context.Context, self, matchID string) (*observation, error) {
	match, err := t.session.PregameMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.AllyTeam == nil {
		return nil, api.NewError(api.KindMalformed, "pregame match", fmt.Errorf("no ally team in %s", matchID))
	}

	// only the ally team is visible before the match starts
	roster := make([]domain.RosterEntry, 0, len(match.AllyTeam.Players))
	for _, p := range match.AllyTeam.Players {
		roster = append(roster, domain.RosterEntry{
			PlayerID:    p.Subject,
			CharacterID: p.CharacterID,
			TeamID:      match.AllyTeam.TeamID,
			IsSelf:      p.Subject == self,
		})
	}

	t.resolveRoster(ctx, roster)
	return &observation{
		phase:    domain.PhasePregame,
		matchID:  matchID,
		selfTeam: match.AllyTeam.TeamID,
		roster:   roster,
	}, nil
}

func (t *Tracker) observeLive(ctx context.Context, self, matchID string) (*observation, error) {
	match, err := t.session.CoregameMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var selfTeam string
	roster := make([]domain.RosterEntry, 0, len(match.Players))
	for _, p := range match.Players {
		if p.Subject == self {
			selfTeam = p.TeamID
		}
		roster = append(roster, domain.RosterEntry{
			PlayerID:    p.Subject,
			CharacterID: p.CharacterID,
			TeamID:      p.TeamID,
			IsSelf:      p.Subject == self,
		})
	}

	t.resolveRoster(ctx, roster)
	return &observation{
		phase:    domain.PhaseLive,
		matchID:  matchID,
		selfTeam: selfTeam,
		roster:   roster,
	}, nil
}

// resolveRoster fills names with one batched lookup and ranks with one
// concurrent lookup per player. It returns once every lookup has settled;
// lookup failures leave the entry unnamed or unranked.
func (t *Tracker) resolveRoster(ctx context.Context, roster []domain.RosterEntry) {
	ids := make([]string, len(roster))
	for i, e := range roster {
		ids[i] = e.PlayerID
	}

	names, err := t.session.PlayerNames(ctx, ids)
	if err != nil {
		t.logger.Warn().Err(err).Int("players", len(ids)).Msg("name lookup failed")
	}
	byID := make(map[string]string, len(names))
	for _, n := range names {
		byID[n.Subject] = displayName(n)
	}

	g := new(errgroup.Group)
	for i := range roster {
		i := i
		roster[i].DisplayName = byID[roster[i].PlayerID]
		g.Go(func() error {
			rank := t.ranks.Resolve(ctx, roster[i].PlayerID)
			roster[i].RankTier = rank.Tier
			roster[i].RankRating = rank.Rating
			return nil
		})
	}
	_ = g.Wait()
}

// fail publishes an error snapshot. A failed poll says nothing about the
// match, so the tracked session and its starting side are kept.
func (t *Tracker) fail(pollID string, pollErr error) domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := domain.Snapshot{
		PollID:     pollID,
		Phase:      domain.PhaseNone,
		ObservedAt: t.now(),
		Error:      api.UserMessage(pollErr),
		ErrorKind:  api.KindOf(pollErr).String(),
	}
	t.last = snap
	t.metrics.Poll(snap.Phase.String(), int(snap.Phase))
	return copySnapshot(snap)
}

func (t *Tracker) apply(pollID string, obs *observation, logger zerolog.Logger) domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.current
	switch {
	case obs.phase == domain.PhaseNone:
		if prev.Phase != domain.PhaseNone {
			logger.Info().Str("match_id", prev.MatchID).Str("from", prev.Phase.String()).Msg("match ended")
		}
		t.current = domain.MatchSession{}

	case obs.matchID != prev.MatchID:
		t.current = domain.MatchSession{MatchID: obs.matchID, Phase: obs.phase}
		logger.Info().
			Str("match_id", obs.matchID).
			Str("previous_match_id", prev.MatchID).
			Str("phase", obs.phase.String()).
			Msg("new match detected")

	default:
		if prev.Phase == domain.PhaseLive && obs.phase == domain.PhasePregame {
			logger.Warn().Str("match_id", obs.matchID).Msg("pregame reported for a live match, keeping match state")
			if t.last.MatchID == prev.MatchID && t.last.Phase == domain.PhaseLive {
				snap := t.last
				snap.PollID = pollID
				snap.ObservedAt = t.now()
				t.last = snap
				t.metrics.Poll(snap.Phase.String(), int(snap.Phase))
				return copySnapshot(snap)
			}
			break
		}
		if prev.Phase != obs.phase {
			logger.Info().Str("match_id", obs.matchID).Str("from", prev.Phase.String()).Str("to", obs.phase.String()).Msg("phase changed")
		}
		t.current.Phase = obs.phase
	}

	if t.current.Phase.Active() && t.current.StartingSide == domain.SideUnknown && obs.selfTeam != "" {
		t.current.StartingSide = domain.SideForTeam(obs.selfTeam)
	}
	t.current.Roster = obs.roster

	snap := domain.Snapshot{
		PollID:       pollID,
		Phase:        t.current.Phase,
		MatchID:      t.current.MatchID,
		StartingSide: t.current.StartingSide,
		Roster:       append([]domain.RosterEntry(nil), obs.roster...),
		ObservedAt:   t.now(),
	}
	if t.current.Phase.Active() && obs.selfTeam != "" {
		snap.CurrentSide = domain.SideForTeam(obs.selfTeam)
	}

	t.last = snap
	t.metrics.Poll(snap.Phase.String(), int(snap.Phase))
	return copySnapshot(snap)
}

func displayName(n api.NameServiceEntry) string {
	if n.GameName != "" && n.TagLine != "" {
		return n.GameName + "#" + n.TagLine
	}
	if n.GameName != "" {
		return n.GameName
	}
	return n.DisplayName
}

func copySnapshot(s domain.Snapshot) domain.Snapshot {
	s.Roster = append([]domain.RosterEntry(nil), s.Roster...)
	return s
}
