package service

import (
	"context"
	"fmt"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/config"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/domain"

	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

// HistoryService reads past matches. Details are never cached: a match can be
// corrected server-side shortly after it ends, so every call re-fetches.
type HistoryService struct {
	session GameSession
	limiter ratelimit.Limiter
	logger  zerolog.Logger
}

func NewHistoryService(session GameSession, cfg *config.Config, logger zerolog.Logger) *HistoryService {
	return &HistoryService{
		session: session,
		limiter: ratelimit.New(cfg.MatchDetailRate),
		logger:  logger.With().Str("component", "history").Logger(),
	}
}

// WithSession returns a history service reading through a different session context.
func (s *HistoryService) WithSession(session GameSession) *HistoryService {
	return &HistoryService{session: session, limiter: s.limiter, logger: s.logger}
}

// ListRecentMatches returns up to limit lightweight entries from one page of history.
func (s *HistoryService) ListRecentMatches(ctx context.Context, playerID string, limit int) ([]domain.MatchSummary, error) {
	limit = clampLimit(limit)

	resp, err := s.session.MatchHistory(ctx, playerID, 0, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("puuid", playerID).Msg("failed to list matches")
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	out := make([]domain.MatchSummary, 0, len(resp.History))
	for _, h := range resp.History {
		out = append(out, domain.MatchSummary{
			MatchID:   h.MatchID,
			StartedAt: time.UnixMilli(h.GameStartTime),
			QueueID:   h.QueueID,
		})
		if len(out) == limit {
			break
		}
	}

	s.logger.Debug().Str("puuid", playerID).Int("match_count", len(out)).Msg("matches listed")
	return out, nil
}

// GetMatchDetails fetches the full record of one match.
func (s *HistoryService) GetMatchDetails(ctx context.Context, matchID string) (*domain.MatchDetails, error) {
	s.limiter.Take()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("match %s abandoned: %w", matchID, err)
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.session.MatchDetails(apiCtx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match %s: %w", matchID, err)
	}
	return toMatchDetails(resp), nil
}

// ListCompetitiveRatingChanges returns the player's recent rating changes, newest first.
func (s *HistoryService) ListCompetitiveRatingChanges(ctx context.Context, playerID string, limit int) ([]domain.RatingChange, error) {
	limit = clampLimit(limit)

	resp, err := s.session.CompetitiveUpdates(ctx, playerID, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes: %w", err)
	}

	out := make([]domain.RatingChange, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, domain.RatingChange{
			MatchID:     m.MatchID,
			TierBefore:  m.TierBeforeUpdate,
			TierAfter:   m.TierAfterUpdate,
			RatingAfter: m.RankedRatingAfterUpdate,
			RatingDelta: m.RankedRatingEarned,
			StartedAt:   time.UnixMilli(m.MatchStartTime),
		})
	}
	return out, nil
}

// RecentMatchesWithRR lists recent matches and annotates each with its rating
// change, matched by match id. A failing rating feed leaves entries unannotated.
func (s *HistoryService) RecentMatchesWithRR(ctx context.Context, playerID string, limit int) ([]domain.MatchEntry, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var matches []domain.MatchSummary
	var changes []domain.RatingChange

	g.Go(func() error {
		var err error
		matches, err = s.ListRecentMatches(gCtx, playerID, limit)
		return err
	})

	g.Go(func() error {
		var err error
		changes, err = s.ListCompetitiveRatingChanges(gCtx, playerID, limit)
		if err != nil {
			s.logger.Warn().Err(err).Str("puuid", playerID).Msg("rating feed unavailable")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byMatch := make(map[string]domain.RatingChange, len(changes))
	for _, c := range changes {
		byMatch[c.MatchID] = c
	}

	out := make([]domain.MatchEntry, len(matches))
	for i, m := range matches {
		out[i] = domain.MatchEntry{MatchSummary: m}
		if c, ok := byMatch[m.MatchID]; ok {
			out[i].Rating = &c
		}
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultMatchListLimit
	}
	if limit > constants.MaxMatchListLimit {
		return constants.MaxMatchListLimit
	}
	return limit
}

func toMatchDetails(resp *api.MatchDetailsResponse) *domain.MatchDetails {
	info := resp.MatchInfo
	d := &domain.MatchDetails{
		MatchID:     info.MatchID,
		MapID:       info.MapID,
		MapName:     domain.MapName(info.MapID),
		QueueID:     info.QueueID,
		SeasonID:    info.SeasonID,
		StartedAt:   time.UnixMilli(info.GameStartMillis),
		Duration:    time.Duration(info.GameLengthMillis) * time.Millisecond,
		IsCompleted: info.IsCompleted,
	}

	for _, p := range resp.Players {
		mp := domain.MatchPlayer{
			PlayerID:    p.Subject,
			Name:        p.GameName,
			Tag:         p.TagLine,
			TeamID:      p.TeamID,
			PartyID:     p.PartyID,
			CharacterID: p.CharacterID,
			Tier:        p.CompetitiveTier,
		}
		if p.Stats != nil {
			mp.Score = p.Stats.Score
			mp.RoundsPlayed = p.Stats.RoundsPlayed
			mp.Kills = p.Stats.Kills
			mp.Deaths = p.Stats.Deaths
			mp.Assists = p.Stats.Assists
		}
		d.Players = append(d.Players, mp)
	}

	for _, t := range resp.Teams {
		d.Teams = append(d.Teams, domain.MatchTeam{
			TeamID:       t.TeamID,
			Won:          t.Won,
			RoundsPlayed: t.RoundsPlayed,
			RoundsWon:    t.RoundsWon,
		})
	}

	for _, r := range resp.RoundResults {
		round := domain.RoundResult{
			Number:      r.RoundNum,
			Result:      r.RoundResult,
			WinningTeam: r.WinningTeam,
		}
		for _, ps := range r.PlayerStats {
			for _, k := range ps.Kills {
				round.Kills = append(round.Kills, domain.Kill{
					Killer: k.Killer,
					Victim: k.Victim,
					Weapon: k.FinishingDamage.DamageItem,
				})
			}
			round.Economy = append(round.Economy, domain.PlayerEconomy{
				PlayerID:     ps.Subject,
				LoadoutValue: ps.Economy.LoadoutValue,
				Weapon:       ps.Economy.Weapon,
				Armor:        ps.Economy.Armor,
				Remaining:    ps.Economy.Remaining,
				Spent:        ps.Economy.Spent,
			})
		}
		d.Rounds = append(d.Rounds, round)
	}

	return d
}
