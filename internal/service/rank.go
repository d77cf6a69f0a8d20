package service

import (
	"context"
	"errors"
	"valorant-companion/internal/api"
	"valorant-companion/internal/constants"

	"github.com/rs/zerolog"
)

type Rank struct {
	Tier   int
	Rating int
	Source string
}

var Unranked = Rank{Source: "none"}

type RankResolver struct {
	session GameSession
	logger  zerolog.Logger
}

func NewRankResolver(session GameSession, logger zerolog.Logger) *RankResolver {
	return &RankResolver{session: session, logger: logger.With().Str("component", "rank").Logger()}
}

// Resolve finds a player's rank from, in order: the latest competitive update,
// the current act's seasonal MMR, and the latest update recorded on the MMR
// profile. It never fails; no data anywhere is Unranked. A rate-limited
// lookup stops the fallback chain so the remaining tiers are not requested.
func (r *RankResolver) Resolve(ctx context.Context, playerID string) Rank {
	rank, ok, err := r.fromCompetitiveUpdates(ctx, playerID)
	if ok {
		return rank
	}
	if errors.Is(err, api.ErrRateLimited) {
		return Unranked
	}

	mmr, err := r.session.PlayerMMR(ctx, playerID)
	if err != nil {
		r.logger.Debug().Err(err).Str("puuid", playerID).Msg("mmr lookup failed")
		return Unranked
	}

	if rank, ok := r.fromCurrentSeason(ctx, mmr); ok {
		return rank
	}
	if u := mmr.LatestCompetitiveUpdate; u != nil && u.TierAfterUpdate > 0 {
		return Rank{Tier: u.TierAfterUpdate, Rating: u.RankedRatingAfterUpdate, Source: "latest-update"}
	}

	return Unranked
}

func (r *RankResolver) fromCompetitiveUpdates(ctx context.Context, playerID string) (Rank, bool, error) {
	updates, err := r.session.CompetitiveUpdates(ctx, playerID, 0, constants.CompetitiveUpdateWindow)
	if err != nil {
		r.logger.Debug().Err(err).Str("puuid", playerID).Msg("competitive updates lookup failed")
		return Rank{}, false, err
	}
	if len(updates.Matches) == 0 {
		return Rank{}, false, nil
	}
	latest := updates.Matches[0]
	if latest.TierAfterUpdate <= 0 {
		return Rank{}, false, nil
	}
	return Rank{Tier: latest.TierAfterUpdate, Rating: latest.RankedRatingAfterUpdate, Source: "competitive-updates"}, true, nil
}

func (r *RankResolver) fromCurrentSeason(ctx context.Context, mmr *api.PlayerMMRResponse) (Rank, bool) {
	seasonID, err := r.session.CurrentSeasonID(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("current season unavailable")
		return Rank{}, false
	}
	queue, ok := mmr.QueueSkills["competitive"]
	if !ok {
		return Rank{}, false
	}
	info, ok := queue.SeasonalInfoBySeasonID[seasonID]
	if !ok || info.CompetitiveTier <= 0 {
		return Rank{}, false
	}
	return Rank{Tier: info.CompetitiveTier, Rating: info.RankedRating, Source: "current-season"}, true
}
