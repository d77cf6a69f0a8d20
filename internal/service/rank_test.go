package service

import (
	"context"
	"encoding/json"
	"testing"
	"valorant-companion/internal/api"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mmrFixture(t *testing.T, raw string) *api.PlayerMMRResponse {
	t.Helper()
	var resp api.PlayerMMRResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return &resp
}

func TestRankResolverFallbackOrder(t *testing.T) {
	const seasonal = `{"QueueSkills":{"competitive":{"SeasonalInfoBySeasonID":{
		"act-now":{"SeasonID":"act-now","CompetitiveTier":15,"RankedRating":55}}}},
		"LatestCompetitiveUpdate":{"TierAfterUpdate":9,"RankedRatingAfterUpdate":12}}`
	const latestOnly = `{"QueueSkills":{"competitive":{"SeasonalInfoBySeasonID":{
		"act-old":{"SeasonID":"act-old","CompetitiveTier":20,"RankedRating":1}}}},
		"LatestCompetitiveUpdate":{"TierAfterUpdate":9,"RankedRatingAfterUpdate":12}}`

	tests := []struct {
		name    string
		updates *api.CompetitiveUpdatesResponse
		mmr     string
		want    Rank
	}{
		{
			name:    "competitive updates win",
			updates: &api.CompetitiveUpdatesResponse{Matches: []api.CompetitiveUpdate{{TierAfterUpdate: 21, RankedRatingAfterUpdate: 70}}},
			mmr:     seasonal,
			want:    Rank{Tier: 21, Rating: 70, Source: "competitive-updates"},
		},
		{
			name:    "placement update falls through to current season",
			updates: &api.CompetitiveUpdatesResponse{Matches: []api.CompetitiveUpdate{{TierAfterUpdate: 0}}},
			mmr:     seasonal,
			want:    Rank{Tier: 15, Rating: 55, Source: "current-season"},
		},
		{
			name: "no current season entry uses latest update",
			mmr:  latestOnly,
			want: Rank{Tier: 9, Rating: 12, Source: "latest-update"},
		},
		{
			name: "nothing anywhere is unranked",
			mmr:  `{"QueueSkills":{}}`,
			want: Unranked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession("me")
			s.seasonID = "act-now"
			if tt.updates != nil {
				s.updates["p1"] = tt.updates
			}
			s.mmr["p1"] = mmrFixture(t, tt.mmr)

			got := NewRankResolver(s, zerolog.Nop()).Resolve(context.Background(), "p1")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankResolverNeverFails(t *testing.T) {
	s := newFakeSession("me")
	s.updatesErr = api.NewError(api.KindTransient, "competitive updates", nil)

	got := NewRankResolver(s, zerolog.Nop()).Resolve(context.Background(), "ghost")
	assert.Equal(t, Unranked, got)
	assert.Equal(t, 0, got.Tier)
}

func TestRankResolverStopsWhenRateLimited(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMMRCalls int
	}{
		{name: "rate limited backs off", err: api.NewError(api.KindRateLimited, "competitive updates", nil), wantMMRCalls: 0},
		{name: "transient falls through", err: api.NewError(api.KindTransient, "competitive updates", nil), wantMMRCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession("me")
			s.updatesErr = tt.err
			s.mmr["p1"] = mmrFixture(t, `{"LatestCompetitiveUpdate":{"TierAfterUpdate":9,"RankedRatingAfterUpdate":12}}`)

			got := NewRankResolver(s, zerolog.Nop()).Resolve(context.Background(), "p1")
			assert.Equal(t, tt.wantMMRCalls, s.mmrCalls)
			if tt.wantMMRCalls == 0 {
				assert.Equal(t, Unranked, got)
			} else {
				assert.Equal(t, 9, got.Tier)
			}
		})
	}
}
