package service

import (
	"context"
	"testing"
	"valorant-companion/internal/api"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(s *fakeSession) *HistoryService {
	return NewHistoryService(s, testConfig(), zerolog.Nop())
}

func TestListRecentMatches(t *testing.T) {
	s := newFakeSession("me")
	s.setHistory("me", seq("m", 30)...)

	matches, err := newTestHistory(s).ListRecentMatches(context.Background(), "me", 5)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	assert.Equal(t, "m1", matches[0].MatchID)
	assert.Equal(t, "competitive", matches[0].QueueID)
	assert.True(t, matches[0].StartedAt.After(matches[1].StartedAt))
	assert.Empty(t, s.detailCalls, "listing never fetches details")
}

func TestListRecentMatchesPropagatesFailure(t *testing.T) {
	s := newFakeSession("me")
	s.historyErr["me"] = api.NewError(api.KindRateLimited, "match history", nil)

	_, err := newTestHistory(s).ListRecentMatches(context.Background(), "me", 5)
	assert.ErrorIs(t, err, api.ErrRateLimited)
}

func TestGetMatchDetailsIsNeverCached(t *testing.T) {
	s := newFakeSession("me")
	s.addMatch("m1", "Red", map[string][]string{"Red": {"me"}, "Blue": {"b1"}})
	h := newTestHistory(s)

	for i := 0; i < 3; i++ {
		d, err := h.GetMatchDetails(context.Background(), "m1")
		require.NoError(t, err)
		assert.Equal(t, "Ascent", d.MapName)
		assert.True(t, d.TeamWon("Red"))
		assert.Len(t, d.Players, 2)
	}
	assert.Equal(t, 3, s.detailCalls["m1"])
}

func TestGetMatchDetailsStopsWhenCancelled(t *testing.T) {
	s := newFakeSession("me")
	s.addMatch("m1", "Red", map[string][]string{"Red": {"me"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestHistory(s).GetMatchDetails(ctx, "m1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.detailCalls["m1"])
}

func TestRecentMatchesWithRRJoinsByMatchID(t *testing.T) {
	s := newFakeSession("me")
	s.setHistory("me", "m1", "m2", "m3")
	// rating feed in a different order and missing m2
	s.updates["me"] = &api.CompetitiveUpdatesResponse{Matches: []api.CompetitiveUpdate{
		{MatchID: "m3", TierAfterUpdate: 12, RankedRatingAfterUpdate: 80, RankedRatingEarned: -15},
		{MatchID: "m1", TierAfterUpdate: 13, RankedRatingAfterUpdate: 5, RankedRatingEarned: 22},
	}}

	entries, err := newTestHistory(s).RecentMatchesWithRR(context.Background(), "me", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.NotNil(t, entries[0].Rating)
	assert.Equal(t, 22, entries[0].Rating.RatingDelta)
	assert.Equal(t, 13, entries[0].Rating.TierAfter)
	assert.Nil(t, entries[1].Rating)
	require.NotNil(t, entries[2].Rating)
	assert.Equal(t, -15, entries[2].Rating.RatingDelta)
}

func TestRecentMatchesWithRRToleratesRatingFeedFailure(t *testing.T) {
	s := newFakeSession("me")
	s.setHistory("me", "m1", "m2")
	s.updatesErr = api.NewError(api.KindTransient, "competitive updates", nil)

	entries, err := newTestHistory(s).RecentMatchesWithRR(context.Background(), "me", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Nil(t, e.Rating)
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0))
	assert.Equal(t, 20, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, 100, clampLimit(500))
}
