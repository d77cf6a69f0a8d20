package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideForTeam(t *testing.T) {
	tests := []struct {
		team string
		want Side
	}{
		{team: "Red", want: SideAttacking},
		{team: "Blue", want: SideDefending},
		{team: "", want: SideDefending},
		{team: "red", want: SideDefending},
	}

	for _, tt := range tests {
		t.Run(tt.team, func(t *testing.T) {
			assert.Equal(t, tt.want, SideForTeam(tt.team))
		})
	}
}

func TestRegionBindingStale(t *testing.T) {
	const week = 7 * 24 * time.Hour
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := RegionBinding{AccountID: "acc", Region: "eu", Shard: "eu", LastUpdated: updated}

	assert.False(t, b.Stale(updated.Add(week-time.Nanosecond), week), "one unit before seven days")
	assert.False(t, b.Stale(updated.Add(week), week), "exactly seven days")
	assert.True(t, b.Stale(updated.Add(week+time.Nanosecond), week), "past seven days")
}

func TestRosterEntryAgent(t *testing.T) {
	assert.Equal(t, AgentSelecting, RosterEntry{}.Agent())
	assert.Equal(t, "Jett", RosterEntry{CharacterID: "ADD6443A-41BD-E414-F6AD-E58D267F4E95"}.Agent())
	assert.Equal(t, "unknown-id", RosterEntry{CharacterID: "unknown-id"}.Agent())
}

func TestTierName(t *testing.T) {
	assert.Equal(t, "Unranked", TierName(0))
	assert.Equal(t, "Unranked", TierName(2))
	assert.Equal(t, "Iron 1", TierName(3))
	assert.Equal(t, "Radiant", TierName(27))
	assert.Equal(t, "Unranked", TierName(99))
}

func TestMapName(t *testing.T) {
	assert.Equal(t, "Bind", MapName("/Game/Maps/Duality/Duality"))
	assert.Equal(t, "Ascent", MapName("/Game/Maps/Ascent/Ascent"))
	assert.Equal(t, "Mystery", MapName("/Game/Maps/Mystery"))
	assert.NotEmpty(t, MapID("Ascent"))
}

func TestSnapshotPartitions(t *testing.T) {
	snap := Snapshot{Roster: []RosterEntry{
		{PlayerID: "me", TeamID: "Blue", IsSelf: true},
		{PlayerID: "a1", TeamID: "Blue"},
		{PlayerID: "e1", TeamID: "Red"},
		{PlayerID: "a2", TeamID: "Blue"},
		{PlayerID: "e2", TeamID: "Red"},
	}}

	self, ok := snap.Self()
	require.True(t, ok)
	assert.Equal(t, "me", self.PlayerID)

	teams := snap.Teams()
	assert.Len(t, teams, 2)
	assert.Len(t, teams["Blue"], 3)
	assert.Len(t, teams["Red"], 2)

	assert.Equal(t, []string{"a1", "a2"}, ids(snap.Allies()))
	assert.Equal(t, []string{"e1", "e2"}, ids(snap.Enemies()))

	assert.Nil(t, Snapshot{}.Allies())
}

func TestMatchDetailsLookups(t *testing.T) {
	m := &MatchDetails{
		Players: []MatchPlayer{{PlayerID: "p1", TeamID: "Red"}},
		Teams:   []MatchTeam{{TeamID: "Red", Won: true}, {TeamID: "Blue"}},
	}

	p, ok := m.Player("p1")
	require.True(t, ok)
	assert.Equal(t, "Red", p.TeamID)
	_, ok = m.Player("p2")
	assert.False(t, ok)

	assert.True(t, m.TeamWon("Red"))
	assert.False(t, m.TeamWon("Blue"))
	assert.False(t, m.TeamWon("Green"))
}

func ids(entries []RosterEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.PlayerID
	}
	return out
}
