package domain

import (
	"time"
)

type Phase int

const (
	PhaseNone Phase = iota
	PhasePregame
	PhaseLive
)

func (p Phase) String() string {
	switch p {
	case PhasePregame:
		return "pregame"
	case PhaseLive:
		return "live"
	default:
		return "none"
	}
}

// Active reports whether a match (pregame or live) is being tracked.
func (p Phase) Active() bool {
	return p != PhaseNone
}

type Side string

const (
	SideUnknown   Side = ""
	SideAttacking Side = "Attacking"
	SideDefending Side = "Defending"
)

const TeamRed = "Red"

// SideForTeam maps a team id to the side it plays. Red attacks, anything else defends.
func SideForTeam(teamID string) Side {
	if teamID == TeamRed {
		return SideAttacking
	}
	return SideDefending
}

type RegionBinding struct {
	AccountID   string
	Region      string
	Shard       string
	LastUpdated time.Time
}

// Stale reports whether the binding is older than ttl at now.
func (b RegionBinding) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(b.LastUpdated) > ttl
}

type MatchSession struct {
	MatchID      string
	Phase        Phase
	StartingSide Side
	Roster       []RosterEntry
}

type RosterEntry struct {
	PlayerID    string
	DisplayName string
	CharacterID string
	RankTier    int
	RankRating  int
	TeamID      string
	IsSelf      bool
}

// Agent returns the agent display name, or a placeholder while the player is still picking.
func (e RosterEntry) Agent() string {
	if e.CharacterID == "" {
		return AgentSelecting
	}
	return AgentName(e.CharacterID)
}

func (e RosterEntry) RankName() string {
	return TierName(e.RankTier)
}

type Snapshot struct {
	PollID       string
	Phase        Phase
	MatchID      string
	StartingSide Side
	CurrentSide  Side
	Roster       []RosterEntry
	Error        string
	ErrorKind    string
	ObservedAt   time.Time
}

// Teams partitions the roster by team id, keeping roster order within each team.
func (s Snapshot) Teams() map[string][]RosterEntry {
	teams := make(map[string][]RosterEntry)
	for _, e := range s.Roster {
		teams[e.TeamID] = append(teams[e.TeamID], e)
	}
	return teams
}

// Self returns the roster entry for the tracked player.
func (s Snapshot) Self() (RosterEntry, bool) {
	for _, e := range s.Roster {
		if e.IsSelf {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// Allies returns every rostered player on the tracked player's team except the player.
func (s Snapshot) Allies() []RosterEntry {
	self, ok := s.Self()
	if !ok {
		return nil
	}
	var out []RosterEntry
	for _, e := range s.Roster {
		if !e.IsSelf && e.TeamID == self.TeamID {
			out = append(out, e)
		}
	}
	return out
}

// Enemies returns every rostered player on a different team than the tracked player.
func (s Snapshot) Enemies() []RosterEntry {
	self, ok := s.Self()
	if !ok {
		return nil
	}
	var out []RosterEntry
	for _, e := range s.Roster {
		if e.TeamID != self.TeamID {
			out = append(out, e)
		}
	}
	return out
}

type MatchSummary struct {
	MatchID   string
	StartedAt time.Time
	QueueID   string
}

type RatingChange struct {
	MatchID     string
	TierBefore  int
	TierAfter   int
	RatingAfter int
	RatingDelta int
	StartedAt   time.Time
}

// MatchEntry is a history list row annotated with the rating change of that match, if any.
type MatchEntry struct {
	MatchSummary
	Rating *RatingChange
}

type MatchDetails struct {
	MatchID     string
	MapID       string
	MapName     string
	QueueID     string
	SeasonID    string
	StartedAt   time.Time
	Duration    time.Duration
	IsCompleted bool
	Players     []MatchPlayer
	Teams       []MatchTeam
	Rounds      []RoundResult
}

type MatchPlayer struct {
	PlayerID     string
	Name         string
	Tag          string
	TeamID       string
	PartyID      string
	CharacterID  string
	Tier         int
	Score        int
	RoundsPlayed int
	Kills        int
	Deaths       int
	Assists      int
}

type MatchTeam struct {
	TeamID       string
	Won          bool
	RoundsPlayed int
	RoundsWon    int
}

type RoundResult struct {
	Number      int
	Result      string
	WinningTeam string
	Kills       []Kill
	Economy     []PlayerEconomy
}

type Kill struct {
	Killer string
	Victim string
	Weapon string
}

type PlayerEconomy struct {
	PlayerID     string
	LoadoutValue int
	Weapon       string
	Armor        string
	Remaining    int
	Spent        int
}

// Player returns the participant with the given id.
func (m *MatchDetails) Player(playerID string) (MatchPlayer, bool) {
	for _, p := range m.Players {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return MatchPlayer{}, false
}

// TeamWon reports whether teamID won the match.
func (m *MatchDetails) TeamWon(teamID string) bool {
	for _, t := range m.Teams {
		if t.TeamID == teamID {
			return t.Won
		}
	}
	return false
}

type PartyAnalysis struct {
	SubjectPlayer   string
	IsInParty       bool
	Confidence      int
	MatchesAnalyzed int
	CommonMatches   int
}

type WinTraderAnalysis struct {
	SuspiciousPlayer   string
	TargetOpponent     string
	TotalEncounters    int
	Wins               int
	WinRate            int
	IsHighlySuspicious bool
	MatchesAnalyzed    int
}
