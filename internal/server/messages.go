package server

type GetSnapshotRequest struct{}

type RefreshRequest struct{}

type Player struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	CharacterID string `json:"characterId,omitempty"`
	Agent       string `json:"agent"`
	TeamID      string `json:"teamId"`
	RankTier    int    `json:"rankTier"`
	RankName    string `json:"rankName"`
	RankRating  int    `json:"rankRating"`
	IsSelf      bool   `json:"isSelf"`
}

type RefreshStatus struct {
	LastRefresh      string `json:"lastRefresh,omitempty"`
	MatchActive      bool   `json:"matchActive"`
	CooldownMs       int64  `json:"cooldownMs"`
	ButtonCooldownMs int64  `json:"buttonCooldownMs"`
	RateLimited      bool   `json:"rateLimited"`
	RetryAfter       int    `json:"retryAfter,omitempty"`
}

type SnapshotResponse struct {
	PollID      string        `json:"pollId"`
	Phase       string        `json:"phase"`
	MatchID     string        `json:"matchId,omitempty"`
	StartedAs   string        `json:"startedAs,omitempty"`
	CurrentSide string        `json:"currentSide,omitempty"`
	Players     []Player      `json:"players"`
	Error       string        `json:"error,omitempty"`
	ErrorKind   string        `json:"errorKind,omitempty"`
	ObservedAt  string        `json:"observedAt,omitempty"`
	Status      RefreshStatus `json:"status"`
}

type RefreshResponse struct {
	Refreshed bool             `json:"refreshed"`
	Snapshot  SnapshotResponse `json:"snapshot"`
}

type ListMatchesRequest struct {
	PlayerID string `json:"playerId,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type MatchEntry struct {
	MatchID     string `json:"matchId"`
	StartedAt   string `json:"startedAt"`
	QueueID     string `json:"queueId"`
	TierAfter   int    `json:"tierAfter,omitempty"`
	TierName    string `json:"tierName,omitempty"`
	RatingAfter int    `json:"ratingAfter,omitempty"`
	RatingDelta int    `json:"ratingDelta,omitempty"`
	HasRating   bool   `json:"hasRating"`
}

type ListMatchesResponse struct {
	PlayerID string       `json:"playerId"`
	Matches  []MatchEntry `json:"matches"`
}

type GetMatchRequest struct {
	MatchID string `json:"matchId"`
}

type MatchPlayer struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Tag      string `json:"tag"`
	TeamID   string `json:"teamId"`
	PartyID  string `json:"partyId,omitempty"`
	Agent    string `json:"agent"`
	TierName string `json:"tierName"`
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	Assists  int    `json:"assists"`
}

type MatchTeam struct {
	TeamID    string `json:"teamId"`
	Won       bool   `json:"won"`
	RoundsWon int    `json:"roundsWon"`
}

type Round struct {
	Number      int    `json:"number"`
	Result      string `json:"result"`
	WinningTeam string `json:"winningTeam"`
	Kills       int    `json:"kills"`
}

type GetMatchResponse struct {
	MatchID    string        `json:"matchId"`
	MapName    string        `json:"mapName"`
	QueueID    string        `json:"queueId"`
	StartedAt  string        `json:"startedAt"`
	DurationMs int64         `json:"durationMs"`
	Completed  bool          `json:"completed"`
	Players    []MatchPlayer `json:"players"`
	Teams      []MatchTeam   `json:"teams"`
	Rounds     []Round       `json:"rounds"`
}

type AnalyzePartyRequest struct {
	TargetID     string   `json:"targetId,omitempty"`
	CandidateIDs []string `json:"candidateIds,omitempty"`
	MatchLimit   int      `json:"matchLimit,omitempty"`
}

type PartyResult struct {
	PlayerID        string `json:"playerId"`
	IsInParty       bool   `json:"isInParty"`
	Confidence      int    `json:"confidence"`
	MatchesAnalyzed int    `json:"matchesAnalyzed"`
	CommonMatches   int    `json:"commonMatches"`
}

type AnalyzePartyResponse struct {
	TargetID string        `json:"targetId"`
	Results  []PartyResult `json:"results"`
}

type AnalyzeWinTradersRequest struct {
	TeammateIDs []string `json:"teammateIds,omitempty"`
	EnemyIDs    []string `json:"enemyIds,omitempty"`
	MatchLimit  int      `json:"matchLimit,omitempty"`
}

type WinTraderResult struct {
	SuspiciousPlayer   string `json:"suspiciousPlayer"`
	TargetOpponent     string `json:"targetOpponent"`
	TotalEncounters    int    `json:"totalEncounters"`
	Wins               int    `json:"wins"`
	WinRate            int    `json:"winRate"`
	IsHighlySuspicious bool   `json:"isHighlySuspicious"`
	MatchesAnalyzed    int    `json:"matchesAnalyzed"`
}

type AnalyzeWinTradersResponse struct {
	Results []WinTraderResult `json:"results"`
}

type LookupPlayerRequest struct {
	Region   string `json:"region"`
	PlayerID string `json:"playerId"`
	Limit    int    `json:"limit,omitempty"`
}

type LookupPlayerResponse struct {
	Region  string       `json:"region"`
	Shard   string       `json:"shard"`
	Matches []MatchEntry `json:"matches"`
}
