package api

type EntitlementsResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
	Subject     string `json:"subject"`
}

type ExternalSession struct {
	ProductID string `json:"productId"`
	Version   string `json:"version"`
}

type UserInfoResponse struct {
	Country string `json:"country"`
	Sub     string `json:"sub"`
}

type PregamePlayerResponse struct {
	Subject string `json:"Subject"`
	MatchID string `json:"MatchID"`
}

type PregameMatchResponse struct {
	ID       string `json:"ID"`
	AllyTeam *struct {
		TeamID  string          `json:"TeamID"`
		Players []PregamePlayer `json:"Players"`
	} `json:"AllyTeam"`
	MapID        string `json:"MapID"`
	QueueID      string `json:"QueueID"`
	PregameState string `json:"PregameState"`
}

type PregamePlayer struct {
	Subject                 string `json:"Subject"`
	CharacterID             string `json:"CharacterID"`
	CharacterSelectionState string `json:"CharacterSelectionState"`
}

type CoregamePlayerResponse struct {
	Subject string `json:"Subject"`
	MatchID string `json:"MatchID"`
}

type CoregameMatchResponse struct {
	MatchID string           `json:"MatchID"`
	MapID   string           `json:"MapID"`
	State   string           `json:"State"`
	Players []CoregamePlayer `json:"Players"`
}

type CoregamePlayer struct {
	Subject     string `json:"Subject"`
	TeamID      string `json:"TeamID"`
	CharacterID string `json:"CharacterID"`
}

type NameServiceEntry struct {
	Subject     string `json:"Subject"`
	DisplayName string `json:"DisplayName"`
	GameName    string `json:"GameName"`
	TagLine     string `json:"TagLine"`
}

type CompetitiveUpdatesResponse struct {
	Subject string              `json:"Subject"`
	Matches []CompetitiveUpdate `json:"Matches"`
}

type CompetitiveUpdate struct {
	MatchID                 string `json:"MatchID"`
	MapID                   string `json:"MapID"`
	SeasonID                string `json:"SeasonID"`
	MatchStartTime          int64  `json:"MatchStartTime"`
	TierAfterUpdate         int    `json:"TierAfterUpdate"`
	TierBeforeUpdate        int    `json:"TierBeforeUpdate"`
	RankedRatingAfterUpdate int    `json:"RankedRatingAfterUpdate"`
	RankedRatingEarned      int    `json:"RankedRatingEarned"`
}

type PlayerMMRResponse struct {
	Subject     string `json:"Subject"`
	QueueSkills map[string]struct {
		SeasonalInfoBySeasonID map[string]SeasonalInfo `json:"SeasonalInfoBySeasonID"`
	} `json:"QueueSkills"`
	LatestCompetitiveUpdate *CompetitiveUpdate `json:"LatestCompetitiveUpdate"`
}

type SeasonalInfo struct {
	SeasonID        string `json:"SeasonID"`
	NumberOfWins    int    `json:"NumberOfWins"`
	NumberOfGames   int    `json:"NumberOfGames"`
	CompetitiveTier int    `json:"CompetitiveTier"`
	RankedRating    int    `json:"RankedRating"`
}

type ContentResponse struct {
	Seasons []struct {
		ID       string `json:"ID"`
		Name     string `json:"Name"`
		Type     string `json:"Type"`
		IsActive bool   `json:"IsActive"`
	} `json:"Seasons"`
}

type MatchHistoryResponse struct {
	Subject    string `json:"Subject"`
	BeginIndex int    `json:"BeginIndex"`
	EndIndex   int    `json:"EndIndex"`
	Total      int    `json:"Total"`
	History    []struct {
		MatchID       string `json:"MatchID"`
		GameStartTime int64  `json:"GameStartTime"`
		QueueID       string `json:"QueueID"`
	} `json:"History"`
}

type MatchDetailsResponse struct {
	MatchInfo struct {
		MatchID          string `json:"matchId"`
		MapID            string `json:"mapId"`
		GameStartMillis  int64  `json:"gameStartMillis"`
		GameLengthMillis int64  `json:"gameLengthMillis"`
		IsCompleted      bool   `json:"isCompleted"`
		QueueID          string `json:"queueID"`
		SeasonID         string `json:"seasonId"`
	} `json:"matchInfo"`
	Players []struct {
		Subject         string `json:"subject"`
		GameName        string `json:"gameName"`
		TagLine         string `json:"tagLine"`
		TeamID          string `json:"teamId"`
		PartyID         string `json:"partyId"`
		CharacterID     string `json:"characterId"`
		CompetitiveTier int    `json:"competitiveTier"`
		Stats           *struct {
			Score        int `json:"score"`
			RoundsPlayed int `json:"roundsPlayed"`
			Kills        int `json:"kills"`
			Deaths       int `json:"deaths"`
			Assists      int `json:"assists"`
		} `json:"stats"`
	} `json:"players"`
	Teams []struct {
		TeamID       string `json:"teamId"`
		Won          bool   `json:"won"`
		RoundsPlayed int    `json:"roundsPlayed"`
		RoundsWon    int    `json:"roundsWon"`
	} `json:"teams"`
	RoundResults []struct {
		RoundNum    int    `json:"roundNum"`
		RoundResult string `json:"roundResult"`
		WinningTeam string `json:"winningTeam"`
		PlayerStats []struct {
			Subject string `json:"subject"`
			Kills   []struct {
				Killer          string `json:"killer"`
				Victim          string `json:"victim"`
				FinishingDamage struct {
					DamageItem string `json:"damageItem"`
				} `json:"finishingDamage"`
			} `json:"kills"`
			Economy struct {
				LoadoutValue int    `json:"loadoutValue"`
				Weapon       string `json:"weapon"`
				Armor        string `json:"armor"`
				Remaining    int    `json:"remaining"`
				Spent        int    `json:"spent"`
			} `json:"economy"`
		} `json:"playerStats"`
	} `json:"roundResults"`
}
