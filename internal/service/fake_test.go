package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/config"
)

// fakeSession is an in-memory GameSession. Unset lookups answer NotFound,
// the same way the remote services report "no such session".
type fakeSession struct {
	mu sync.Mutex

	self       string
	accountErr error

	pregameMatchID string
	pregameErr     error
	pregame        *api.PregameMatchResponse

	coreMatchID string
	coreErr     error
	core        *api.CoregameMatchResponse

	names    map[string]api.NameServiceEntry
	namesErr error

	updates    map[string]*api.CompetitiveUpdatesResponse
	updatesErr error
	mmr        map[string]*api.PlayerMMRResponse
	mmrCalls   int
	seasonID   string

	history    map[string][]string
	historyErr map[string]error
	details    map[string]*api.MatchDetailsResponse
	detailErr  map[string]error

	detailCalls map[string]int
}

func newFakeSession(self string) *fakeSession {
	return &fakeSession{
		self:        self,
		names:       map[string]api.NameServiceEntry{},
		updates:     map[string]*api.CompetitiveUpdatesResponse{},
		mmr:         map[string]*api.PlayerMMRResponse{},
		history:     map[string][]string{},
		historyErr:  map[string]error{},
		details:     map[string]*api.MatchDetailsResponse{},
		detailErr:   map[string]error{},
		detailCalls: map[string]int{},
	}
}

func notFound(op string) error {
	return api.NewError(api.KindNotFound, op, fmt.Errorf("404"))
}

func (f *fakeSession) AccountID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountErr != nil {
		return "", f.accountErr
	}
	return f.self, nil
}

func (f *fakeSession) PregamePlayer(_ context.Context, playerID string) (*api.PregamePlayerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pregameErr != nil {
		return nil, f.pregameErr
	}
	if f.pregameMatchID == "" {
		return nil, notFound("pregame player")
	}
	return &api.PregamePlayerResponse{Subject: playerID, MatchID: f.pregameMatchID}, nil
}

func (f *fakeSession) PregameMatch(context.Context, string) (*api.PregameMatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pregame == nil {
		return nil, notFound("pregame match")
	}
	return f.pregame, nil
}

func (f *fakeSession) CoregamePlayer(_ context.Context, playerID string) (*api.CoregamePlayerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.coreErr != nil {
		return nil, f.coreErr
	}
	if f.coreMatchID == "" {
		return nil, notFound("coregame player")
	}
	return &api.CoregamePlayerResponse{Subject: playerID, MatchID: f.coreMatchID}, nil
}

func (f *fakeSession) CoregameMatch(context.Context, string) (*api.CoregameMatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.core == nil {
		return nil, notFound("coregame match")
	}
	return f.core, nil
}

func (f *fakeSession) PlayerNames(_ context.Context, ids []string) ([]api.NameServiceEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	var out []api.NameServiceEntry
	for _, id := range ids {
		if n, ok := f.names[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeSession) CompetitiveUpdates(_ context.Context, playerID string, _, _ int) (*api.CompetitiveUpdatesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updatesErr != nil {
		return nil, f.updatesErr
	}
	if u, ok := f.updates[playerID]; ok {
		return u, nil
	}
	return &api.CompetitiveUpdatesResponse{Subject: playerID}, nil
}

func (f *fakeSession) PlayerMMR(_ context.Context, playerID string) (*api.PlayerMMRResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mmrCalls++
	if m, ok := f.mmr[playerID]; ok {
		return m, nil
	}
	return nil, notFound("mmr")
}

func (f *fakeSession) CurrentSeasonID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seasonID == "" {
		return "", notFound("content")
	}
	return f.seasonID, nil
}

func (f *fakeSession) MatchHistory(_ context.Context, playerID string, start, end int) (*api.MatchHistoryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.historyErr[playerID]; err != nil {
		return nil, err
	}
	ids := f.history[playerID]
	end = min(end, len(ids))

	resp := &api.MatchHistoryResponse{Subject: playerID, BeginIndex: start, EndIndex: end, Total: len(ids)}
	for i, id := range ids[start:end] {
		resp.History = append(resp.History, struct {
			MatchID       string `json:"MatchID"`
			GameStartTime int64  `json:"GameStartTime"`
			QueueID       string `json:"QueueID"`
		}{MatchID: id, GameStartTime: int64(1_700_000_000_000 - i*3_600_000), QueueID: "competitive"})
	}
	return resp, nil
}

func (f *fakeSession) MatchDetails(_ context.Context, matchID string) (*api.MatchDetailsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[matchID]++
	if err := f.detailErr[matchID]; err != nil {
		return nil, err
	}
	if d, ok := f.details[matchID]; ok {
		return d, nil
	}
	return nil, notFound("match details")
}

// addMatch records a finished match. Teams map team id to player ids.
func (f *fakeSession) addMatch(matchID, winner string, teams map[string][]string) {
	type player struct {
		Subject string `json:"subject"`
		TeamID  string `json:"teamId"`
	}
	type team struct {
		TeamID string `json:"teamId"`
		Won    bool   `json:"won"`
	}
	payload := struct {
		MatchInfo map[string]any `json:"matchInfo"`
		Players   []player       `json:"players"`
		Teams     []team         `json:"teams"`
	}{MatchInfo: map[string]any{"matchId": matchID, "mapId": "/Game/Maps/Ascent/Ascent", "isCompleted": true}}

	for teamID, ids := range teams {
		payload.Teams = append(payload.Teams, team{TeamID: teamID, Won: teamID == winner})
		for _, id := range ids {
			payload.Players = append(payload.Players, player{Subject: id, TeamID: teamID})
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	var resp api.MatchDetailsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		panic(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[matchID] = &resp
}

func (f *fakeSession) setHistory(playerID string, matchIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[playerID] = matchIDs
}

func pregameMatch(teamID string, players ...string) *api.PregameMatchResponse {
	var b strings.Builder
	for i, p := range players {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"Subject":%q,"CharacterID":"","CharacterSelectionState":""}`, p)
	}
	raw := fmt.Sprintf(`{"ID":"pre","AllyTeam":{"TeamID":%q,"Players":[%s]}}`, teamID, b.String())

	var resp api.PregameMatchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		panic(err)
	}
	return &resp
}

func coregameMatch(matchID string, teams map[string][]string) *api.CoregameMatchResponse {
	resp := &api.CoregameMatchResponse{MatchID: matchID}
	for teamID, ids := range teams {
		for _, id := range ids {
			resp.Players = append(resp.Players, api.CoregamePlayer{Subject: id, TeamID: teamID})
		}
	}
	return resp
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultRegion:        "na",
		RegionTTL:            7 * 24 * time.Hour,
		MatchDetailRate:      10_000,
		AnalyticsConcurrency: 1,
		PartyMatchLimit:      20,
		WinTradeMatchLimit:   30,
	}
}

func seq(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}
