package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"valorant-companion/internal/api"
)

func call[T any](ctx context.Context, c *Client, ep Endpoint) (*T, error) {
	resp, err := c.Call(ctx, ep)
	if err != nil {
		return nil, err
	}
	return api.Decode[T](ep.Name, resp)
}

func (c *Client) PregamePlayer(ctx context.Context, playerID string) (*api.PregamePlayerResponse, error) {
	return call[api.PregamePlayerResponse](ctx, c, Endpoint{
		Name: "pregame player",
		Host: HostGLZ,
		Path: "/pregame/v1/players/" + url.PathEscape(playerID),
	})
}

func (c *Client) PregameMatch(ctx context.Context, matchID string) (*api.PregameMatchResponse, error) {
	return call[api.PregameMatchResponse](ctx, c, Endpoint{
		Name: "pregame match",
		Host: HostGLZ,
		Path: "/pregame/v1/matches/" + url.PathEscape(matchID),
	})
}

func (c *Client) CoregamePlayer(ctx context.Context, playerID string) (*api.CoregamePlayerResponse, error) {
	return call[api.CoregamePlayerResponse](ctx, c, Endpoint{
		Name: "coregame player",
		Host: HostGLZ,
		Path: "/core-game/v1/players/" + url.PathEscape(playerID),
	})
}

func (c *Client) CoregameMatch(ctx context.Context, matchID string) (*api.CoregameMatchResponse, error) {
	return call[api.CoregameMatchResponse](ctx, c, Endpoint{
		Name: "coregame match",
		Host: HostGLZ,
		Path: "/core-game/v1/matches/" + url.PathEscape(matchID),
	})
}

func (c *Client) PlayerNames(ctx context.Context, playerIDs []string) ([]api.NameServiceEntry, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	names, err := call[[]api.NameServiceEntry](ctx, c, Endpoint{
		Name:   "player names",
		Method: http.MethodPut,
		Host:   HostPD,
		Path:   "/name-service/v2/players",
		Body:   playerIDs,
	})
	if err != nil {
		return nil, err
	}
	return *names, nil
}

func (c *Client) CompetitiveUpdates(ctx context.Context, playerID string, start, end int) (*api.CompetitiveUpdatesResponse, error) {
	return call[api.CompetitiveUpdatesResponse](ctx, c, Endpoint{
		Name: "competitive updates",
		Host: HostPD,
		Path: fmt.Sprintf("/mmr/v1/players/%s/competitiveupdates?startIndex=%d&endIndex=%d&queue=competitive", url.PathEscape(playerID), start, end),
	})
}

func (c *Client) PlayerMMR(ctx context.Context, playerID string) (*api.PlayerMMRResponse, error) {
	return call[api.PlayerMMRResponse](ctx, c, Endpoint{
		Name: "player mmr",
		Host: HostPD,
		Path: "/mmr/v1/players/" + url.PathEscape(playerID),
	})
}

// CurrentSeasonID returns the active act. It is fetched once per session context.
func (c *Client) CurrentSeasonID(ctx context.Context) (string, error) {
	c.mu.RLock()
	cached := c.seasonID
	c.mu.RUnlock()
	if cached != "" {
		return cached, nil
	}

	content, err := call[api.ContentResponse](ctx, c, Endpoint{
		Name: "content",
		Host: HostShared,
		Path: "/content-service/v3/content",
	})
	if err != nil {
		return "", err
	}
	for _, s := range content.Seasons {
		if s.IsActive && s.Type == "act" {
			c.mu.Lock()
			c.seasonID = s.ID
			c.mu.Unlock()
			return s.ID, nil
		}
	}
	return "", api.NewError(api.KindNotFound, "content", fmt.Errorf("no active act"))
}

func (c *Client) MatchHistory(ctx context.Context, playerID string, start, end int) (*api.MatchHistoryResponse, error) {
	return call[api.MatchHistoryResponse](ctx, c, Endpoint{
		Name: "match history",
		Host: HostPD,
		Path: fmt.Sprintf("/match-history/v1/history/%s?startIndex=%d&endIndex=%d", url.PathEscape(playerID), start, end),
	})
}

func (c *Client) MatchDetails(ctx context.Context, matchID string) (*api.MatchDetailsResponse, error) {
	return call[api.MatchDetailsResponse](ctx, c, Endpoint{
		Name: "match details",
		Host: HostPD,
		Path: "/match-details/v1/matches/" + url.PathEscape(matchID),
	})
}
