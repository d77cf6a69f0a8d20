package service

import (
	"context"
	"valorant-companion/internal/api"
)

// GameSession is the slice of the session client the services depend on.
type GameSession interface {
	AccountID(ctx context.Context) (string, error)
	PregamePlayer(ctx context.Context, playerID string) (*api.PregamePlayerResponse, error)
	PregameMatch(ctx context.Context, matchID string) (*api.PregameMatchResponse, error)
	CoregamePlayer(ctx context.Context, playerID string) (*api.CoregamePlayerResponse, error)
	CoregameMatch(ctx context.Context, matchID string) (*api.CoregameMatchResponse, error)
	PlayerNames(ctx context.Context, playerIDs []string) ([]api.NameServiceEntry, error)
	CompetitiveUpdates(ctx context.Context, playerID string, start, end int) (*api.CompetitiveUpdatesResponse, error)
	PlayerMMR(ctx context.Context, playerID string) (*api.PlayerMMRResponse, error)
	CurrentSeasonID(ctx context.Context) (string, error)
	MatchHistory(ctx context.Context, playerID string, start, end int) (*api.MatchHistoryResponse, error)
	MatchDetails(ctx context.Context, matchID string) (*api.MatchDetailsResponse, error)
}
