package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/domain"
	"valorant-companion/internal/middleware"
	"valorant-companion/internal/scheduler"
	"valorant-companion/internal/service"
	"valorant-companion/internal/session"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const CompanionPath = "/valorant.companion.v1.Companion/"

type RateLimitReporter interface {
	GetRateLimitInfo() api.RateLimitInfo
}

type CompanionServer struct {
	tracker   *service.Tracker
	poller    *scheduler.Poller
	session   *session.Client
	history   *service.HistoryService
	analytics *service.AnalyticsService
	limits    RateLimitReporter
}

func NewCompanionServer(
	tracker *service.Tracker,
	poller *scheduler.Poller,
	sess *session.Client,
	history *service.HistoryService,
	analytics *service.AnalyticsService,
	limits RateLimitReporter,
) *CompanionServer {
	return &CompanionServer{
		tracker:   tracker,
		poller:    poller,
		session:   sess,
		history:   history,
		analytics: analytics,
		limits:    limits,
	}
}

// Handler mounts every procedure under CompanionPath.
func (s *CompanionServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CompanionPath+"GetSnapshot", connect.NewUnaryHandler(CompanionPath+"GetSnapshot", s.GetSnapshot, opts...))
	mux.Handle(CompanionPath+"Refresh", connect.NewUnaryHandler(CompanionPath+"Refresh", s.Refresh, opts...))
	mux.Handle(CompanionPath+"ListMatches", connect.NewUnaryHandler(CompanionPath+"ListMatches", s.ListMatches, opts...))
	mux.Handle(CompanionPath+"GetMatch", connect.NewUnaryHandler(CompanionPath+"GetMatch", s.GetMatch, opts...))
	mux.Handle(CompanionPath+"AnalyzeParty", connect.NewUnaryHandler(CompanionPath+"AnalyzeParty", s.AnalyzeParty, opts...))
	mux.Handle(CompanionPath+"AnalyzeWinTraders", connect.NewUnaryHandler(CompanionPath+"AnalyzeWinTraders", s.AnalyzeWinTraders, opts...))
	mux.Handle(CompanionPath+"LookupPlayer", connect.NewUnaryHandler(CompanionPath+"LookupPlayer", s.LookupPlayer, opts...))
	return CompanionPath, mux
}

func (s *CompanionServer) GetSnapshot(ctx context.Context, _ *connect.Request[GetSnapshotRequest]) (*connect.Response[SnapshotResponse], error) {
	return connect.NewResponse(s.snapshotResponse(s.tracker.Snapshot())), nil
}

func (s *CompanionServer) Refresh(ctx context.Context, _ *connect.Request[RefreshRequest]) (*connect.Response[RefreshResponse], error) {
	snap, refreshed := s.poller.Refresh(ctx)
	return connect.NewResponse(&RefreshResponse{
		Refreshed: refreshed,
		Snapshot:  *s.snapshotResponse(snap),
	}), nil
}

func (s *CompanionServer) ListMatches(ctx context.Context, req *connect.Request[ListMatchesRequest]) (*connect.Response[ListMatchesResponse], error) {
	playerID := req.Msg.PlayerID
	if playerID == "" {
		self, err := s.session.AccountID(ctx)
		if err != nil {
			return nil, toConnectError(ctx, err)
		}
		playerID = self
	}

	entries, err := s.history.RecentMatchesWithRR(ctx, playerID, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListMatchesResponse{PlayerID: playerID, Matches: toMatchEntries(entries)}), nil
}

func (s *CompanionServer) GetMatch(ctx context.Context, req *connect.Request[GetMatchRequest]) (*connect.Response[GetMatchResponse], error) {
	if req.Msg.MatchID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("match id is required"))
	}

	details, err := s.history.GetMatchDetails(ctx, req.Msg.MatchID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(toMatchResponse(details)), nil
}

func (s *CompanionServer) AnalyzeParty(ctx context.Context, req *connect.Request[AnalyzePartyRequest]) (*connect.Response[AnalyzePartyResponse], error) {
	targetID := req.Msg.TargetID
	if targetID == "" {
		self, err := s.session.AccountID(ctx)
		if err != nil {
			return nil, toConnectError(ctx, err)
		}
		targetID = self
	}

	candidates := req.Msg.CandidateIDs
	if len(candidates) == 0 {
		candidates = playerIDs(s.tracker.Snapshot().Allies())
	}
	if len(candidates) == 0 {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("no teammates to analyze; join a match or pass candidate ids"))
	}

	results, err := s.analytics.AnalyzeParty(ctx, targetID, candidates, req.Msg.MatchLimit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	resp := &AnalyzePartyResponse{TargetID: targetID, Results: make([]PartyResult, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, PartyResult{
			PlayerID:        r.SubjectPlayer,
			IsInParty:       r.IsInParty,
			Confidence:      r.Confidence,
			MatchesAnalyzed: r.MatchesAnalyzed,
			CommonMatches:   r.CommonMatches,
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *CompanionServer) AnalyzeWinTraders(ctx context.Context, req *connect.Request[AnalyzeWinTradersRequest]) (*connect.Response[AnalyzeWinTradersResponse], error) {
	teammates, enemies := req.Msg.TeammateIDs, req.Msg.EnemyIDs
	if len(teammates) == 0 || len(enemies) == 0 {
		snap := s.tracker.Snapshot()
		if snap.Phase != domain.PhaseLive {
			return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("enemies are only visible once the match is live"))
		}
		if len(teammates) == 0 {
			teammates = playerIDs(snap.Allies())
		}
		if len(enemies) == 0 {
			enemies = playerIDs(snap.Enemies())
		}
	}

	results, err := s.analytics.AnalyzeWinTraders(ctx, teammates, enemies, req.Msg.MatchLimit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	resp := &AnalyzeWinTradersResponse{Results: make([]WinTraderResult, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, WinTraderResult{
			SuspiciousPlayer:   r.SuspiciousPlayer,
			TargetOpponent:     r.TargetOpponent,
			TotalEncounters:    r.TotalEncounters,
			Wins:               r.Wins,
			WinRate:            r.WinRate,
			IsHighlySuspicious: r.IsHighlySuspicious,
			MatchesAnalyzed:    r.MatchesAnalyzed,
		})
	}
	return connect.NewResponse(resp), nil
}

// LookupPlayer reads another player's history through a session context
// pinned to their region, leaving the tracked session untouched.
func (s *CompanionServer) LookupPlayer(ctx context.Context, req *connect.Request[LookupPlayerRequest]) (*connect.Response[LookupPlayerResponse], error) {
	if req.Msg.PlayerID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("player id is required"))
	}
	region := strings.ToLower(req.Msg.Region)
	shard, ok := service.ShardFor(region)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown region %q", req.Msg.Region))
	}

	regional := s.session.ForRegion(domain.RegionBinding{Region: region, Shard: shard})
	entries, err := s.history.WithSession(regional).RecentMatchesWithRR(ctx, req.Msg.PlayerID, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&LookupPlayerResponse{Region: region, Shard: shard, Matches: toMatchEntries(entries)}), nil
}

func (s *CompanionServer) snapshotResponse(snap domain.Snapshot) *SnapshotResponse {
	status := s.poller.Status()
	limit := s.limits.GetRateLimitInfo()

	resp := &SnapshotResponse{
		PollID:      snap.PollID,
		Phase:       snap.Phase.String(),
		MatchID:     snap.MatchID,
		StartedAs:   string(snap.StartingSide),
		CurrentSide: string(snap.CurrentSide),
		Players:     make([]Player, 0, len(snap.Roster)),
		Error:       snap.Error,
		ErrorKind:   snap.ErrorKind,
		Status: RefreshStatus{
			MatchActive:      status.MatchActive,
			CooldownMs:       status.RefreshCooldown.Milliseconds(),
			ButtonCooldownMs: status.ButtonCooldown.Milliseconds(),
			RateLimited:      limit.Limited,
			RetryAfter:       limit.RetryAfter,
		},
	}
	if !snap.ObservedAt.IsZero() {
		resp.ObservedAt = snap.ObservedAt.Format(time.RFC3339)
	}
	if !status.LastRefresh.IsZero() {
		resp.Status.LastRefresh = status.LastRefresh.Format(time.RFC3339)
	}

	for _, e := range snap.Roster {
		resp.Players = append(resp.Players, Player{
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName,
			CharacterID: e.CharacterID,
			Agent:       e.Agent(),
			TeamID:      e.TeamID,
			RankTier:    e.RankTier,
			RankName:    e.RankName(),
			RankRating:  e.RankRating,
			IsSelf:      e.IsSelf,
		})
	}
	return resp
}

func toMatchEntries(entries []domain.MatchEntry) []MatchEntry {
	out := make([]MatchEntry, 0, len(entries))
	for _, e := range entries {
		m := MatchEntry{
			MatchID:   e.MatchID,
			StartedAt: e.StartedAt.Format(time.RFC3339),
			QueueID:   e.QueueID,
		}
		if e.Rating != nil {
			m.HasRating = true
			m.TierAfter = e.Rating.TierAfter
			m.TierName = domain.TierName(e.Rating.TierAfter)
			m.RatingAfter = e.Rating.RatingAfter
			m.RatingDelta = e.Rating.RatingDelta
		}
		out = append(out, m)
	}
	return out
}

func toMatchResponse(d *domain.MatchDetails) *GetMatchResponse {
	resp := &GetMatchResponse{
		MatchID:    d.MatchID,
		MapName:    d.MapName,
		QueueID:    d.QueueID,
		StartedAt:  d.StartedAt.Format(time.RFC3339),
		DurationMs: d.Duration.Milliseconds(),
		Completed:  d.IsCompleted,
	}
	for _, p := range d.Players {
		resp.Players = append(resp.Players, MatchPlayer{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Tag:      p.Tag,
			TeamID:   p.TeamID,
			PartyID:  p.PartyID,
			Agent:    domain.AgentName(p.CharacterID),
			TierName: domain.TierName(p.Tier),
			Score:    p.Score,
			Kills:    p.Kills,
			Deaths:   p.Deaths,
			Assists:  p.Assists,
		})
	}
	for _, t := range d.Teams {
		resp.Teams = append(resp.Teams, MatchTeam{TeamID: t.TeamID, Won: t.Won, RoundsWon: t.RoundsWon})
	}
	for _, r := range d.Rounds {
		resp.Rounds = append(resp.Rounds, Round{
			Number:      r.Number,
			Result:      r.Result,
			WinningTeam: r.WinningTeam,
			Kills:       len(r.Kills),
		})
	}
	return resp
}

func playerIDs(entries []domain.RosterEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PlayerID
	}
	return ids
}

// toConnectError logs err against the request and returns the message the
// player should see, coded by failure kind and tagged with the request id.
func toConnectError(ctx context.Context, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	default:
		switch api.KindOf(err) {
		case api.KindUnauthenticated:
			code = connect.CodeUnauthenticated
		case api.KindRateLimited:
			code = connect.CodeResourceExhausted
		case api.KindTransient:
			code = connect.CodeUnavailable
		case api.KindNotFound:
			code = connect.CodeNotFound
		}
	}

	zerolog.Ctx(ctx).Error().Err(err).Str("code", code.String()).Msg("request failed")
	cerr := connect.NewError(code, errors.New(api.UserMessage(err)))
	if id := middleware.GetRequestID(ctx); id != "" {
		cerr.Meta().Set("X-Request-ID", id)
	}
	return cerr
}
