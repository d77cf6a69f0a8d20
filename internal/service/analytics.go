package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
	"valorant-companion/internal/config"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/domain"
	"valorant-companion/internal/metrics"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService runs the party and win-trade detectors. Results are
// heuristic and recomputed on every call.
type AnalyticsService struct {
	history     *HistoryService
	metrics     *metrics.Metrics
	concurrency int
	partyLimit  int
	tradeLimit  int
	logger      zerolog.Logger
}

func NewAnalyticsService(history *HistoryService, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		history:     history,
		metrics:     m,
		concurrency: max(cfg.AnalyticsConcurrency, 1),
		partyLimit:  cfg.PartyMatchLimit,
		tradeLimit:  cfg.WinTradeMatchLimit,
		logger:      logger.With().Str("component", "analytics").Logger(),
	}
}

// AnalyzeParty reports, for each candidate, how often they shared a team with
// target over target's last limit matches.
func (s *AnalyticsService) AnalyzeParty(ctx context.Context, targetID string, candidates []string, limit int) ([]domain.PartyAnalysis, error) {
	defer s.metrics.ObserveAnalysis("party", time.Now())
	if limit <= 0 {
		limit = s.partyLimit
	}
	logger := s.analysisLogger("party").With().Str("target", targetID).Int("match_limit", limit).Logger()

	ctx, cancel := context.WithTimeout(ctx, constants.AnalysisTimeout)
	defer cancel()

	matches, err := s.history.ListRecentMatches(ctx, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list target matches: %w", err)
	}
	details := newDetailSet(s.history, s.concurrency, logger).fetch(ctx, matchIDs(matches))

	results := make([]domain.PartyAnalysis, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == targetID {
			continue
		}
		results = append(results, partyFor(targetID, candidate, matches, details))
	}

	logger.Info().
		Int("candidates", len(results)).
		Int("matches_listed", len(matches)).
		Int("matches_fetched", len(details)).
		Msg("party analysis complete")
	return results, nil
}

func partyFor(targetID, candidate string, matches []domain.MatchSummary, details map[string]*domain.MatchDetails) domain.PartyAnalysis {
	var analyzed, common int
	for _, m := range matches {
		d, ok := details[m.MatchID]
		if !ok {
			continue
		}
		target, ok := d.Player(targetID)
		if !ok {
			continue
		}
		analyzed++
		if p, ok := d.Player(candidate); ok && p.TeamID == target.TeamID {
			common++
		}
	}

	confidence := percent(common, analyzed)
	return domain.PartyAnalysis{
		SubjectPlayer:   candidate,
		IsInParty:       common >= constants.PartyMinCommonMatches && confidence >= constants.PartyMinConfidence,
		Confidence:      confidence,
		MatchesAnalyzed: analyzed,
		CommonMatches:   common,
	}
}

// AnalyzeWinTraders looks through each teammate's last limit matches for
// current enemies they faced, and reports pairs with enough encounters,
// suspicious pairs first.
func (s *AnalyticsService) AnalyzeWinTraders(ctx context.Context, teammates, enemies []string, limit int) ([]domain.WinTraderAnalysis, error) {
	defer s.metrics.ObserveAnalysis("win_trade", time.Now())
	if limit <= 0 {
		limit = s.tradeLimit
	}
	logger := s.analysisLogger("win_trade").With().Int("match_limit", limit).Logger()

	ctx, cancel := context.WithTimeout(ctx, constants.AnalysisTimeout)
	defer cancel()

	// match details are shared between teammates within one run
	set := newDetailSet(s.history, s.concurrency, logger)

	var results []domain.WinTraderAnalysis
	for _, teammate := range teammates {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("win-trade analysis aborted: %w", ctx.Err())
		}

		matches, err := s.history.ListRecentMatches(ctx, teammate, limit)
		if err != nil {
			logger.Warn().Err(err).Str("teammate", teammate).Msg("skipping teammate")
			continue
		}
		details := set.fetch(ctx, matchIDs(matches))
		results = append(results, tradesFor(teammate, enemies, matches, details)...)
	}

	slices.SortStableFunc(results, func(a, b domain.WinTraderAnalysis) int {
		if a.IsHighlySuspicious != b.IsHighlySuspicious {
			if a.IsHighlySuspicious {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.TotalEncounters, a.TotalEncounters)
	})

	logger.Info().Int("teammates", len(teammates)).Int("enemies", len(enemies)).Int("pairs", len(results)).Msg("win-trade analysis complete")
	return results, nil
}

func tradesFor(teammate string, enemies []string, matches []domain.MatchSummary, details map[string]*domain.MatchDetails) []domain.WinTraderAnalysis {
	encounters := make(map[string]int, len(enemies))
	wins := make(map[string]int, len(enemies))
	var analyzed int

	for _, m := range matches {
		d, ok := details[m.MatchID]
		if !ok {
			continue
		}
		self, ok := d.Player(teammate)
		if !ok {
			continue
		}
		analyzed++
		won := d.TeamWon(self.TeamID)

		for _, enemy := range enemies {
			if enemy == teammate {
				continue
			}
			p, ok := d.Player(enemy)
			if !ok || p.TeamID == self.TeamID {
				continue
			}
			encounters[enemy]++
			if won {
				wins[enemy]++
			}
		}
	}

	var out []domain.WinTraderAnalysis
	for _, enemy := range enemies {
		total := encounters[enemy]
		if total < constants.WinTradeMinEncounters {
			continue
		}
		rate := percent(wins[enemy], total)
		skewed := rate >= constants.WinTradeHighWinRate || rate <= constants.WinTradeLowWinRate
		out = append(out, domain.WinTraderAnalysis{
			SuspiciousPlayer:   teammate,
			TargetOpponent:     enemy,
			TotalEncounters:    total,
			Wins:               wins[enemy],
			WinRate:            rate,
			IsHighlySuspicious: total >= constants.WinTradeSuspiciousEncounters && skewed,
			MatchesAnalyzed:    analyzed,
		})
	}
	return out
}

func (s *AnalyticsService) analysisLogger(detector string) zerolog.Logger {
	id, err := gonanoid.New()
	if err != nil {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return s.logger.With().Str("detector", detector).Str("analysis_id", id).Logger()
}

// detailSet fetches match details at most once per analysis run. Failed
// fetches are dropped and not retried within the run.
type detailSet struct {
	history     *HistoryService
	concurrency int
	logger      zerolog.Logger

	mu      sync.Mutex
	fetched map[string]*domain.MatchDetails
	failed  map[string]bool
}

func newDetailSet(history *HistoryService, concurrency int, logger zerolog.Logger) *detailSet {
	return &detailSet{
		history:     history,
		concurrency: concurrency,
		logger:      logger,
		fetched:     make(map[string]*domain.MatchDetails),
		failed:      make(map[string]bool),
	}
}

// fetch returns details for every id that could be fetched.
func (d *detailSet) fetch(ctx context.Context, ids []string) map[string]*domain.MatchDetails {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, id := range ids {
		d.mu.Lock()
		_, done := d.fetched[id]
		skip := done || d.failed[id]
		d.mu.Unlock()
		if skip {
			continue
		}

		id := id
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			details, err := d.history.GetMatchDetails(gCtx, id)

			d.mu.Lock()
			defer d.mu.Unlock()
			if err != nil {
				d.logger.Warn().Err(err).Str("match_id", id).Msg("match skipped")
				d.failed[id] = true
				return nil
			}
			d.fetched[id] = details
			return nil
		})
	}
	_ = g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]*domain.MatchDetails, len(ids))
	for _, id := range ids {
		if details, ok := d.fetched[id]; ok {
			out[id] = details
		}
	}
	return out
}

func matchIDs(matches []domain.MatchSummary) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.MatchID
	}
	return ids
}

// percent returns part/whole as a whole-number percentage, 0 when whole is 0.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
