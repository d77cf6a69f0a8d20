package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/config"
	"valorant-companion/internal/constants"
	"valorant-companion/internal/domain"

	"github.com/rs/zerolog"
)

const userInfoURL = "https://auth.riotgames.com/userinfo"

type RegionStore interface {
	Get(ctx context.Context, accountID string) (*domain.RegionBinding, error)
	Upsert(ctx context.Context, b domain.RegionBinding) error
}

type HTTPDoer interface {
	Do(ctx context.Context, req *api.Request) (*api.Response, error)
}

var shardByRegion = map[string]string{
	"na":    "na",
	"latam": "na",
	"br":    "na",
	"eu":    "eu",
	"ap":    "ap",
	"kr":    "kr",
}

// ISO 3166 alpha-3 country -> game region. Anything missing falls back to the default region.
var regionByCountry = map[string]string{
	"usa": "na", "can": "na", "pri": "na",

	"mex": "latam", "arg": "latam", "chl": "latam", "col": "latam", "per": "latam",
	"ury": "latam", "pry": "latam", "bol": "latam", "ecu": "latam", "ven": "latam",
	"cri": "latam", "pan": "latam", "gtm": "latam", "hnd": "latam", "slv": "latam",
	"nic": "latam", "dom": "latam",

	"bra": "br",

	"gbr": "eu", "irl": "eu", "fra": "eu", "deu": "eu", "esp": "eu", "prt": "eu",
	"ita": "eu", "nld": "eu", "bel": "eu", "lux": "eu", "che": "eu", "aut": "eu",
	"pol": "eu", "cze": "eu", "svk": "eu", "hun": "eu", "rou": "eu", "bgr": "eu",
	"grc": "eu", "hrv": "eu", "srb": "eu", "svn": "eu", "swe": "eu", "nor": "eu",
	"dnk": "eu", "fin": "eu", "isl": "eu", "est": "eu", "lva": "eu", "ltu": "eu",
	"ukr": "eu", "rus": "eu", "tur": "eu", "isr": "eu", "sau": "eu", "are": "eu",
	"qat": "eu", "kwt": "eu", "egy": "eu", "mar": "eu", "zaf": "eu",

	"jpn": "ap", "aus": "ap", "nzl": "ap", "sgp": "ap", "phl": "ap", "tha": "ap",
	"vnm": "ap", "idn": "ap", "mys": "ap", "twn": "ap", "hkg": "ap", "ind": "ap",

	"kor": "kr",
}

// RegionFor maps a country code to its region binding, reporting whether the code was known.
func RegionFor(country, fallbackRegion string) (region, shard string, known bool) {
	region, known = regionByCountry[strings.ToLower(country)]
	if !known {
		region = fallbackRegion
	}
	shard, ok := shardByRegion[region]
	if !ok {
		region, shard = "na", "na"
	}
	return region, shard, known
}

// ShardFor returns the shard serving region.
func ShardFor(region string) (string, bool) {
	shard, ok := shardByRegion[strings.ToLower(region)]
	return shard, ok
}

type RegionService struct {
	store         RegionStore
	http          HTTPDoer
	defaultRegion string
	ttl           time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

func NewRegionService(store RegionStore, http HTTPDoer, cfg *config.Config, logger zerolog.Logger) *RegionService {
	return &RegionService{
		store:         store,
		http:          http,
		defaultRegion: cfg.DefaultRegion,
		ttl:           cfg.RegionTTL,
		logger:        logger.With().Str("component", "region").Logger(),
		now:           time.Now,
	}
}

// Locate returns the account's region binding, re-detecting it when the stored
// one is missing or stale. It never fails: detection errors fall back to the
// stale binding when there is one, else to the default region.
func (s *RegionService) Locate(ctx context.Context, creds *api.Credentials) domain.RegionBinding {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	stored, err := s.store.Get(dbCtx, creds.AccountID)
	cancel()
	if err != nil {
		s.logger.Warn().Err(err).Str("account_id", creds.AccountID).Msg("failed to read stored region")
	}

	now := s.now()
	if stored != nil && !stored.Stale(now, s.ttl) {
		return *stored
	}

	country, err := s.detectCountry(ctx, creds)
	if err != nil {
		if stored != nil {
			s.logger.Warn().Err(err).Str("region", stored.Region).Msg("region detection failed, keeping stale binding")
			return *stored
		}
		region, shard, _ := RegionFor("", s.defaultRegion)
		s.logger.Warn().Err(err).Str("region", region).Msg("region detection failed, using default region")
		return domain.RegionBinding{AccountID: creds.AccountID, Region: region, Shard: shard, LastUpdated: now}
	}

	region, shard, known := RegionFor(country, s.defaultRegion)
	binding := domain.RegionBinding{AccountID: creds.AccountID, Region: region, Shard: shard, LastUpdated: now}

	dbCtx, cancel = context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	if err := s.store.Upsert(dbCtx, binding); err != nil {
		s.logger.Warn().Err(err).Str("account_id", creds.AccountID).Msg("failed to persist region binding")
	}

	s.logger.Info().
		Str("account_id", creds.AccountID).
		Str("country", country).
		Bool("known_country", known).
		Str("region", region).
		Str("shard", shard).
		Msg("region detected")
	return binding
}

func (s *RegionService) detectCountry(ctx context.Context, creds *api.Credentials) (string, error) {
	resp, err := s.http.Do(ctx, &api.Request{
		URL:     userInfoURL,
		Headers: map[string]string{"Authorization": "Bearer " + creds.AccessToken},
	})
	if err != nil {
		return "", err
	}
	info, err := api.Decode[api.UserInfoResponse]("userinfo", resp)
	if err != nil {
		return "", err
	}
	if info.Country == "" {
		return "", api.NewError(api.KindMalformed, "userinfo", fmt.Errorf("empty country"))
	}
	return info.Country, nil
}
