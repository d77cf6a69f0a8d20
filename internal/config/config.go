package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"valorant-companion/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath       string
	ServerPort   string
	LogLevel     string
	LockfilePath string

	PollInterval         time.Duration
	MatchRefreshCooldown time.Duration
	ButtonCooldown       time.Duration
	APITimeout           time.Duration
	CredentialTTL        time.Duration
	RegionTTL            time.Duration

	DefaultRegion string
	InsecureHosts []string

	PartyMatchLimit      int
	WinTradeMatchLimit   int
	MatchDetailRate      int
	AnalyticsConcurrency int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	var errs []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return d
	}
	integer := func(key string, fallback int) int {
		n, err := getInt(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return n
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "companion.db"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LockfilePath: getEnv("LOCKFILE_PATH", defaultLockfilePath()),

		PollInterval:         duration("POLL_INTERVAL", constants.PollInterval),
		MatchRefreshCooldown: duration("MATCH_REFRESH_COOLDOWN", constants.MatchRefreshCooldown),
		ButtonCooldown:       duration("BUTTON_COOLDOWN", constants.ButtonCooldown),
		APITimeout:           duration("API_TIMEOUT", constants.ExternalAPITimeout),
		CredentialTTL:        duration("CREDENTIAL_TTL", constants.CredentialTTL),
		RegionTTL:            duration("REGION_TTL", constants.RegionTTL),

		DefaultRegion: strings.ToLower(getEnv("DEFAULT_REGION", "na")),
		InsecureHosts: splitList(getEnv("INSECURE_HOSTS", "127.0.0.1,localhost")),

		PartyMatchLimit:      integer("PARTY_MATCH_LIMIT", constants.DefaultPartyMatchLimit),
		WinTradeMatchLimit:   integer("WINTRADE_MATCH_LIMIT", constants.DefaultWinTradeMatchLimit),
		MatchDetailRate:      integer("MATCH_DETAIL_RATE", 2),
		AnalyticsConcurrency: integer("ANALYTICS_CONCURRENCY", 1),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("lockfile", cfg.LockfilePath).
		Dur("poll_interval", cfg.PollInterval).
		Dur("match_refresh_cooldown", cfg.MatchRefreshCooldown).
		Str("default_region", cfg.DefaultRegion).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"POLL_INTERVAL":  c.PollInterval,
		"API_TIMEOUT":    c.APITimeout,
		"CREDENTIAL_TTL": c.CredentialTTL,
		"REGION_TTL":     c.RegionTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.MatchRefreshCooldown < 0 {
		return fmt.Errorf("MATCH_REFRESH_COOLDOWN must not be negative")
	}
	if c.ButtonCooldown < 0 {
		return fmt.Errorf("BUTTON_COOLDOWN must not be negative")
	}
	for name, n := range map[string]int{
		"PARTY_MATCH_LIMIT":     c.PartyMatchLimit,
		"WINTRADE_MATCH_LIMIT":  c.WinTradeMatchLimit,
		"MATCH_DETAIL_RATE":     c.MatchDetailRate,
		"ANALYTICS_CONCURRENCY": c.AnalyticsConcurrency,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultLockfilePath() string {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, "AppData", "Local")
	}
	return filepath.Join(base, "Riot Games", "Riot Client", "Config", "lockfile")
}
