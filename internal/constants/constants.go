package constants

import "time"

const (
	PollInterval         = 10 * time.Second
	MatchRefreshCooldown = 15 * time.Second
	ButtonCooldown       = 10 * time.Second
	CredentialTTL        = 5 * time.Minute
	RegionTTL            = 7 * 24 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	AnalysisTimeout    = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Product-tuned heuristics. Changing any of these changes what users see flagged.
const (
	PartyMinCommonMatches = 3
	PartyMinConfidence    = 30

	WinTradeMinEncounters        = 3
	WinTradeSuspiciousEncounters = 5
	WinTradeHighWinRate          = 80
	WinTradeLowWinRate           = 20
)

const (
	DefaultPartyMatchLimit    = 20
	DefaultWinTradeMatchLimit = 30
	DefaultMatchListLimit     = 20
	MaxMatchListLimit         = 100
	CompetitiveUpdateWindow   = 10
)
