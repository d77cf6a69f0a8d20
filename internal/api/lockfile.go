package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"valorant-companion/internal/config"

	"github.com/rs/zerolog"
)

type Credentials struct {
	AccessToken      string
	EntitlementToken string
	AccountID        string
	ClientVersion    string
}

type Lockfile struct {
	Name     string
	PID      int
	Port     int
	Password string
	Protocol string
}

func ParseLockfile(raw string) (*Lockfile, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 5 {
		return nil, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid pid: %w", err)
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}
	return &Lockfile{Name: parts[0], PID: pid, Port: port, Password: parts[3], Protocol: parts[4]}, nil
}

func (l *Lockfile) baseURL() string {
	return fmt.Sprintf("%s://127.0.0.1:%d", l.Protocol, l.Port)
}

func (l *Lockfile) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+l.Password))
}

// LockfileProvider reads session credentials from the locally running game client.
type LockfileProvider struct {
	path      string
	transport *Transport
	logger    zerolog.Logger
}

func NewLockfileProvider(cfg *config.Config, transport *Transport, logger zerolog.Logger) *LockfileProvider {
	return &LockfileProvider{path: cfg.LockfilePath, transport: transport, logger: logger}
}

// Credentials fetches a fresh credential set. A missing lockfile or a
// refused local connection is KindNotFound: the game is not running.
func (p *LockfileProvider) Credentials(ctx context.Context) (*Credentials, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewError(KindNotFound, "read lockfile", err)
		}
		return nil, NewError(KindTransient, "read lockfile", err)
	}

	lock, err := ParseLockfile(string(raw))
	if err != nil {
		return nil, NewError(KindMalformed, "parse lockfile", err)
	}

	resp, err := p.local(ctx, lock, "/entitlements/v1/token")
	if err != nil {
		return nil, err
	}
	ent, err := Decode[EntitlementsResponse]("entitlements", resp)
	if err != nil {
		return nil, err
	}
	if ent.AccessToken == "" || ent.Subject == "" {
		return nil, NewError(KindNotFound, "entitlements", errors.New("client is not logged in"))
	}

	creds := &Credentials{
		AccessToken:      ent.AccessToken,
		EntitlementToken: ent.Token,
		AccountID:        ent.Subject,
		ClientVersion:    p.clientVersion(ctx, lock),
	}

	p.logger.Debug().Str("account_id", creds.AccountID).Str("client_version", creds.ClientVersion).Msg("credentials fetched")
	return creds, nil
}

func (p *LockfileProvider) clientVersion(ctx context.Context, lock *Lockfile) string {
	resp, err := p.local(ctx, lock, "/product-session/v1/external-sessions")
	if err != nil {
		p.logger.Debug().Err(err).Msg("client version unavailable")
		return ""
	}
	if Classify("external sessions", resp) != nil {
		return ""
	}
	var sessions map[string]ExternalSession
	if err := json.Unmarshal(resp.Body, &sessions); err != nil {
		return ""
	}
	for _, s := range sessions {
		if s.ProductID == "valorant" {
			return s.Version
		}
	}
	return ""
}

func (p *LockfileProvider) local(ctx context.Context, lock *Lockfile, path string) (*Response, error) {
	resp, err := p.transport.Do(ctx, &Request{
		URL:     lock.baseURL() + path,
		Headers: map[string]string{"Authorization": lock.authHeader()},
	})
	if err != nil {
		// connection refused: stale lockfile left behind by a closed client
		return nil, NewError(KindNotFound, "local client", err)
	}
	return resp, nil
}
