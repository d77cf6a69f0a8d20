package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/config"
	"valorant-companion/internal/domain"
	"valorant-companion/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type CredentialProvider interface {
	Credentials(ctx context.Context) (*api.Credentials, error)
}

type Transport interface {
	Do(ctx context.Context, req *api.Request) (*api.Response, error)
}

// RegionLocator resolves the region binding of an account. It always yields
// a usable binding, falling back to a default region itself.
type RegionLocator interface {
	Locate(ctx context.Context, creds *api.Credentials) domain.RegionBinding
}

type Host int

const (
	HostGLZ Host = iota
	HostPD
	HostShared
)

type Endpoint struct {
	Name   string
	Method string
	Host   Host
	Path   string
	Body   any
}

var clientPlatform = base64.StdEncoding.EncodeToString([]byte(
	`{"platformType":"PC","platformOS":"Windows","platformOSVersion":"10.0.19042.1.256.64bit","platformChipset":"Unknown"}`,
))

// Client performs authenticated calls for one session context: one set of
// credentials bound to one region. Use ForRegion for an isolated context.
type Client struct {
	provider  CredentialProvider
	transport Transport
	locator   RegionLocator
	ttl       time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	creds     *api.Credentials
	fetchedAt time.Time
	region    *domain.RegionBinding
	seasonID  string

	refreshGroup singleflight.Group
}

func New(provider CredentialProvider, transport Transport, locator RegionLocator, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		provider:  provider,
		transport: transport,
		locator:   locator,
		ttl:       cfg.CredentialTTL,
		metrics:   m,
		logger:    logger.With().Str("component", "session").Logger(),
		now:       time.Now,
	}
}

// ForRegion returns an independent session context pinned to binding. It
// shares the provider and transport but none of the cached state.
func (c *Client) ForRegion(binding domain.RegionBinding) *Client {
	return &Client{
		provider:  c.provider,
		transport: c.transport,
		locator:   StaticRegion(binding),
		ttl:       c.ttl,
		metrics:   c.metrics,
		logger:    c.logger.With().Str("region", binding.Region).Logger(),
		now:       c.now,
	}
}

// Call performs ep with the current credentials. Unauthenticated and
// transient failures trigger exactly one credential refresh and one retry.
func (c *Client) Call(ctx context.Context, ep Endpoint) (*api.Response, error) {
	if _, err := c.credentials(ctx); err != nil {
		return nil, err
	}

	var resp *api.Response
	err := RetryOnce(ctx,
		func(ctx context.Context) error {
			var err error
			resp, err = c.attempt(ctx, ep)
			return err
		},
		func(ctx context.Context, cause error) error {
			c.logger.Warn().Err(cause).Str("endpoint", ep.Name).Msg("call failed, refreshing credentials and retrying once")
			c.metrics.SessionRetry()
			_, err := c.refresh(ctx)
			return err
		},
		api.Retryable,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AccountID(ctx context.Context) (string, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return "", err
	}
	return creds.AccountID, nil
}

func (c *Client) Region(ctx context.Context) (domain.RegionBinding, error) {
	if _, err := c.credentials(ctx); err != nil {
		return domain.RegionBinding{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.region, nil
}

func (c *Client) attempt(ctx context.Context, ep Endpoint) (*api.Response, error) {
	c.mu.RLock()
	creds, region := c.creds, c.region
	c.mu.RUnlock()
	if creds == nil || region == nil {
		return nil, api.NewError(api.KindUnauthenticated, ep.Name, fmt.Errorf("no session credentials"))
	}

	req := &api.Request{
		Method: ep.Method,
		URL:    endpointURL(ep, *region),
		Headers: map[string]string{
			"Authorization":           "Bearer " + creds.AccessToken,
			"X-Riot-Entitlements-JWT": creds.EntitlementToken,
			"X-Riot-ClientPlatform":   clientPlatform,
		},
	}
	if creds.ClientVersion != "" {
		req.Headers["X-Riot-ClientVersion"] = creds.ClientVersion
	}
	if ep.Body != nil {
		body, err := json.Marshal(ep.Body)
		if err != nil {
			return nil, api.NewError(api.KindMalformed, ep.Name, err)
		}
		req.Body = body
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := api.Classify(ep.Name, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) credentials(ctx context.Context) (*api.Credentials, error) {
	c.mu.RLock()
	creds, fetchedAt := c.creds, c.fetchedAt
	c.mu.RUnlock()

	if creds != nil && c.now().Sub(fetchedAt) < c.ttl {
		return creds, nil
	}
	return c.refresh(ctx)
}

// refresh replaces the shared credentials. Concurrent callers wait for the
// refresh already in flight instead of starting their own.
func (c *Client) refresh(ctx context.Context) (*api.Credentials, error) {
	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		creds, err := c.provider.Credentials(ctx)
		if err != nil {
			c.mu.Lock()
			c.creds = nil
			c.mu.Unlock()
			if api.KindOf(err) == api.KindNotFound || api.KindOf(err) == api.KindUnknown {
				return nil, api.NewError(api.KindUnauthenticated, "credentials", err)
			}
			return nil, err
		}

		c.mu.RLock()
		region := c.region
		c.mu.RUnlock()
		if region == nil || region.AccountID != creds.AccountID {
			binding := c.locator.Locate(ctx, creds)
			region = &binding
		}

		c.mu.Lock()
		c.creds = creds
		c.fetchedAt = c.now()
		c.region = region
		c.mu.Unlock()

		c.logger.Debug().Str("account_id", creds.AccountID).Str("region", region.Region).Msg("credentials refreshed")
		return creds, nil
	})
	if shared {
		c.logger.Debug().Msg("joined in-flight credential refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(*api.Credentials), nil
}

func endpointURL(ep Endpoint, region domain.RegionBinding) string {
	switch ep.Host {
	case HostGLZ:
		return fmt.Sprintf("https://glz-%s-1.%s.a.pvp.net%s", region.Region, region.Shard, ep.Path)
	case HostShared:
		return fmt.Sprintf("https://shared.%s.a.pvp.net%s", region.Shard, ep.Path)
	default:
		return fmt.Sprintf("https://pd.%s.a.pvp.net%s", region.Shard, ep.Path)
	}
}

type staticRegion domain.RegionBinding

// StaticRegion is a RegionLocator that always yields binding.
func StaticRegion(binding domain.RegionBinding) RegionLocator {
	return staticRegion(binding)
}

func (s staticRegion) Locate(_ context.Context, creds *api.Credentials) domain.RegionBinding {
	b := domain.RegionBinding(s)
	b.AccountID = creds.AccountID
	return b
}
