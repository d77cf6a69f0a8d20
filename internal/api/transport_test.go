package api

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
	"valorant-companion/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func testConfig() *config.Config {
	return &config.Config{
		APITimeout:    2 * time.Second,
		InsecureHosts: []string{"127.0.0.1", "localhost"},
	}
}

// serve routes both transport clients to an in-memory fasthttp server.
func serve(t *testing.T, tr *Transport, handler fasthttp.RequestHandler) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	dial := func(string) (net.Conn, error) { return ln.Dial() }
	tr.client.Dial = dial
	tr.localClient.Dial = dial
}

func TestTransportDo(t *testing.T) {
	tr := NewTransport(testConfig(), nil)
	serve(t, tr, func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/ok":
			assert.Equal(t, "Bearer tok", string(ctx.Request.Header.Peek("Authorization")))
			ctx.SetBodyString(`{"country":"deu"}`)
		case "/limited":
			ctx.Response.Header.Set("Retry-After", "12")
			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		case "/echo":
			assert.Equal(t, "PUT", string(ctx.Method()))
			ctx.SetBody(ctx.PostBody())
		}
	})

	resp, err := tr.Do(context.Background(), &Request{
		URL:     "http://pd.eu.a.pvp.net/ok",
		Headers: map[string]string{"Authorization": "Bearer tok"},
	})
	require.NoError(t, err)
	info, err := Decode[UserInfoResponse]("userinfo", resp)
	require.NoError(t, err)
	assert.Equal(t, "deu", info.Country)
	assert.False(t, tr.GetRateLimitInfo().Limited)

	resp, err = tr.Do(context.Background(), &Request{URL: "http://pd.eu.a.pvp.net/limited"})
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, resp.RetryAfter)
	_, err = Decode[UserInfoResponse]("userinfo", resp)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, tr.GetRateLimitInfo().Limited)
	assert.Equal(t, 12, tr.GetRateLimitInfo().RetryAfter)

	resp, err = tr.Do(context.Background(), &Request{Method: "PUT", URL: "http://pd.eu.a.pvp.net/echo", Body: []byte(`["a"]`)})
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(resp.Body))
}

func TestTransportNetworkFailureIsTransient(t *testing.T) {
	tr := NewTransport(testConfig(), nil)
	tr.client.Dial = func(string) (net.Conn, error) { return nil, fmt.Errorf("connection refused") }

	_, err := tr.Do(context.Background(), &Request{URL: "http://pd.na.a.pvp.net/x"})
	assert.ErrorIs(t, err, ErrTransient)
}

func TestDecodeMalformedBody(t *testing.T) {
	_, err := Decode[UserInfoResponse]("userinfo", &Response{Status: 200, Body: []byte("<html>")})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClientForScopesInsecureTLS(t *testing.T) {
	tr := NewTransport(testConfig(), nil)

	local, err := tr.clientFor("https://127.0.0.1:51234/entitlements/v1/token")
	require.NoError(t, err)
	assert.Same(t, tr.localClient, local)

	remote, err := tr.clientFor("https://pd.na.a.pvp.net/mmr/v1/players/x")
	require.NoError(t, err)
	assert.Same(t, tr.client, remote)
	assert.Nil(t, tr.client.TLSConfig)
}

func TestParseLockfile(t *testing.T) {
	lock, err := ParseLockfile("Riot Client:1234:51234:s3cret:https\n")
	require.NoError(t, err)
	assert.Equal(t, 51234, lock.Port)
	assert.Equal(t, "s3cret", lock.Password)
	assert.Equal(t, "https://127.0.0.1:51234", lock.baseURL())

	_, err = ParseLockfile("Riot Client:1234:51234")
	assert.Error(t, err)
	_, err = ParseLockfile("Riot Client:pid:51234:pw:https")
	assert.Error(t, err)
}

func TestLockfileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockfile")
	require.NoError(t, os.WriteFile(path, []byte("Riot Client:1:51234:pw:http"), 0o600))

	cfg := testConfig()
	cfg.LockfilePath = path
	tr := NewTransport(cfg, nil)
	serve(t, tr, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "Basic cmlvdDpwdw==", string(ctx.Request.Header.Peek("Authorization")))
		switch string(ctx.Path()) {
		case "/entitlements/v1/token":
			ctx.SetBodyString(`{"accessToken":"access","token":"entitlement","subject":"puuid-1"}`)
		case "/product-session/v1/external-sessions":
			ctx.SetBodyString(`{"s1":{"productId":"valorant","version":"release-09.00-shipping-1"}}`)
		}
	})

	creds, err := NewLockfileProvider(cfg, tr, zerolog.Nop()).Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Credentials{
		AccessToken:      "access",
		EntitlementToken: "entitlement",
		AccountID:        "puuid-1",
		ClientVersion:    "release-09.00-shipping-1",
	}, creds)
}

func TestLockfileProviderGameNotRunning(t *testing.T) {
	cfg := testConfig()
	cfg.LockfilePath = filepath.Join(t.TempDir(), "missing")

	_, err := NewLockfileProvider(cfg, NewTransport(cfg, nil), zerolog.Nop()).Credentials(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
