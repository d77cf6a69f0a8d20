package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"valorant-companion/internal/config"
	"valorant-companion/internal/metrics"

	"github.com/valyala/fasthttp"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

type Response struct {
	Status     int
	Body       []byte
	RetryAfter time.Duration
}

// Transport performs raw HTTP calls. Certificate checks are skipped only for
// hosts listed in INSECURE_HOSTS (the local game client); every other host is
// verified.
type Transport struct {
	client        *fasthttp.Client
	localClient   *fasthttp.Client
	insecureHosts map[string]struct{}
	timeout       time.Duration
	metrics       *metrics.Metrics

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limited    bool      `json:"limited"`
	RetryAfter int       `json:"retry_after"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewTransport(cfg *config.Config, m *metrics.Metrics) *Transport {
	hosts := make(map[string]struct{}, len(cfg.InsecureHosts))
	for _, h := range cfg.InsecureHosts {
		hosts[strings.ToLower(h)] = struct{}{}
	}

	return &Transport{
		client: &fasthttp.Client{
			MaxConnsPerHost:     32,
			ReadTimeout:         cfg.APITimeout,
			WriteTimeout:        cfg.APITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		localClient: &fasthttp.Client{
			MaxConnsPerHost:     8,
			ReadTimeout:         cfg.APITimeout,
			WriteTimeout:        cfg.APITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
			TLSConfig:           &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local client uses a self-signed certificate
		},
		insecureHosts: hosts,
		timeout:       cfg.APITimeout,
		metrics:       m,
		rateLimit:     RateLimitInfo{UpdatedAt: time.Now()},
	}
}

func (t *Transport) GetRateLimitInfo() RateLimitInfo {
	t.rateLimitMu.RLock()
	defer t.rateLimitMu.RUnlock()
	return t.rateLimit
}

func (t *Transport) updateRateLimit(resp *fasthttp.Response) {
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()

	t.rateLimit.Limited = resp.StatusCode() == fasthttp.StatusTooManyRequests
	t.rateLimit.RetryAfter = 0
	if retry := string(resp.Header.Peek("Retry-After")); retry != "" {
		if val, err := strconv.Atoi(retry); err == nil {
			t.rateLimit.RetryAfter = val
		}
	}
	t.rateLimit.UpdatedAt = time.Now()
}

func (t *Transport) clientFor(rawURL string) (*fasthttp.Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if _, ok := t.insecureHosts[strings.ToLower(u.Hostname())]; ok {
		return t.localClient, nil
	}
	return t.client, nil
}

// Do performs req. Network failures and timeouts come back as KindTransient;
// any status code is returned as-is for the caller to classify.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	client, err := t.clientFor(req.URL)
	if err != nil {
		return nil, NewError(KindMalformed, "build request", err)
	}

	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.SetRequestURI(req.URL)
	method := req.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	freq.Header.SetMethod(method)
	for k, v := range req.Headers {
		freq.Header.Set(k, v)
	}
	if len(req.Body) > 0 {
		freq.Header.SetContentType("application/json")
		freq.SetBody(req.Body)
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > t.timeout {
		deadline = time.Now().Add(t.timeout)
	}
	if err := client.DoDeadline(freq, fresp, deadline); err != nil {
		t.metrics.APIRequest(KindTransient.String())
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, NewError(KindTransient, "timeout", err)
		}
		return nil, NewError(KindTransient, "transport", err)
	}

	t.updateRateLimit(fresp)

	out := &Response{
		Status: fresp.StatusCode(),
		Body:   append([]byte(nil), fresp.Body()...),
	}
	if retry := string(fresp.Header.Peek("Retry-After")); retry != "" {
		if secs, err := strconv.Atoi(retry); err == nil {
			out.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	kind := "ok"
	if out.Status < 200 || out.Status >= 300 {
		kind = KindOf(Classify("", out)).String()
	}
	t.metrics.APIRequest(kind)

	return out, nil
}

// Decode unmarshals a 2xx response body into T, classifying everything else.
func Decode[T any](op string, resp *Response) (*T, error) {
	if err := Classify(op, resp); err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, NewError(KindMalformed, op, err)
	}
	return &result, nil
}
