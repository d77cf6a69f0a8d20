package service

import (
	"context"
	"errors"
	"testing"
	"time"
	"valorant-companion/internal/api"
	"valorant-companion/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type memoryRegionStore struct {
	bindings map[string]domain.RegionBinding
	upserts  int
}

func (m *memoryRegionStore) Get(_ context.Context, accountID string) (*domain.RegionBinding, error) {
	b, ok := m.bindings[accountID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memoryRegionStore) Upsert(_ context.Context, b domain.RegionBinding) error {
	m.upserts++
	m.bindings[b.AccountID] = b
	return nil
}

type userInfoDoer struct {
	body  string
	err   error
	calls int
}

func (d *userInfoDoer) Do(_ context.Context, req *api.Request) (*api.Response, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return &api.Response{Status: 200, Body: []byte(d.body)}, nil
}

func TestRegionFor(t *testing.T) {
	tests := []struct {
		country   string
		region    string
		shard     string
		wantKnown bool
	}{
		{country: "USA", region: "na", shard: "na", wantKnown: true},
		{country: "bra", region: "br", shard: "na", wantKnown: true},
		{country: "mex", region: "latam", shard: "na", wantKnown: true},
		{country: "deu", region: "eu", shard: "eu", wantKnown: true},
		{country: "kor", region: "kr", shard: "kr", wantKnown: true},
		{country: "jpn", region: "ap", shard: "ap", wantKnown: true},
		{country: "atl", region: "eu", shard: "eu", wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			region, shard, known := RegionFor(tt.country, "eu")
			assert.Equal(t, tt.region, region)
			assert.Equal(t, tt.shard, shard)
			assert.Equal(t, tt.wantKnown, known)
		})
	}

	region, shard, _ := RegionFor("", "bogus")
	assert.Equal(t, "na", region)
	assert.Equal(t, "na", shard)
}

func newTestRegionService(store *memoryRegionStore, doer *userInfoDoer, now time.Time) *RegionService {
	svc := NewRegionService(store, doer, testConfig(), zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

var regionCreds = &api.Credentials{AccountID: "acc", AccessToken: "tok"}

func TestLocateUsesFreshBinding(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	store := &memoryRegionStore{bindings: map[string]domain.RegionBinding{
		"acc": {AccountID: "acc", Region: "kr", Shard: "kr", LastUpdated: now.Add(-6 * 24 * time.Hour)},
	}}
	doer := &userInfoDoer{body: `{"country":"deu"}`}

	got := newTestRegionService(store, doer, now).Locate(context.Background(), regionCreds)
	assert.Equal(t, "kr", got.Region)
	assert.Equal(t, 0, doer.calls)
}

func TestLocateRedetectsStaleBinding(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	store := &memoryRegionStore{bindings: map[string]domain.RegionBinding{
		"acc": {AccountID: "acc", Region: "kr", Shard: "kr", LastUpdated: now.Add(-8 * 24 * time.Hour)},
	}}
	doer := &userInfoDoer{body: `{"country":"deu"}`}

	got := newTestRegionService(store, doer, now).Locate(context.Background(), regionCreds)
	assert.Equal(t, domain.RegionBinding{AccountID: "acc", Region: "eu", Shard: "eu", LastUpdated: now}, got)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, got, store.bindings["acc"])
}

func TestLocateDetectionFailure(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	failing := &userInfoDoer{err: api.NewError(api.KindTransient, "userinfo", errors.New("timeout"))}

	t.Run("keeps stale binding", func(t *testing.T) {
		stale := domain.RegionBinding{AccountID: "acc", Region: "ap", Shard: "ap", LastUpdated: now.Add(-30 * 24 * time.Hour)}
		store := &memoryRegionStore{bindings: map[string]domain.RegionBinding{"acc": stale}}

		got := newTestRegionService(store, failing, now).Locate(context.Background(), regionCreds)
		assert.Equal(t, stale, got)
		assert.Equal(t, 0, store.upserts)
	})

	t.Run("defaults without persisting", func(t *testing.T) {
		store := &memoryRegionStore{bindings: map[string]domain.RegionBinding{}}

		got := newTestRegionService(store, failing, now).Locate(context.Background(), regionCreds)
		assert.Equal(t, "na", got.Region)
		assert.Equal(t, "na", got.Shard)
		assert.Equal(t, 0, store.upserts)
	})
}

func TestLocatePersistsUnmappedCountryAsDefault(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	store := &memoryRegionStore{bindings: map[string]domain.RegionBinding{}}
	doer := &userInfoDoer{body: `{"country":"zzz"}`}

	got := newTestRegionService(store, doer, now).Locate(context.Background(), regionCreds)
	assert.Equal(t, "na", got.Region)
	assert.Equal(t, 1, store.upserts)
}

func TestShardFor(t *testing.T) {
	shard, ok := ShardFor("LATAM")
	assert.True(t, ok)
	assert.Equal(t, "na", shard)

	_, ok = ShardFor("moon")
	assert.False(t, ok)
}
