package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cropchain/internal/pricing/models"
	"cropchain/pkg/platform/sentinel"
)

type snapshotStore interface {
	Get(ctx context.Context) (*models.Snapshot, error)
	Set(ctx context.Context, snap models.Snapshot, ttl time.Duration) error
}

type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) snapshotStore
	store    snapshotStore
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) snapshotStore {
		st, err := NewInMemory()
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(st.Close)
		return st
	}})
}

func (s *StoreSuite) TestMissBeforeSet() {
	_, err := s.store.Get(s.ctx)
	s.ErrorIs(err, ErrMiss)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *StoreSuite) TestRoundTrip() {
	fetched := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	snap := models.Snapshot{Rates: models.FallbackRates(), Source: models.SourceFallback, FetchedAt: fetched}

	s.Require().NoError(s.store.Set(s.ctx, snap, time.Minute))

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.SourceFallback, got.Source)
	s.True(got.FetchedAt.Equal(fetched))
	eth := got.Rates[models.AssetEthereum]
	s.Equal("250450", eth.INR.Decimal.String())
	s.Equal("3050", eth.USD.Decimal.String())
}

func (s *StoreSuite) TestOverwriteKeepsLatest() {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		snap := models.Snapshot{Rates: models.FallbackRates(), Source: models.SourceLive, FetchedAt: base.Add(time.Duration(i) * time.Minute)}
		s.Require().NoError(s.store.Set(s.ctx, snap, time.Minute))
	}

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.True(got.FetchedAt.Equal(base.Add(4 * time.Minute)))
}

func (s *StoreSuite) TestExpiry() {
	snap := models.Snapshot{Rates: models.FallbackRates(), Source: models.SourceLive}
	s.Require().NoError(s.store.Set(s.ctx, snap, 50*time.Millisecond))

	s.Eventually(func() bool {
		_, err := s.store.Get(s.ctx)
		return errors.Is(err, ErrMiss)
	}, 3*time.Second, 25*time.Millisecond)
}
