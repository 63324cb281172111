package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"cropchain/internal/platform/logger"
	pricingmetrics "cropchain/internal/pricing/metrics"
	"cropchain/internal/pricing/models"
	"cropchain/internal/pricing/service/mocks"
	"cropchain/internal/pricing/store"
	"cropchain/pkg/requestcontext"
)

var liveRates = models.Rates{
	models.AssetPolygon:  models.NewQuote("60.00", "0.72"),
	models.AssetEthereum: models.NewQuote("300000.00", "3600.00"),
}

type PriceServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	feed    *mocks.MockFeed
	store   *store.InMemory
	metrics *pricingmetrics.Metrics
	service *PriceService
	ctx     context.Context
}

func TestPriceServiceSuite(t *testing.T) {
	suite.Run(t, new(PriceServiceSuite))
}

func (s *PriceServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.feed = mocks.NewMockFeed(s.ctrl)
	st, err := store.NewInMemory()
	s.Require().NoError(err)
	s.store = st
	s.metrics = pricingmetrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(s.feed, s.store, WithLogger(logger.Discard()), WithMetrics(s.metrics))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
}

func (s *PriceServiceSuite) TearDownTest() {
	s.store.Close()
}

func (s *PriceServiceSuite) TestCurrentFetchesOnceThenServesCache() {
	s.feed.EXPECT().FetchRates(gomock.Any()).Return(liveRates, nil).Times(1)

	first := s.service.Current(s.ctx)
	second := s.service.Current(s.ctx)

	s.Equal(models.SourceLive, first.Source)
	s.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), first.FetchedAt)
	s.Equal(models.SourceLive, second.Source)
	s.True(second.Rates[models.AssetEthereum].USD.Decimal.Equal(decimal.RequireFromString("3600")))

	s.InDelta(1, testutil.ToFloat64(s.metrics.CacheLookup.WithLabelValues("hit")), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.CacheLookup.WithLabelValues("miss")), 0)
	s.InDelta(3600, testutil.ToFloat64(s.metrics.Rates.WithLabelValues("ethereum", "usd")), 0)
}

func (s *PriceServiceSuite) TestFeedFailureServesFallback() {
	s.feed.EXPECT().FetchRates(gomock.Any()).Return(nil, errors.New("connection refused"))

	snap := s.service.Current(s.ctx)

	s.Equal(models.SourceFallback, snap.Source)
	s.True(snap.Rates[models.AssetPolygon].INR.Decimal.Equal(decimal.RequireFromString("85.50")))
	s.True(snap.Rates[models.AssetEthereum].USD.Decimal.Equal(decimal.RequireFromString("3050")))
	s.InDelta(1, testutil.ToFloat64(s.metrics.Fetches.WithLabelValues("fallback")), 0)
}

func (s *PriceServiceSuite) TestRefreshReplacesCachedSnapshot() {
	gomock.InOrder(
		s.feed.EXPECT().FetchRates(gomock.Any()).Return(nil, errors.New("timeout")),
		s.feed.EXPECT().FetchRates(gomock.Any()).Return(liveRates, nil),
	)

	s.Equal(models.SourceFallback, s.service.Current(s.ctx).Source)
	s.Equal(models.SourceLive, s.service.Refresh(s.ctx).Source)
	s.Equal(models.SourceLive, s.service.Current(s.ctx).Source)
}

func (s *PriceServiceSuite) TestCancelledCallerDoesNotPoisonCache() {
	s.feed.EXPECT().FetchRates(gomock.Any()).DoAndReturn(func(ctx context.Context) (models.Rates, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return liveRates, nil
	}).Times(1)

	cancelled, cancel := context.WithCancel(s.ctx)
	cancel()

	s.Equal(models.SourceLive, s.service.Current(cancelled).Source)
	s.Equal(models.SourceLive, s.service.Current(s.ctx).Source)
}

func (s *PriceServiceSuite) TestCancelledFetchIsNotCached() {
	gomock.InOrder(
		s.feed.EXPECT().FetchRates(gomock.Any()).Return(nil, context.Canceled),
		s.feed.EXPECT().FetchRates(gomock.Any()).Return(liveRates, nil),
	)

	s.Equal(models.SourceFallback, s.service.Current(s.ctx).Source)
	s.Equal(models.SourceLive, s.service.Current(s.ctx).Source)
}

func (s *PriceServiceSuite) TestConvert() {
	s.Run("crypto does not touch the feed", func() {
		conv := s.service.Convert(s.ctx, decimal.RequireFromString("2.5"), models.TokenETH, models.CurrencyCrypto)
		s.Equal("2.5 ETH", conv.Display)
		s.Empty(conv.Source)
	})

	s.Run("fiat uses the current snapshot", func() {
		s.feed.EXPECT().FetchRates(gomock.Any()).Return(liveRates, nil)

		conv := s.service.Convert(s.ctx, decimal.RequireFromString("10"), models.TokenMATIC, models.CurrencyINR)
		s.Equal("₹600.00", conv.Display)
		s.Equal(models.SourceLive, conv.Source)

		conv = s.service.Convert(s.ctx, decimal.RequireFromString("10"), models.TokenMATIC, models.CurrencyUSD)
		s.Equal("$7.20", conv.Display)
	})
}

func (s *PriceServiceSuite) TestConcurrentMissesShareOneFetch() {
	release := make(chan struct{})
	s.feed.EXPECT().FetchRates(gomock.Any()).DoAndReturn(func(context.Context) (models.Rates, error) {
		<-release
		return liveRates, nil
	}).MinTimes(1).MaxTimes(2)

	var wg sync.WaitGroup
	results := make([]models.Snapshot, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.service.Refresh(s.ctx)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, snap := range results {
		s.Equal(models.SourceLive, snap.Source)
	}
}

func TestCacheFailuresAreAbsorbed(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockFeed(ctrl)
	cache := mocks.NewMockSnapshotStore(ctrl)
	svc := New(feed, cache, WithLogger(logger.Discard()), WithTTL(30*time.Second))

	cache.EXPECT().Get(gomock.Any()).Return(nil, errors.New("redis down"))
	feed.EXPECT().FetchRates(gomock.Any()).Return(liveRates, nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), 30*time.Second).Return(errors.New("redis down"))

	snap := svc.Current(context.Background())
	assert.Equal(t, models.SourceLive, snap.Source)
}

func TestRunRefreshesUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	feed := mocks.NewMockFeed(ctrl)
	st, err := store.NewInMemory()
	require.NoError(t, err)
	defer st.Close()

	var calls atomic.Int32
	feed.EXPECT().FetchRates(gomock.Any()).DoAndReturn(func(context.Context) (models.Rates, error) {
		calls.Add(1)
		return liveRates, nil
	}).MinTimes(2)

	ctx, cancel := context.WithCancel(context.Background())
	svc := New(feed, st, WithLogger(logger.Discard()))
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
