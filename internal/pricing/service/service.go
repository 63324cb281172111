package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	pricingmetrics "cropchain/internal/pricing/metrics"
	"cropchain/internal/pricing/models"
	"cropchain/pkg/platform/sentinel"
	"cropchain/pkg/requestcontext"
)

var tracer = otel.Tracer("cropchain/pricing")

// DefaultTTL matches how long a fetched snapshot is treated as fresh.
const DefaultTTL = time.Minute

// DefaultFetchTimeout bounds a shared refresh independently of the caller
// that started it.
const DefaultFetchTimeout = 10 * time.Second

// PriceService serves coin prices. Feed failures are absorbed: callers always
// get a snapshot, from the fallback table when the feed is down.
type PriceService struct {
	feed    Feed
	store   SnapshotStore
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	metrics *pricingmetrics.Metrics
	group   singleflight.Group
}

type Option func(*PriceService)

func WithTTL(ttl time.Duration) Option {
	return func(s *PriceService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *PriceService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *PriceService) {
		s.logger = logger
	}
}

func WithMetrics(m *pricingmetrics.Metrics) Option {
	return func(s *PriceService) {
		s.metrics = m
	}
}

func New(feed Feed, store SnapshotStore, opts ...Option) *PriceService {
	s := &PriceService{
		feed:   feed,
		store:  store,
		ttl:     DefaultTTL,
		timeout: DefaultFetchTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the cached snapshot, refreshing it on a miss.
func (s *PriceService) Current(ctx context.Context) models.Snapshot {
	snap, err := s.store.Get(ctx)
	if err == nil {
		s.recordLookup(true)
		return *snap
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "price cache unavailable",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.recordLookup(false)
	return s.Refresh(ctx)
}

// Refresh fetches from the feed and replaces the cached snapshot. Concurrent
// callers share one upstream request, which outlives the caller that started
// it: a cancelled request never turns into a cached fallback for everyone.
func (s *PriceService) Refresh(ctx context.Context) models.Snapshot {
	v, _, _ := s.group.Do("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.refresh(fetchCtx), nil
	})
	return v.(models.Snapshot)
}

func (s *PriceService) refresh(ctx context.Context) models.Snapshot {
	ctx, span := tracer.Start(ctx, "PriceService.Refresh")
	defer span.End()

	snap := models.Snapshot{FetchedAt: requestcontext.Now(ctx).UTC()}
	rates, err := s.feed.FetchRates(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "price feed failed, using fallback rates",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		snap.Rates = models.FallbackRates()
		snap.Source = models.SourceFallback
	} else {
		snap.Rates = rates
		snap.Source = models.SourceLive
	}
	span.SetAttributes(attribute.String("source", string(snap.Source)))

	if s.metrics != nil {
		s.metrics.IncrementFetch(string(snap.Source))
		for asset, quote := range snap.Rates {
			if quote.INR.Valid {
				s.metrics.SetRate(string(asset), "inr", quote.INR.Decimal.InexactFloat64())
			}
			if quote.USD.Valid {
				s.metrics.SetRate(string(asset), "usd", quote.USD.Decimal.InexactFloat64())
			}
		}
	}

	if snap.Source == models.SourceFallback && errors.Is(err, context.Canceled) {
		return snap
	}
	if err := s.store.Set(ctx, snap, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to cache price snapshot",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return snap
}

// Convert renders amount of token in currency using the current snapshot.
func (s *PriceService) Convert(ctx context.Context, amount decimal.Decimal, token models.Token, currency models.Currency) models.Conversion {
	conv := models.Conversion{
		Amount:   amount,
		Token:    token,
		Currency: currency,
	}
	if currency == models.CurrencyCrypto {
		conv.Display = models.Rates{}.Format(amount, token, currency)
		return conv
	}
	snap := s.Current(ctx)
	conv.Display = snap.Rates.Format(amount, token, currency)
	conv.Source = snap.Source
	return conv
}

// Run refreshes immediately and then every interval until ctx is cancelled.
func (s *PriceService) Run(ctx context.Context, interval time.Duration) error {
	s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *PriceService) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.IncrementCacheLookup(hit)
	}
}
