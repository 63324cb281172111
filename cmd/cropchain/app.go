package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cropchain/internal/admin"
	assistanthandler "cropchain/internal/assistant/handler"
	assistantmetrics "cropchain/internal/assistant/metrics"
	"cropchain/internal/assistant/openai"
	assistant "cropchain/internal/assistant/service"
	batchhandler "cropchain/internal/batch/handler"
	batchmetrics "cropchain/internal/batch/metrics"
	batchservice "cropchain/internal/batch/service"
	batchstore "cropchain/internal/batch/store"
	identityhandler "cropchain/internal/identity/handler"
	identitymetrics "cropchain/internal/identity/metrics"
	identityservice "cropchain/internal/identity/service"
	"cropchain/internal/identity/signature"
	userstore "cropchain/internal/identity/store/user"
	jwttoken "cropchain/internal/jwt_token"
	"cropchain/internal/platform/config"
	platformmetrics "cropchain/internal/platform/metrics"
	"cropchain/internal/platform/postgres"
	"cropchain/internal/platform/redis"
	"cropchain/internal/pricing/coingecko"
	pricinghandler "cropchain/internal/pricing/handler"
	pricingmetrics "cropchain/internal/pricing/metrics"
	pricingservice "cropchain/internal/pricing/service"
	pricingstore "cropchain/internal/pricing/store"
	ratelimitmetrics "cropchain/internal/ratelimit/metrics"
	ratelimitmw "cropchain/internal/ratelimit/middleware"
	ratelimitmodels "cropchain/internal/ratelimit/models"
	"cropchain/internal/ratelimit/store/bucket"
	httptransport "cropchain/internal/transport/http"
	audit "cropchain/pkg/platform/audit"
	"cropchain/pkg/platform/audit/publisher"
	"cropchain/pkg/platform/audit/store/kafka"
	auditmemory "cropchain/pkg/platform/audit/store/memory"
	"cropchain/pkg/platform/circuit"
)

const (
	jwtIssuer   = "cropchain"
	jwtAudience = "cropchain-api"
)

// app is the assembled process: one HTTP handler, background loops that run
// for the process lifetime, and closers released in reverse order.
type app struct {
	handler    http.Handler
	background []func(ctx context.Context) error
	closers    []func()
}

func (a *app) onClose(f func()) {
	a.closers = append(a.closers, f)
}

func (a *app) Close() {
	for _, f := range slices.Backward(a.closers) {
		f()
	}
}

// buildApp constructs stores, services and handlers from cfg. On error
// everything opened so far is closed.
func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	checks := map[string]httptransport.HealthCheck{}

	var redisClient *goredis.Client
	if cfg.Redis.URL != "" {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = rc.Client
		a.onClose(func() { _ = rc.Close() })
		checks["redis"] = rc.Health
	}

	batches, err := openBatchStore(cfg, redisClient, log, a)
	if err != nil {
		return nil, err
	}
	users, err := openUserStore(ctx, cfg, a, checks)
	if err != nil {
		return nil, err
	}
	auditStore, err := openAuditStore(ctx, cfg, log, a)
	if err != nil {
		return nil, err
	}
	pub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithLogger(log),
	)
	a.onClose(pub.Close)

	relink := identityservice.RelinkKeepVerification
	if cfg.Identity.RelinkPolicy == config.RelinkResetVerification {
		relink = identityservice.RelinkResetVerification
	}
	credentials := identityservice.New(users, signature.NewVerifier(log),
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(pub),
		identityservice.WithMetrics(identitymetrics.New()),
		identityservice.WithRelinkPolicy(relink),
		identityservice.WithAllowReissue(cfg.Identity.AllowReissue),
	)
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, jwtIssuer, jwtAudience)
	identityRoutes := identityhandler.New(credentials, jwtService,
		jwttoken.NewJWTServiceAdapter(jwtService), log, cfg.Auth.TokenTTL)

	batchService := batchservice.New(batches,
		batchservice.WithLogger(log),
		batchservice.WithAuditPublisher(pub),
		batchservice.WithMetrics(batchmetrics.New()),
	)
	if cfg.Dev.SeedBatches {
		seeded, err := batchService.Seed(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed batches: %w", err)
		}
		log.Info("seeded sample batches", "count", len(seeded))
	}

	chatRoutes := buildAssistant(cfg, log, batchService, a)

	priceService, err := buildPricing(cfg, log, redisClient, a)
	if err != nil {
		return nil, err
	}

	a.handler = httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Latency:        platformmetrics.New(),
		RequestTimeout: cfg.Server.RequestTimeout,
		AdminToken:     cfg.Auth.AdminToken,
		Public: []httptransport.Routes{
			batchhandler.New(batchService, log),
			identityRoutes,
			chatRoutes,
			pricinghandler.New(priceService, log),
		},
		Admin: []httptransport.Routes{
			httptransport.RouteFunc(identityRoutes.RegisterAdmin),
			admin.New(pub, log),
		},
		Checks: checks,
	})
	if cfg.Auth.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN not set, admin endpoints are disabled")
	}
	return a, nil
}

func openBatchStore(cfg *config.Config, rc *goredis.Client, log *slog.Logger, a *app) (batchservice.BatchStore, error) {
	switch cfg.Storage.BatchBackend {
	case config.BatchBackendRedis:
		return batchstore.NewRedis(rc), nil
	case config.BatchBackendBadger:
		st, err := batchstore.OpenBadger(cfg.Storage.BadgerPath, log)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = st.Close() })
		return st, nil
	default:
		return batchstore.NewInMemory(), nil
	}
}

func openUserStore(ctx context.Context, cfg *config.Config, a *app, checks map[string]httptransport.HealthCheck) (identityservice.UserStore, error) {
	if cfg.Storage.UserBackend != config.UserBackendPostgres {
		return userstore.NewInMemory(), nil
	}
	db, err := postgres.Open(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}
	checks["postgres"] = db.PingContext
	return userstore.NewPostgres(db), nil
}

func openAuditStore(ctx context.Context, cfg *config.Config, log *slog.Logger, a *app) (audit.Store, error) {
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return auditmemory.NewInMemoryStore(), nil
	}
	client, err := kafka.NewClient(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
	if err != nil {
		return nil, err
	}
	a.onClose(client.Close)

	topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := kafka.EnsureTopic(topicCtx, client, cfg.Audit.KafkaTopic, 3, 1); err != nil {
		// the topic may be managed outside this service
		log.Warn("could not ensure audit topic", "topic", cfg.Audit.KafkaTopic, "error", err)
	}
	return kafka.NewSink(client, cfg.Audit.KafkaTopic), nil
}

func buildAssistant(cfg *config.Config, log *slog.Logger, batches assistant.BatchReader, a *app) *assistanthandler.Handler {
	breaker := circuit.New("openai",
		circuit.WithFailureThreshold(cfg.AI.FailureThreshold),
		circuit.WithCooldown(cfg.AI.Cooldown),
	)
	opts := []assistant.Option{
		assistant.WithLogger(log),
		assistant.WithMetrics(assistantmetrics.New()),
		assistant.WithBreaker(breaker),
		assistant.WithTimeout(cfg.AI.Timeout),
	}
	if cfg.AIEnabled() {
		opts = append(opts, assistant.WithModel(openai.New(openai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})))
	} else {
		log.Info("OPENAI_API_KEY not set, assistant answers from canned replies")
	}
	chat := assistant.New(batches, opts...)

	var chatLimit func(http.Handler) http.Handler
	if cfg.AI.ChatPerMinute > 0 {
		limit, _ := ratelimitmodels.NewLimit(cfg.AI.ChatPerMinute, 0)
		buckets := bucket.NewInMemoryBucketStore()
		limiter := ratelimitmw.New(buckets, log,
			ratelimitmw.WithLimit(ratelimitmodels.ClassChat, limit),
			ratelimitmw.WithMetrics(ratelimitmetrics.New()),
		)
		chatLimit = limiter.RateLimit(ratelimitmodels.ClassChat)
		a.background = append(a.background, func(ctx context.Context) error {
			buckets.RunJanitor(ctx, time.Minute, 10*time.Minute)
			return nil
		})
	}
	return assistanthandler.New(chat, log, chatLimit)
}

func buildPricing(cfg *config.Config, log *slog.Logger, rc *goredis.Client, a *app) (*pricingservice.PriceService, error) {
	var cache pricingservice.SnapshotStore
	if cfg.Pricing.CacheBackend == config.PriceCacheRedis {
		cache = pricingstore.NewRedis(rc)
	} else {
		mem, err := pricingstore.NewInMemory()
		if err != nil {
			return nil, err
		}
		a.onClose(mem.Close)
		cache = mem
	}
	feed := coingecko.New(cfg.Pricing.BaseURL, cfg.Pricing.Timeout, log)
	prices := pricingservice.New(feed, cache,
		pricingservice.WithTTL(cfg.Pricing.CacheTTL),
		pricingservice.WithLogger(log),
		pricingservice.WithMetrics(pricingmetrics.New()),
	)
	if cfg.Pricing.RefreshInterval > 0 {
		a.background = append(a.background, func(ctx context.Context) error {
			return prices.Run(ctx, cfg.Pricing.RefreshInterval)
		})
	}
	return prices, nil
}
