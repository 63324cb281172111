package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cropchain/internal/ratelimit/models"
	"cropchain/pkg/requestcontext"
)

// InMemoryBucketStore keeps one token bucket per key. Buckets are process
// local; a multi-instance deployment limits per instance.
type InMemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryBucketStore() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*bucket),
	}
}

// Allow spends one token from the bucket at key. The request time comes from
// the context so tests can pin the clock.
func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error) {
	now := requestcontext.Now(ctx)
	perSecond := rate.Limit(float64(limit.PerMinute) / 60)

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(perSecond, limit.Burst)}
		s.buckets[key] = b
	}
	if b.limiter.Limit() != perSecond {
		b.limiter.SetLimitAt(now, perSecond)
	}
	if b.limiter.Burst() != limit.Burst {
		b.limiter.SetBurstAt(now, limit.Burst)
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	result := &models.RateLimitResult{
		Allowed:   allowed,
		Limit:     limit.PerMinute,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetAt:   now.Add(refillDuration(float64(limit.Burst)-tokens, perSecond)),
	}
	if !allowed {
		wait := refillDuration(1-tokens, perSecond)
		result.RetryAfter = max(1, int(math.Ceil(wait.Seconds())))
	}
	return result, nil
}

// Reset forgets the bucket at key.
func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// Sweep drops buckets idle since before now-idle and returns how many went.
func (s *InMemoryBucketStore) Sweep(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Len is the number of live buckets.
func (s *InMemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RunJanitor sweeps idle buckets every interval until ctx is cancelled.
func (s *InMemoryBucketStore) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now, idle)
		}
	}
}

func refillDuration(tokens float64, perSecond rate.Limit) time.Duration {
	if tokens <= 0 || perSecond <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(perSecond) * float64(time.Second))
}
