package menuapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"menu-advisor/internal/common/cache"
	apperrors "menu-advisor/internal/common/errors"
	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/metrics"
	"menu-advisor/internal/models"
)

const cacheKeyPrefix = "menu-advisor:recomendar:"

// RecommendationCache stores recommendation responses keyed by the normalized
// request. Cache failures are logged and treated as misses.
type RecommendationCache struct {
	store    cache.Store
	ttl      time.Duration
	reporter *apperrors.Reporter
	log      logger.Logger
}

func NewRecommendationCache(store cache.Store, ttl time.Duration, log logger.Logger) *RecommendationCache {
	log = log.Component("recommendation_cache")
	return &RecommendationCache{
		store:    store,
		ttl:      ttl,
		reporter: apperrors.NewReporter(log),
		log:      log,
	}
}

// Key hashes the normalized request so equivalent requests share an entry.
func Key(req models.PreferenceRequest) string {
	raw, _ := json.Marshal(req.Normalized())
	sum := sha256.Sum256(raw)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RecommendationCache) Get(ctx context.Context, req models.PreferenceRequest) (models.RecommendationSet, bool) {
	raw, err := c.store.Get(ctx, Key(req))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.reporter.Report("cache_get", apperrors.NewCacheUnavailableError(err))
		}
		metrics.RecommendationCache.WithLabelValues("miss").Inc()
		return nil, false
	}

	var set models.RecommendationSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		c.log.Warn("discarding undecodable cache entry", map[string]interface{}{"error": err})
		metrics.RecommendationCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.RecommendationCache.WithLabelValues("hit").Inc()
	return set, true
}

func (c *RecommendationCache) Set(ctx context.Context, req models.PreferenceRequest, set models.RecommendationSet) {
	if set == nil {
		set = models.RecommendationSet{}
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, Key(req), raw, c.ttl); err != nil {
		c.reporter.Report("cache_set", apperrors.NewCacheUnavailableError(err))
	}
}
