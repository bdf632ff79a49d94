// Package menuapi talks to the catalog and recommendation service.
package menuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"menu-advisor/internal/common/config"
	apperrors "menu-advisor/internal/common/errors"
	apphttp "menu-advisor/internal/common/http"
	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/metrics"
	"menu-advisor/internal/common/validation"
	"menu-advisor/internal/models"
)

// ErrStatus wraps every non-2xx response.
var ErrStatus = errors.New("unexpected status")

const maxBodyBytes = 4 << 20

type Client struct {
	http         *apphttp.Client
	catalogURL   string
	recommendURL string
	cache        *RecommendationCache
	log          logger.Logger
	now          func() time.Time
}

type Option func(*Client)

// WithCache enables cache-aside for recommendations.
func WithCache(c *RecommendationCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) { cl.http.WithHTTPClient(hc) }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func NewClient(cfg config.APIConfig, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:         apphttp.NewClient(config.GetDuration(cfg.Timeout), cfg.MaxRetries),
		catalogURL:   cfg.CatalogURL(),
		recommendURL: cfg.RecommendURL(),
		log:          log.Component("menuapi"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCatalog GETs the catalog with a cache-busting t=<unix millis> parameter.
// Every failure is a CATALOG_* StandardError.
func (c *Client) FetchCatalog(ctx context.Context) (models.Catalog, error) {
	u, err := url.Parse(c.catalogURL)
	if err != nil {
		return nil, c.catalogFailed(apperrors.NewCatalogLoadFailedError(err))
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	target := u.String()

	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return nil, c.catalogFailed(apperrors.NewCatalogLoadFailedError(err))
	}

	if result := validation.CatalogResponse.ValidateBytes(body); !result.Valid {
		return nil, c.catalogFailed(apperrors.NewCatalogMalformedError(result.Error()))
	}
	var resp models.CatalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.catalogFailed(apperrors.NewCatalogMalformedError(err.Error()))
	}

	metrics.CatalogLoads.WithLabelValues(config.SourceHTTP, metrics.OutcomeSuccess).Inc()
	c.log.Info("catalog fetched", map[string]interface{}{"dishes": len(resp.Dishes)})
	return models.Catalog(resp.Dishes), nil
}

func (c *Client) catalogFailed(err *apperrors.StandardError) error {
	metrics.CatalogLoads.WithLabelValues(config.SourceHTTP, metrics.OutcomeFailure).Inc()
	return err
}

// Recommend POSTs the request. An empty result is not an error. Every failure
// is a RECOMMENDATION_* StandardError.
func (c *Client) Recommend(ctx context.Context, req models.PreferenceRequest) (models.RecommendationSet, error) {
	req = req.Normalized()

	if c.cache != nil {
		if set, ok := c.cache.Get(ctx, req); ok {
			return set, nil
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewRecommendationFailedError(err)
	}

	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.recommendURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return nil, apperrors.NewRecommendationFailedError(err)
	}

	if result := validation.RecommendationResponse.ValidateBytes(body); !result.Valid {
		return nil, apperrors.NewRecommendationMalformedError(result.Error())
	}
	var resp models.RecommendationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewRecommendationMalformedError(err.Error())
	}

	set := models.RecommendationSet(resp.Recommendations)
	if c.cache != nil {
		c.cache.Set(ctx, req, set)
	}
	return set, nil
}

// do runs the request with retries and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, build apphttp.RequestFunc) ([]byte, error) {
	resp, err := c.http.DoWithRetry(ctx, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("service returned error status", map[string]interface{}{
			"url":    resp.Request.URL.Path,
			"status": resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return body, nil
}
