// internal/adapters/catalog/client.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// ErrSetNotFound is returned when the catalog has no entry for a set number
var ErrSetNotFound = fmt.Errorf("set not found in catalog")

// SetInfo holds catalog metadata for a LEGO set
type SetInfo struct {
	SetNumber  string `json:"set_num"`
	Name       string `json:"name"`
	Year       int    `json:"year"`
	NumParts   int    `json:"num_parts"`
	ImageURL   string `json:"set_img_url"`
	ThemeID    int    `json:"theme_id"`
	LastUpdate string `json:"last_modified_dt"`
}

// Config holds catalog client configuration
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client looks up set metadata from a Rebrickable-compatible API.
// Lookups are cached; the inventory flow works fine without the catalog,
// it only enriches name and image for a known set number.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    ports.CacheRepository
	cacheTTL time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg *Config, cache ports.CacheRepository, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://rebrickable.com/api/v3"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: cacheTTL,
		// Rebrickable allows ~1 request/second on the free tier.
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		logger:  logger.With(slog.String("component", "catalog")),
	}
}

// LookupSet fetches metadata for a set number, e.g. "10305" or "10305-1"
func (c *Client) LookupSet(ctx context.Context, setNumber string) (*SetInfo, error) {
	if setNumber == "" {
		return nil, fmt.Errorf("set number is required")
	}

	// Rebrickable set numbers carry a variant suffix.
	normalized := setNumber
	if !hasVariantSuffix(normalized) {
		normalized += "-1"
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixCatalog, "set", normalized)
	if c.cache != nil {
		var cached SetInfo
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	info, err := c.fetchSet(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetWithTTL(ctx, cacheKey, info, c.cacheTTL); err != nil {
			c.logger.WarnContext(ctx, "failed to cache catalog entry",
				slog.String("set_number", normalized),
				slog.Any("error", err))
		}
	}

	return info, nil
}

func (c *Client) fetchSet(ctx context.Context, setNumber string) (*SetInfo, error) {
	endpoint := fmt.Sprintf("%s/lego/sets/%s/", c.baseURL, url.PathEscape(setNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "key "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, ErrSetNotFound
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("catalog rate limit exceeded")
	default:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var info SetInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	c.logger.DebugContext(ctx, "catalog lookup",
		slog.String("set_number", setNumber),
		slog.String("name", info.Name))

	return &info, nil
}

func hasVariantSuffix(setNumber string) bool {
	for i := len(setNumber) - 1; i >= 0; i-- {
		if setNumber[i] == '-' {
			return i > 0 && i < len(setNumber)-1
		}
	}
	return false
}
