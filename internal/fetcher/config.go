package fetcher

import (
	"github.com/everstacklabs/chutes-plugin/internal/config"
	"github.com/everstacklabs/chutes-plugin/internal/httpclient"
)

// NewFromConfig creates a Fetcher from loaded configuration. Options in
// opts are applied after the configured values.
func NewFromConfig(cfg *config.Config, opts ...Option) *Fetcher {
	client := httpclient.New(
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithToken(cfg.APIToken),
	)

	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithCacheTTL(cfg.CacheTTL()),
		WithMaxRetries(cfg.MaxRetries),
		WithRetryDelay(cfg.RetryDelay),
		WithPrefix(cfg.Prefix),
		WithHTTPClient(client),
	}
	return New(append(base, opts...)...)
}
