package collector

import (
	"fmt"

	"github.com/qepting91/ticker-pulse/internal/config"
	"github.com/qepting91/ticker-pulse/internal/domain"
)

// NewCollector selects the implementation for cfg.CollectorMode
func NewCollector(cfg config.Config) (domain.Collector, error) {
	switch cfg.CollectorMode {
	case config.ModeHTTP:
		c, err := NewHTTPClient(cfg.APIURL, ClientOptions{
			Timeout:   cfg.FetchTimeout,
			RateEvery: cfg.RateEvery,
			RateBurst: cfg.RateBurst,
			UserAgent: cfg.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ModeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'http' or 'mock')", cfg.CollectorMode)
	}
}
