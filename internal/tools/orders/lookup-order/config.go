// internal/tools/orders/lookup-order/config.go
package lookuporder

import (
	"time"

	"voice-agent-workers/internal/common/config"
)

const (
	SourceMock     = "mock"
	SourcePostgres = "postgres"
)

type Config struct {
	Source       string
	CacheTTL     time.Duration
	QueryTimeout time.Duration
}

func LoadConfig(cfg config.ToolsConfig) *Config {
	source := cfg.Orders.Source
	if source == "" {
		source = SourceMock
	}
	return &Config{
		Source:       source,
		CacheTTL:     config.GetDuration(cfg.Orders.CacheTTL),
		QueryTimeout: 5 * time.Second,
	}
}
