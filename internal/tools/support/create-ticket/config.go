package createticket

import (
	"time"

	"voice-agent-workers/internal/common/config"
)

const (
	SinkMemory        = "memory"
	SinkElasticsearch = "elasticsearch"
)

type Config struct {
	Sink               string
	Index              string
	DefaultPriority    string
	DefaultCategory    string
	DefaultAssignee    string
	ResolutionEstimate time.Duration
}

func LoadConfig(cfg config.ToolsConfig) *Config {
	c := &Config{
		Sink:               SinkMemory,
		Index:              "support-tickets",
		DefaultPriority:    "medium",
		DefaultCategory:    "General",
		DefaultAssignee:    "Support Team",
		ResolutionEstimate: 24 * time.Hour,
	}
	if cfg.Tickets.Sink != "" {
		c.Sink = cfg.Tickets.Sink
	}
	if cfg.Tickets.Index != "" {
		c.Index = cfg.Tickets.Index
	}
	return c
}
