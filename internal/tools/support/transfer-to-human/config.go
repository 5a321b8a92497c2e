package transfertohuman

import "voice-agent-workers/internal/common/config"

const (
	NotifierNone     = "none"
	NotifierSNS      = "sns"
	NotifierRabbitMQ = "rabbitmq"

	EventHandoffRequested = "handoff.requested"
)

type Config struct {
	Notifier          string
	DefaultUrgency    string
	EstimatedWaitTime string
	AssignedAgent     string
}

func LoadConfig(cfg config.ToolsConfig) *Config {
	c := &Config{
		Notifier:          NotifierNone,
		DefaultUrgency:    "medium",
		EstimatedWaitTime: "2-5 minutes",
		AssignedAgent:     "Available Agent",
	}
	if cfg.Handoff.Notifier != "" {
		c.Notifier = cfg.Handoff.Notifier
	}
	return c
}
