package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	validLLMProviders   = map[string]bool{"openai": true, "gemini": true}
	validEmailProviders = map[string]bool{"log": true, "ses": true, "sendgrid": true}
	validTicketSinks    = map[string]bool{"memory": true, "elasticsearch": true}
	validNotifiers      = map[string]bool{"none": true, "sns": true, "rabbitmq": true}
	validOrderSources   = map[string]bool{"mock": true, "postgres": true}
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top of it and lets environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// secrets are usually injected as plain env vars rather than through the yaml tree
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.LLM.APIKey, "LLM_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY")
	setIfEmpty(&cfg.Integrations.SendGrid.APIKey, "SENDGRID_API_KEY")
	setIfEmpty(&cfg.Integrations.RabbitMQ.URL, "RABBITMQ_URL")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
}

func setIfEmpty(target *string, envKeys ...string) {
	if *target != "" {
		return
	}
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			*target = val
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "voice-agent-workers"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30000
	}
	if cfg.LLM.Breaker.MaxRequests == 0 {
		cfg.LLM.Breaker.MaxRequests = 3
	}
	if cfg.LLM.Breaker.Interval == 0 {
		cfg.LLM.Breaker.Interval = 60000
	}
	if cfg.LLM.Breaker.OpenTimeout == 0 {
		cfg.LLM.Breaker.OpenTimeout = 30000
	}
	if cfg.LLM.Breaker.MinRequests == 0 {
		cfg.LLM.Breaker.MinRequests = 3
	}
	if cfg.LLM.Breaker.FailureRatio == 0 {
		cfg.LLM.Breaker.FailureRatio = 0.6
	}

	if cfg.Pipeline.HistoryWindow == 0 {
		cfg.Pipeline.HistoryWindow = 10
	}
	if cfg.Pipeline.PromptHistory == 0 {
		cfg.Pipeline.PromptHistory = 6
	}
	if cfg.Pipeline.Confidence == 0 {
		cfg.Pipeline.Confidence = 0.8
	}
	if cfg.Pipeline.DefaultPersona == "" {
		cfg.Pipeline.DefaultPersona = "customer_support"
	}

	if cfg.Tools.Orders.Source == "" {
		cfg.Tools.Orders.Source = "mock"
	}
	if cfg.Tools.Email.Provider == "" {
		cfg.Tools.Email.Provider = "log"
	}
	if cfg.Tools.Tickets.Sink == "" {
		cfg.Tools.Tickets.Sink = "memory"
	}
	if cfg.Tools.Tickets.Index == "" {
		cfg.Tools.Tickets.Index = "support-tickets"
	}
	if cfg.Tools.Handoff.Notifier == "" {
		cfg.Tools.Handoff.Notifier = "none"
	}

	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "us-east-1"
	}
	if cfg.Integrations.RabbitMQ.Exchange == "" {
		cfg.Integrations.RabbitMQ.Exchange = "human-handoff"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func validateConfig(cfg *Config) error {
	if !validLLMProviders[cfg.LLM.Provider] {
		return fmt.Errorf("llm.provider must be one of openai, gemini (got %q)", cfg.LLM.Provider)
	}
	if cfg.LLM.Breaker.FailureRatio <= 0 || cfg.LLM.Breaker.FailureRatio > 1 {
		return fmt.Errorf("llm.breaker.failure_ratio must be in (0, 1]")
	}

	if cfg.Pipeline.HistoryWindow < 0 || cfg.Pipeline.PromptHistory < 0 {
		return fmt.Errorf("pipeline history sizes must not be negative")
	}
	if cfg.Pipeline.PromptHistory > cfg.Pipeline.HistoryWindow {
		return fmt.Errorf("pipeline.prompt_history (%d) cannot exceed pipeline.history_window (%d)",
			cfg.Pipeline.PromptHistory, cfg.Pipeline.HistoryWindow)
	}

	if !validOrderSources[cfg.Tools.Orders.Source] {
		return fmt.Errorf("tools.orders.source must be one of mock, postgres")
	}
	if !validEmailProviders[cfg.Tools.Email.Provider] {
		return fmt.Errorf("tools.email.provider must be one of log, ses, sendgrid")
	}
	if cfg.Tools.Email.Provider == "sendgrid" && cfg.Integrations.SendGrid.APIKey == "" {
		return fmt.Errorf("integrations.sendgrid.api_key is required for the sendgrid email provider")
	}
	if !validTicketSinks[cfg.Tools.Tickets.Sink] {
		return fmt.Errorf("tools.tickets.sink must be one of memory, elasticsearch")
	}
	if cfg.Tools.Tickets.Sink == "elasticsearch" && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required for the elasticsearch ticket sink")
	}
	if !validNotifiers[cfg.Tools.Handoff.Notifier] {
		return fmt.Errorf("tools.handoff.notifier must be one of none, sns, rabbitmq")
	}
	if cfg.Tools.Handoff.Notifier == "sns" && cfg.Integrations.AWS.SNS.TopicARN == "" {
		return fmt.Errorf("integrations.aws.sns.topic_arn is required for the sns handoff notifier")
	}
	if cfg.Tools.Handoff.Notifier == "rabbitmq" && cfg.Integrations.RabbitMQ.URL == "" {
		return fmt.Errorf("integrations.rabbitmq.url is required for the rabbitmq handoff notifier")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
