// Package builtin assembles the tool registry from configuration, choosing
// the backing implementation of each built-in tool.
package builtin

import (
	"database/sql"
	"fmt"

	awsclient "voice-agent-workers/internal/common/aws"
	"voice-agent-workers/internal/common/config"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
	checkinventory "voice-agent-workers/internal/tools/catalog/check-inventory"
	sendemail "voice-agent-workers/internal/tools/communication/send-email"
	updatecustomerprofile "voice-agent-workers/internal/tools/customers/update-customer-profile"
	lookuporder "voice-agent-workers/internal/tools/orders/lookup-order"
	scheduleappointment "voice-agent-workers/internal/tools/scheduling/schedule-appointment"
	createticket "voice-agent-workers/internal/tools/support/create-ticket"
	transfertohuman "voice-agent-workers/internal/tools/support/transfer-to-human"

	"github.com/redis/go-redis/v9"
)

// Dependencies are the optional backends tools may be configured to use.
// A backend selected in configuration but missing here is an error.
type Dependencies struct {
	DB        *sql.DB
	Redis     *redis.Client
	Search    createticket.DocumentIndexer
	SES       *awsclient.SESClient
	SNS       *awsclient.SNSClient
	Publisher transfertohuman.EventPublisher
}

// NewRegistry builds a registry holding the defaults and, when enabled,
// the custom tools.
func NewRegistry(cfg *config.Config, deps Dependencies, log logger.Logger) (*tools.Registry, error) {
	reg := tools.NewRegistry(log)
	if err := RegisterDefaults(reg, cfg, deps, log); err != nil {
		return nil, err
	}
	if cfg.Tools.EnableCustom {
		RegisterCustom(reg, log)
	}
	return reg, nil
}

// RegisterDefaults registers the five conversation tools in planner order.
func RegisterDefaults(reg *tools.Registry, cfg *config.Config, deps Dependencies, log logger.Logger) error {
	repo, err := orderRepository(cfg, deps, log)
	if err != nil {
		return err
	}
	sender, err := emailSender(cfg, deps, log)
	if err != nil {
		return err
	}
	sink, err := ticketSink(cfg, deps)
	if err != nil {
		return err
	}
	notifier, err := handoffNotifier(cfg, deps)
	if err != nil {
		return err
	}

	emailCfg := sendemail.LoadConfig(cfg.Tools)
	if err := emailCfg.Validate(); err != nil {
		return fmt.Errorf("send_email config: %w", err)
	}

	reg.Register(lookuporder.NewHandler(lookuporder.LoadConfig(cfg.Tools), repo, log))
	reg.Register(scheduleappointment.NewHandler(scheduleappointment.LoadConfig(), log))
	reg.Register(sendemail.NewHandler(emailCfg, sender, log))
	reg.Register(createticket.NewHandler(createticket.LoadConfig(cfg.Tools), sink, log))
	reg.Register(transfertohuman.NewHandler(transfertohuman.LoadConfig(cfg.Tools), notifier, log))
	return nil
}

// RegisterCustom adds the example extension tools and returns how many
// were registered.
func RegisterCustom(reg *tools.Registry, log logger.Logger) int {
	custom := []tools.Tool{
		checkinventory.NewHandler(log),
		updatecustomerprofile.NewHandler(log),
	}
	for _, t := range custom {
		reg.Register(t)
	}
	return len(custom)
}

func orderRepository(cfg *config.Config, deps Dependencies, log logger.Logger) (lookuporder.Repository, error) {
	ocfg := lookuporder.LoadConfig(cfg.Tools)

	var repo lookuporder.Repository
	switch ocfg.Source {
	case lookuporder.SourceMock:
		repo = lookuporder.NewMockRepository()
	case lookuporder.SourcePostgres:
		if deps.DB == nil {
			return nil, fmt.Errorf("orders source %q requires a database", ocfg.Source)
		}
		repo = lookuporder.NewPostgresRepository(deps.DB)
	default:
		return nil, fmt.Errorf("unknown orders source %q", ocfg.Source)
	}

	if ocfg.CacheTTL > 0 && deps.Redis != nil {
		repo = lookuporder.NewCachedRepository(repo, deps.Redis, ocfg.CacheTTL, log)
	}
	return repo, nil
}

func emailSender(cfg *config.Config, deps Dependencies, log logger.Logger) (sendemail.Sender, error) {
	switch provider := sendemail.LoadConfig(cfg.Tools).Provider; provider {
	case sendemail.ProviderLog:
		return sendemail.NewLogSender(log), nil
	case sendemail.ProviderSES:
		if deps.SES == nil {
			return nil, fmt.Errorf("email provider %q requires an SES client", provider)
		}
		return sendemail.NewSESSender(deps.SES), nil
	case sendemail.ProviderSendGrid:
		if cfg.Integrations.SendGrid.APIKey == "" {
			return nil, fmt.Errorf("email provider %q requires integrations.sendgrid.api_key", provider)
		}
		return sendemail.NewSendGridSender(cfg.Integrations.SendGrid.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}
}

func ticketSink(cfg *config.Config, deps Dependencies) (createticket.Sink, error) {
	tcfg := createticket.LoadConfig(cfg.Tools)
	switch tcfg.Sink {
	case createticket.SinkMemory:
		return createticket.NewMemorySink(), nil
	case createticket.SinkElasticsearch:
		if deps.Search == nil {
			return nil, fmt.Errorf("ticket sink %q requires an elasticsearch client", tcfg.Sink)
		}
		return createticket.NewElasticsearchSink(deps.Search, tcfg.Index), nil
	default:
		return nil, fmt.Errorf("unknown ticket sink %q", tcfg.Sink)
	}
}

func handoffNotifier(cfg *config.Config, deps Dependencies) (transfertohuman.Notifier, error) {
	switch n := transfertohuman.LoadConfig(cfg.Tools).Notifier; n {
	case transfertohuman.NotifierNone:
		return transfertohuman.NoopNotifier{}, nil
	case transfertohuman.NotifierSNS:
		if deps.SNS == nil || cfg.Integrations.AWS.SNS.TopicARN == "" {
			return nil, fmt.Errorf("handoff notifier %q requires an SNS client and topic", n)
		}
		return transfertohuman.NewSNSNotifier(deps.SNS, cfg.Integrations.AWS.SNS.TopicARN), nil
	case transfertohuman.NotifierRabbitMQ:
		if deps.Publisher == nil {
			return nil, fmt.Errorf("handoff notifier %q requires a publisher", n)
		}
		return transfertohuman.NewEventNotifier(deps.Publisher), nil
	default:
		return nil, fmt.Errorf("unknown handoff notifier %q", n)
	}
}
