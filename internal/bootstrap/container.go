package bootstrap

import (
	"context"

	"ai-consulting-be/internal/config"
	"ai-consulting-be/internal/controller"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/memory"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/internal/service"
	"ai-consulting-be/pkg/intelligence/capability"
	"ai-consulting-be/pkg/intelligence/contextstore"
	intelEvents "ai-consulting-be/pkg/intelligence/events"
	"ai-consulting-be/pkg/intelligence/intent"
	"ai-consulting-be/pkg/intelligence/retention"
	"ai-consulting-be/pkg/intelligence/stage"
	"ai-consulting-be/pkg/intelligence/suggest"
	"ai-consulting-be/pkg/locker"
	pktNats "ai-consulting-be/pkg/nats"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ContextController      controller.IContextController
	IntelligenceController controller.IIntelligenceController
	AdminController        controller.IAdminController
	HealthController       controller.IHealthController

	// Services
	ConversationService service.IConversationService
	Store               *contextstore.Store
	Recorder            *capability.Recorder
	Engine              *suggest.Engine
	Detector            *intent.Detector

	// Background workers, started by Start
	Dispatcher *capability.Dispatcher
	Sweeper    *retention.Sweeper

	Logger logger.ILogger
	cfg    *config.Config
}

// Infra holds the optional external clients. Nil fields fall back to in-process behavior.
type Infra struct {
	UowFactory unitofwork.RepositoryFactory
	Redis      *redis.Client
	Nats       *pktNats.Publisher
	Checks     map[string]controller.Pinger
}

func NewContainer(infra Infra, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	// 1. Core Facades
	uowFactory := infra.UowFactory
	if uowFactory == nil {
		uowFactory = memory.NewRepositoryFactory(memory.NewStore(cfg.Intelligence.ContextTTL))
		sysLogger.Info("BOOTSTRAP", "Using in-memory context store", nil)
	}

	var sessionLocker locker.Locker
	if infra.Redis != nil {
		sessionLocker = locker.NewRedisLocker(infra.Redis, cfg.Intelligence.LockTTL, cfg.Intelligence.LockTTL, sysLogger)
		sysLogger.Info("BOOTSTRAP", "Using Redis session locks", nil)
	} else {
		sessionLocker = locker.NewKeyedMutex(cfg.Intelligence.LockTTL)
	}

	// 2. Event Bus
	var sink intelEvents.Sink
	if infra.Nats != nil {
		sink = infra.Nats
	}
	publisher := intelEvents.NewNatsPublisher(sink, sysLogger)

	// 3. Intelligence components
	catalog, err := suggest.LoadCatalogFile(cfg.Intelligence.SuggestionCatalogPath)
	if err != nil {
		return nil, err
	}
	engine := suggest.NewEngine(catalog, suggest.Config{
		MaxSuggestions:    cfg.Intelligence.MaxSuggestions,
		MinRoleConfidence: cfg.Intelligence.MinRoleConfidence,
	})
	detector := intent.NewDetector()
	stageManager := stage.NewManager(cfg.Intelligence.IntentConfidenceThreshold, sysLogger)

	store := contextstore.New(uowFactory, sessionLocker, sysLogger)
	recorder := capability.NewRecorder(store, uowFactory, publisher, sysLogger)
	dispatcher := capability.NewDispatcher(
		capability.NewPubSub(!cfg.IsProduction()),
		recorder,
		cfg.Intelligence.CapabilityTimeout,
		sysLogger,
	)
	sweeper := retention.NewSweeper(uowFactory, sessionLocker, cfg.Intelligence.ContextTTL, cfg.Intelligence.CapabilityLogRetention, sysLogger)

	// 4. Services
	conversationService := service.NewConversationService(
		uowFactory,
		store,
		detector,
		stageManager,
		engine,
		recorder,
		dispatcher,
		publisher,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		ContextController:      controller.NewContextController(conversationService),
		IntelligenceController: controller.NewIntelligenceController(conversationService),
		AdminController:        controller.NewAdminController(conversationService, cfg.Auth.JwtSecret, cfg.Auth.AdminRole),
		HealthController:       controller.NewHealthController(infra.Checks),

		ConversationService: conversationService,
		Store:               store,
		Recorder:            recorder,
		Engine:              engine,
		Detector:            detector,

		Dispatcher: dispatcher,
		Sweeper:    sweeper,

		Logger: sysLogger,
		cfg:    cfg,
	}, nil
}

// Start launches the capability consumer and, when scheduled, the retention sweeper.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Dispatcher.Start(ctx); err != nil {
		return err
	}
	if c.cfg.Intelligence.SweepSchedule != "" {
		if err := c.Sweeper.Start(c.cfg.Intelligence.SweepSchedule); err != nil {
			return err
		}
	}
	return nil
}

// Close stops background workers. Queued capability messages not yet consumed are dropped.
func (c *Container) Close() {
	c.Sweeper.Stop()
	if err := c.Dispatcher.Close(); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Failed to close capability dispatcher", map[string]interface{}{"error": err.Error()})
	}
}
