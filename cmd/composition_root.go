package cmd

import (
	"fmt"
	"log/slog"
	"time"

	fhttp "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/in/chatops"
	"fulfillment/internal/adapters/out/botapi"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/sqlite"
	"fulfillment/internal/core/application/notifications"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/ports"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// CompositionRoot builds the server object graph. The transition engine and the
// dispatcher are shared: the engine's per-order locks and the dispatcher's drain
// only work when every caller goes through the same instance.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	repo   ports.OrderRepository
	clock  commands.Clock

	bot        *botapi.Client
	dispatcher *notifications.Dispatcher
	engine     commands.ChangeOrderStatusCommandHandler
}

// OpenOrderStore opens the backend named by cfg.StoreBackend. The returned func
// releases it.
func OpenOrderStore(cfg Config) (ports.OrderRepository, func() error, error) {
	switch cfg.StoreBackend {
	case BackendPostgres:
		db, err := postgres.Open(cfg.PostgresOptions().DSN())
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("postgres handle: %w", err)
		}
		return orderrepo.NewGormOrderRepository(db), sqlDB.Close, nil
	case BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case BackendMemory:
		return memory.NewOrderRepository(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewCompositionRoot wires the services around repo.
func NewCompositionRoot(cfg Config, repo ports.OrderRepository, logger *slog.Logger) (*CompositionRoot, error) {
	bot, err := botapi.NewClient(botapi.Options{
		BaseURL:        cfg.BotAPIURL,
		Token:          cfg.BotToken,
		OperatorChatID: cfg.OperatorChatID,
		RateLimit:      rate.Limit(cfg.BotRateLimit),
		RateLimitBurst: cfg.BotRateLimitBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("bot api client: %w", err)
	}

	clock := commands.Clock(time.Now)
	return &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		clock:      clock,
		bot:        bot,
		dispatcher: notifications.NewDispatcher(bot, cfg.NotifyTimeout, logger),
		engine:     commands.NewChangeOrderStatusCommandHandler(repo, clock, logger),
	}, nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.repo, c.clock)
}

func (c *CompositionRoot) ChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	return c.engine
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.repo)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.repo)
}

// Dispatcher returns the shared customer notification dispatcher.
func (c *CompositionRoot) Dispatcher() *notifications.Dispatcher {
	return c.dispatcher
}

func (c *CompositionRoot) CreateOperatorAdapter() *chatops.Adapter {
	return chatops.NewAdapter(c.engine, c.dispatcher, c.bot, c.logger)
}

// CreateRouter returns the HTTP API.
func (c *CompositionRoot) CreateRouter() *echo.Echo {
	server := fhttp.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateGetActiveOrdersQueryHandler(),
		c.CreateOperatorAdapter(),
		c.cfg.OperatorSecret,
		c.logger,
	)
	return fhttp.NewRouter(server, c.logger)
}
