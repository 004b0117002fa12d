package provider

import (
	"github.com/somar/dispatch/internal/cache"
	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/queue"
	"github.com/somar/dispatch/internal/realtime"
	"github.com/somar/dispatch/internal/repository"
	"github.com/somar/dispatch/internal/service"
)

// Container is the dependency injection container.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Notifier    *realtime.Notifier

	// Repositories
	DispatcherRepo repository.DispatcherRepository
	RiderRepo      repository.RiderRepository
	MerchantRepo   repository.MerchantRepository
	CustomerRepo   repository.CustomerRepository
	OrderRepo      repository.OrderRepository
	SettingRepo    repository.SettingRepository

	// Services
	AuthService     *service.AuthService
	SettingsService *service.SettingsService
	UploadService   *service.UploadService
	LedgerService   *service.LedgerService
	OrderService    *service.OrderService
	DispatchService *service.DispatchService
	StatsService    *service.StatsService
}

// NewContainer wires the full dependency graph.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Notifier:    realtime.NewNotifier(),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.DispatcherRepo = repository.NewDispatcherRepository(db)
	c.RiderRepo = repository.NewRiderRepository(db)
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingsService = service.NewSettingsService(c.SettingRepo)
	c.AuthService = service.NewAuthService(c.Config, c.DispatcherRepo, c.RiderRepo)
	c.UploadService = service.NewUploadService(c.Config)
	c.LedgerService = service.NewLedgerService(c.RiderRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.RiderRepo,
		c.LedgerService,
		c.SettingsService,
		c.UploadService,
		c.Notifier,
	)
	c.DispatchService = service.NewDispatchService(
		c.OrderRepo,
		c.RiderRepo,
		c.CustomerRepo,
		c.MerchantRepo,
		c.OrderService,
		c.SettingsService,
		c.UploadService,
		c.Notifier,
		c.QueueClient,
		c.Config.Dispatch.StaleUnassignedMinutes,
	)
	c.StatsService = service.NewStatsService(c.OrderRepo, c.RiderRepo)
}
