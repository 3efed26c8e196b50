package container

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/config"
	bookRepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/catalog"
	lendingHandler "library-backend/internal/domains/lending/handler"
	lendingRepo "library-backend/internal/domains/lending/repository"
	lendingService "library-backend/internal/domains/lending/service"
	memberRepo "library-backend/internal/domains/member/repository"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/infrastructure/mongodb"
	"library-backend/pkg/cache"
	"library-backend/pkg/clock"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph.
// Exactly one of DB, Mongo and MemStore is set, depending on STORE_DRIVER.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================

	Config   *config.Config
	DB       *database.PostgresDB
	Mongo    *mongodb.MongoDB
	MemStore *memstore.Store

	Cache       cache.Cache   // nil when Redis is disabled
	AsynqClient *asynq.Client // nil when Redis is disabled
	Clock       clock.Clock

	redisCache *infraCache.RedisCache

	// ========================================
	// REPOSITORY LAYER
	// ========================================

	BookRepo    bookRepo.RepositoryInterface
	MemberRepo  memberRepo.RepositoryInterface
	LendingRepo lendingRepo.RepositoryInterface

	// ========================================
	// SERVICE LAYER
	// ========================================

	Seeder         *catalog.Seeder
	LendingService lendingService.ServiceInterface

	// ========================================
	// HANDLER LAYER
	// ========================================

	LendingHandler *lendingHandler.LendingHandler
}

// Option customises the container before it is wired.
type Option func(*Container)

// WithClock replaces the system clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Container) {
		c.Clock = clk
	}
}

// WithMemStore forces the memory driver backed by store.
func WithMemStore(store *memstore.Store) Option {
	return func(c *Container) {
		c.MemStore = store
	}
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer loads configuration from the environment and builds the graph.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(context.Background(), cfg)
}

// New builds the graph in order: infrastructure, repositories, services, handlers.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	log.Info().
		Str("env", cfg.App.Environment).
		Str("store", cfg.Store.Driver).
		Msg("[CONTAINER] Initializing")

	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.Clock == nil {
		c.Clock = clock.NewSystemClock()
	}
	if c.MemStore != nil {
		cfg.Store.Driver = config.StoreDriverMemory
	}

	if err := c.initStore(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initCache(ctx)
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	if !cfg.Lending.AutoSeed {
		// Seeding happens here only; routes report an uninitialised store afterwards.
		if err := c.Seeder.EnsureSeeded(ctx); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] Startup seeding failed")
		}
	}

	log.Info().Msg("[CONTAINER] Initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.Store.Driver {
	case config.StoreDriverMemory:
		if c.MemStore == nil {
			c.MemStore = memstore.New()
		}
		log.Warn().Msg("[CONTAINER] Using in-memory store, data is lost on restart")
		return nil

	case config.StoreDriverMongo:
		m := mongodb.NewMongoDB(c.Config.Mongo.URI, c.Config.Mongo.Database, c.Config.Mongo.ConnectTimeout)
		if err := m.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		c.Mongo = m
		if err := m.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		return nil

	default:
		dbConfig, err := config.LoadDatabaseConfig()
		if err != nil {
			return fmt.Errorf("failed to load database config: %w", err)
		}

		db := database.NewPostgresDB(dbConfig)

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := db.Connect(connectCtx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db

		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
		return nil
	}
}

// initCache connects Redis. A failed connection is not fatal: the cache
// keeps erroring, the service falls back to the store and /health reports it.
func (c *Container) initCache(ctx context.Context) {
	if !c.Config.Redis.Enabled {
		log.Info().Msg("[CONTAINER] Redis disabled, running without cache and task queue")
		return
	}

	rc := infraCache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := rc.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("[CONTAINER] Redis connection failed (non-critical)")
	}
	c.redisCache = rc
	c.Cache = rc

	c.AsynqClient = asynq.NewClient(c.RedisClientOpt())
}

func (c *Container) initRepositories() {
	switch {
	case c.MemStore != nil:
		c.BookRepo = bookRepo.NewMemoryRepository(c.MemStore)
		c.MemberRepo = memberRepo.NewMemoryRepository(c.MemStore)
		c.LendingRepo = lendingRepo.NewMemoryRepository(c.MemStore)

	case c.Mongo != nil:
		c.BookRepo = bookRepo.NewMongoRepository(c.Mongo.Database)
		c.MemberRepo = memberRepo.NewMongoRepository(c.Mongo.Database)
		c.LendingRepo = lendingRepo.NewMongoRepository(c.Mongo.Database)

	default:
		c.BookRepo = bookRepo.NewRepository(c.DB.Pool)
		c.MemberRepo = memberRepo.NewRepository(c.DB.Pool)
		c.LendingRepo = lendingRepo.NewRepository(c.DB.Pool)
	}
}

func (c *Container) initServices() {
	c.Seeder = catalog.NewSeeder(c.BookRepo, c.MemberRepo)

	deps := lendingService.Dependencies{
		Books:   c.BookRepo,
		Members: c.MemberRepo,
		Lending: c.LendingRepo,
		Seeder:  c.Seeder,
		Clock:   c.Clock,
	}
	if c.Cache != nil {
		deps.Cache = c.Cache
	}
	if c.AsynqClient != nil {
		deps.Enqueuer = c.AsynqClient
	}

	c.LendingService = lendingService.NewLendingService(deps, c.Config.Lending)
}

func (c *Container) initHandlers() {
	c.LendingHandler = lendingHandler.NewLendingHandler(c.LendingService, c.Config.App.Banner)
}

// ========================================
// HELPER METHODS
// ========================================

// RedisClientOpt is the asynq connection derived from the Redis config.
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// HealthCheck pings the store and, when enabled, Redis.
// The map holds "ok" or the error text per dependency.
func (c *Container) HealthCheck(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string)
	healthy := true

	record := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	switch {
	case c.DB != nil:
		record("postgres", c.DB.HealthCheck(ctx))
		if stats, err := c.DB.Stats(); err == nil {
			checks["postgres_pool"] = fmt.Sprintf("%d/%d acquired", stats.AcquiredConns, stats.MaxConns)
		}
	case c.Mongo != nil:
		record("mongo", c.Mongo.HealthCheck(ctx))
	default:
		checks["memory"] = "ok"
	}

	if c.redisCache != nil {
		record("redis", c.redisCache.Ping(ctx))
	}

	return checks, healthy
}

// Cleanup releases every connection. Safe to call more than once.
func (c *Container) Cleanup() {
	log.Info().Msg("[CONTAINER] Cleaning up resources")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] Failed to close asynq client")
		}
		c.AsynqClient = nil
	}

	if c.redisCache != nil {
		if err := c.redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] Failed to close Redis")
		}
		c.redisCache = nil
	}

	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Mongo.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] Failed to close mongo")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] Failed to close database")
		}
	}

	log.Info().Msg("[CONTAINER] Cleanup completed")
}
