package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/draftea/nft-marketplace/marketplace-service/application"
	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/marketplace-service/handlers"
	"github.com/draftea/nft-marketplace/marketplace-service/infrastructure"
	"github.com/draftea/nft-marketplace/shared/circuitbreaker"
	"github.com/draftea/nft-marketplace/shared/events"
	sharedinfra "github.com/draftea/nft-marketplace/shared/infrastructure"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/outbox"
	"github.com/draftea/nft-marketplace/shared/saga"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Dependencies struct {
	Logger *zap.Logger

	// Storage
	DB    *sqlx.DB
	Mongo *mongo.Client
	Redis redis.UniversalClient

	// Repositories
	NFTRepository     domain.NFTRepository
	AccountRepository domain.AccountRepository
	NFTSearcher       domain.NFTSearcher
	NFTCache          domain.NFTCache
	NFTSearchCache    domain.NFTSearchCache
	EventStore        events.EventStore

	// Coordination
	Sagas       *saga.Coordinator
	Publisher   *outbox.Publisher
	ChainClient domain.ChainClient
	Breaker     *circuitbreaker.Breaker

	// Use Cases
	MintNFT          *application.MintNFT
	ListForSale      *application.ListForSale
	BuyNFT           *application.BuyNFT
	GetNFT           *application.GetNFT
	SearchNFTs       *application.SearchNFTs
	FetchFromChain   *application.FetchFromChain
	ConfirmFromChain *application.ConfirmFromChain

	// HTTP Handlers
	MarketplaceHandlers *handlers.MarketplaceHandlers
	HealthChecks        map[string]handlers.HealthCheck

	// Event Handlers
	ChainEventHandlers *handlers.ChainEventHandlers
	EventRouter        *sharedinfra.EventRouter

	// Infrastructure
	EventPublisher  events.Publisher
	EventSubscriber *sharedinfra.SQSEventSubscriber

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()

	aws     *awsSetup
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func (d *Dependencies) addCheck(name string, check handlers.HealthCheck) {
	if d.HealthChecks == nil {
		d.HealthChecks = make(map[string]handlers.HealthCheck)
	}
	d.HealthChecks[name] = check
}

func (d *Dependencies) onClose(name string, fn func() error) {
	d.closers = append(d.closers, namedCloser{name: name, close: fn})
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	logger, err := logging.New(logging.Config{
		Environment: logging.Environment(config.Env),
		Level:       config.LogLevel,
		ServiceName: config.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	deps := &Dependencies{Logger: logger}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.MarketplaceServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			// Continue without telemetry rather than failing
			logger.Warn("failed to initialize telemetry", zap.Error(err))
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	if err := deps.buildStorage(ctx, config); err != nil {
		deps.Close()
		return nil, err
	}

	if err := deps.buildMessaging(ctx, config); err != nil {
		deps.Close()
		return nil, err
	}

	if config.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		cache := infrastructure.NewRedisNFTCache(client, config.Redis.TTL)
		deps.Redis = client
		deps.NFTCache = cache
		deps.NFTSearchCache = cache
		deps.onClose("redis", client.Close)
		deps.addCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	// Chain access goes through the breaker
	deps.ChainClient = infrastructure.NewSolanaRPCClient(config.Chain.RPCURL, config.Chain.RequestTimeout)
	breaker, err := circuitbreaker.New("chain-rpc", config.BreakerConfig(), circuitbreaker.WithLogger(logger))
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create chain breaker: %w", err)
	}
	deps.Breaker = breaker

	// Initialize use cases
	journalOpts := []saga.Option{saga.WithLogger(logger)}
	if deps.EventStore != nil {
		journalOpts = append(journalOpts, saga.WithJournal(sharedinfra.NewSagaJournal(deps.EventStore)))
	}
	deps.Sagas = saga.NewCoordinator(journalOpts...)

	workflow := application.NewWorkflow(
		deps.Sagas,
		deps.Publisher,
		deps.NFTRepository,
		deps.NFTCache,
		deps.EventPublisher,
		config.Queue.PendingActionsQueue,
		logger,
	)
	deps.MintNFT = application.NewMintNFT(workflow)
	deps.ListForSale = application.NewListForSale(workflow)
	deps.BuyNFT = application.NewBuyNFT(workflow, deps.AccountRepository, application.PlatformFee{
		BasisPoints: config.Marketplace.PlatformFeeBps,
		Wallet:      config.Marketplace.PlatformFeeWallet,
	})
	deps.GetNFT = application.NewGetNFT(deps.NFTRepository, deps.NFTCache, logger)
	deps.SearchNFTs = application.NewSearchNFTs(deps.NFTSearcher, deps.NFTSearchCache, logger)
	deps.FetchFromChain = application.NewFetchFromChain(deps.ChainClient, deps.Breaker)
	deps.ConfirmFromChain = application.NewConfirmFromChain(deps.NFTRepository, deps.NFTCache, deps.EventPublisher, logger)

	// Initialize handlers
	deps.MarketplaceHandlers = handlers.NewMarketplaceHandlers(
		deps.ListForSale,
		deps.BuyNFT,
		deps.GetNFT,
		deps.FetchFromChain,
		deps.MintNFT,
		deps.SearchNFTs,
		logger,
	)
	deps.ChainEventHandlers = handlers.NewChainEventHandlers(deps.ConfirmFromChain, logger)

	deps.EventRouter = sharedinfra.NewEventRouter(deps.ChainEventHandlers.HandlerID(), logger)
	deps.EventRouter.RegisterHandler(events.NFTChainConfirmedEvent, deps.ChainEventHandlers)

	if config.AWS.SQSConfirmationsQueueURL != "" {
		setup, err := deps.loadAWS(ctx, config)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.EventSubscriber = sharedinfra.NewSQSEventSubscriber(
			sharedinfra.NewSQSClient(setup.cfg, setup.opts),
			config.AWS.SQSConfirmationsQueueURL,
			deps.EventRouter,
			logger,
		)
		deps.onClose("event subscriber", deps.EventSubscriber.Close)
	}

	return deps, nil
}

func (d *Dependencies) buildStorage(ctx context.Context, config *Config) error {
	switch config.Database.Driver {
	case "postgres":
		db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		d.DB = db
		d.onClose("database", db.Close)
		d.addCheck("postgres", db.PingContext)

		if config.Database.AutoMigrate {
			if err := infrastructure.Migrate(db, config.Database.Database, d.Logger); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		nfts := infrastructure.NewPostgresNFTRepository(db)
		d.NFTRepository = nfts
		d.NFTSearcher = nfts
		d.AccountRepository = infrastructure.NewPostgresAccountRepository(db)
		d.EventStore = sharedinfra.NewPostgresEventStore(db)

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.Database.MongoURI))
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		d.Mongo = client
		d.onClose("mongo", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
		d.addCheck("mongo", func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		})

		db := client.Database(config.Database.MongoDatabase)
		nfts := infrastructure.NewMongoNFTRepository(db)
		accounts := infrastructure.NewMongoAccountRepository(db)
		if err := nfts.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create nft indexes: %w", err)
		}
		if err := accounts.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create account indexes: %w", err)
		}
		d.NFTRepository = nfts
		d.NFTSearcher = nfts
		d.AccountRepository = accounts
		d.EventStore = sharedinfra.NewMemoryEventStore()

	case "memory":
		nfts := infrastructure.NewMemoryNFTRepository()
		d.NFTRepository = nfts
		d.NFTSearcher = nfts
		d.AccountRepository = infrastructure.NewMemoryAccountRepository()
		d.EventStore = sharedinfra.NewMemoryEventStore()

	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	return nil
}

func (d *Dependencies) buildMessaging(ctx context.Context, config *Config) error {
	var queue outbox.MessageQueue
	switch config.Queue.Driver {
	case "sqs":
		setup, err := d.loadAWS(ctx, config)
		if err != nil {
			return err
		}
		queue = sharedinfra.NewSQSMessageQueue(sharedinfra.NewSQSClient(setup.cfg, setup.opts), config.Queue.SQSQueueURLs)

	case "rabbitmq":
		rabbit, closeFn, err := sharedinfra.DialRabbitMQ(config.Queue.RabbitMQURL, config.Queue.PublishTimeout, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		d.onClose("rabbitmq", closeFn)
		queue = rabbit

	case "memory":
		queue = sharedinfra.NewMemoryMessageQueue(config.Queue.MemoryCapacity)

	default:
		return fmt.Errorf("unsupported queue driver %q", config.Queue.Driver)
	}

	d.Publisher = outbox.NewPublisher(queue,
		outbox.WithLogger(d.Logger),
		outbox.WithTimeout(config.Queue.PublishTimeout),
	)

	if config.AWS.SNSTopicArn == "" {
		d.EventPublisher = sharedinfra.NewLogEventPublisher(d.Logger)
		return nil
	}

	setup, err := d.loadAWS(ctx, config)
	if err != nil {
		return err
	}
	d.EventPublisher = sharedinfra.NewSNSEventPublisher(
		sharedinfra.NewSNSClient(setup.cfg, setup.opts),
		config.AWS.SNSTopicArn,
		d.Logger,
	)

	return nil
}

type awsSetup struct {
	cfg  aws.Config
	opts sharedinfra.AWSOptions
}

// loadAWS loads the AWS configuration once and shares it between SNS and SQS clients
func (d *Dependencies) loadAWS(ctx context.Context, config *Config) (*awsSetup, error) {
	if d.aws != nil {
		return d.aws, nil
	}

	opts := sharedinfra.AWSOptions{
		Region:      config.AWS.Region,
		EndpointSNS: config.AWS.EndpointSNS,
		EndpointSQS: config.AWS.EndpointSQS,
	}
	cfg, err := sharedinfra.LoadAWSConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	d.aws = &awsSetup{cfg: cfg, opts: opts}
	return d.aws, nil
}

// Close closes all dependencies, newest first
func (d *Dependencies) Close() error {
	var result *multierror.Error

	for i := len(d.closers) - 1; i >= 0; i-- {
		c := d.closers[i]
		if err := c.close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close %s: %w", c.name, err))
		}
	}
	d.closers = nil

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
		d.TelemetryShutdown = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return result.ErrorOrNil()
}
