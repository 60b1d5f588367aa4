package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/atylespot/conversions-relay/internal/analytics"
	analyticsstore "github.com/atylespot/conversions-relay/internal/analytics/store"
	"github.com/atylespot/conversions-relay/internal/capi"
	"github.com/atylespot/conversions-relay/internal/dedup"
	"github.com/atylespot/conversions-relay/internal/handlers"
	"github.com/atylespot/conversions-relay/internal/health"
	"github.com/atylespot/conversions-relay/internal/messaging"
	"github.com/atylespot/conversions-relay/internal/middleware"
	"github.com/atylespot/conversions-relay/internal/ratelimit"
	"github.com/atylespot/conversions-relay/internal/settings"
	"github.com/atylespot/conversions-relay/internal/store"
)

// Options is the runtime configuration, parsed by humacli from flags and
// environment variables.
type Options struct {
	Port                   int    `default:"8888"                       help:"Port to listen on"                                short:"p"`
	RedisAddr              string `default:"localhost:6379"             help:"Redis server address"                             short:"r"`
	PostgresDSN            string `help:"PostgreSQL connection string; empty disables persistence"`
	PixelID                string `help:"Default pixel identifier"`
	AccessToken            string `help:"Default Conversions API access token"`
	TestEventCode          string `help:"Test event code attached to forwarded events"`
	GraphBaseURL           string `default:"https://graph.facebook.com" help:"Conversions API base URL"`
	GraphVersion           string `default:"v18.0"                      help:"Graph API version"`
	DedupBackend           string `default:"memory"                     help:"Dedup store backend (memory or redis)"`
	DedupWindowSeconds     int    `default:"5"                          help:"Suppression window for duplicate events, in seconds"`
	DedupRetentionSeconds  int    `default:"60"                         help:"Retention of dedup cache entries, in seconds"`
	ForwardTimeoutSeconds  int    `default:"10"                         help:"Outbound call timeout, in seconds"`
	RateLimitMax           int    `default:"120"                        help:"Max events per client per rate limit window"`
	RateLimitWindowSeconds int    `default:"60"                         help:"Rate limit window, in seconds"`
	LogFormat              string `default:"console"                    help:"Log format (console or json)"`
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx connection pool. Invoking it without a
// configured DSN is an error; callers must check Options.PostgresDSN first.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)
		if options.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn not configured")
		}

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// SettingsPackage provides the pixel settings store: Postgres when a DSN is
// configured, otherwise an empty in-memory store.
func SettingsPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (settings.Store, error) {
		options := do.MustInvoke[*Options](i)
		if options.PostgresDSN == "" {
			return store.NewSettingsMemoryStore(), nil
		}

		pool := do.MustInvoke[*pgxpool.Pool](i)

		return store.NewSettingsPostgresStore(pool), nil
	})
}

// DedupPackage provides the deduplication gate with the configured backend.
func DedupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*dedup.Gate, error) {
		options := do.MustInvoke[*Options](i)

		var dedupStore dedup.Store
		if options.DedupBackend == "redis" {
			dedupStore = store.NewDedupRedisStore(do.MustInvoke[*redis.Client](i))
		} else {
			dedupStore = store.NewDedupMemoryStore()
		}

		window := time.Duration(options.DedupWindowSeconds) * time.Second
		retention := time.Duration(options.DedupRetentionSeconds) * time.Second

		return dedup.NewGate(dedupStore, window, retention), nil
	})
}

// RateLimitPackage provides the inbound sliding window limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)
		window := time.Duration(options.RateLimitWindowSeconds) * time.Second

		return ratelimit.NewSlidingWindowLimiter(
			store.NewRateLimitMemoryStore(),
			int64(options.RateLimitMax),
			window,
		), nil
	})
}

// CapiPackage provides the enricher, credential resolver, and forwarder.
func CapiPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*capi.Enricher, error) {
		// Generated browser IDs use a random digit tail, like the pixel does
		generate, err := nanoid.CustomASCII("0123456789", 10)
		if err != nil {
			return nil, err
		}

		return capi.NewEnricher(generate), nil
	})

	do.Provide(injector, func(i *do.Injector) (*capi.CredentialResolver, error) {
		options := do.MustInvoke[*Options](i)
		static := capi.Credentials{
			PixelID:       options.PixelID,
			AccessToken:   options.AccessToken,
			TestEventCode: options.TestEventCode,
		}

		return capi.NewCredentialResolver(static, do.MustInvoke[settings.Store](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*capi.Forwarder, error) {
		options := do.MustInvoke[*Options](i)
		timeout := time.Duration(options.ForwardTimeoutSeconds) * time.Second

		return capi.NewForwarder(
			options.GraphBaseURL,
			options.GraphVersion,
			timeout,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherGroupPackage provides the delivery event publisher over Redis
// Streams, plus the typed publish function used by the events handler.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: do.MustInvoke[*redis.Client](i),
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.EventDelivered], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.EventDelivered](
			group.Publisher(),
			analytics.TopicEventDelivered,
		), nil
	})
}

// ConsumerGroupPackage provides the consumer group that persists delivery
// events to the delivery log.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)
		if options.PostgresDSN == "" {
			return analyticsstore.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
		}

		return analyticsstore.NewPostgres(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*redis.Client](i),
			ConsumerGroup: "delivery-log",
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		deliveryStore := do.MustInvoke[analytics.Store](i)

		consumer := messaging.NewConsumer(
			subscriber,
			analytics.TopicEventDelivered,
			func(ctx context.Context, event *analytics.EventDelivered) error {
				return deliveryStore.SaveDelivery(ctx, event)
			},
			logger,
		)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(consumer)

		return group, nil
	})
}

// HTTPPackage provides the router and the API with all routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		api := humachi.New(router, huma.DefaultConfig("Conversions Relay", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i)))

		events := handlers.NewEventsHandler(
			do.MustInvoke[*capi.Enricher](i),
			do.MustInvoke[*dedup.Gate](i),
			do.MustInvoke[*capi.CredentialResolver](i),
			do.MustInvoke[*capi.Forwarder](i),
			do.MustInvoke[messaging.Publish[analytics.EventDelivered]](i),
			do.MustInvoke[*zap.Logger](i),
		)
		handlers.RegisterRoutes(api, events)

		var postgresChecker health.Checker
		if options.PostgresDSN != "" {
			postgresChecker = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
		}

		redisChecker := health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
		health.RegisterRoutes(api, health.NewHandler(redisChecker, postgresChecker))

		return api, nil
	})
}
