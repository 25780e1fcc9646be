package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cogniq/billing/internal/handler"
	"github.com/cogniq/billing/internal/storage/postgres"
	"github.com/cogniq/billing/pkg/config"
	"github.com/cogniq/billing/pkg/correlation"
	"github.com/cogniq/billing/pkg/httpserver"
	"github.com/cogniq/billing/pkg/invoice"
	"github.com/cogniq/billing/pkg/ledger"
	"github.com/cogniq/billing/pkg/logger"
	"github.com/cogniq/billing/pkg/notification"
	"github.com/cogniq/billing/pkg/payment"
	"github.com/cogniq/billing/pkg/pg"
	"github.com/cogniq/billing/pkg/plan"
	"github.com/cogniq/billing/pkg/ratelimit"
	"github.com/cogniq/billing/pkg/redis"
	"github.com/cogniq/billing/pkg/subscription"
	"github.com/cogniq/billing/pkg/usage"
	"github.com/cogniq/billing/pkg/userdir"
	"github.com/cogniq/billing/pkg/webhook"
)

type appConfig struct {
	HTTP  httpserver.Config
	PG    pg.Config
	Redis redis.Config

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`

	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://app.cogniq.ai/billing/success"`
	CheckoutCancelURL  string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://app.cogniq.ai/billing/plans"`

	// Sibling services; notifications stay disabled when either URL is
	// unset.
	AuthServiceURL         string `env:"AUTH_SERVICE_URL"`
	NotificationServiceURL string `env:"NOTIFICATION_SERVICE_URL"`

	WebhookEventTTL    time.Duration `env:"WEBHOOK_EVENT_TTL" envDefault:"72h"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(parseLogLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithAttr(slog.String("service", "billingd")),
		logger.WithContextExtractors(correlation.LoggerExtractor()),
	)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("billingd exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	catalog, err := plan.NewCatalog(ctx, postgres.NewPlanSource(pool))
	if err != nil {
		return fmt.Errorf("load plan catalog: %w", err)
	}

	limiter, err := ratelimit.NewSlidingWindow(ratelimit.NewMemoryStore(), cfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}

	h := buildHandler(cfg, log, pool, redisClient, catalog, limiter)

	root := chi.NewRouter()
	root.Handle("/metrics", promhttp.Handler())
	root.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	root.Mount("/", h.Routes())

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.InfoContext(ctx, "billingd listening", slog.String("addr", cfg.HTTP.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.InfoContext(ctx, "billingd stopped")
		}),
	)
	return srv.Run(ctx, root)
}

func buildHandler(cfg appConfig, log *slog.Logger, pool *pgxpool.Pool, redisClient *goredis.Client, catalog *plan.Catalog, limiter ratelimit.Limiter) *handler.Handler {
	ledgerSvc := ledger.NewService(postgres.NewLedgerStore(pool), ledger.WithLogger(log))
	subsSvc := subscription.NewService(postgres.NewSubscriptionStore(pool), catalog, ledgerSvc, subscription.WithLogger(log))
	invoiceSvc := invoice.NewService(postgres.NewInvoiceStore(pool), invoice.WithLogger(log))
	usageSvc := usage.NewService(postgres.NewUsageStore(pool), catalog, subsSvc, usage.WithLogger(log))

	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	gateway := payment.NewGateway(provider, catalog,
		payment.WithRedirectURLs(cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL),
		payment.WithGatewayLogger(log),
	)

	procOpts := []webhook.ProcessorOption{
		webhook.WithProcessorLogger(log),
		webhook.WithUnitOfWork(postgres.NewUnitOfWork(pool)),
		webhook.WithInvoiceMirror(invoiceSvc),
	}
	if cfg.NotificationServiceURL != "" && cfg.AuthServiceURL != "" {
		procOpts = append(procOpts, webhook.WithNotifier(
			notification.NewHTTPSender(cfg.NotificationServiceURL, notification.WithLogger(log)),
			userdir.NewClient(cfg.AuthServiceURL, userdir.WithClientLogger(log)),
		))
	}
	processor := webhook.NewProcessor(gateway, subsSvc,
		webhook.NewRedisIdempotencyStore(redisClient, cfg.WebhookEventTTL),
		procOpts...,
	)

	return handler.New(ledgerSvc, subsSvc, gateway, processor, catalog, invoiceSvc, usageSvc,
		handler.WithLogger(log),
		handler.WithRateLimiter(limiter),
	)
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
