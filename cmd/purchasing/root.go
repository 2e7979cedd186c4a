package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/erp/purchasing/internal/infrastructure/config"
	"github.com/erp/purchasing/internal/infrastructure/event"
	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/infrastructure/persistence"
	"github.com/erp/purchasing/internal/infrastructure/storage"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	logLevel      string
	migrationsDir string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "purchasing",
		Short:        "Multi-tenant purchase order lifecycle and audit",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCommand(opts),
		newTenantCommand(opts),
		newOrderCommand(opts),
		newItemCommand(opts),
		newAttachmentCommand(opts),
	)
	return root
}

// runtime is everything a data command needs, built once per invocation
type runtime struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *persistence.Database
	bus       *event.InMemoryEventBus
	providers *telemetry.Providers

	tenants     *purchasingapp.TenantService
	orders      *purchasingapp.PurchaseOrderService
	receptions  *purchasingapp.ReceptionService
	attachments *purchasingapp.AttachmentService
	history     *purchasingapp.HistoryService
}

func loadConfigAndLogger(opts *globalOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log.With(zap.String("env", cfg.App.Env)), nil
}

func bootstrap(ctx context.Context, opts *globalOptions) (*runtime, error) {
	cfg, log, err := loadConfigAndLogger(opts)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}

	rt.providers, err = telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	rt.db, err = persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		rt.Close()
		return nil, err
	}
	if err := telemetry.RegisterDBTracing(rt.db.DB, cfg.Telemetry, log); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	metrics, err := telemetry.NewLifecycleMetrics(otel.GetMeterProvider().Meter(telemetry.MeterName))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create lifecycle metrics: %w", err)
	}

	rt.bus = event.NewInMemoryEventBus(log)
	rt.bus.Subscribe(event.NewAuditLogHandler(log))
	if err := rt.bus.Start(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	resolver, err := newURLResolver(ctx, cfg, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	db := rt.db.DB
	orderRepo := persistence.NewGormPurchaseOrderRepository(db)
	attachmentRepo := persistence.NewGormAttachmentRepository(db)
	guard := purchasingapp.NewTenantGuard(persistence.NewGormOwnershipReader(db))

	rt.tenants = purchasingapp.NewTenantService(persistence.NewGormTenantRepository(db))
	rt.orders = purchasingapp.NewPurchaseOrderService(orderRepo, guard)
	rt.receptions = purchasingapp.NewReceptionService(persistence.NewGormLineItemRepository(db), orderRepo, guard)
	rt.attachments = purchasingapp.NewAttachmentService(attachmentRepo, guard)
	rt.attachments.SetURLResolver(resolver)
	rt.history = purchasingapp.NewHistoryService(orderRepo, persistence.NewGormStatusHistoryRepository(db), attachmentRepo, guard)

	rt.tenants.SetEventPublisher(rt.bus)
	rt.orders.SetEventPublisher(rt.bus)
	rt.orders.SetLifecycleMetrics(metrics)
	rt.receptions.SetEventPublisher(rt.bus)
	rt.receptions.SetLifecycleMetrics(metrics)
	rt.attachments.SetEventPublisher(rt.bus)
	rt.attachments.SetLifecycleMetrics(metrics)

	return rt, nil
}

// newURLResolver presigns against S3 when storage is enabled and falls back
// to the stub resolver otherwise.
func newURLResolver(ctx context.Context, cfg *config.Config, log *zap.Logger) (purchasingapp.DownloadURLResolver, error) {
	if !cfg.Storage.Enabled {
		return storage.NewStubURLResolver(), nil
	}
	resolver, err := storage.NewS3URLResolver(ctx, &cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiry(cfg.Storage.PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage resolver: %w", err)
	}
	log.Debug("Attachment storage enabled", zap.String("bucket", resolver.Bucket()))
	return resolver, nil
}

// Close stops the bus, flushes telemetry and closes the database
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if rt.bus != nil {
		if err := rt.bus.Stop(ctx); err != nil {
			rt.log.Warn("Event bus did not stop cleanly", zap.Error(err))
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.log.Warn("Failed to close database", zap.Error(err))
		}
	}
	if rt.providers != nil {
		if err := rt.providers.Shutdown(ctx); err != nil {
			rt.log.Warn("Failed to shut down telemetry", zap.Error(err))
		}
	}
	_ = logger.Sync(rt.log)
}

// withRuntime adapts a data command body into a cobra RunE
func withRuntime(opts *globalOptions, fn func(ctx context.Context, cmd *cobra.Command, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := bootstrap(ctx, opts)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx = logger.WithRequestID(logger.WithContext(ctx, rt.log), uuid.NewString())
		return fn(ctx, cmd, rt)
	}
}

// scopeFlags holds --tenant and --actor
type scopeFlags struct {
	tenant string
	actor  string
}

func (s *scopeFlags) register(cmd *cobra.Command, withActor bool) {
	cmd.Flags().StringVar(&s.tenant, "tenant", "", "Tenant ID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	if withActor {
		cmd.Flags().StringVar(&s.actor, "actor", "", "Acting user ID (required)")
		_ = cmd.MarkFlagRequired("actor")
	}
}

func (s *scopeFlags) tenantID() (uuid.UUID, error) {
	return parseID("tenant", s.tenant)
}

func (s *scopeFlags) actorID() (uuid.UUID, error) {
	return parseID("actor", s.actor)
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", name, raw, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
