// Package app wires configuration, persistence, the transfer ledger and the
// core services shared by the server and the cronjob binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"rentstock-backend/internal/config"
	"rentstock-backend/internal/ledger"
	ledgerpg "rentstock-backend/internal/ledger/postgres"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository/postgres"
	"rentstock-backend/internal/security"
	"rentstock-backend/internal/service"
)

// Container holds the wired components
type Container struct {
	Config *config.Config
	DB     *sql.DB
	Store  *postgres.Store
	Ledger ledger.Ledger

	Org       service.OrganizationService
	Registry  service.WarehouseRegistry
	Calendar  service.PeriodCalendar
	Detector  service.FailedTransferDetector
	Projector service.AvailabilityProjector
	Locks     service.TransferLocks
	Shortfall service.ShortfallReporter
}

// ResolveSecrets replaces sm:// references in cfg through Secret Manager
func ResolveSecrets(ctx context.Context, cfg *config.Config) error {
	if !cfg.HasSecretRefs() {
		return nil
	}
	resolver, err := config.NewGCPSecretResolver(ctx)
	if err != nil {
		return err
	}
	defer resolver.Close()
	return cfg.ResolveSecrets(ctx, resolver)
}

// New opens the database and builds every service
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := postgres.Open(cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	c := &Container{
		Config: cfg,
		DB:     db,
		Store:  postgres.NewStore(db),
		Ledger: ledgerpg.NewLedger(db),
	}

	notifier, err := newNotifier(ctx, cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	guard := security.NewUnlockGuard(cfg.Security.UnlockPasswordHash)
	if cfg.Security.UnlockPasswordHash == "" {
		logger.Warn("No unlock password configured, confirmed periods and locked movements cannot be unlocked")
	}

	c.Org = service.NewOrganizationService(c.Store.OrganizationRepository, cfg.Location())
	c.Registry = service.NewWarehouseRegistry(c.Store.LocationRepository, log)
	c.Calendar = service.NewPeriodCalendar(
		c.Store.PeriodRepository,
		c.Store.OrganizationRepository,
		c.Store.AuditRepository,
		c.Ledger,
		guard,
		service.CalendarDefaults{
			Location:        cfg.Location(),
			MinimalDuration: cfg.Calendar.DefaultMinimalDuration,
		},
		log,
	)
	c.Detector = service.NewFailedTransferDetector(c.Ledger, cfg.Reconciliation.GracePeriod, log)
	c.Projector = service.NewAvailabilityProjector(c.Ledger, c.Registry, c.Detector, log)
	c.Locks = service.NewTransferLocks(c.Ledger, c.Store.AuditRepository, guard, log)
	c.Shortfall = service.NewShortfallReporter(c.Store.TaskRepository, notifier, cfg.Location(), log)
	return c, nil
}

// Close releases the database
func (c *Container) Close() error {
	return c.DB.Close()
}

// newNotifier enables every channel that is configured
func newNotifier(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.Notifier, error) {
	var channels []service.Notifier

	if cfg.SendGrid.APIKey != "" {
		logger.Info("SendGrid email notifications enabled", "from", cfg.SendGrid.From)
		channels = append(channels, service.NewSendGridNotifier(
			cfg.SendGrid.APIKey,
			cfg.SendGrid.From,
			cfg.SendGrid.FromName,
			cfg.SendGrid.OperatorEmails,
		))
	}

	if cfg.Firebase.Topic != "" {
		var opts []option.ClientOption
		if cfg.Firebase.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		}
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
		}
		client, err := fbApp.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
		}
		logger.Info("FCM push notifications enabled", "project_id", cfg.Firebase.ProjectID, "topic", cfg.Firebase.Topic)
		channels = append(channels, service.NewPushNotifier(client, cfg.Firebase.Topic))
	}

	return service.NewMultiNotifier(log, channels...), nil
}
