package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/upb/crm-control-plane/auth"
	"github.com/upb/crm-control-plane/config"
	"github.com/upb/crm-control-plane/handlers"
	"github.com/upb/crm-control-plane/middleware"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/repositories/postgres"
	"github.com/upb/crm-control-plane/services/audit"
	"github.com/upb/crm-control-plane/services/crm"
	"github.com/upb/crm-control-plane/services/policy"
	"go.uber.org/zap"
)

const defaultAuditDrainTimeout = 10 * time.Second

// Dependencies holds everything the HTTP layer needs. It is the single wiring
// point of the service.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Authorization and audit
	Policy *policy.Engine
	Audit  *audit.AuditService

	// Business services
	Services *crm.Services

	// Auth
	TokenIssuer          *auth.Issuer
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware

	Handlers Handlers

	closeOnce sync.Once
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health    *handlers.HealthHandler
	Session   *auth.Handler
	Audit     *handlers.AuditHandler
	Clients   *handlers.ClientHandler
	Contracts *handlers.ContractHandler
	Events    *handlers.EventHandler
}

// NewDependencies connects to PostgreSQL and wires the application on top of it
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires the application around an existing
// repository factory. The audit workers are started before it returns.
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		logger.Info("database schema initialized")
	}

	deps.Repos = factory.NewRepositories()
	deps.TxManager = factory.GetTransactionManager()

	if err := deps.initPolicy(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	if err := deps.initAudit(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit service: %w", err)
	}

	deps.Services = crm.NewServices(deps.Repos, deps.TxManager, deps.Policy, deps.Audit, logger)
	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initPolicy(cfg *config.Config) error {
	var (
		matrix *policy.Matrix
		err    error
	)
	if cfg.Authz.FromFiles() {
		matrix, err = policy.NewMatrixFromFiles(cfg.Authz.ModelPath, cfg.Authz.PolicyPath)
		d.Logger.Info("loading capability matrix from files",
			zap.String("model", cfg.Authz.ModelPath),
			zap.String("policy", cfg.Authz.PolicyPath))
	} else {
		matrix, err = policy.NewDefaultMatrix()
	}
	if err != nil {
		return err
	}

	d.Policy = policy.NewEngine(matrix, d.Repos.Clients, d.Repos.Contracts, d.Logger)
	return nil
}

func (d *Dependencies) initAudit(cfg *config.Config) error {
	d.Audit = audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.WorkerCount,
	})
	return d.Audit.Start()
}

func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.TokenIssuer = auth.NewIssuer(cfg.Auth)
	d.AuthMiddleware = middleware.NewAuthMiddleware(auth.NewValidator(cfg.Auth), d.Repos.Users, d.Logger)
	d.PermissionMiddleware = middleware.NewPermissionMiddleware(d.Audit, d.Logger)

	d.Handlers = Handlers{
		Health:    handlers.NewHealthHandler(d.DB.DB, d.Audit, d.Logger),
		Session:   auth.NewHandler(d.TokenIssuer, currentUser, cfg.Server.TLS.Enabled, d.Logger),
		Audit:     handlers.NewAuditHandler(d.Audit, d.Logger),
		Clients:   handlers.NewClientHandler(d.Services.Clients, d.Logger),
		Contracts: handlers.NewContractHandler(d.Services.Contracts, d.Logger),
		Events:    handlers.NewEventHandler(d.Services.Events, d.Logger),
	}
}

func currentUser(r *http.Request) *models.User {
	return middleware.GetUserFromContext(r.Context())
}

// Close drains the audit queue and closes the database. Calls after the first are no-ops.
func (d *Dependencies) Close(ctx context.Context) error {
	var err error
	d.closeOnce.Do(func() {
		err = d.close(ctx)
	})
	return err
}

func (d *Dependencies) close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		timeout := d.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultAuditDrainTimeout
		}
		if deadline, ok := ctx.Deadline(); ok {
			timeout = min(timeout, time.Until(deadline))
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
