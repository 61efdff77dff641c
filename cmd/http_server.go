package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/group-expenses/api"
	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/activity"
	activityAMQP "github.com/frahmantamala/group-expenses/internal/activity/amqp"
	activityPostgres "github.com/frahmantamala/group-expenses/internal/activity/postgres"
	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/category"
	categoryPostgres "github.com/frahmantamala/group-expenses/internal/category/postgres"
	"github.com/frahmantamala/group-expenses/internal/core/database"
	"github.com/frahmantamala/group-expenses/internal/core/events"
	"github.com/frahmantamala/group-expenses/internal/currency"
	"github.com/frahmantamala/group-expenses/internal/expense"
	expensePostgres "github.com/frahmantamala/group-expenses/internal/expense/postgres"
	groupPostgres "github.com/frahmantamala/group-expenses/internal/group/postgres"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/payment"
	"github.com/frahmantamala/group-expenses/internal/paymentgateway"
	"github.com/frahmantamala/group-expenses/internal/paymentmethod"
	paymentMethodPostgres "github.com/frahmantamala/group-expenses/internal/paymentmethod/postgres"
	"github.com/frahmantamala/group-expenses/internal/transaction"
	transactionPostgres "github.com/frahmantamala/group-expenses/internal/transaction/postgres"
	"github.com/frahmantamala/group-expenses/internal/transport/rest"
	"github.com/frahmantamala/group-expenses/internal/user"
	userPostgres "github.com/frahmantamala/group-expenses/internal/user/postgres"
	"github.com/frahmantamala/group-expenses/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Broker *activityAMQP.Client
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func (d *Dependencies) Close() {
	if d.Broker != nil {
		if err := d.Broker.Close(); err != nil {
			d.Logger.Error("Broker close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func startHTTPServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	cfg := deps.Config.Server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down HTTP server")

		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// in-flight activity events must reach the broker before it closes
		return deps.Bus.Drain(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := bootstrap()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := api.Load(ctx); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gdb,
		Router: chi.NewRouter(),
		Logger: lg,
	}

	bus := events.NewEventBus(lg)
	deps.Bus = bus
	if config.Messaging.Enabled {
		broker, err := activityAMQP.NewClient(config.Messaging.URL, config.Messaging.Exchange, config.Messaging.Queue, lg)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		deps.Broker = broker
		bus.SubscribeAll(broker.HandleEvent)
	}

	converter, err := currency.NewConverter(config.Currency.Base, config.Currency.Rates)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to build currency converter: %w", err)
	}

	pageCfg := pagination.Config{PerPage: config.Pagination.PerPage, MaxPerPage: config.Pagination.MaxPerPage}
	baseURL := config.Server.BaseURL
	transactor := database.NewTransactor(gdb)

	userRepo := userPostgres.NewUserRepository(gdb)
	groupRepo := groupPostgres.NewGroupRepository(db)
	expenseRepo := expensePostgres.NewExpenseRepository(gdb)
	transactionRepo := transactionPostgres.NewTransactionRepository(gdb)
	methodRepo := paymentMethodPostgres.NewPaymentMethodRepository(gdb)
	activityRepo := activityPostgres.NewActivityRepository(gdb)

	gateway := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:       config.Payment.PaypalBaseURL,
		ApplicationID: config.Payment.ApplicationID,
		ClientID:      config.Payment.ClientID,
		ClientSecret:  config.Payment.ClientSecret,
		TokenURL:      config.Payment.TokenURL,
		ReturnURL:     config.Payment.ReturnURL,
		CancelURL:     config.Payment.CancelURL,
		Timeout:       config.Payment.Timeout,
	}, lg)

	recorder := activity.NewRecorder(activityRepo, bus, lg)
	ledger := transaction.NewLedger(transactionRepo, converter, transactor, recorder, lg)
	funds := payment.NewFundsChecker(gateway, methodRepo, converter, lg)
	dispatcher := payment.NewDispatcher(gateway, methodRepo, ledger, payment.DispatcherConfig{
		EnforceManualBalance: config.Expenses.EnforceManualBalance,
	}, lg)

	authService := auth.NewService(
		userRepo,
		auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.ApplicationID, config.Security.AccessTokenDuration, config.Security.RefreshTokenDuration),
		config.Security.BCryptCost,
		lg,
	)
	expenseService := expense.NewService(expenseRepo, groupRepo, userRepo, transactor, funds, dispatcher, converter, recorder, lg)

	components := map[string]rest.Pinger{"postgres": db}
	if deps.Broker != nil {
		components["amqp"] = deps.Broker
	}

	handlers := rest.Handlers{
		Health:        rest.NewHealthHandler(components),
		Auth:          auth.NewHandler(authService),
		User:          user.NewHandler(user.NewService(userRepo)),
		Expense:       expense.NewHandler(expenseService, baseURL, pageCfg),
		Transaction:   transaction.NewHandler(ledger, baseURL, pageCfg),
		Activity:      activity.NewHandler(activity.NewService(activityRepo), baseURL, pageCfg),
		Category:      category.NewHandler(category.NewService(categoryPostgres.NewCategoryRepository(gdb), lg)),
		PaymentMethod: paymentmethod.NewHandler(paymentmethod.NewService(methodRepo, gateway, lg)),
	}

	opts := rest.Options{
		Identifier: authService,
		Groups:     groupRepo,
	}
	if config.Observability.Metrics.Enabled {
		opts.MetricsPath = config.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, handlers, opts, lg)
	return deps, nil
}

// initDB opens the pgx pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
