package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"utility-billing/internal/audit"
	circulationmetering "utility-billing/internal/circulation/adapters/metering"
	circulationapp "utility-billing/internal/circulation/application"
	circulation "utility-billing/internal/circulation/domain"
	"utility-billing/internal/circulation/infrastructure/cache"
	"utility-billing/internal/config"
	"utility-billing/internal/formula"
	invoicingapp "utility-billing/internal/invoicing/application"
	invoicerepo "utility-billing/internal/invoicing/infrastructure/postgres"
	"utility-billing/internal/logging"
	meteringrepo "utility-billing/internal/metering/infrastructure/postgres"
	"utility-billing/internal/observability/metrics"
	propertyrepo "utility-billing/internal/property/infrastructure/postgres"
	tariffapp "utility-billing/internal/tariff/application"
	tariffrepo "utility-billing/internal/tariff/infrastructure/postgres"
)

var (
	cfgFile string
	actor   string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "billing",
		Short:         "Utility billing calculation engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (defaults to $BILLING_CONFIG)")
	root.PersistentFlags().StringVar(&actor, "actor", "cli", "actor recorded in audit entries")

	root.AddCommand(newServeCmd())
	root.AddCommand(newInvoiceCmd())
	root.AddCommand(newGyvatukasCmd())
	root.AddCommand(newTariffCmd())
	root.AddCommand(newFormulaCmd())
	return root
}

func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// app wires the billing engine against Postgres and the configured cache.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client

	resolver    *tariffapp.Resolver
	calculator  *circulationapp.Calculator
	cached      *circulationapp.CachedCalculator
	summerAvg   *circulationapp.SummerAverageService
	generator   *invoicingapp.Generator
	invoices    *invoicingapp.Service
	properties  *propertyrepo.Repository
	circulation circulationapp.CirculationCalculator
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	metrics.Init(db, logger)

	a := &app{cfg: cfg, logger: logger, db: db}
	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg
	auditRepo := audit.NewRepository(a.db)
	tariffs := tariffrepo.NewRepository(a.db, tariffrepo.WithLogger(a.logger))
	meters := meteringrepo.NewRepository(a.db)
	a.properties = propertyrepo.NewRepository(a.db)

	resolver, err := tariffapp.NewResolver(tariffs,
		tariffapp.WithRegistry(tariffapp.DefaultRegistry(formula.New())),
		tariffapp.WithLogger(a.logger),
		tariffapp.WithStrictTypes(cfg.Billing.StrictTariffTypes))
	if err != nil {
		return err
	}
	a.resolver = resolver

	consumption, err := circulationmetering.NewConsumptionReader(meters, meters)
	if err != nil {
		return err
	}
	calc, err := circulationapp.NewCalculator(a.properties, consumption, circulationConfig(cfg.Gyvatukas),
		circulationapp.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.calculator = calc
	a.circulation = calc

	var clearer circulationapp.CacheClearer
	if store := a.cacheStore(); store != nil {
		cached, err := circulationapp.NewCachedCalculator(calc, store, a.logger)
		if err != nil {
			return err
		}
		a.cached = cached
		a.circulation = cached
		clearer = cached
	}
	a.summerAvg, err = circulationapp.NewSummerAverageService(calc, a.properties, clearer, a.logger,
		circulationapp.WithSummerAverageAudit(auditRepo, actor))
	if err != nil {
		return err
	}

	a.generator, err = invoicingapp.NewGenerator(a.properties, meters, meters, tariffs, resolver,
		invoicerepo.NewInvoiceRepository(a.db),
		invoicingapp.Config{
			WaterSupplyRate:    cfg.Billing.WaterSupplyRate,
			WaterSewageRate:    cfg.Billing.WaterSewageRate,
			WaterFixedFee:      cfg.Billing.WaterFixedFee,
			DueDays:            cfg.Billing.DueDays,
			DistributionMethod: circulation.DistributionMethod(cfg.Billing.DistributionMethod),
		},
		invoicingapp.WithLogger(a.logger),
		invoicingapp.WithCirculation(a.circulation),
		invoicingapp.WithAuditLogger(auditRepo, actor))
	if err != nil {
		return err
	}
	a.invoices, err = invoicingapp.NewService(invoicerepo.NewInvoiceRepository(a.db),
		invoicingapp.WithServiceLogger(a.logger),
		invoicingapp.WithServiceAudit(auditRepo, actor))
	return err
}

func (a *app) cacheStore() cache.Cache {
	switch a.cfg.Gyvatukas.CacheBackend {
	case config.CacheBackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		return cache.NewRedis(a.redis)
	case config.CacheBackendMemory:
		return cache.NewMemory()
	default:
		return nil
	}
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}

func circulationConfig(g config.GyvatukasConfig) circulationapp.Config {
	return circulationapp.Config{
		HeatingSeasonStartMonth:   g.HeatingSeasonStartMonth,
		HeatingSeasonEndMonth:     g.HeatingSeasonEndMonth,
		WaterSpecificHeat:         g.WaterSpecificHeat,
		TemperatureDelta:          g.TemperatureDelta,
		PeakWinterMonths:          g.PeakWinterMonths,
		PeakWinterAdjustment:      g.PeakWinterAdjustment,
		MaxApartments:             g.MaxApartments,
		CacheTTL:                  g.CacheTTL,
		DefaultDistributionMethod: circulation.DistributionMethod(g.DefaultDistributionMethod),
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose /metrics and /healthz",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				if err := a.db.PingContext(r.Context()); err != nil {
					http.Error(w, "db unavailable", http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})

			server := &http.Server{Addr: a.cfg.HTTPAddr, Handler: loggingMiddleware(mux, a.logger)}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", zap.String("addr", a.cfg.HTTPAddr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (r *statusWriter) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
