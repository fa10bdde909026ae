package server

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/walletpay-backend/internal/auth"
	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/events"
	"github.com/dwarvesf/walletpay-backend/internal/evmrpc"
	"github.com/dwarvesf/walletpay-backend/internal/handler"
	"github.com/dwarvesf/walletpay-backend/internal/handler/health"
	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
	"github.com/dwarvesf/walletpay-backend/internal/oracle"
	"github.com/dwarvesf/walletpay-backend/internal/solanarpc"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	pgstore "github.com/dwarvesf/walletpay-backend/internal/store/postgres"
	"github.com/dwarvesf/walletpay-backend/internal/telemetry"
	"github.com/dwarvesf/walletpay-backend/internal/tokenregistry"
	"github.com/dwarvesf/walletpay-backend/internal/transport/http"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/utils/vault"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

const shutdownTimeout = 15 * time.Second

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := pgstore.New(appConfig, logger)
	s := store.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)
	businessMetrics := monitoring.NewBusinessMetricsRecorder(httpMetrics)

	evmRpc, err := evmrpc.New(appConfig.Ethereum, logger)
	if err != nil {
		logger.Error("[server.Init][evmrpc.New] failed to init evm rpc", map[string]string{
			"error": err.Error(),
		})
		return
	}
	solanaRpc := solanarpc.New(appConfig.Solana, logger)

	breakers, err := monitoring.WrapAdapters(
		[]wallet.ChainAdapter{evmRpc, solanaRpc},
		func(service string) (monitoring.CircuitBreakerConfig, monitoring.TimeoutConfig) {
			return monitoring.BreakerSettingsFromConfig(service, appConfig.Monitoring)
		},
		apiMetrics,
		logger,
	)
	if err != nil {
		logger.Error("[server.Init][WrapAdapters] invalid circuit breaker config", map[string]string{
			"error": err.Error(),
		})
		return
	}
	chainAdapters := make([]wallet.ChainAdapter, 0, len(breakers))
	probes := make([]health.ChainProbe, 0, len(breakers))
	for _, b := range breakers {
		chainAdapters = append(chainAdapters, b)
		probes = append(probes, b)
	}
	adapters := wallet.NewAdapters(chainAdapters...)

	tokens, err := tokenregistry.New(db, s.CustomToken, adapters, logger)
	if err != nil {
		logger.Error("[server.Init][tokenregistry.New] failed to load token registry", map[string]string{
			"error": err.Error(),
		})
		return
	}
	if n, err := tokens.LoadCustomTokens(ctx); err != nil {
		logger.Warn("[server.Init][LoadCustomTokens] custom tokens not loaded", map[string]string{
			"error": err.Error(),
		})
	} else {
		logger.Info("[server.Init] custom tokens loaded", map[string]string{"count": strconv.Itoa(n)})
	}

	publisher, err := events.New(appConfig.NATS, logger)
	if err != nil {
		logger.Warn("[server.Init][events.New] falling back to no-op publisher", map[string]string{
			"error": err.Error(),
		})
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	manager := wallet.NewManager(adapters, tokens, wallet.Options{
		RefreshAttempts: appConfig.Wallet.BalanceRefreshAttempts,
		RefreshDelay:    appConfig.Wallet.BalanceRefreshDelay,
	}, logger)

	priceOracle := oracle.New(appConfig, logger, businessMetrics)
	issuer := newTokenIssuer(ctx, appConfig, logger)

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics, appConfig.Monitoring.StalledJobThreshold)
	jobStatusManager.Start(ctx)

	baseTelemetry := telemetry.New(db, s, appConfig, logger, adapters, publisher)
	instrumentedTelemetry := monitoring.NewInstrumentedTelemetry(baseTelemetry, jobStatusManager, jobMetrics, businessMetrics, logger, appConfig)

	ctrl := controller.New(db, s, adapters, tokens, publisher, logger).WithMetrics(businessMetrics)

	c := cron.New()
	schedule := func(spec string, job cron.Job) {
		if _, err := c.AddJob(spec, job); err != nil {
			logger.Error("[server.Init][cron.AddJob] invalid schedule", map[string]string{
				"spec":  spec,
				"error": err.Error(),
			})
		}
	}
	schedule(appConfig.Reconcile.Period, instrumentedTelemetry)
	schedule(appConfig.Wallet.BalanceRefreshPeriod, monitoring.NewRefreshJob(monitoring.JobWalletBalanceRefresh, func(ctx context.Context) error {
		_, err := manager.RefreshAll(ctx)
		return err
	}, jobStatusManager, logger, appConfig))
	schedule(appConfig.Oracle.RefreshPeriod, monitoring.NewRefreshJob(monitoring.JobPriceRefresh, func(ctx context.Context) error {
		_, err := priceOracle.RefreshPrices(ctx)
		return err
	}, jobStatusManager, logger, appConfig))
	c.Start()
	defer c.Stop()

	h := handler.New(appConfig, logger, handler.Services{
		DB:               db,
		Controller:       ctrl,
		Telemetry:        instrumentedTelemetry,
		Wallets:          manager,
		Tokens:           tokens,
		Oracle:           priceOracle,
		TokenIssuer:      issuer,
		ChainProbes:      probes,
		JobStatusManager: jobStatusManager,
		MetricsRegistry:  registry,
		MetricsRecorder:  businessMetrics,
	})

	srv := &nethttp.Server{
		Addr:    ":" + appConfig.ApiServer.Port,
		Handler: http.NewHttpServer(appConfig, logger, h, httpMetrics),
	}

	go func() {
		logger.Info("[server.Init] listening", map[string]string{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Error("[server.Init][ListenAndServe]", map[string]string{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[server.Init] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("[server.Init][Shutdown]", map[string]string{"error": err.Error()})
	}
}

// newTokenIssuer reads the Firebase service account from Vault when VAULT_ADDR is set.
// It returns nil when no issuer can be built; anonymous sign-in then answers 500.
func newTokenIssuer(ctx context.Context, appConfig *config.AppConfig, logger *logger.Logger) auth.ITokenIssuer {
	var secrets vault.SecretReader
	if appConfig.Vault.Address != "" {
		vc, err := vault.New(appConfig.Vault.Address, appConfig.Vault.KVSecretPath, appConfig.Vault.Role)
		if err != nil {
			logger.Error("[newTokenIssuer][vault.New]", map[string]string{"error": err.Error()})
			return nil
		}
		secrets = vc
	}

	issuer, err := auth.NewFirebaseIssuer(ctx, appConfig.Firebase, secrets, logger)
	if err != nil {
		logger.Error("[newTokenIssuer][NewFirebaseIssuer]", map[string]string{"error": err.Error()})
		return nil
	}
	return issuer
}
