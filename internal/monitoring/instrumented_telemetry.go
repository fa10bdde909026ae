package monitoring

import (
	"context"
	"time"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/telemetry"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/utils/webhook"
)

const (
	JobTransactionReconciliation = "transaction_reconciliation"
	JobWalletBalanceRefresh      = "wallet_balance_refresh"
	JobPriceRefresh              = "price_refresh"

	defaultJobTimeout = 2 * time.Minute
)

// CriticalJobs are the jobs whose repeated failure makes the service unhealthy.
var CriticalJobs = []string{JobTransactionReconciliation}

// InstrumentedTelemetry wraps reconciliation with job monitoring, the pending gauge and the uptime heartbeat.
type InstrumentedTelemetry struct {
	baseTelemetry telemetry.ITelemetry
	statusManager *JobStatusManager
	metrics       *BackgroundJobMetrics
	business      *BusinessMetricsRecorder
	logger        *logger.Logger
	webhookClient *webhook.Client
	webhookURL    string
	timeout       time.Duration
}

var _ telemetry.ITelemetry = (*InstrumentedTelemetry)(nil)

func NewInstrumentedTelemetry(
	baseTelemetry telemetry.ITelemetry,
	statusManager *JobStatusManager,
	metrics *BackgroundJobMetrics,
	business *BusinessMetricsRecorder,
	logger *logger.Logger,
	config *config.AppConfig,
) *InstrumentedTelemetry {
	return &InstrumentedTelemetry{
		baseTelemetry: baseTelemetry,
		statusManager: statusManager,
		metrics:       metrics,
		business:      business,
		logger:        logger,
		webhookClient: webhook.New(logger),
		webhookURL:    config.Monitoring.UptimeWebhookURL,
		timeout:       jobTimeout(config),
	}
}

func jobTimeout(cfg *config.AppConfig) time.Duration {
	if cfg.Monitoring.JobTimeout > 0 {
		return cfg.Monitoring.JobTimeout
	}
	return defaultJobTimeout
}

// ReconcilePendingTransactions runs one monitored reconciliation pass.
func (it *InstrumentedTelemetry) ReconcilePendingTransactions(ctx context.Context) (*telemetry.ReconcileResult, error) {
	var result *telemetry.ReconcileResult

	job := NewInstrumentedJob(JobTransactionReconciliation, func(ctx context.Context) error {
		res, err := it.baseTelemetry.ReconcilePendingTransactions(ctx)
		if err != nil {
			return err
		}
		result = res
		it.record(res)
		return nil
	}, it.statusManager, it.logger, it.timeout).WithHeartbeat(it.webhookClient, it.webhookURL)

	if err := job.Execute(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (it *InstrumentedTelemetry) record(res *telemetry.ReconcileResult) {
	if res == nil || res.Skipped {
		return
	}
	if res.Pending != nil {
		it.metrics.SetPendingTransactions(res.Pending)
	}
	if it.business != nil {
		it.business.RecordReconciliation("all", string(model.TransactionStatusConfirmed), res.Confirmed)
		it.business.RecordReconciliation("all", string(model.TransactionStatusFailed), res.Failed)
		it.business.RecordReconciliation("all", "expired", res.Expired)
		it.business.RecordReconciliation("all", "error", res.Errors)
	}
}

// Run is the cron entry point.
func (it *InstrumentedTelemetry) Run() {
	_, _ = it.ReconcilePendingTransactions(context.Background())
}

// ReconcileTransaction delegates to the base telemetry without instrumentation
func (it *InstrumentedTelemetry) ReconcileTransaction(ctx context.Context, chain model.Chain, txHash string) (*model.TransactionRecord, error) {
	return it.baseTelemetry.ReconcileTransaction(ctx, chain, txHash)
}

// NewRefreshJob wraps a periodic refresh (balances, prices) as a monitored job.
func NewRefreshJob(name string, refresh func(ctx context.Context) error, statusManager *JobStatusManager, logger *logger.Logger, config *config.AppConfig) *InstrumentedJob {
	return NewInstrumentedJob(name, refresh, statusManager, logger, jobTimeout(config))
}
