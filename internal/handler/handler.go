package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	authService "github.com/dwarvesf/walletpay-backend/internal/auth"
	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/handler/admin"
	"github.com/dwarvesf/walletpay-backend/internal/handler/auth"
	"github.com/dwarvesf/walletpay-backend/internal/handler/fee"
	"github.com/dwarvesf/walletpay-backend/internal/handler/health"
	"github.com/dwarvesf/walletpay-backend/internal/handler/metrics"
	"github.com/dwarvesf/walletpay-backend/internal/handler/price"
	"github.com/dwarvesf/walletpay-backend/internal/handler/token"
	"github.com/dwarvesf/walletpay-backend/internal/handler/transaction"
	"github.com/dwarvesf/walletpay-backend/internal/handler/wallet"
	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
	oracleService "github.com/dwarvesf/walletpay-backend/internal/oracle"
	"github.com/dwarvesf/walletpay-backend/internal/telemetry"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	walletService "github.com/dwarvesf/walletpay-backend/internal/wallet"
)

type Handler struct {
	AuthHandler        auth.IHandler
	WalletHandler      wallet.IHandler
	TransactionHandler transaction.IHandler
	TokenHandler       token.IHandler
	PriceHandler       price.IHandler
	FeeHandler         fee.IHandler
	AdminHandler       admin.IHandler
	HealthHandler      health.IHealthHandler
	MetricsHandler     *metrics.MetricsHandler
}

// Services is everything the HTTP layer calls into.
type Services struct {
	DB               *gorm.DB
	Controller       controller.IController
	Telemetry        telemetry.ITelemetry
	Wallets          walletService.IManager
	Tokens           token.Registry
	Oracle           oracleService.IOracle
	TokenIssuer      authService.ITokenIssuer
	ChainProbes      []health.ChainProbe
	JobStatusManager *monitoring.JobStatusManager
	MetricsRegistry  *prometheus.Registry
	MetricsRecorder  *monitoring.BusinessMetricsRecorder
}

func New(appConfig *config.AppConfig, logger *logger.Logger, svc Services) *Handler {
	return &Handler{
		AuthHandler:        auth.New(svc.TokenIssuer, logger),
		WalletHandler:      wallet.New(svc.Wallets, logger, svc.MetricsRecorder),
		TransactionHandler: transaction.NewTransactionHandler(svc.Controller, svc.Telemetry, logger, svc.MetricsRecorder),
		TokenHandler:       token.New(svc.Tokens, logger),
		PriceHandler:       price.New(svc.Oracle, logger, svc.MetricsRecorder),
		FeeHandler:         fee.New(svc.Controller, logger),
		AdminHandler:       admin.New(svc.Controller, logger),
		HealthHandler:      health.New(appConfig, logger, svc.DB, svc.ChainProbes, svc.Oracle, svc.JobStatusManager),
		MetricsHandler:     metrics.NewMetricsHandler(svc.MetricsRegistry, logger),
	}
}
