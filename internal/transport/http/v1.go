package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/handler"
	"github.com/dwarvesf/walletpay-backend/internal/handler/admin"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	r.GET("/healthz", h.HealthHandler.Basic)
	r.GET("/metrics", h.MetricsHandler.Handler())

	// anonymous sign-in, both paths are in use by clients
	r.POST("/auth-anon", h.AuthHandler.AnonymousToken)
	r.POST("/auth/anonymous", h.AuthHandler.AnonymousToken)

	v1 := r.Group("/api/v1")

	wallets := v1.Group("/wallets")
	{
		wallets.POST("/connect", h.WalletHandler.Connect)
		wallets.GET("/:session_id", h.WalletHandler.Get)
		wallets.POST("/:session_id/refresh", h.WalletHandler.Refresh)
		wallets.PUT("/:session_id/account", h.WalletHandler.ChangeAccount)
		wallets.PUT("/:session_id/chain", h.WalletHandler.ChangeChainRef)
		wallets.DELETE("/:session_id", h.WalletHandler.Disconnect)
		wallets.GET("/:session_id/tokens", h.WalletHandler.TokenBalances)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.POST("/prepare", h.TransactionHandler.Prepare)
		transactions.POST("/submit", h.TransactionHandler.Submit)
		transactions.POST("", h.TransactionHandler.Record)
		transactions.GET("", h.TransactionHandler.GetTransactions)
		transactions.GET("/:chain/:tx_hash", h.TransactionHandler.GetTransaction)
	}

	v1.GET("/chains", h.TokenHandler.ListChains)
	v1.GET("/chains/:chain/:chain_ref", h.TokenHandler.GetChain)

	tokens := v1.Group("/tokens")
	{
		tokens.GET("", h.TokenHandler.ListTokens)
		tokens.POST("/custom", h.TokenHandler.AddCustomToken)
	}

	prices := v1.Group("/prices")
	{
		prices.GET("", h.PriceHandler.ListPrices)
		prices.GET("/convert", h.PriceHandler.ConvertToUSD)
	}

	v1.GET("/fees", h.FeeHandler.EstimateFee)
	v1.GET("/allowance", h.FeeHandler.CheckAllowance)

	overrides := v1.Group("/admin/wallets/override", admin.RequireAdminKey(appConfig.Admin.APIKey, logger))
	{
		overrides.GET("", h.AdminHandler.ListOverrides)
		overrides.GET("/:chain", h.AdminHandler.GetOverride)
		overrides.PUT("/:chain", h.AdminHandler.SetOverride)
	}

	health := v1.Group("/health")
	{
		health.GET("/db", h.HealthHandler.Database)
		health.GET("/external", h.HealthHandler.External)
		health.GET("/jobs", h.HealthHandler.Jobs)
	}
}
