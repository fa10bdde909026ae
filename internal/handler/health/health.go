package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
	"github.com/dwarvesf/walletpay-backend/internal/oracle"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	externalTimeout = 10 * time.Second
	probeTimeout    = 3 * time.Second
	dbPingTimeout   = 5 * time.Second
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	config           *config.AppConfig
	logger           *logger.Logger
	db               *gorm.DB
	probes           []ChainProbe
	oracle           oracle.IOracle
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance
func New(config *config.AppConfig, logger *logger.Logger, db *gorm.DB, probes []ChainProbe, oracle oracle.IOracle, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	return &HealthHandler{
		config:           config,
		logger:           logger,
		db:               db,
		probes:           probes,
		oracle:           oracle,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	c.JSON(http.StatusOK, BasicHealthResponse{Message: "ok"})
}

// Database handles the database health check endpoint
// @Summary Database health check
// @Description Validates database connectivity and performance
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/db [get]
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	dbCheck := h.checkDatabase(c.Request.Context())
	response.Checks["database"] = dbCheck
	response.DurationMs = time.Since(start).Milliseconds()

	if dbCheck.Status == statusHealthy {
		response.Status = statusHealthy
		c.JSON(http.StatusOK, response)
		return
	}
	response.Status = statusUnhealthy
	c.JSON(http.StatusServiceUnavailable, response)
}

// External handles the external API dependencies health check endpoint
// @Summary External dependencies health check
// @Description Probes every chain RPC through its circuit breaker and reports the price cache
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), externalTimeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, probe := range h.probes {
		wg.Add(1)
		go func(probe ChainProbe) {
			defer wg.Done()
			check := h.checkChain(ctx, probe)
			mu.Lock()
			response.Checks[probe.Service()] = check
			mu.Unlock()
		}(probe)
	}
	wg.Wait()

	if h.oracle != nil {
		response.Checks["price_oracle"] = h.checkPriceCache()
	}
	response.DurationMs = time.Since(start).Milliseconds()

	response.Status = statusHealthy
	for name, check := range response.Checks {
		if check.Status == statusUnhealthy && name != "price_oracle" {
			response.Status = statusUnhealthy
			break
		}
		if check.Status != statusHealthy {
			response.Status = statusDegraded
		}
	}

	if response.Status == statusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// checkDatabase performs database health validation
func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	if h.db == nil {
		check.Status = statusUnhealthy
		check.Error = "database connection not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		check.Status = statusUnhealthy
		check.Error = fmt.Sprintf("failed to get underlying database: %v", err)
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		check.Status = statusUnhealthy
		if errors.Is(pingCtx.Err(), context.DeadlineExceeded) {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	stats := sqlDB.Stats()

	check.Status = statusHealthy
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["driver"] = "postgres"
	check.Metadata["connection_pool"] = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}

	return check
}

// defaultChainRef is the network probed for each chain.
func (h *HealthHandler) defaultChainRef(chain model.Chain) string {
	if h.config == nil {
		return ""
	}
	switch chain {
	case model.ChainEthereum:
		return strconv.FormatInt(h.config.Ethereum.DefaultChainID, 10)
	case model.ChainSolana:
		return h.config.Solana.DefaultNetwork
	}
	return ""
}

// checkChain runs a fee estimate through the breaker on the chain's default network
func (h *HealthHandler) checkChain(ctx context.Context, probe ChainProbe) HealthCheck {
	start := time.Now()

	chainRef := h.defaultChainRef(probe.Chain())
	check := HealthCheck{
		Metadata: map[string]interface{}{
			"chain":           string(probe.Chain()),
			"chain_ref":       chainRef,
			"circuit_breaker": probe.State().String(),
		},
	}

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- probe.HealthCheck(checkCtx, chainRef)
	}()

	select {
	case err := <-done:
		if err != nil {
			check.Status = statusUnhealthy
			check.Error = err.Error()
		} else {
			check.Status = statusHealthy
		}
	case <-checkCtx.Done():
		check.Status = statusUnhealthy
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			check.Error = "timeout"
		} else {
			check.Error = checkCtx.Err().Error()
		}
	}

	if check.Status != statusHealthy {
		h.logger.Warn("[checkChain] chain rpc unhealthy", map[string]string{
			"service": probe.Service(),
			"error":   check.Error,
		})
	}
	check.Latency = time.Since(start).Milliseconds()
	return check
}

// checkPriceCache never calls the market API; an empty cache only degrades the service.
func (h *HealthHandler) checkPriceCache() HealthCheck {
	stats := h.oracle.GetCacheStatistics()
	check := HealthCheck{
		Status: statusHealthy,
		Metadata: map[string]interface{}{
			"entries":      stats.Entries,
			"last_refresh": stats.LastRefresh,
			"failures":     stats.Failures,
		},
	}
	if stats.Entries == 0 {
		check.Status = statusDegraded
		check.Error = "price cache is empty"
	}
	return check
}
