package health

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// IHealthHandler defines the interface for health check handlers
type IHealthHandler interface {
	Basic(c *gin.Context)
	Database(c *gin.Context)
	External(c *gin.Context)
	Jobs(c *gin.Context)
}

// ChainProbe is satisfied by the circuit-breaker wrapped chain adapters.
type ChainProbe interface {
	Chain() model.Chain
	Service() string
	State() gobreaker.State
	HealthCheck(ctx context.Context, chainRef string) error
}
