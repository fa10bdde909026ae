package monitoring

import (
	"time"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
)

// CircuitBreakerConfig defines the configuration for circuit breakers
type CircuitBreakerConfig struct {
	MaxRequests                 uint32        `json:"max_requests"`
	Interval                    time.Duration `json:"interval"`
	Timeout                     time.Duration `json:"timeout"`
	ConsecutiveFailureThreshold int           `json:"consecutive_failure_threshold"`
}

// TimeoutConfig defines timeout configurations for different operations
type TimeoutConfig struct {
	RequestTimeout     time.Duration `json:"request_timeout"`
	SubmitTimeout      time.Duration `json:"submit_timeout"`
	HealthCheckTimeout time.Duration `json:"health_check_timeout"`
}

// APIErrorType represents different types of API errors for classification
type APIErrorType string

const (
	ErrorTypeTimeout      APIErrorType = "timeout"
	ErrorTypeNetworkError APIErrorType = "network_error"
	ErrorTypeServerError  APIErrorType = "server_error"
	ErrorTypeClientError  APIErrorType = "client_error"
	ErrorTypeUnknown      APIErrorType = "unknown"
)

const (
	ServiceEVMRPC    = "evm_rpc"
	ServiceSolanaRPC = "solana_rpc"
)

// CircuitBreakerConfigs provides default configurations for different services
var CircuitBreakerConfigs = map[string]CircuitBreakerConfig{
	ServiceEVMRPC: {
		MaxRequests:                 3,
		Interval:                    45 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 5,
	},
	ServiceSolanaRPC: {
		MaxRequests:                 3,
		Interval:                    30 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 5,
	},
}

// DefaultTimeoutConfig provides default timeout configurations
var DefaultTimeoutConfig = TimeoutConfig{
	RequestTimeout:     10 * time.Second,
	SubmitTimeout:      30 * time.Second,
	HealthCheckTimeout: 3 * time.Second,
}

// ServiceName is the breaker and metrics label for a chain's RPC.
func ServiceName(chain model.Chain) string {
	if chain == model.ChainSolana {
		return ServiceSolanaRPC
	}
	return ServiceEVMRPC
}

// BreakerSettingsFromConfig applies the configured failure threshold and call timeout over the defaults.
func BreakerSettingsFromConfig(service string, cfg config.MonitoringConfig) (CircuitBreakerConfig, TimeoutConfig) {
	cb, ok := CircuitBreakerConfigs[service]
	if !ok {
		cb = CircuitBreakerConfigs[ServiceEVMRPC]
	}
	if cfg.CircuitBreakerThreshold > 0 {
		cb.ConsecutiveFailureThreshold = int(cfg.CircuitBreakerThreshold)
	}

	timeouts := DefaultTimeoutConfig
	if cfg.ChainCallTimeout > 0 {
		timeouts.RequestTimeout = cfg.ChainCallTimeout
	}
	return cb, timeouts
}
