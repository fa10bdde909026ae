package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

// CircuitBreakerChainAdapter wraps a wallet.ChainAdapter with a circuit breaker, call timeouts and RPC metrics.
type CircuitBreakerChainAdapter struct {
	wrapped        wallet.ChainAdapter
	service        string
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

var (
	_ wallet.ChainAdapter    = (*CircuitBreakerChainAdapter)(nil)
	_ wallet.AllowanceReader = (*CircuitBreakerChainAdapter)(nil)
)

func NewCircuitBreakerChainAdapter(wrapped wallet.ChainAdapter, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerChainAdapter {
	return NewCircuitBreakerChainAdapterWithTimeout(wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

func NewCircuitBreakerChainAdapterWithTimeout(wrapped wallet.ChainAdapter, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerChainAdapter {
	service := ServiceName(wrapped.Chain())
	cb := &CircuitBreakerChainAdapter{
		wrapped:       wrapped,
		service:       service,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        service,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(name, to)
		},
	}

	cb.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	metrics.UpdateCircuitBreakerState(service, gobreaker.StateClosed)
	return cb
}

// isSuccessful keeps caller mistakes (bad address, unknown hash, low balance) from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	for _, domain := range []error{
		model.ErrInvalidAddress,
		model.ErrInvalidAmount,
		model.ErrInsufficientBalance,
		model.ErrTransactionNotFound,
		model.ErrInvalidSignedTransaction,
		model.ErrTokenNotFound,
		model.ErrUnsupportedChainRef,
		context.Canceled,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}

func (cb *CircuitBreakerChainAdapter) State() gobreaker.State {
	return cb.circuitBreaker.State()
}

func (cb *CircuitBreakerChainAdapter) Service() string {
	return cb.service
}

func (cb *CircuitBreakerChainAdapter) timeoutFor(operation string) time.Duration {
	switch operation {
	case "health_check":
		return cb.timeoutConfig.HealthCheckTimeout
	case "submit_transaction":
		return cb.timeoutConfig.SubmitTimeout
	default:
		return cb.timeoutConfig.RequestTimeout
	}
}

// executeWithTimeout runs fn under the operation timeout and records the call.
func (cb *CircuitBreakerChainAdapter) executeWithTimeout(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, cb.timeoutFor(operation))
	defer cancel()

	result, err := fn(ctx)
	duration := time.Since(start).Seconds()

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cb.metrics.RecordTimeout(cb.service, operation)
		cb.logError(operation, duration, ctx.Err())
		return nil, fmt.Errorf("timeout: %w", ctx.Err())
	}

	status := "success"
	if err != nil && !isSuccessful(err) {
		status = "error"
		cb.logError(operation, duration, err)
	}
	cb.metrics.RecordAPICall(cb.service, operation, status, duration)
	return result, err
}

func call[T any](cb *CircuitBreakerChainAdapter, ctx context.Context, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout(ctx, operation, func(ctx context.Context) (interface{}, error) {
			return fn(ctx)
		})
	})
	if err != nil {
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

func (cb *CircuitBreakerChainAdapter) Chain() model.Chain {
	return cb.wrapped.Chain()
}

func (cb *CircuitBreakerChainAdapter) ValidateAddress(address string) error {
	return cb.wrapped.ValidateAddress(address)
}

func (cb *CircuitBreakerChainAdapter) ValidateTxHash(txHash string) error {
	return cb.wrapped.ValidateTxHash(txHash)
}

func (cb *CircuitBreakerChainAdapter) NativeBalance(ctx context.Context, chainRef, address string) (*model.Web3BigInt, error) {
	return call(cb, ctx, "native_balance", func(ctx context.Context) (*model.Web3BigInt, error) {
		return cb.wrapped.NativeBalance(ctx, chainRef, address)
	})
}

func (cb *CircuitBreakerChainAdapter) TokenBalance(ctx context.Context, chainRef string, token model.Token, address string) (*model.Web3BigInt, error) {
	return call(cb, ctx, "token_balance", func(ctx context.Context) (*model.Web3BigInt, error) {
		return cb.wrapped.TokenBalance(ctx, chainRef, token, address)
	})
}

func (cb *CircuitBreakerChainAdapter) EstimateTransferFee(ctx context.Context, chainRef string) (*model.Web3BigInt, error) {
	return call(cb, ctx, "estimate_fee", func(ctx context.Context) (*model.Web3BigInt, error) {
		return cb.wrapped.EstimateTransferFee(ctx, chainRef)
	})
}

func (cb *CircuitBreakerChainAdapter) PrepareTransfer(ctx context.Context, intent model.TransferIntent) (*model.UnsignedTransfer, error) {
	return call(cb, ctx, "prepare_transfer", func(ctx context.Context) (*model.UnsignedTransfer, error) {
		return cb.wrapped.PrepareTransfer(ctx, intent)
	})
}

func (cb *CircuitBreakerChainAdapter) SubmitSignedTransaction(ctx context.Context, chainRef, payload string) (string, error) {
	return call(cb, ctx, "submit_transaction", func(ctx context.Context) (string, error) {
		return cb.wrapped.SubmitSignedTransaction(ctx, chainRef, payload)
	})
}

func (cb *CircuitBreakerChainAdapter) TransactionStatus(ctx context.Context, chainRef, txHash string) (model.TransactionStatus, error) {
	return call(cb, ctx, "transaction_status", func(ctx context.Context) (model.TransactionStatus, error) {
		return cb.wrapped.TransactionStatus(ctx, chainRef, txHash)
	})
}

func (cb *CircuitBreakerChainAdapter) Allowance(ctx context.Context, chainRef string, token model.Token, owner, spender string) (*model.Web3BigInt, error) {
	reader, ok := cb.wrapped.(wallet.AllowanceReader)
	if !ok {
		return nil, model.ErrUnsupportedChain
	}
	return call(cb, ctx, "allowance", func(ctx context.Context) (*model.Web3BigInt, error) {
		return reader.Allowance(ctx, chainRef, token, owner, spender)
	})
}

// HealthCheck probes the RPC with a fee estimate under the short health timeout.
func (cb *CircuitBreakerChainAdapter) HealthCheck(ctx context.Context, chainRef string) error {
	_, err := call(cb, ctx, "health_check", func(ctx context.Context) (*model.Web3BigInt, error) {
		return cb.wrapped.EstimateTransferFee(ctx, chainRef)
	})
	return err
}

func (cb *CircuitBreakerChainAdapter) logError(operation string, duration float64, err error) {
	cb.logger.Error("External API call failed", map[string]string{
		"service":    cb.service,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"cb_state":   cb.circuitBreaker.State().String(),
	})
}

// classifyError classifies errors into different types for metrics and logging
func classifyError(err error) APIErrorType {
	if err == nil {
		return ""
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") ||
		strings.Contains(errMsg, "context canceled") {
		return ErrorTypeTimeout
	}

	if strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "dns") {
		return ErrorTypeNetworkError
	}

	if strings.Contains(errMsg, "500") ||
		strings.Contains(errMsg, "502") ||
		strings.Contains(errMsg, "503") ||
		strings.Contains(errMsg, "504") ||
		strings.Contains(errMsg, "internal server error") ||
		strings.Contains(errMsg, "bad gateway") ||
		strings.Contains(errMsg, "service unavailable") {
		return ErrorTypeServerError
	}

	if strings.Contains(errMsg, "400") ||
		strings.Contains(errMsg, "401") ||
		strings.Contains(errMsg, "403") ||
		strings.Contains(errMsg, "404") ||
		strings.Contains(errMsg, "429") ||
		strings.Contains(errMsg, "bad request") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "rate limit") {
		return ErrorTypeClientError
	}

	return ErrorTypeUnknown
}

// validateCircuitBreakerConfig validates circuit breaker configuration
func validateCircuitBreakerConfig(config CircuitBreakerConfig) error {
	if config.MaxRequests == 0 {
		return fmt.Errorf("max_requests must be greater than 0")
	}
	if config.ConsecutiveFailureThreshold <= 0 {
		return fmt.Errorf("consecutive_failure_threshold must be greater than 0")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if config.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}
	return nil
}

// WrapAdapters puts every adapter behind its own circuit breaker.
func WrapAdapters(adapters []wallet.ChainAdapter, cfg func(service string) (CircuitBreakerConfig, TimeoutConfig), metrics *ExternalAPIMetrics, logger *logger.Logger) ([]*CircuitBreakerChainAdapter, error) {
	wrapped := make([]*CircuitBreakerChainAdapter, 0, len(adapters))
	for _, a := range adapters {
		cbConfig, timeouts := cfg(ServiceName(a.Chain()))
		if err := validateCircuitBreakerConfig(cbConfig); err != nil {
			return nil, fmt.Errorf("%s: %w", ServiceName(a.Chain()), err)
		}
		wrapped = append(wrapped, NewCircuitBreakerChainAdapterWithTimeout(a, cbConfig, timeouts, metrics, logger))
	}
	return wrapped, nil
}
