package monitoring

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/drain-watcher/internal/baserpc"
	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

const (
	operationHealthCheck = "health_check"

	// probed by health checks; every explorer knows the zero address
	healthCheckAddress = "0x0000000000000000000000000000000000000000"
)

// breaker runs calls to one external service through a gobreaker circuit,
// bounding each call with a timeout and recording metrics.
type breaker struct {
	name           string
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

func newBreaker(name string, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *breaker {
	b := &breaker{
		name:          name,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		// a caller giving up says nothing about the health of the service
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(name, to)
		},
	}

	b.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	metrics.UpdateCircuitBreakerState(name, gobreaker.StateClosed)
	return b
}

func (b *breaker) State() gobreaker.State {
	return b.circuitBreaker.State()
}

// execute runs fn through the circuit with a per operation timeout derived
// from ctx.
func (b *breaker) execute(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	timeout := b.timeoutConfig.RequestTimeout
	if operation == operationHealthCheck {
		timeout = b.timeoutConfig.HealthCheckTimeout
	}

	start := time.Now()
	result, err := b.circuitBreaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := fn(callCtx)
		if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			b.metrics.RecordTimeout(b.name, operation)
			return nil, errors.Wrapf(err, "timeout after %s", timeout)
		}
		return result, err
	})
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		b.logError(operation, duration, err)
	}
	b.metrics.RecordAPICall(b.name, operation, status, duration)
	return result, err
}

func (b *breaker) logError(operation string, duration float64, err error) {
	b.logger.Error("External API call failed", map[string]string{
		"service":    b.name,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"state":      b.circuitBreaker.State().String(),
	})
}

// CircuitBreakerExplorer wraps explorer.IExplorer with circuit breaker functionality
type CircuitBreakerExplorer struct {
	*breaker
	wrapped explorer.IExplorer
}

// NewCircuitBreakerExplorer creates a new circuit breaker wrapper for the explorer client
func NewCircuitBreakerExplorer(wrapped explorer.IExplorer, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerExplorer {
	return NewCircuitBreakerExplorerWithTimeout(wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

// NewCircuitBreakerExplorerWithTimeout creates a new circuit breaker wrapper for the explorer client with custom timeout config
func NewCircuitBreakerExplorerWithTimeout(wrapped explorer.IExplorer, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerExplorer {
	return &CircuitBreakerExplorer{
		breaker: newBreaker(ServiceExplorer, config, timeoutConfig, metrics, logger),
		wrapped: wrapped,
	}
}

func (cb *CircuitBreakerExplorer) GetTransactionsByAddress(ctx context.Context, address string) ([]model.RawTransaction, error) {
	result, err := cb.execute(ctx, "get_transactions", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.GetTransactionsByAddress(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.RawTransaction), nil
}

func (cb *CircuitBreakerExplorer) CountTransactions(ctx context.Context, address string, limit int) (int, error) {
	result, err := cb.execute(ctx, "count_transactions", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.CountTransactions(ctx, address, limit)
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// HealthCheck asks the explorer for a single transaction of the zero address.
func (cb *CircuitBreakerExplorer) HealthCheck(ctx context.Context) error {
	_, err := cb.execute(ctx, operationHealthCheck, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.CountTransactions(ctx, healthCheckAddress, 1)
	})
	return err
}

// CircuitBreakerBaseRPC wraps baserpc.IBaseRPC with circuit breaker functionality
type CircuitBreakerBaseRPC struct {
	*breaker
	wrapped baserpc.IBaseRPC
}

// NewCircuitBreakerBaseRPC creates a new circuit breaker wrapper for Base RPC
func NewCircuitBreakerBaseRPC(wrapped baserpc.IBaseRPC, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerBaseRPC {
	return NewCircuitBreakerBaseRPCWithTimeout(wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

// NewCircuitBreakerBaseRPCWithTimeout creates a new circuit breaker wrapper for Base RPC with custom timeout config
func NewCircuitBreakerBaseRPCWithTimeout(wrapped baserpc.IBaseRPC, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerBaseRPC {
	return &CircuitBreakerBaseRPC{
		breaker: newBreaker(ServiceBaseRPC, config, timeoutConfig, metrics, logger),
		wrapped: wrapped,
	}
}

func (cb *CircuitBreakerBaseRPC) NonceAt(ctx context.Context, address string) (uint64, error) {
	result, err := cb.execute(ctx, "nonce_at", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.NonceAt(ctx, address)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

func (cb *CircuitBreakerBaseRPC) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := cb.execute(ctx, "block_number", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.BlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// HealthCheck asks the node for its latest block.
func (cb *CircuitBreakerBaseRPC) HealthCheck(ctx context.Context) error {
	_, err := cb.execute(ctx, operationHealthCheck, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.BlockNumber(ctx)
	})
	return err
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
		strings.Contains(errMsg, "forbidden") ||
		strings.Contains(errMsg, "not found") ||
		strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "invalid api key") {
		return ErrorTypeClientError
	}

	return ErrorTypeUnknown
}

// ValidateCircuitBreakerConfig validates circuit breaker configuration
func ValidateCircuitBreakerConfig(config CircuitBreakerConfig) error {
	if config.MaxRequests == 0 {
		return errors.New("max_requests must be greater than 0")
	}

	if config.ConsecutiveFailureThreshold <= 0 {
		return errors.New("consecutive_failure_threshold must be greater than 0")
	}

	if config.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}

	if config.Interval < 0 {
		return errors.New("interval must be non-negative")
	}

	return nil
}
