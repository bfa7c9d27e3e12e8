package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen lets a limited number of probes through.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string `mapstructure:"-"`
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int `mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `mapstructure:"timeout"`
	// HalfOpenMaxCalls is the number of probes allowed while half-open.
	HalfOpenMaxCalls int `mapstructure:"half_open_max_calls"`
	// IsFailure decides which errors count against the circuit. Nil counts all.
	IsFailure func(error) bool `mapstructure:"-"`
	// OnStateChange is called with the lock released after each transition.
	OnStateChange func(name string, from, to State) `mapstructure:"-"`
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker fails fast after repeated upstream failures.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	openedAt      time.Time
	halfOpenCalls int
}

// NewCircuitBreaker creates a circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig(config.Name)
	if config.MaxFailures <= 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	from, to := cb.advance()
	state := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
	return state
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.config.Name }

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	from, to := cb.advance()
	allowed := false
	switch cb.state {
	case StateClosed:
		allowed = true
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			allowed = true
		}
	}
	cb.mu.Unlock()
	cb.notify(from, to)
	return allowed
}

func (cb *CircuitBreaker) record(err error) {
	failed := err != nil && (cb.config.IsFailure == nil || cb.config.IsFailure(err))

	cb.mu.Lock()
	from := cb.state
	switch {
	case failed && cb.state == StateHalfOpen:
		cb.trip()
	case failed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.trip()
		}
	case cb.state == StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMaxCalls {
			cb.reset(StateClosed)
		}
	default:
		cb.failures = 0
	}
	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
}

// advance moves an open circuit to half-open once the timeout elapsed.
// Callers hold mu.
func (cb *CircuitBreaker) advance() (State, State) {
	from := cb.state
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.reset(StateHalfOpen)
	}
	return from, cb.state
}

func (cb *CircuitBreaker) trip() {
	cb.reset(StateOpen)
	cb.openedAt = cb.now()
}

func (cb *CircuitBreaker) reset(to State) {
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenCalls = 0
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
