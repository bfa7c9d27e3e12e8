// Package resilience provides the circuit breaker guarding calls to
// third-party identity providers.
//
// Calls are never retried: an authorization code is single-use, so a
// repeated token exchange can only fail or duplicate state. The breaker
// instead fails fast while a provider is unhealthy.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("google"))
//	err := cb.Execute(func() error { return exchange(ctx) })
package resilience
