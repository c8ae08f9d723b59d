// Package resilience provides the fault-tolerance stages a transport
// dispatch passes through before reaching the network:
//
//	rate limiter -> bulkhead -> circuit breaker -> retry -> exchange
//
// Each stage is configured from the client option bag; a nil config
// disables the stage. Configs carry mapstructure tags so they decode from
// nested maps such as {"retry": {"max_attempts": 3, "initial_backoff": "50ms"}}.
package resilience
