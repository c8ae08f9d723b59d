// Package component defines the lifecycle interfaces for long-lived
// services such as a pooled deferred session.
package component
