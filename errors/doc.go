// Package errors defines the application error taxonomy used across deferhttp.
// Errors carry a machine-readable code, an HTTP status hint and structured
// details, and they compose with the standard errors.Is / errors.As helpers.
package errors
