// Package version exposes build information embedded with -ldflags and the
// default User-Agent sent by the transport.
package version
