// Package logger provides structured logging for deferhttp using zerolog.
//
// Loggers are component-scoped: the session, the transport and deferred
// responses each log through their own tagged logger.
//
//	log := logger.Get("deferhttp.transport")
//	log.Debug("dispatch", logger.Fields("method", "GET", "url", u))
package logger
