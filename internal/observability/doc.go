// Package observability provides logging, metrics, and tracing helpers
// shared by the httpxml packages.
//
// Logging is structured via zap behind the Logger interface:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// Metrics holds the per-request counters and the registry the codec and
// middleware collectors are registered with. Tracing installs W3C trace
// context propagation and injects it into outgoing requests.
package observability
