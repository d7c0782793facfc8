// Package logger builds the zap logger shared by the scheduler, the providers
// and the HTTP API.
//
// Level accepts debug, info, warn and error; debug switches to zap's
// development preset. Format is json or console.
//
// Request handlers attach the request id with WithRayID so that every line
// logged while serving a request can be correlated:
//
//	log, _ := logger.New(&cfg.Log)
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
