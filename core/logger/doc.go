// Package logger provides a structured logging facility based on Zap.
//
// New builds a development or production logger from configuration, with console
// or json encoding.
//
// # Context Awareness
//
// WithRayID extracts the request id stored by the rayid middleware from a Fiber
// context and attaches it to the logger, so every line logged while serving a
// request can be correlated.
package logger
