// Package service is the only write entry point into the engine. It
// serializes access to the single-threaded book, assigns operation
// sequence numbers, journals accepted commands, and rebuilds state from
// the journal on startup — decoupled from the transports that feed it.
package service
