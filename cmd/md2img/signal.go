package main

import (
	"context"
	"os/signal"
)

// notifyContext cancels the returned context on the first shutdown signal,
// which aborts in-flight captures and closes the browsers through the pool.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
