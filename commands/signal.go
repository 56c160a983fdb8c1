package commands

import (
	"context"
	"log"
	"os"
	"os/signal"
)

// withSignalCancel returns a context that is cancelled when one of sigs is
// received, logging which signal triggered the cancellation.
func withSignalCancel(ctx context.Context, l *log.Logger, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)

	go func() {
		select {
		case sig := <-sigCh:
			l.Printf("cancellation signal (%s) received", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
