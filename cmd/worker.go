package cmd

import (
	"context"
	"sync"

	"smart-bus/internal/outbox"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

// RunWorkers starts the background loops and blocks until ctx is
// cancelled and every loop has returned. Either argument may be nil.
func RunWorkers(ctx context.Context, relay *outbox.Relay, holdWorker worker.Worker, log *zap.Logger) {
	var wg sync.WaitGroup

	if relay != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := relay.Run(ctx); err != nil {
				log.Error("Outbox relay stopped with error", zap.Error(err))
			}
		}()
	}

	if holdWorker != nil {
		if err := holdWorker.Start(); err != nil {
			log.Error("Failed to start hold expiry worker", zap.Error(err))
		} else {
			log.Info("Hold expiry worker started")
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-ctx.Done()
				holdWorker.Stop()
				log.Info("Hold expiry worker stopped")
			}()
		}
	}

	wg.Wait()
}
