package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/session"
)

// serve runs the HTTP server until ctx is cancelled, then stops accepting
// requests and aborts the live sessions so their results are recorded.
func serve(ctx context.Context, addr string, handler http.Handler, sessions *session.Manager) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("Server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	sessions.Shutdown()
	return err
}
