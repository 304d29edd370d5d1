package common

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

// ShutdownHook releases a resource the server depended on, such as a
// store connection or a message broker channel.
type ShutdownHook struct {
	Name  string
	Close func(ctx context.Context) error
}

// ServerTimeouts bounds request handling and the shutdown sequence.
type ServerTimeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

func NewServer(addr string, handler http.Handler, t ServerTimeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: t.ReadHeader,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}

// Serve listens on server.Addr and blocks until ctx is done. In-flight
// searches are drained before the hooks run, so a request never sees a
// closed ratings or favorites store. Hooks run in order and a failing hook
// does not stop the rest.
func Serve(ctx context.Context, server *http.Server, t ServerTimeouts, hooks ...ShutdownHook) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}
	log.Printf("Catalog listening on %s", ln.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Printf("Shutting down catalog server")
	}

	shutdown := t.Shutdown
	if shutdown <= 0 {
		shutdown = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Printf("Failed to drain requests: %v", err)
	}
	runHooks(shutdownCtx, t.Hook, hooks)
	return err
}

func runHooks(ctx context.Context, timeout time.Duration, hooks []ShutdownHook) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for _, h := range hooks {
		if h.Close == nil {
			continue
		}
		hookCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := h.Close(hookCtx); err != nil {
			log.Printf("Failed to close %s: %v", h.Name, err)
		}
		cancel()
	}
}
