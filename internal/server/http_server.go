package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer runs a handler until shut down
type HTTPServer struct {
	server *http.Server
	notify chan error
}

// NewHTTPServer starts serving handler on address in the background
func NewHTTPServer(handler http.Handler, address string) *HTTPServer {
	s := &HTTPServer{
		server: &http.Server{
			Handler:           handler,
			Addr:              address,
			ReadHeaderTimeout: 10 * time.Second,
		},
		notify: make(chan error, 1),
	}

	go func() {
		err := s.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.notify <- err
		close(s.notify)
	}()

	return s
}

// Notify delivers the listener's exit error, nil after a clean shutdown
func (s *HTTPServer) Notify() <-chan error {
	return s.notify
}

// Shutdown stops accepting connections and waits for in-flight requests up to timeout
func (s *HTTPServer) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
