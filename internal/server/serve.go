package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/petewarden/open-speech-recording/internal/health"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
)

// Serve multiplexes lis between gRPC (health probes) and HTTP until ctx is
// cancelled, then shuts both down.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	mux := cmux.New(lis)
	grpcL := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := mux.Match(cmux.Any())

	grpcServer := grpc.NewServer()
	health.Register(grpcServer)
	httpServer := s.HTTPServer()

	errs := make(chan error, 3)
	go func() { errs <- grpcServer.Serve(grpcL) }()
	go func() { errs <- httpServer.Serve(httpL) }()
	go func() { errs <- mux.Serve() }()

	s.logger.Info("server listening", "addr", lis.Addr().String())

	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.Stop()
	_ = lis.Close()

	if err == nil || isClosedErr(err) {
		return nil
	}
	return err
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, http.ErrServerClosed) ||
		errors.Is(err, grpc.ErrServerStopped) ||
		errors.Is(err, cmux.ErrListenerClosed)
}
