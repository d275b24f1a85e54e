package managers

import (
	"context"
	"fmt"
	"net"
	"sync"

	grpcctl "github.com/chrissnell/fracgrad/internal/controllers/grpc"
	"github.com/chrissnell/fracgrad/internal/controllers/restserver"
	"github.com/soheilhy/cmux"
	"go.uber.org/zap"
)

// sharedPortController serves the REST and gRPC controllers from a single
// listener, splitting connections by protocol.
type sharedPortController struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	rest   *restserver.Controller
	grpc   *grpcctl.Controller
	logger *zap.SugaredLogger
}

func newSharedPortController(ctx context.Context, wg *sync.WaitGroup, rest *restserver.Controller, grpc *grpcctl.Controller, logger *zap.SugaredLogger) *sharedPortController {
	return &sharedPortController{
		ctx:    ctx,
		wg:     wg,
		rest:   rest,
		grpc:   grpc,
		logger: logger,
	}
}

func (s *sharedPortController) StartController() error {
	l, err := net.Listen("tcp", s.rest.Addr())
	if err != nil {
		return fmt.Errorf("could not listen on %s: %v", s.rest.Addr(), err)
	}
	return s.serve(l)
}

// serve splits l and blocks nothing; all servers run in goroutines tracked
// by the wait group.
func (s *sharedPortController) serve(l net.Listener) error {
	m := cmux.New(l)

	// gRPC clients wait for the server SETTINGS frame before sending headers
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	s.wg.Add(3)

	go func() {
		defer s.wg.Done()
		if err := s.grpc.Serve(grpcL); err != nil && s.ctx.Err() == nil {
			s.logger.Errorf("gRPC server on shared port: %v", err)
		}
	}()

	go func() {
		defer s.wg.Done()
		if err := s.rest.Serve(httpL); err != nil && s.ctx.Err() == nil {
			s.logger.Errorf("REST server on shared port: %v", err)
		}
	}()

	go func() {
		defer s.wg.Done()
		s.logger.Infof("REST and gRPC listening on %s", l.Addr())
		if err := m.Serve(); err != nil && s.ctx.Err() == nil {
			s.logger.Errorf("shared listener: %v", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		l.Close()
	}()

	return nil
}
