// Package grpc provides the gRPC controller serving gradient calculations.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Controller represents the gRPC controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	GRPCConfig config.GRPCData
	Server     *grpc.Server
	health     *health.Server
	calculator *service.Calculator
	logger     *zap.SugaredLogger
}

// NewController creates a new gRPC controller instance
func NewController(ctx context.Context, wg *sync.WaitGroup, grpcConfig config.GRPCData, calculator *service.Calculator, logger *zap.SugaredLogger) (*Controller, error) {
	if calculator == nil {
		return nil, fmt.Errorf("gRPC controller requires a calculator")
	}

	if grpcConfig.Port == 0 {
		logger.Info("grpc.port not provided; defaulting to 5050")
		grpcConfig.Port = 5050
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		GRPCConfig: grpcConfig,
		health:     health.NewServer(),
		calculator: calculator,
		logger:     logger,
	}

	opts := []grpc.ServerOption{grpc.UnaryInterceptor(ctrl.loggingInterceptor)}

	// Create gRPC server with optional TLS
	if grpcConfig.Cert != "" && grpcConfig.Key != "" {
		creds, err := credentials.NewServerTLSFromFile(grpcConfig.Cert, grpcConfig.Key)
		if err != nil {
			return nil, fmt.Errorf("could not create TLS server from keypair: %v", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	ctrl.Server = grpc.NewServer(opts...)

	RegisterGradientServiceServer(ctrl.Server, ctrl)
	healthpb.RegisterHealthServer(ctrl.Server, ctrl.health)
	ctrl.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return ctrl, nil
}

// Addr returns the address the server listens on
func (c *Controller) Addr() string {
	return fmt.Sprintf("%v:%v", c.GRPCConfig.ListenAddr, c.GRPCConfig.Port)
}

// TLSEnabled reports whether a certificate and key were configured
func (c *Controller) TLSEnabled() bool {
	return c.GRPCConfig.Cert != "" && c.GRPCConfig.Key != ""
}

// StartController starts the gRPC controller on its own listener
func (c *Controller) StartController() error {
	log.Info("Starting gRPC controller...")

	l, err := net.Listen("tcp", c.Addr())
	if err != nil {
		return fmt.Errorf("gRPC controller could not create listener: %v", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.logger.Infof("gRPC controller listening on %s", c.Addr())
		if err := c.Serve(l); err != nil {
			log.Errorf("gRPC controller serve error: %v", err)
		}
	}()

	return nil
}

// Serve runs the gRPC server on l until the controller context ends
func (c *Controller) Serve(l net.Listener) error {
	go func() {
		<-c.ctx.Done()
		c.StopController()
	}()
	return c.Server.Serve(l)
}

// StopController stops the gRPC controller
func (c *Controller) StopController() {
	log.Info("Stopping gRPC controller...")
	c.health.Shutdown()
	c.Server.GracefulStop()
}

// Calculate implements GradientServiceServer
func (c *Controller) Calculate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := structToRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	resp, err := c.calculator.Calculate(ctx, req)
	if err != nil {
		return nil, status.Error(CodeForError(err), err.Error())
	}

	out, err := responseToStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func (c *Controller) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	c.logger.Debugw("gRPC request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}

// CodeForError maps a calculation error onto a gRPC status code
func CodeForError(err error) codes.Code {
	switch {
	case errors.Is(err, gradient.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, gradient.ErrDegenerateFit), errors.Is(err, gradient.ErrArithmeticDomain):
		return codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func structToRequest(in *structpb.Struct) (*service.Request, error) {
	b, err := protojson.Marshal(in)
	if err != nil {
		return nil, err
	}
	var req service.Request
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func responseToStruct(resp *service.Response) (*structpb.Struct, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
