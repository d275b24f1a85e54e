package grpc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startTestServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	logger := zap.NewNop().Sugar()
	ctrl, err := NewController(ctx, &sync.WaitGroup{}, config.GRPCData{}, service.NewCalculator(config.CalculationData{}, logger), logger)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go ctrl.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
	})
	return conn
}

func newStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestCalculate(t *testing.T) {
	conn := startTestServer(t)

	out, err := Calculate(context.Background(), conn, newStruct(t, map[string]any{
		"water-deep-layer":      1000,
		"deep-interval-data":    50,
		"observed-transit-time": []any{200, 190, 180, 170, 160},
	}))
	require.NoError(t, err)

	fields := out.AsMap()
	assert.Equal(t, "offshore", fields["rig-type"])
	assert.Equal(t, []any{-1050.0, -1100.0, -1150.0, -1200.0, -1250.0}, fields["y-deep"])
	assert.Len(t, fields["x-porePressureGradient"], 5)
	assert.NotEmpty(t, fields["calculation-id"])
}

func TestCalculateErrorCodes(t *testing.T) {
	conn := startTestServer(t)

	tests := []struct {
		name string
		in   map[string]any
		code codes.Code
	}{
		{
			name: "empty series",
			in:   map[string]any{"water-deep-layer": 0, "deep-interval-data": 50, "observed-transit-time": []any{}},
			code: codes.InvalidArgument,
		},
		{
			name: "identical transit times",
			in:   map[string]any{"water-deep-layer": 0, "deep-interval-data": 50, "observed-transit-time": []any{150, 150, 150}},
			code: codes.FailedPrecondition,
		},
		{
			name: "wrong field type",
			in:   map[string]any{"water-deep-layer": "deep", "deep-interval-data": 50, "observed-transit-time": []any{150, 140}},
			code: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(context.Background(), conn, newStruct(t, tt.in))
			assert.Equal(t, tt.code, status.Code(err), "error: %v", err)
		})
	}
}

func TestHealth(t *testing.T) {
	conn := startTestServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
