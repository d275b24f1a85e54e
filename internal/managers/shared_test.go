package managers

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"

	grpcctl "github.com/chrissnell/fracgrad/internal/controllers/grpc"
	"github.com/chrissnell/fracgrad/internal/controllers/restserver"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type staticProvider struct {
	controllers []config.ControllerData
}

func (p *staticProvider) LoadConfig() (*config.ConfigData, error) {
	return &config.ConfigData{Controllers: p.controllers}, nil
}
func (p *staticProvider) GetControllers() ([]config.ControllerData, error) { return p.controllers, nil }
func (p *staticProvider) GetCalculation() (*config.CalculationData, error) {
	return &config.CalculationData{}, nil
}
func (p *staticProvider) UpdateController(string, *config.ControllerData) error { return nil }
func (p *staticProvider) IsReadOnly() bool                                      { return true }
func (p *staticProvider) Close() error                                          { return nil }

func newManager(t *testing.T, controllers ...config.ControllerData) (*controllerManager, error) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	cm, err := NewControllerManager(context.Background(), &sync.WaitGroup{}, &staticProvider{controllers: controllers},
		service.NewCalculator(config.CalculationData{}, logger), logger)
	if err != nil {
		return nil, err
	}
	return cm.(*controllerManager), nil
}

func listener(port int) config.ListenerData {
	return config.ListenerData{ListenAddr: "127.0.0.1", Port: port}
}

func TestControllerFactory(t *testing.T) {
	cm, err := newManager(t,
		config.ControllerData{Type: "rest", RESTServer: &config.RESTServerData{ListenerData: listener(9001)}},
		config.ControllerData{Type: "grpc", GRPC: &config.GRPCData{ListenerData: listener(9002)}},
		config.ControllerData{Type: "tcp", TCP: &config.TCPData{Port: 9003}},
		config.ControllerData{Type: "management", ManagementAPI: &config.ManagementAPIData{AuthToken: "t"}},
	)
	require.NoError(t, err)
	assert.Len(t, cm.controllers, 4)

	_, err = newManager(t, config.ControllerData{Type: "weather"})
	assert.Error(t, err)
}

func TestSharedPortSelection(t *testing.T) {
	cm, err := newManager(t,
		config.ControllerData{Type: "rest", RESTServer: &config.RESTServerData{ListenerData: listener(9000)}},
		config.ControllerData{Type: "grpc", GRPC: &config.GRPCData{ListenerData: listener(9000)}},
	)
	require.NoError(t, err)
	require.Len(t, cm.controllers, 1)
	assert.IsType(t, &sharedPortController{}, cm.controllers[0])

	tlsListener := listener(9000)
	tlsListener.Cert, tlsListener.Key = "cert.pem", "key.pem"
	_, err = newManager(t,
		config.ControllerData{Type: "rest", RESTServer: &config.RESTServerData{ListenerData: tlsListener}},
		config.ControllerData{Type: "grpc", GRPC: &config.GRPCData{ListenerData: listener(9000)}},
	)
	assert.Error(t, err)
}

func TestSharedPortServesBothProtocols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()

	logger := zap.NewNop().Sugar()
	calc := service.NewCalculator(config.CalculationData{}, logger)
	var wg sync.WaitGroup

	rest, err := restserver.NewController(ctx, &wg, config.RESTServerData{}, calc, logger)
	require.NoError(t, err)
	grpcCtl, err := grpcctl.NewController(ctx, &wg, config.GRPCData{}, calc, logger)
	require.NoError(t, err)

	require.NoError(t, newSharedPortController(ctx, &wg, rest, grpcCtl, logger).serve(l))

	body := []byte(`{"water-deep-layer": 0, "deep-interval-data": 50, "observed-transit-time": [200, 190, 180]}`)
	resp, err := http.Post(fmt.Sprintf("http://%s/calculation", addr), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcctl.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hc.Status)

	conn.Close()
	cancel()
	wg.Wait()
}
