package managers

import (
	"context"
	"fmt"
	"sync"

	grpcctl "github.com/chrissnell/fracgrad/internal/controllers/grpc"
	"github.com/chrissnell/fracgrad/internal/controllers/management"
	"github.com/chrissnell/fracgrad/internal/controllers/restserver"
	"github.com/chrissnell/fracgrad/internal/controllers/tcp"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, calculator *service.Calculator, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		calculator:     calculator,
		logger:         logger,
		controllers:    make([]Controller, 0),
	}

	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configuration: %v", err)
	}

	var rest *restserver.Controller
	var grpc *grpcctl.Controller

	// Create controllers based on configuration
	for _, con := range controllerConfigs {
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating %s controller: %v", con.Type, err)
		}

		switch c := controller.(type) {
		case *restserver.Controller:
			rest = c
		case *grpcctl.Controller:
			grpc = c
		default:
			cm.controllers = append(cm.controllers, controller)
		}
	}

	switch {
	case rest != nil && grpc != nil && rest.Addr() == grpc.Addr():
		if rest.TLSEnabled() || grpc.TLSEnabled() {
			return nil, fmt.Errorf("REST and gRPC controllers share %s; TLS is not supported on a shared port", rest.Addr())
		}
		logger.Infof("REST and gRPC controllers sharing %s", rest.Addr())
		cm.controllers = append(cm.controllers, newSharedPortController(ctx, wg, rest, grpc, logger))
	default:
		if rest != nil {
			cm.controllers = append(cm.controllers, rest)
		}
		if grpc != nil {
			cm.controllers = append(cm.controllers, grpc)
		}
	}

	return cm, nil
}

type controllerManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	calculator     *service.Calculator
	logger         *zap.SugaredLogger
	controllers    []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case "rest":
		var rc config.RESTServerData
		if cc.RESTServer != nil {
			rc = *cc.RESTServer
		}
		return restserver.NewController(cm.ctx, cm.wg, rc, cm.calculator, cm.logger)
	case "grpc":
		var gc config.GRPCData
		if cc.GRPC != nil {
			gc = *cc.GRPC
		}
		return grpcctl.NewController(cm.ctx, cm.wg, gc, cm.calculator, cm.logger)
	case "management":
		var mc config.ManagementAPIData
		if cc.ManagementAPI != nil {
			mc = *cc.ManagementAPI
		}
		return management.NewController(cm.ctx, cm.wg, cm.configProvider, mc, cm.logger)
	case "tcp":
		var tc config.TCPData
		if cc.TCP != nil {
			tc = *cc.TCP
		}
		return tcp.NewController(cm.ctx, cm.wg, tc, cm.calculator, cm.logger)
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}
