package management

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the management API controller
type Controller struct {
	ctx              context.Context
	wg               *sync.WaitGroup
	configProvider   config.ConfigProvider
	managementConfig config.ManagementAPIData
	Server           http.Server
	logger           *zap.SugaredLogger
	handlers         *Handlers
	started          time.Time
}

// NewController creates a new management API controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, mc config.ManagementAPIData, logger *zap.SugaredLogger) (*Controller, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("management API requires a config provider")
	}

	ctrl := &Controller{
		ctx:              ctx,
		wg:               wg,
		configProvider:   configProvider,
		managementConfig: mc,
		logger:           logger,
		started:          time.Now(),
	}

	// Set default values
	if ctrl.managementConfig.Port == 0 {
		logger.Info("management API port not specified; defaulting to 8081")
		ctrl.managementConfig.Port = 8081
	}

	if ctrl.managementConfig.ListenAddr == "" {
		logger.Info("management API listen-addr not provided; defaulting to 127.0.0.1 (localhost only)")
		ctrl.managementConfig.ListenAddr = "127.0.0.1"
	}

	if mc.AuthToken == "" {
		ctrl.managementConfig.AuthToken = generateAuthToken()
		ctrl.saveAuthToken()
		logger.Infof("Generated management API access token: %s", ctrl.managementConfig.AuthToken)
	} else {
		logger.Info("Management API using configured access token")
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.managementConfig.ListenAddr, ctrl.managementConfig.Port)
	ctrl.Server.Handler = ctrl.setupRouter()

	return ctrl, nil
}

// saveAuthToken persists a generated token so it survives restarts. Read-only
// backends keep it for this process only.
func (c *Controller) saveAuthToken() {
	if c.configProvider.IsReadOnly() {
		c.logger.Warn("config backend is read-only; generated management token will change on restart")
		return
	}

	mc := c.managementConfig
	err := c.configProvider.UpdateController("management", &config.ControllerData{
		Type:          "management",
		ManagementAPI: &mc,
	})
	if err != nil {
		c.logger.Errorf("Failed to save auth token to config: %v", err)
	}
}

// AuthToken returns the token clients must present
func (c *Controller) AuthToken() string {
	return c.managementConfig.AuthToken
}

// Handler returns the HTTP handler serving the management API
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController starts the management API server
func (c *Controller) StartController() error {
	log.Info("Starting management API controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.logger.Infof("Management API server starting on %s", c.Server.Addr)

		var err error
		if c.managementConfig.Cert != "" && c.managementConfig.Key != "" {
			c.logger.Info("Starting management API server with TLS")
			err = c.Server.ListenAndServeTLS(c.managementConfig.Cert, c.managementConfig.Key)
		} else {
			c.logger.Info("Starting management API server without TLS")
			err = c.Server.ListenAndServe()
		}

		if err != http.ErrServerClosed {
			log.Errorf("Management API server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the management API server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.loggingMiddleware)
	router.Use(c.corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.authMiddleware)

	api.HandleFunc("/status", c.handlers.GetStatus).Methods("GET")
	api.HandleFunc("/config", c.handlers.GetConfig).Methods("GET")
	api.HandleFunc("/logs", c.handlers.GetLogs).Methods("GET")

	return router
}

// loggingMiddleware logs all requests except log polling
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		if !strings.HasPrefix(r.URL.Path, "/api/logs") {
			c.logger.Infof("%s %s %s %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
		}
	})
}

// corsMiddleware adds CORS headers
func (c *Controller) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token
func (c *Controller) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+c.managementConfig.AuthToken {
			next.ServeHTTP(w, r)
			return
		}

		c.logger.Debugf("Auth failed for %s", r.URL.Path)
		c.handlers.sendError(w, http.StatusUnauthorized, "Authentication required", nil)
	})
}
