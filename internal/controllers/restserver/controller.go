package restserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	calculator *service.Calculator
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, calculator *service.Calculator, logger *zap.SugaredLogger) (*Controller, error) {
	if calculator == nil {
		return nil, fmt.Errorf("REST server requires a calculator")
	}

	// If a listen address was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		calculator: calculator,
		logger:     logger,
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Addr returns the address the server listens on
func (c *Controller) Addr() string {
	return c.Server.Addr
}

// TLSEnabled reports whether a certificate and key were configured
func (c *Controller) TLSEnabled() bool {
	return c.restConfig.Cert != "" && c.restConfig.Key != ""
}

// Handler returns the router, for embedding in tests or shared listeners
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController starts the REST server on its own listener
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.logger.Infof("REST server listening on %s", c.Server.Addr)
		var err error
		if c.TLSEnabled() {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	c.shutdownOnDone()
	return nil
}

// Serve runs the REST server on an existing listener until the controller
// context ends
func (c *Controller) Serve(l net.Listener) error {
	c.shutdownOnDone()
	if err := c.Server.Serve(l); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (c *Controller) shutdownOnDone() {
	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(ctx)
	}()
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.loggingMiddleware)
	router.Use(corsMiddleware)

	router.HandleFunc("/calculation", c.handlers.Calculate).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/calculation", c.handlers.Calculate).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/settings", c.handlers.Settings).Methods(http.MethodGet)

	return router
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware records every request in the HTTP log buffer
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		calcID := rec.Header().Get(calculationIDHeader)
		log.LogHTTPRequest(r.Method, r.URL.Path, rec.status, duration, r.RemoteAddr, r.UserAgent(), calcID)
		c.logger.Debugf("%s %s %d %s %v", r.Method, r.RequestURI, rec.status, r.RemoteAddr, duration)
	})
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		w.Header().Set("Access-Control-Expose-Headers", calculationIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
