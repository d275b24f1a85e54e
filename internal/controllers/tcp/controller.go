// Package tcp provides a newline-delimited TCP protocol for gradient
// calculations. Each request line yields exactly one JSON reply line.
package tcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"
)

// maxLineBytes bounds a single unterminated request line
const maxLineBytes = 1 << 20

// Controller serves the line protocol on a gnet event loop
type Controller struct {
	gnet.BuiltinEventEngine

	ctx        context.Context
	wg         *sync.WaitGroup
	tcpConfig  config.TCPData
	calculator *service.Calculator
	logger     *zap.SugaredLogger

	eng    gnet.Engine
	booted chan struct{}
	done   chan struct{}
}

// NewController creates a new TCP controller
func NewController(ctx context.Context, wg *sync.WaitGroup, tc config.TCPData, calculator *service.Calculator, logger *zap.SugaredLogger) (*Controller, error) {
	if calculator == nil {
		return nil, fmt.Errorf("TCP controller requires a calculator")
	}

	if tc.Port == 0 {
		logger.Info("tcp.port not provided; defaulting to 5051")
		tc.Port = 5051
	}
	if tc.ListenAddr == "" {
		tc.ListenAddr = "0.0.0.0"
	}

	return &Controller{
		ctx:        ctx,
		wg:         wg,
		tcpConfig:  tc,
		calculator: calculator,
		logger:     logger,
		booted:     make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Addr returns the gnet protocol address
func (c *Controller) Addr() string {
	return fmt.Sprintf("tcp://%v:%v", c.tcpConfig.ListenAddr, c.tcpConfig.Port)
}

// StartController starts the event loop
func (c *Controller) StartController() error {
	log.Info("Starting TCP controller...")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)

		err := gnet.Run(c, c.Addr(), gnet.WithMulticore(c.tcpConfig.Multicore))
		if err != nil {
			log.Errorf("TCP controller error: %v", err)
		}
	}()

	go func() {
		select {
		case <-c.ctx.Done():
		case <-c.done:
			return
		}
		select {
		case <-c.booted:
		case <-c.done:
			return
		}
		log.Info("Shutting down the TCP controller...")
		if err := c.eng.Stop(context.Background()); err != nil {
			log.Errorf("TCP controller shutdown error: %v", err)
		}
	}()

	return nil
}

// OnBoot implements gnet.EventHandler
func (c *Controller) OnBoot(eng gnet.Engine) gnet.Action {
	c.eng = eng
	close(c.booted)
	c.logger.Infof("TCP controller listening on %s", c.Addr())
	return gnet.None
}

// OnTraffic implements gnet.EventHandler. Complete lines are answered in
// order; a trailing partial line stays buffered for the next read.
func (c *Controller) OnTraffic(conn gnet.Conn) gnet.Action {
	buf, err := conn.Peek(-1)
	if err != nil {
		return gnet.Close
	}

	consumed := 0
	for {
		i := bytes.IndexByte(buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(buf[consumed : consumed+i]))
		consumed += i + 1
		if line == "" {
			continue
		}
		if _, err := conn.Write(handleLine(c.ctx, c.calculator, line)); err != nil {
			c.logger.Debugf("TCP write to %v failed: %v", conn.RemoteAddr(), err)
			return gnet.Close
		}
	}

	// Discard(0) empties the whole inbound buffer, which would drop a
	// partial line.
	if consumed > 0 {
		if _, err := conn.Discard(consumed); err != nil {
			return gnet.Close
		}
	}

	if conn.InboundBuffered() > maxLineBytes {
		reply := errorLine(fmt.Errorf("%w: request line exceeds %d bytes", gradient.ErrInvalidInput, maxLineBytes))
		if _, err := conn.Write(reply); err != nil {
			c.logger.Debugf("TCP write to %v failed: %v", conn.RemoteAddr(), err)
		}
		return gnet.Close
	}
	return gnet.None
}
