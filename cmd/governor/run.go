// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/prometheus"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"github.com/xchain/governor/clock"
	"github.com/xchain/governor/governance"
	"github.com/xchain/governor/internal/config"
	"github.com/xchain/governor/storage"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func runNode(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer setupLogging(&cfg.Log).Close()

	if cfg.RPC.Metrics {
		metrics.Enable()
	}
	db, err := storage.Open(&cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	sigctx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigctx)

	clk, closeClock, err := makeClock(gctx, g, &cfg.Clock)
	if err != nil {
		return err
	}
	defer closeClock()

	gc, err := governance.NewGovernanceContract(db, clk, cfg.Bootstrap())
	if err != nil {
		return err
	}
	handler, rpcSrv, err := newRPCHandler(gc, db, &cfg.RPC)
	if err != nil {
		return err
	}
	defer rpcSrv.Stop()

	listener, err := net.Listen("tcp", cfg.RPC.HTTPEndpoint())
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", cfg.RPC.HTTPEndpoint(), err)
	}
	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("HTTP server started", "endpoint", listener.Addr(), "ws", cfg.RPC.WS, "auth", cfg.RPC.JWTSecret != "", "contract", gc.Address())

	g.Go(func() error {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down governance node")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// makeClock builds the ordinal source named by the configuration. Chain
// clocks are polled in the background until ctx is done.
func makeClock(ctx context.Context, g *errgroup.Group, cfg *config.ClockConfig) (governance.Clock, func(), error) {
	switch cfg.Source {
	case config.ClockInterval:
		c, err := clock.NewIntervalClock(mclock.System{}, cfg.Base, cfg.Interval)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	case config.ClockManual:
		log.Warn("Manual clock selected, ordinals stay fixed", "ordinal", cfg.Base)
		return clock.NewManualClock(cfg.Base), func() {}, nil
	case config.ClockChain:
		c, closeFn, err := clock.DialChainClock(ctx, cfg.ChainURL, cfg.Interval)
		if err != nil {
			return nil, nil, err
		}
		g.Go(func() error { return c.Run(ctx) })
		return c, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown clock source %q", cfg.Source)
}

// newRPCHandler assembles the HTTP stack serving the gov namespace:
// CORS, optional JWT authentication, JSON-RPC over HTTP and WebSocket, and
// the prometheus metrics endpoint.
func newRPCHandler(gc *governance.GovernanceContract, db ethdb.KeyValueStore, cfg *config.RPCConfig) (http.Handler, *rpc.Server, error) {
	srv := rpc.NewServer()
	for _, api := range governance.APIs(gc, governance.NewAuthenticator(db, gc.Address())) {
		if err := srv.RegisterName(api.Namespace, api.Service); err != nil {
			return nil, nil, err
		}
	}

	var rpcHandler http.Handler = srv
	if cfg.WS {
		ws := srv.WebsocketHandler(cfg.CORSOrigins)
		rpcHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWebsocket(r) {
				ws.ServeHTTP(w, r)
				return
			}
			srv.ServeHTTP(w, r)
		})
	}
	if cfg.JWTSecret != "" {
		secret, err := obtainJWTSecret(cfg.JWTSecret)
		if err != nil {
			return nil, nil, err
		}
		rpcHandler = newJWTHandler(secret, rpcHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("/", newCorsHandler(rpcHandler, cfg.CORSOrigins))
	if cfg.Metrics {
		mux.Handle("/metrics", prometheus.Handler(metrics.DefaultRegistry))
	}
	return mux, srv, nil
}

func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}
