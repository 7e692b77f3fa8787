// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/ecmfinance/ecm-ledger/api"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/metrics"
	"github.com/ecmfinance/ecm-ledger/service"
)

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return errors.New("unable to infer default data dir, use --data-dir")
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openMainDB(ctx, dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing ledger database..."); db.Close() }()

	svc := service.New(db, clockwork.NewRealClock(), cfg.Ledger)
	defer func() { logger.Info("stopping ledger..."); svc.Close() }()
	if err := svc.Init(&cfg.Genesis); err != nil {
		return errors.Wrap(err, "genesis")
	}

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(exitCtx)

	var reqLogger atomic.Bool
	reqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))
	apiHandler, closeSubs := api.New(svc, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      &reqLogger,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogLevel:             logLevel,
	})
	defer closeSubs()

	var handler http.Handler = apiHandler
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	apiURL, runAPI, err := serveHTTP(gctx, ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	g.Go(runAPI)

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsURL, runMetrics, err := serveHTTP(gctx, ctx.String(metricsAddrFlag.Name), metrics.HTTPHandler())
		if err != nil {
			return err
		}
		g.Go(runMetrics)
		logger.Info("metrics server started", "url", metricsURL)
	}

	g.Go(func() error { return logEvents(gctx, svc) })

	pools, err := svc.Pools()
	if err != nil {
		return err
	}
	logger.Info("ledger started", "api", apiURL, "pools", len(pools), "dataDir", dataDir)

	return g.Wait()
}

// logEvents writes every published ledger event to the debug log until ctx is done.
func logEvents(ctx context.Context, svc *service.Service) error {
	ch := make(chan event.Event, 256)
	sub := svc.Subscribe(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case ev := <-ch:
			attrs := make([]any, 0, 2+2*len(ev.Attrs))
			attrs = append(attrs, "time", ev.Time)
			for k, v := range ev.Attrs {
				attrs = append(attrs, k, v)
			}
			logger.Debug(ev.Name, attrs...)
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
