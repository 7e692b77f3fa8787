// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ecmfinance/ecm-ledger/api/accounts"
	"github.com/ecmfinance/ecm-ledger/api/admin/loglevel"
	"github.com/ecmfinance/ecm-ledger/api/epochs"
	"github.com/ecmfinance/ecm-ledger/api/middleware"
	"github.com/ecmfinance/ecm-ledger/api/pools"
	"github.com/ecmfinance/ecm-ledger/api/subscriptions"
	"github.com/ecmfinance/ecm-ledger/log"
	"github.com/ecmfinance/ecm-ledger/metrics"
	"github.com/ecmfinance/ecm-ledger/service"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	// LogLevel is exposed on /admin/loglevel when set.
	LogLevel *slog.LevelVar
}

// New return api router
func New(svc *service.Service, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pools.New(svc).
		Mount(router, "/pools")
	accounts.New(svc).
		Mount(router, "/accounts")
	epochs.New(svc).
		Mount(router, "/epochs")
	subs := subscriptions.New(svc, origins)
	subs.Mount(router, "/subscriptions")

	if opts.LogLevel != nil {
		loglevel.New(opts.LogLevel).
			Mount(router, "/admin/loglevel")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	if opts.EnableReqLogger != nil {
		router.Use(middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold))
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
