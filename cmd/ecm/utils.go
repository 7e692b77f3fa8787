// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/ecmfinance/ecm-ledger/genesis"
	"github.com/ecmfinance/ecm-ledger/log"
	"github.com/ecmfinance/ecm-ledger/lvldb"
	"github.com/ecmfinance/ecm-ledger/service"
)

// ledgerConfig is the file passed with --config.
type ledgerConfig struct {
	Ledger  service.Config  `yaml:"ledger"`
	Genesis genesis.Genesis `yaml:"genesis"`
}

func loadConfig(path string) (*ledgerConfig, error) {
	if path == "" {
		return nil, errors.New("missing --config")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg ledgerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Ledger.Account.IsZero() || cfg.Ledger.SaleToken.IsZero() || cfg.Ledger.PaymentToken.IsZero() {
		return nil, errors.New("config: account, saleToken and paymentToken are required")
	}
	return &cfg, nil
}

func initLogger(ctx *cli.Context, w io.Writer) (*slog.LevelVar, error) {
	level, ok := log.ParseLevel(ctx.String(verbosityFlag.Name))
	if !ok {
		return nil, errors.Errorf("invalid verbosity %q", ctx.String(verbosityFlag.Name))
	}
	lvl := new(slog.LevelVar)
	lvl.Set(level)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(w, lvl)
	} else {
		useColor := false
		if f, ok := w.(*os.File); ok {
			useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		handler = log.NewTerminalHandlerWithLevel(w, lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return lvl, nil
}

func openMainDB(ctx *cli.Context, dataDir string) (*lvldb.LevelDB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	cacheMB := ctx.Int(cacheFlag.Name)
	if cacheMB < 16 {
		cacheMB = 16
	}
	dir := filepath.Join(dataDir, "ledger.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger database [%v]", dir)
	}
	return db, nil
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// serveHTTP serves handler on addr until ctx is done. The returned url is known once the
// listener is bound.
func serveHTTP(ctx context.Context, addr string, handler http.Handler) (string, func() error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	run := func() error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return "http://" + listener.Addr().String() + "/", run, nil
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "finance.ecm.ledger")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "finance.ecm.ledger")
		default:
			return filepath.Join(home, ".finance.ecm.ledger")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
