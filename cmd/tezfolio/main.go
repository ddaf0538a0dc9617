package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/tezfolio/config"
	"github.com/alejandrodnm/tezfolio/internal/adapters/analytics"
	"github.com/alejandrodnm/tezfolio/internal/adapters/notify"
	"github.com/alejandrodnm/tezfolio/internal/adapters/storage"
	"github.com/alejandrodnm/tezfolio/internal/adapters/walletrpc"
	"github.com/alejandrodnm/tezfolio/internal/application/portfolio"
	"github.com/alejandrodnm/tezfolio/internal/ports"
	"github.com/alejandrodnm/tezfolio/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	connect := flag.Bool("connect", false, "pair the wallet at start-up")
	catalog := flag.Bool("catalog", false, "print the pool catalog and exit")
	journal := flag.Bool("journal", false, "print recent operations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := analytics.NewClient(cfg.API.AnalyticsBase)
	console := notify.NewConsole()

	if *catalog {
		if err := runCatalog(ctx, client, console); err != nil {
			slog.Error("catalog failed", "err", err)
			os.Exit(1)
		}
		return
	}
	if *journal {
		if err := runJournal(ctx, cfg.Storage.DSN, console); err != nil {
			slog.Error("journal failed", "err", err)
			os.Exit(1)
		}
		return
	}

	policy, err := cfg.RebalancePolicy()
	if err != nil {
		slog.Error("invalid rebalance policy", "err", err)
		os.Exit(1)
	}

	slog.Info("tezfolio starting",
		"config", *configPath,
		"analytics", cfg.API.AnalyticsBase,
		"wallet_rpc", cfg.Wallet.RPCURL,
		"contract", cfg.Wallet.ContractAddress,
		"listen", cfg.Server.Listen,
	)

	bridge, err := walletrpc.Dial(ctx, cfg.Wallet.RPCURL, walletrpc.Options{
		ContractAddress:     cfg.Wallet.ContractAddress,
		ConfirmationTimeout: cfg.ConfirmationTimeout(),
	})
	if err != nil {
		slog.Error("failed to dial wallet bridge", "err", err, "url", cfg.Wallet.RPCURL)
		os.Exit(1)
	}
	defer bridge.Close()

	var opsJournal ports.Journal
	if cfg.Storage.DSN != "" {
		store, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
		opsJournal = store
	}

	inbox := notify.NewInbox(0)
	ctrl := portfolio.New(portfolio.Deps{
		Wallet:    bridge,
		Pools:     client,
		Analytics: client,
		Positions: client,
		Notifier:  notify.Multi{console, inbox},
		Reporter:  console,
		Journal:   opsJournal,
	}, portfolio.Config{
		Confirmations: cfg.Wallet.Confirmations,
		Policy:        policy,
	})

	if *connect {
		if err := ctrl.Connect(ctx, cfg.Wallet.ForcePermissions); err != nil {
			slog.Warn("start-up connect failed; use POST /api/session to retry", "err", err)
		} else {
			snap := ctrl.Snapshot()
			console.PrintPosition(snap.Position)
			console.PrintCatalog(ctrl.AvailablePools())
		}
	}

	srv := server.New(server.Config{
		Listen:         cfg.Server.Listen,
		Controller:     ctrl,
		Inbox:          inbox,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("server shutdown", "err", err)
	}

	slog.Info("tezfolio stopped cleanly")
}

func runCatalog(ctx context.Context, pools ports.PoolProvider, console *notify.Console) error {
	list, err := pools.FetchPools(ctx)
	if err != nil {
		return err
	}
	console.PrintCatalog(list)
	return nil
}

func runJournal(ctx context.Context, dsn string, console *notify.Console) error {
	if dsn == "" {
		return errors.New("storage.dsn is empty: journal disabled")
	}
	store, err := storage.NewSQLiteJournal(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	ops, err := store.RecentOperations(ctx, 20)
	if err != nil {
		return err
	}
	console.PrintOperations(ops)
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
