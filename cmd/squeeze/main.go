package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/server"
	"github.com/zappabad/squeeze/internal/sim"
	"github.com/zappabad/squeeze/pkg/config"
	"github.com/zappabad/squeeze/pkg/logger"
	"github.com/zappabad/squeeze/pkg/metrics"
)

// Exit codes.
const (
	exitOK        = 0
	exitRunFailed = 1
	exitBadConfig = 2
	exitInvariant = 3
	exitInterrupt = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file (defaults when empty)")
	serve := flag.String("serve", "", "serve the status API on this address")
	linger := flag.Bool("linger", false, "keep serving after the run until interrupted")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitBadConfig
	}
	if *serve != "" {
		cfg.Server.Enabled = true
		cfg.Server.Addr = *serve
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		return exitBadConfig
	}

	opts := []sim.Option{sim.WithLogger(log)}
	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New()
		opts = append(opts, sim.WithMetrics(rec))
	}

	s, err := sim.New(cfg.SimConfig(), opts...)
	if err != nil {
		log.Error("create simulation", logger.Error(err))
		return exitBadConfig
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		srvOpts := []server.ServerOption{
			server.WithAddr(cfg.Server.Addr),
			server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
			server.WithLogger(log.With(logger.String("component", "http"))),
			server.WithTickStream(s.Market.Events()),
		}
		if rec != nil {
			srvOpts = append(srvOpts, server.WithMetrics(rec.Registry(), cfg.Metrics.Path))
		}
		srv := server.NewServer(server.NewHandler(s.Market, s.Media, s.Broker, s.RunID()), srvOpts...)
		if err := srv.Start(); err != nil {
			log.Error("start http server", logger.Error(err))
			return exitBadConfig
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				log.Error("stop http server", logger.Error(err))
			}
		}()
	}

	rep, runErr := s.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Error("write report", logger.Error(err))
	}

	var ie *market.InvariantError
	switch {
	case errors.As(runErr, &ie):
		log.Error("run aborted",
			logger.String("invariant", ie.Invariant),
			logger.Int64("tick", ie.Tick),
			logger.String("detail", ie.Detail))
		return exitInvariant
	case errors.Is(runErr, context.Canceled):
		log.Warn("run interrupted", logger.Int64("ticks", rep.Ticks))
		return exitInterrupt
	case runErr != nil:
		log.Error("run failed", logger.Error(runErr))
		return exitRunFailed
	}

	if *linger && cfg.Server.Enabled {
		log.Info("run finished, serving until interrupted")
		<-ctx.Done()
	}
	return exitOK
}
