package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zappabad/squeeze/internal/sim"
	"github.com/zappabad/squeeze/pkg/config"
	"github.com/zappabad/squeeze/pkg/logger"
	"github.com/zappabad/squeeze/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults when empty)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	// Terminal output belongs to the dashboard; only file logs are kept.
	log := logger.NewNop()
	if out := cfg.Log.Output; out != "" && out != "stdout" && out != "stderr" {
		if log, err = logger.New(cfg.LoggerConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
			os.Exit(2)
		}
	}

	s, err := sim.New(cfg.SimConfig(), sim.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "create simulation: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	params := cfg.SimConfig().Params
	model := tui.NewModel(tui.Config{
		Refresh:             cfg.Dashboard.Refresh,
		TicksPerCandle:      cfg.Dashboard.TicksPerCandle,
		VolatilityThreshold: params.VolatilityThreshold,
		InitialPrice:        params.InitialPrice,
		InitialShort:        params.ShortShares(),
	}, s.Market, s.Media, s.Broker)

	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		rep, err := s.Run(ctx)
		p.Send(tui.DoneMsg{Report: rep, Err: err})
	}()

	_, runErr := p.Run()
	cancel()
	<-done

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", runErr)
		os.Exit(1)
	}
}
