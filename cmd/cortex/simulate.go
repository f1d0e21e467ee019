package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tickwise/cortex/internal/config"
	"github.com/tickwise/cortex/internal/events"
	"github.com/tickwise/cortex/internal/executor"
	"github.com/tickwise/cortex/internal/provider"
	"github.com/tickwise/cortex/internal/sim"
	"github.com/tickwise/cortex/internal/telemetry"
	"github.com/tickwise/cortex/internal/tracing"
)

func newSimulateCommand() *cobra.Command {
	var (
		configPath string
		agents     int
		ticks      float64
		listenAddr string
		natsURL    string
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the headless agent simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath == "" {
				configPath = os.Getenv("CORTEX_CONFIG")
			}
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if agents > 0 {
				cfg.Sim.Agents = agents
			}
			if ticks > 0 {
				cfg.Sim.Duration = ticks / cfg.Sim.TickHz
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			if natsURL != "" {
				cfg.NatsURL = natsURL
			}
			return runSimulate(cmd.Context(), cfg, seed)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().IntVar(&agents, "agents", 0, "Number of agents (overrides config)")
	cmd.Flags().Float64Var(&ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address for /metrics and /ws")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "Publish decisions to this NATS server")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "World seed")

	return cmd
}

func runSimulate(ctx context.Context, cfg *config.Config, seed int64) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OtelEndpoint != "" {
		shutdown, err := tracing.Init(ctx, "cortex", cfg.OtelEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	registry := provider.NewRegistry()
	if err := registry.Register(&cfg.Provider); err != nil {
		return err
	}
	p, err := registry.Get(cfg.Provider.ID)
	if err != nil {
		return err
	}

	exec := executor.New(p, executor.NewPool(cfg.MaxConcurrentRequests)).
		WithRequestTimeout(cfg.RequestTimeout())

	local := events.NewLocalBus()
	defer local.Close()

	var bus events.Bus = local
	if cfg.NatsURL != "" {
		nb, err := events.NewNatsBus(events.NatsConfig{URL: cfg.NatsURL})
		if err != nil {
			return fmt.Errorf("failed to connect decision bus: %w", err)
		}
		defer nb.Close()
		bus = fanout{local, nb}
	}

	hub := telemetry.NewHub()
	defer hub.Close()
	hubCh, unsub := local.Subscribe(256)
	defer unsub()
	go hub.Run(hubCh)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", hub.Handle)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("serving /metrics and /ws on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server failed: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s := sim.New(cfg, exec, seed, sim.WithBus(bus))
	err = s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	c := s.Counters()
	log.Printf("sim: %d ticks, %d fast actions, %d plan steps, %d/%d background ok/failed",
		s.Ticks(), c.FastPlanActions, c.BackgroundStepsExecuted,
		c.BackgroundSuccesses, c.BackgroundFailures)
	return err
}

// fanout publishes to every bus, keeping the first error.
type fanout []events.Bus

func (f fanout) Publish(ev events.DecisionEvent) error {
	var first error
	for _, b := range f {
		if err := b.Publish(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) Close() error {
	var first error
	for _, b := range f {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
