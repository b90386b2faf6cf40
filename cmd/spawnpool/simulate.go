package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/spawnpool/internal/sim"
	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/entity"
	perrors "github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
	"github.com/ajitpratap0/spawnpool/pkg/observability"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

func newSimulateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a headless level against the configured pools",
		Long: `Run a headless arcade level: enemy waves, weapon fire, hit and death effects,
and level teardowns, all served from the configured pools. Prints per-kind pool
statistics at the end so targets can be tuned.

Example:
  spawnpool simulate -c level.yaml --strategy async --metrics-addr :9102`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cfg, v.GetBool("json"))
		},
	}

	f := cmd.Flags()
	f.String("name", "", "Registry name used in logs and metrics")
	f.Int("ticks", 0, "Number of ticks to simulate")
	f.Int64("seed", 0, "Random seed")
	f.Duration("tick-interval", 0, "Real-time pacing between ticks (0 runs flat out)")
	f.Int("level-length", 0, "Ticks per level before all active instances are reclaimed")
	f.Float64("chaos", 0, "Per-tick probability of destroying an active instance externally")
	f.String("strategy", "", "Warm-up strategy: tick or async")
	f.Duration("warm-interval", 0, "Pause between async warm steps")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	f.Bool("tracing", false, "Export OpenTelemetry spans to stderr")
	_ = v.BindPFlags(f)

	return cmd
}

// runSimulation wires a registry, a warm-up scheduler and a world together
// and runs them until the world finishes
func runSimulation(ctx context.Context, cfg *config.Config, asJSON bool) error {
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Tracing.Enabled {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = version
		tc.SamplingRate = cfg.Tracing.SampleRate
		tc.Writer = os.Stderr
		if err := observability.InitTracing(tc); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = observability.Shutdown(sctx)
		}()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, logger.RegistryKey, cfg.Name)
	log := logger.WithContext(ctx).With(zap.String("component", "spawnpool-cli"))

	reg, _, err := entity.NewRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Teardown(context.Background())

	var schedOpts []pool.SchedulerOption
	if cfg.Warmup.Interval > 0 {
		schedOpts = append(schedOpts, pool.WithYielder(pool.IntervalYield(cfg.Warmup.Interval)))
	}
	sched := pool.NewScheduler(reg, schedOpts...)

	var worldOpts []sim.Option
	if !cfg.Warmup.IsAsync() {
		worldOpts = append(worldOpts, sim.WithScheduler(sched))
	}
	world := sim.New(cfg.Simulation, reg, worldOpts...)

	log.Info("starting simulation",
		zap.String("strategy", cfg.Warmup.Strategy),
		zap.Int("kinds", len(reg.Kinds())),
		zap.Int("total_target", cfg.TotalTarget()))

	runCtx, finish := context.WithCancel(ctx)
	defer finish()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Warmup.IsAsync() {
		g.Go(func() error {
			err := sched.Run(gctx)
			if perrors.IsType(err, perrors.ErrorTypeCancelled) {
				// the world finished first
				return nil
			}
			return err
		})
	}

	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving metrics", zap.String("address", cfg.Metrics.Address))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	var report *sim.Report
	g.Go(func() error {
		defer finish()
		r, err := world.Run(gctx)
		report = r
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		if report != nil {
			log.Warn("simulation interrupted", zap.Uint64("ticks", report.Ticks), zap.Error(err))
		}
		if errors.Is(err, context.Canceled) && !perrors.IsType(err, perrors.ErrorTypeCancelled) {
			return perrors.Wrap(err, perrors.ErrorTypeCancelled, "simulation interrupted")
		}
		return err
	}

	return printReport(report, asJSON)
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// memoryReport compares what the pools hold against the process footprint
type memoryReport struct {
	RSS       uint64 `json:"rss_bytes"`
	HeapAlloc uint64 `json:"heap_alloc_bytes"`
	Mallocs   uint64 `json:"mallocs"`
	NumGC     uint32 `json:"num_gc"`
}

func readMemory() memoryReport {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mr := memoryReport{HeapAlloc: ms.HeapAlloc, Mallocs: ms.Mallocs, NumGC: ms.NumGC}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			mr.RSS = mi.RSS
		}
	}
	return mr
}

func printReport(r *sim.Report, asJSON bool) error {
	mem := readMemory()

	if asJSON {
		out, err := json.MarshalIndent(struct {
			*sim.Report
			Memory memoryReport `json:"memory"`
		}{r, mem}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Registry: %s  ticks: %d  elapsed: %s\n", r.Registry, r.Ticks, r.Elapsed.Round(time.Millisecond))
	if r.WarmTick > 0 {
		fmt.Printf("Warm-up complete at tick %d\n", r.WarmTick)
	} else {
		fmt.Printf("Warm-up incomplete: %d/%d\n", r.Progress.Ready, r.Progress.Target)
	}
	c := r.Counters
	fmt.Printf("Spawned %d  shots %d  hits %d  kills %d  escapes %d  destroyed %d  reclaimed %d  levels %d\n",
		c.Spawned, c.Shots, c.Hits, c.Kills, c.Escapes, c.Destroyed, c.Reclaimed, c.Levels)
	fmt.Printf("Free-list hit rate: %.1f%%  on-demand constructions: %d\n\n", r.HitRate()*100, r.Synthesized())

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTARGET\tLIVE\tFREE\tACTIVE\tHITS\tSYNTH\tHEALED\tDISCARDED\tDUPLICATES")
	for _, s := range r.Pools {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Kind, s.Target, s.Live, s.Free, s.Active, s.Hits, s.Synthesized, s.Healed, s.Discarded, s.Duplicates)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nRSS %d KiB  heap %d KiB  mallocs %d  gc cycles %d\n",
		mem.RSS/1024, mem.HeapAlloc/1024, mem.Mallocs, mem.NumGC)
	return nil
}
