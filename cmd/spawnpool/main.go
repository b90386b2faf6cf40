package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/entity"
	perrors "github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
)

var version = "0.1.0"

func main() {
	v := viper.New()
	v.SetEnvPrefix("SPAWNPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "spawnpool",
		Short: "spawnpool - object pools for real-time arcade games",
		Long: `spawnpool pre-allocates enemies, effects, projectiles, damage indicators and
audio voices, warms them up without stalling the simulation tick, and reports
how well the configured targets cover a level.

Every flag can also be set through the environment, e.g. SPAWNPOOL_TICKS=1200.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file (defaults are used when empty)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("json", false, "Print results as JSON")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spawnpool v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "kinds",
		Short: "List configured kinds and their warm targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return listKinds(cfg, v.GetBool("json"))
		},
	})

	root.AddCommand(newConfigCmd(v))
	root.AddCommand(newSimulateCmd(v))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status: 2 for bad
// configuration, 130 for an interrupted run, 1 otherwise
func exitCode(err error) int {
	switch perrors.TypeOf(err) {
	case perrors.ErrorTypeConfig, perrors.ErrorTypeFile:
		return 2
	case perrors.ErrorTypeCancelled:
		return 130
	default:
		return 1
	}
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration a command would run with: defaults, then the file
given by --config, then flag and environment overrides. With --out the result
is written to a file that can be passed back through --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			return writeConfig(cmd.OutOrStdout(), cfg, out)
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write the configuration to this file instead of stdout")
	return cmd
}

func writeConfig(w io.Writer, cfg *config.Config, path string) error {
	if path != "" {
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(w, "configuration written to %s\n", path)
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return perrors.Wrap(err, perrors.ErrorTypeConfig, "failed to marshal YAML")
	}
	_, err = w.Write(data)
	return err
}

// loadConfig reads the config file, if any, and applies flag and environment
// overrides on top
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v.IsSet("log-level") && v.GetString("log-level") != "" {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("name") {
		cfg.Name = v.GetString("name")
	}
	if v.IsSet("ticks") {
		cfg.Simulation.Ticks = v.GetInt("ticks")
	}
	if v.IsSet("seed") {
		cfg.Simulation.Seed = v.GetInt64("seed")
	}
	if v.IsSet("tick-interval") {
		cfg.Simulation.TickInterval = v.GetDuration("tick-interval")
	}
	if v.IsSet("level-length") {
		cfg.Simulation.LevelLength = v.GetInt("level-length")
	}
	if v.IsSet("chaos") {
		cfg.Simulation.ChaosRate = v.GetFloat64("chaos")
	}
	if v.IsSet("strategy") {
		cfg.Warmup.Strategy = v.GetString("strategy")
	}
	if v.IsSet("warm-interval") {
		cfg.Warmup.Interval = v.GetDuration("warm-interval")
	}
	if v.IsSet("metrics-addr") && v.GetString("metrics-addr") != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = v.GetString("metrics-addr")
	}
	if v.IsSet("tracing") {
		cfg.Tracing.Enabled = v.GetBool("tracing")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger installs the global logger described by cfg
func initLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	})
}

func listKinds(cfg *config.Config, asJSON bool) error {
	cat, err := entity.NewCatalog(cfg.Pools)
	if err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(cat.Specs(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCLASS\tTARGET\tLIFETIME")
	for _, s := range cat.Specs() {
		lifetime := "-"
		if s.Class != entity.ClassEnemy {
			lifetime = s.Lifetime.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Kind, s.Class, s.Target, lifetime)
	}
	fmt.Fprintf(tw, "\t\t%d\t\n", cfg.TotalTarget())
	return tw.Flush()
}
