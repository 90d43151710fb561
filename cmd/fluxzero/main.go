package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorgonia/fluxzero"
	"github.com/gorgonia/fluxzero/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	metricsAddr string
	modelPath   string

	conf        fluxzero.Config
	logger      zerolog.Logger
	reg         = prometheus.NewRegistry()
	treeMetrics = metrics.New(reg)
	server      *http.Server

	rootCmd = &cobra.Command{
		Use:   "fluxzero",
		Short: "Train and play a fluid tree search agent at connect four",
		Long: `FluxZero grows a fluid tree: a search tree whose nodes carry visit counts and
a conductivity that erodes towards the results of simulated games.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "fluxzero.flux", "tree file; metadata goes next to it")

	rootCmd.AddCommand(trainCmd, playCmd, inspectCmd, dotCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	conf = fluxzero.DefaultConfig()
	if configPath != "" {
		if conf, err = fluxzero.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if metricsAddr != "" {
		conf.MetricsAddr = metricsAddr
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	if conf.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: conf.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		logger.Info().Str("addr", conf.MetricsAddr).Msg("serving metrics")
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// newFZ builds a run from the configuration, loading the model if there is one.
func newFZ(opts ...fluxzero.Option) (*fluxzero.FZ, error) {
	opts = append(opts,
		fluxzero.WithLogger(logger),
		fluxzero.WithMetrics(treeMetrics),
	)
	fz, err := fluxzero.New(conf, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(modelPath); err == nil {
		if err := fz.Load(modelPath); err != nil {
			fz.Close()
			return nil, err
		}
	} else {
		logger.Info().Str("model", modelPath).Msg("no model yet; starting from an empty tree")
	}
	return fz, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
