package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/mrd0ll4r/kaleidoscope/cmd"
	"github.com/mrd0ll4r/kaleidoscope/internal/api"
	"github.com/mrd0ll4r/kaleidoscope/internal/config"
	"github.com/mrd0ll4r/kaleidoscope/internal/control"
	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/fixture"
	"github.com/mrd0ll4r/kaleidoscope/internal/ingest"
	"github.com/mrd0ll4r/kaleidoscope/internal/led"
	"github.com/mrd0ll4r/kaleidoscope/internal/logging"
	"github.com/mrd0ll4r/kaleidoscope/internal/scheduler"
	"github.com/mrd0ll4r/kaleidoscope/internal/universe"
	"github.com/mrd0ll4r/kaleidoscope/internal/upstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options is the flat CLI/env/YAML-config-file options struct (spec §6).
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.yaml"`

	PrometheusListenAddress string `help:"Prometheus metrics listen address" default:":9090" yaml:"prometheus_listen_address" env:"PROMETHEUS_LISTEN_ADDRESS"`
	HTTPListenAddress       string `help:"Control surface listen address" default:":8090" yaml:"http_listen_address" env:"HTTP_LISTEN_ADDRESS"`
	AMQPServerAddress       string `help:"AMQP server address" yaml:"amqp_server_address" env:"AMQP_SERVER_ADDRESS"`
	SubmarineHTTPURL        string `help:"Upstream universe HTTP base URL" yaml:"submarine_http_url" env:"SUBMARINE_HTTP_URL"`
	FixturesPath            string `help:"Directory of fixture definitions" default:"fixtures" yaml:"fixtures_path" env:"FIXTURES_PATH"`

	AMQPQueueName string `help:"AMQP queue name to consume events from" default:"kaleidoscope.events" yaml:"amqp_queue_name" env:"AMQP_QUEUE_NAME"`

	AuthUsername string `help:"Control surface basic auth username" yaml:"auth_username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Control surface basic auth password" yaml:"auth_password" env:"AUTH_PASSWORD"`

	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" yaml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" yaml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingScheduler string `help:"Scheduler logging level" default:"info" yaml:"logging.scheduler" env:"LOGGING_SCHEDULER"`
	LoggingIngest    string `help:"Event ingester logging level" default:"info" yaml:"logging.ingest" env:"LOGGING_INGEST"`
	LoggingAPI       string `help:"Control surface logging level" default:"info" yaml:"logging.api" env:"LOGGING_API"`
	LoggingUpstream  string `help:"Upstream client logging level" default:"info" yaml:"logging.upstream" env:"LOGGING_UPSTREAM"`

	FeaturesLEDControl bool `help:"Enable status LED control" default:"false" yaml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", loadErr)
		}

		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"scheduler": opts.LoggingScheduler,
				"ingest":    opts.LoggingIngest,
				"api":       opts.LoggingAPI,
				"upstream":  opts.LoggingUpstream,
			},
		}
		logging.Initialize(loggingConfig)
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())

		client := upstream.NewClient(opts.SubmarineHTTPURL, logging.GetLogger("upstream"))

		universeCfg, err := client.FetchUniverseConfig(ctx)
		if err != nil {
			logger.Error("Failed to fetch universe configuration", "error", err)
			cancel()
			os.Exit(1)
		}

		matches, err := filepath.Glob(filepath.Join(opts.FixturesPath, "*.lua"))
		if err != nil {
			logger.Error("Failed to scan fixtures path", "error", err, "path", opts.FixturesPath)
			cancel()
			os.Exit(1)
		}

		var fixtures []*fixture.Fixture
		for _, path := range matches {
			f, err := fixture.Load(path, universeCfg)
			if err != nil {
				logger.Error("Failed to load fixture", "path", path, "error", err)
				cancel()
				os.Exit(1)
			}
			fixtures = append(fixtures, f)
			logger.Info("Loaded fixture", "name", f.Name, "programs", len(f.Programs))
		}

		bus := events.NewBus()
		view := universe.NewView(universeCfg)
		fifo := events.NewFIFO()

		sched := scheduler.New(fixtures, client, bus, logging.GetLogger("scheduler"), fifo, universeCfg.AddressAliases())

		ing := ingest.New(opts.AMQPServerAddress, opts.AMQPQueueName, view, fifo, bus, logging.GetLogger("ingest"))

		ctl := control.New(sched, bus)

		var ledManager *led.Manager
		if opts.FeaturesLEDControl {
			ledController := led.New(logger)
			ledManager = led.NewManager(ledController, bus, logger)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		server := api.NewServer(ctl, &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			ListenAddr:   opts.HTTPListenAddress,
		})

		hooks.OnStart(func() {
			if ledManager != nil {
				ledManager.Start()
			}

			if err := ing.Start(ctx); err != nil {
				logger.Error("Failed to start event ingester", "error", err)
			}

			go sched.Run(ctx)

			go func() {
				logger.Info("Starting Prometheus metrics endpoint", "addr", opts.PrometheusListenAddress)
				if err := http.ListenAndServe(opts.PrometheusListenAddress, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Prometheus metrics endpoint failed", "error", err)
				}
			}()

			logger.Info("Starting control surface", "addr", opts.HTTPListenAddress)
			if err := server.Start(opts.HTTPListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Failed to start control surface", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			ing.Stop()
			if ledManager != nil {
				ledManager.Stop()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateValidateFixturesCmd())

	cli.Run()
}
