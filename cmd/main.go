package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sleepywoodpecker/gsr-logger/internal/config"
	"sleepywoodpecker/gsr-logger/internal/logger"
	"sleepywoodpecker/gsr-logger/internal/pipeline"
	"sleepywoodpecker/gsr-logger/internal/processing"
	rserial "sleepywoodpecker/gsr-logger/internal/rSerial"
	"sleepywoodpecker/gsr-logger/internal/telemetry"
	"sleepywoodpecker/gsr-logger/internal/tui"
	"sleepywoodpecker/gsr-logger/internal/web"
)

const SHUTDOWN_GRACE = 500 * time.Millisecond

type runFunc func(ctx context.Context, cfg config.Config) error

func main() {
	if err := newRootCommand(run).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(runner runFunc) *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:          "gsr-logger",
		Short:        "Acquire three GSR channels from a serial stream and log sessions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.PortName, "port", cfg.PortName, "serial device (empty keeps simulated readings)")
	flags.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "serial baud rate")
	flags.DurationVar(&cfg.TickPeriod, "tick", cfg.TickPeriod, "update cycle period")
	flags.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory exports are written to")
	flags.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP/websocket listen address (empty to disable)")
	flags.StringVar(&cfg.TelegrafAddr, "telegraf", cfg.TelegrafAddr, "UDP influx endpoint for committed entries (empty to disable)")
	flags.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker for committed entries (empty to disable)")
	flags.StringVar(&cfg.MQTTTopic, "mqtt-topic", cfg.MQTTTopic, "MQTT topic for committed entries")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file path")
	flags.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without the terminal dashboard")
	flags.BoolVar(&cfg.AutoConnect, "auto-connect", cfg.AutoConnect, "connect to --port on startup")

	cmd.AddCommand(newPortsCommand(), newProbeCommand())
	return cmd
}

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := rserial.ListPorts()
			if err != nil {
				return err
			}
			for _, port := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), port)
			}
			return nil
		},
	}
}

// probe prints what the parser makes of every line on a port, for checking wiring.
func newProbeCommand() *cobra.Command {
	baud := config.DefaultBaudRate

	cmd := &cobra.Command{
		Use:   "probe <port>",
		Short: "Print parsed triplets from a serial device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			port, err := rserial.OpenSerial(args[0], baud)
			if err != nil {
				return err
			}

			queue := make(chan []byte, processing.DEFAULT_QUEUE_SIZE)
			reader := rserial.NewRSerial(port, args[0], queue, zap.NewNop(), rserial.DefaultChunkSize)
			go reader.Run(ctx)

			var parser processing.LineParser
			for chunk := range queue {
				for _, sample := range parser.Parse(chunk) {
					fmt.Fprintf(cmd.OutOrStdout(), "%v\n", processing.Sanitize(sample))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&baud, "baud", baud, "serial baud rate")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	// context handler for graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log, err := logger.NewLogger(cfg.LogFile, cfg.Headless)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	p := pipeline.New(pipeline.Options{
		PortName:   cfg.PortName,
		BaudRate:   cfg.BaudRate,
		TickPeriod: cfg.TickPeriod,
		Sinks:      buildSinks(cfg, log),
	}, log)

	go p.Run(ctx)

	if cfg.AutoConnect {
		p.Connect(ctx)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(ctx, cfg.HTTPAddr, p, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("[main] http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("[main] http server listening", zap.String("addr", cfg.HTTPAddr))
	}

	if cfg.Headless {
		<-ctx.Done()
		saveOnExit(p, cfg.OutputDir, log)
	} else {
		if err := tui.Run(ctx, p, cfg.OutputDir); err != nil {
			log.Warn("[main] dashboard exited with error", zap.Error(err))
		}
		cancel()
	}

	time.Sleep(SHUTDOWN_GRACE)
	return nil
}

// buildSinks opens every configured telemetry sink. A sink that cannot be opened is
// logged and left out.
func buildSinks(cfg config.Config, log *zap.Logger) []telemetry.Sink {
	var sinks []telemetry.Sink

	if cfg.TelegrafAddr != "" {
		sink, err := telemetry.NewUDPSink(cfg.TelegrafAddr)
		if err != nil {
			log.Warn("[main] telegraf sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, sink)
		}
	}

	if cfg.MQTTBroker != "" {
		sink, err := telemetry.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTTopic)
		if err != nil {
			log.Warn("[main] mqtt sink disabled", zap.Error(err), zap.String("broker", cfg.MQTTBroker))
		} else {
			sinks = append(sinks, sink)
		}
	}

	return sinks
}

// saveOnExit stops a running session and writes both exports. A run that never
// started a session writes nothing, so exports from an earlier run stay intact.
func saveOnExit(p *pipeline.Pipeline, dir string, log *zap.Logger) {
	snap := p.Snapshot()
	if snap.SessionStarted == "" {
		log.Info("[main] no session recorded, exports skipped")
		return
	}
	if snap.Recording {
		p.Stop(time.Now())
	}

	if _, ok, err := p.SaveCSV(dir); err != nil {
		log.Warn("[main] csv export failed", zap.Error(err))
	} else if !ok {
		log.Info("[main] nothing recorded, csv export skipped")
	}

	if _, err := p.SaveJSON(dir); err != nil {
		log.Warn("[main] json export failed", zap.Error(err))
	}
}
