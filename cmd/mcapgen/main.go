package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/INLOpen/mcapwire/config"
	"github.com/spf13/cobra"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const serviceName = "mcapgen"

// createLogger builds the run's logger from the logging section: level,
// destination and handler format. The returned closer is non-nil only when
// logging to a file.
func createLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	output, closer, err := openLogOutput(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		handler = slog.NewJSONHandler(output, opts)
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	return slog.New(handler).With("service", serviceName), closer, nil
}

// openLogOutput resolves the log destination. stdout is accepted but collides
// with a recording written to "-".
func openLogOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stderr", "":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	case "none":
		return io.Discard, nil, nil
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		return file, file, nil
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}
}

// initTracerProvider creates an OpenTelemetry TracerProvider exporting to an
// OTLP collector. When tracing is disabled the provider records nothing.
func initTracerProvider(cfg config.TracingConfig, logger *slog.Logger) (*sdktrace.TracerProvider, func(), error) {
	if !cfg.Enabled {
		logger.Debug("Distributed tracing is disabled.")
		return sdktrace.NewTracerProvider(), func() {}, nil
	}

	logger.Info("Initializing distributed tracing...", "protocol", cfg.Protocol, "endpoint", cfg.Endpoint)

	ctx := context.Background()
	var exporter sdktrace.SpanExporter
	var err error
	switch strings.ToLower(cfg.Protocol) {
	case "http":
		exporter, err = otlptrace.New(ctx, otlptracehttp.NewClient(otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure()))
	case "grpc":
		exporter, err = otlptrace.New(ctx, otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure()))
	default:
		return nil, nil, fmt.Errorf("unsupported tracing protocol: %q", cfg.Protocol)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down tracer provider", "error", err)
		}
	}
	return tp, cleanup, nil
}

type cliOptions struct {
	configPath  string
	output      string
	compression string
	messages    int
	force       bool
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Generator.Output = opts.output
	}
	if flags.Changed("compression") {
		cfg.Chunk.Compression = opts.compression
	}
	if flags.Changed("messages") {
		cfg.Generator.MessageCount = opts.messages
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runGenerate(ctx context.Context, cfg *config.Config, force bool) error {
	if cfg.Generator.Output == "-" && strings.EqualFold(cfg.Logging.Output, "stdout") {
		return fmt.Errorf("cannot log to stdout while writing the recording to stdout")
	}
	logger, logCloser, err := createLogger(cfg.Logging)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	tp, cleanup, err := initTracerProvider(cfg.Tracing, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := openOutput(cfg.Generator.Output, force, logger)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(out, 1<<20)

	start := time.Now()
	gen := newGenerator(cfg, logger, tp.Tracer(serviceName))
	stats, err := gen.Run(ctx, bw)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		out.Abort()
		logger.Error("Recording failed", "output", cfg.Generator.Output, "error", err)
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	logger.Info("Done",
		"output", cfg.Generator.Output,
		"channels", stats.ChannelCount,
		"attachments", stats.AttachmentCount,
		"duration", time.Since(start))
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "mcapgen",
		Short:         "Write a synthetic MCAP recording",
		Long:          "mcapgen writes a chunked, indexed MCAP recording of generated messages using the mcapwire encoders.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runGenerate(ctx, cfg, opts.force)
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "mcapgen.yaml", "Path to the configuration file")
	pf.StringVarP(&opts.output, "output", "o", "", "Output file, - for stdout")
	pf.StringVar(&opts.compression, "compression", "", "Chunk compression: none, zstd, lz4 or snappy")
	pf.IntVarP(&opts.messages, "messages", "n", 0, "Number of messages to generate")
	rootCmd.Flags().BoolVar(&opts.force, "force", false, "Write to stdout even when it is a terminal")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	rootCmd.AddCommand(configCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mcapgen: %v\n", err)
		os.Exit(1)
	}
}
