package telemetry

import (
	"context"
	"ctchen222/tictactoe-engine/internal/config"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const shutdownTimeout = 5 * time.Second

// ShutdownFunc flushes and stops the providers installed by InitOtel.
type ShutdownFunc func(context.Context) error

// InitOtel installs the global OpenTelemetry providers. With cfg.Enabled, traces,
// metrics and logs are exported over OTLP/gRPC to cfg.Endpoint. With
// cfg.StdoutTraces, spans are also written to traceOut. When neither is set the
// global no-op providers stay in place.
func InitOtel(ctx context.Context, cfg config.Telemetry, traceOut io.Writer) (ShutdownFunc, error) {
	if !cfg.Enabled && !cfg.StdoutTraces {
		return func(context.Context) error { return nil }, nil
	}

	// --- Create shared resource ---
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var shutdowns []ShutdownFunc
	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if cfg.StdoutTraces {
		stdoutTraceExporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(stdoutTraceExporter))
	}

	var conn *grpc.ClientConn
	if cfg.Enabled {
		// --- Create gRPC connection ---
		conn, err = grpc.NewClient(cfg.Endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection to OTLP collector: %w", err)
		}

		otlpTraceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create OTLP trace exporter: %w", err), conn.Close())
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(otlpTraceExporter))
	}

	// --- Setup Traces ---
	tp := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tp)
	shutdowns = append(shutdowns, tp.Shutdown)

	if cfg.Enabled {
		// --- Setup Metrics ---
		otlpMetricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create OTLP metric exporter: %w", err), tp.Shutdown(ctx), conn.Close())
		}
		mp := metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(otlpMetricExporter)),
			metric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)

		// --- Setup Logs ---
		otlpLogExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create OTLP log exporter: %w", err), tp.Shutdown(ctx), mp.Shutdown(ctx), conn.Close())
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(otlpLogExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(lp)
		shutdowns = append(shutdowns, lp.Shutdown)
	}

	// --- Set Propagators ---
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// --- Shutdown function ---
	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		// Close the gRPC connection
		if conn != nil {
			if err := conn.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close gRPC connection: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	return shutdown, nil
}
