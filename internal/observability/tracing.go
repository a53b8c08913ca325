package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gekko3d/siteplan/layout/core"
)

const tracerName = "github.com/gekko3d/siteplan"

// Span attribute keys.
const (
	AttrTemplate  = attribute.Key("siteplan.template")
	AttrRequestID = attribute.Key("siteplan.request_id")
	AttrAssetRef  = attribute.Key("siteplan.asset_ref")
	AttrOp        = attribute.Key("siteplan.op")
)

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	// Writer receives pretty-printed spans. Nil means stdout.
	Writer io.Writer `mapstructure:"-"`
}

// InitTracing installs a global tracer provider exporting to a writer and
// returns its shutdown function. When disabled a no-op provider is set.
func InitTracing(ctx context.Context, cfg TracingConfig, logger core.Logger) (func(context.Context) error, error) {
	log := core.LoggerOrNop(logger)
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debugf("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create span exporter")
	}

	service := cfg.ServiceName
	if service == "" {
		service = "siteplan"
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", service)))
	if err != nil {
		return nil, errors.Wrap(err, "create resource")
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Infof("tracing enabled for %s (sample ratio %.2f)", service, ratio)
	return tp.Shutdown, nil
}

// ShutdownWithTimeout flushes spans, logging instead of failing.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, logger core.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		core.LoggerOrNop(logger).Warnf("tracing shutdown failed: %v", err)
	}
}

// StartSpan starts a span from the global tracer provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
