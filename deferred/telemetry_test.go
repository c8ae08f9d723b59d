package deferred

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/deferhttp/logger"
	"github.com/kbukum/deferhttp/observability"
	"github.com/kbukum/deferhttp/testutil"
)

func TestTelemetry_SpanMetricsAndLogs(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	r := New(testutil.NewSpyPending(testutil.NewResponse(404, ""), nil),
		WithMetrics(metrics), WithLogger(log), WithMethod("GET"), WithID("req-42"))
	r.RaiseForStatus(nil)
	if _, err := r.Text(context.Background()); err == nil {
		t.Fatal("expected policy error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != observability.SpanResolve {
		t.Fatalf("unexpected spans %v", spans)
	}
	var sawStatus bool
	for _, kv := range spans[0].Attributes {
		if kv.Key == attribute.Key(observability.AttrStatusCode) && kv.Value.AsInt64() == 404 {
			sawStatus = true
		}
	}
	if !sawStatus {
		t.Error("span should carry the status code")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	for _, name := range []string{observability.MetricResolveTotal, observability.MetricResolveDuration, observability.MetricPolicyTotal} {
		if !found[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}

	if out := buf.String(); !strings.Contains(out, "req-42") || !strings.Contains(out, "error policy applied") {
		t.Errorf("expected resolution logs, got %s", out)
	}
}
