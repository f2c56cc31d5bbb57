package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/receipt"
)

func newTestMeter(t *testing.T) (*MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp, err := NewMeterProviderWithReader(reader, MetricsConfig{ServiceName: "receipt-test"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range want.ToSlice() {
			v, found := dp.Attributes.Value(kv.Key)
			if !found || v != kv.Value {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestNewPrintMetrics_NilMeter(t *testing.T) {
	m, err := NewPrintMetrics(nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestPrintMetrics_RecordDispatch(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewPrintMetrics(mp.Meter("receipt"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordDispatch(ctx, receipt.PrintMode("AUTO"), receipt.StateDone, "")
	m.RecordDispatch(ctx, receipt.PrintModeAutomatic, receipt.StateDone, "")
	m.RecordDispatch(ctx, receipt.PrintModeDialog, receipt.StateFailed, "SURFACE_UNAVAILABLE")

	data := collect(t, reader)["receipt_dispatch_total"]
	assert.Equal(t, int64(2), sumFor(t, data,
		AttrPrintMode.String(receipt.PrintModeAutomatic.String()),
		AttrDispatchState.String("DONE")))
	assert.Equal(t, int64(1), sumFor(t, data,
		AttrFailure.String("SURFACE_UNAVAILABLE")))
}

func TestPrintMetrics_RecordJob(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewPrintMetrics(mp.Meter("receipt"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	done, err := printing.NewPrintJob(printing.JobSourceDirect, "", "comprovante_1.html")
	require.NoError(t, err)
	require.NoError(t, done.StartRendering())
	require.NoError(t, done.Complete("a/b.pdf", "/files/a/b.pdf", 1500))

	failed, err := printing.NewPrintJob(printing.JobSourceReprint, "Caixa 2", "comprovante_2.html")
	require.NoError(t, err)
	require.NoError(t, failed.Fail("Falha ao gerar o PDF do comprovante"))

	m.RecordJob(ctx, done, 800*time.Millisecond)
	m.RecordJob(ctx, failed, 2*time.Second)
	m.RecordJob(ctx, nil, time.Second)

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, metrics["receipt_print_job_total"],
		AttrJobStatus.String("COMPLETED"), AttrJobSource.String("DIRECT")))
	assert.Equal(t, int64(1), sumFor(t, metrics["receipt_print_job_total"],
		AttrJobStatus.String("FAILED"), AttrPrinter.String("Caixa 2")))
	assert.Equal(t, int64(1500), sumFor(t, metrics["receipt_print_job_bytes_total"]))

	hist, ok := metrics["receipt_print_job_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
