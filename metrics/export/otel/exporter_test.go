package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/emailauth"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot emailauth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() emailauth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := emailauth.MetricsSnapshot{
		Counters:   make(map[emailauth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[emailauth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) NotifyDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collectInt64(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			}
		}
	}
	return out
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader(t)

	src := &fakeSource{
		snapshot: emailauth.MetricsSnapshot{
			Counters: map[emailauth.MetricID]uint64{
				emailauth.MetricLoginSuccess: 3,
			},
			Histograms: map[emailauth.MetricID][]uint64{
				emailauth.MetricAuthenticateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("emailauth-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collectInt64(t, reader)
	if got["emailauth_login_success_total"] != 3 {
		t.Fatalf("unexpected login success value: %v", got)
	}
	if got["emailauth_authenticate_latency_seconds_bucket_le_0_025"] != 3 {
		t.Fatalf("expected cumulative bucket, got %v", got)
	}
	if got["emailauth_authenticate_latency_seconds_count"] != 8 {
		t.Fatalf("expected histogram count 8, got %v", got)
	}
	if got["emailauth_notify_dropped_total"] != 1 {
		t.Fatalf("expected dropped counter, got %v", got)
	}
	if _, ok := got["emailauth_login_latency_seconds_count"]; ok {
		t.Fatal("absent histogram must not be observed")
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader(t)

	if _, err := NewOTelExporterFromSource(provider.Meter("emailauth-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader(t)

	src := &fakeSource{
		snapshot: emailauth.MetricsSnapshot{
			Counters: map[emailauth.MetricID]uint64{
				emailauth.MetricLoginSuccess: 1,
			},
			Histograms: map[emailauth.MetricID][]uint64{
				emailauth.MetricLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("emailauth-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[emailauth.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
