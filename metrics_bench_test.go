package emailauth

import (
	"context"
	"testing"
	"time"
)

func benchMetricsConfigs() []struct {
	name string
	cfg  MetricsConfig
} {
	return []struct {
		name string
		cfg  MetricsConfig
	}{
		{"off", MetricsConfig{}},
		{"counters", MetricsConfig{Enabled: true}},
		{"histograms", MetricsConfig{Enabled: true, EnableLatencyHistograms: true}},
	}
}

func BenchmarkAuthenticateMetrics(b *testing.B) {
	for _, bc := range benchMetricsConfigs() {
		b.Run(bc.name, func(b *testing.B) {
			cfg := testConfig()
			cfg.Metrics = bc.cfg
			engine := newTestEngine(b, cfg, newMemAccounts(), nil)

			reg := engine.Register(context.Background(), nil, RegisterRequest{Email: "a@b.com", Password: "longpassword123"})
			if !reg.Success {
				b.Fatalf("register failed: %v", reg.Err)
			}
			creds, err := engine.ParseSession(reg.Session)
			if err != nil {
				b.Fatalf("ParseSession failed: %v", err)
			}
			req := &Request{Path: "/secret", Session: creds}

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				ctx := context.Background()
				for pb.Next() {
					if d := engine.Authenticate(ctx, req, AuthOptions{}); d.Kind != DecisionAuthenticated {
						b.Errorf("unexpected decision: %+v", d)
						return
					}
				}
			})
		})
	}
}

func BenchmarkMetricsLoginEmission(b *testing.B) {
	for _, bc := range benchMetricsConfigs() {
		b.Run(bc.name, func(b *testing.B) {
			m := NewMetrics(bc.cfg)
			d := 3 * time.Millisecond

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					m.Inc(MetricLoginSuccess)
					m.Inc(MetricSessionIssued)
					m.Observe(MetricLoginLatency, d)
				}
			})
		})
	}
}

func BenchmarkMetricsSnapshot(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for id := MetricID(0); id < metricIDCount; id++ {
		m.Inc(id)
	}
	m.Observe(MetricAuthenticateLatency, time.Millisecond)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Snapshot()
	}
}
