package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/emailauth"
)

type fakeSource struct {
	snapshot emailauth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() emailauth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) NotifyDropped() uint64                      { return f.dropped }

func scrape(t testing.TB, exp *Exporter) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestScrapeOmitsDisabledMetrics(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: emailauth.MetricsSnapshot{
			Counters:   map[emailauth.MetricID]uint64{},
			Histograms: map[emailauth.MetricID][]uint64{},
		},
	})

	out := scrape(t, exp)
	if strings.Contains(out, "emailauth_login_success_total") {
		t.Fatalf("expected no counters for disabled metrics, got:\n%s", out)
	}
	if !strings.Contains(out, "emailauth_notify_dropped_total 0") {
		t.Fatalf("expected dropped counter, got:\n%s", out)
	}
}

func TestScrapeIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: emailauth.MetricsSnapshot{
			Counters: map[emailauth.MetricID]uint64{
				emailauth.MetricLoginSuccess:    7,
				emailauth.MetricRegisterSuccess: 2,
			},
			Histograms: map[emailauth.MetricID][]uint64{
				emailauth.MetricLoginLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := scrape(t, exp)
	for _, want := range []string{
		"emailauth_login_success_total 7",
		"emailauth_register_success_total 2",
		`emailauth_login_latency_seconds_bucket{le="0.005"} 1`,
		`emailauth_login_latency_seconds_bucket{le="0.5"} 28`,
		`emailauth_login_latency_seconds_bucket{le="+Inf"} 36`,
		"emailauth_login_latency_seconds_count 36",
		"emailauth_notify_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "emailauth_authenticate_latency_seconds_bucket") {
		t.Fatalf("absent histogram must not be exported, got:\n%s", out)
	}
}

func TestExporterAgainstEngine(t *testing.T) {
	cfg := emailauth.DefaultConfig()
	cfg.Cookie.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Hash.Iterations = 1000
	cfg.Notify.Async = false

	engine, err := emailauth.New().WithConfig(cfg).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.ParseSession("not-a-token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}

	out := scrape(t, NewPrometheusExporter(engine))
	if !strings.Contains(out, "emailauth_session_rejected_total 1") {
		t.Fatalf("expected rejected session counter, got:\n%s", out)
	}
}

func BenchmarkScrape(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: emailauth.MetricsSnapshot{
			Counters: map[emailauth.MetricID]uint64{
				emailauth.MetricAuthenticateSuccess: 5000,
				emailauth.MetricLoginSuccess:        1000,
				emailauth.MetricLoginFailure:        40,
				emailauth.MetricRegisterSuccess:     300,
				emailauth.MetricSessionIssued:       1300,
				emailauth.MetricResetFailure:        3,
			},
			Histograms: map[emailauth.MetricID][]uint64{
				emailauth.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = scrape(b, exp)
	}
}
