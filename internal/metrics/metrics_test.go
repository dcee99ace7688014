package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric for %s, got %d", name, len(mf.GetMetric()))
			}
			return mf.GetMetric()[0].GetCounter().GetValue(), true
		}
	}
	return 0, false
}

// TestRecordLoginSuccess_IncrementsCounter はログイン成功カウンタが増加することを検証する。
func TestRecordLoginSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginSuccess()
	c.RecordLoginSuccess()

	val, found := counterValue(t, reg, "machiba_login_success_total")
	if !found {
		t.Fatal("machiba_login_success_total metric not found")
	}
	if val != 2 {
		t.Errorf("login_success_total = %v, want 2", val)
	}
}

// TestRecordLoginFailure_IncrementsCounter はログイン失敗カウンタが増加することを検証する。
func TestRecordLoginFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginFailure()

	val, found := counterValue(t, reg, "machiba_login_fail_total")
	if !found {
		t.Fatal("machiba_login_fail_total metric not found")
	}
	if val != 1 {
		t.Errorf("login_fail_total = %v, want 1", val)
	}
}

// TestRecordSignup_IncrementsCounterWithLabel はサインアップカウンタがロールラベル付きで増加することを検証する。
func TestRecordSignup_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignup("visitor")
	c.RecordSignup("visitor")
	c.RecordSignup("business")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "machiba_signup_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Errorf("expected 2 labeled metrics, got %d", len(mf.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("machiba_signup_total metric not found")
	}
}

// TestRecordOAuthCallback_IncrementsCounterWithLabels はOAuthコールバックカウンタが
// プロバイダー・結果ラベル付きで増加することを検証する。
func TestRecordOAuthCallback_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOAuthCallback("google", "login")
	c.RecordOAuthCallback("google", "signup")
	c.RecordOAuthCallback("apple", "exchange_error")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "machiba_oauth_callback_total" {
			found = true
			if len(mf.GetMetric()) != 3 {
				t.Errorf("expected 3 labeled metrics, got %d", len(mf.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("machiba_oauth_callback_total metric not found")
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシヒストグラムが記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "machiba_request_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("machiba_request_latency_seconds metric not found")
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLoginSuccess()

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "machiba_login_success_total") {
		t.Error("response should contain machiba_login_success_total metric")
	}
}
