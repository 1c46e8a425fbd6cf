package metrics_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestHistoryMetrics_Observe(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewHistoryMetrics(registry)

	m.Observe("page_messages", history.OutcomeOK, 10*time.Millisecond)
	m.Observe("page_messages", history.OutcomeOK, 20*time.Millisecond)
	m.Observe("page_messages", history.OutcomeNotFound, time.Millisecond)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("page_messages", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("page_messages", "not_found")); got != 1 {
		t.Errorf("not_found count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.RequestDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestHistoryMetrics_ImplementsObserver(t *testing.T) {
	var _ history.Observer = metrics.NewHistoryMetrics(prometheus.NewRegistry())
}

func TestRegisterGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	v := 7.0
	metrics.RegisterGauge(registry, "wpphist_test_value", "test", func() float64 { return v })

	expected := "# HELP wpphist_test_value test\n# TYPE wpphist_test_value gauge\nwpphist_test_value 7\n"
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "wpphist_test_value"); err != nil {
		t.Error(err)
	}
}

func TestServerServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewHistoryMetrics(registry)
	m.RowsIndexed.Add(3)

	srv, err := metrics.Listen("127.0.0.1:0", registry, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	defer func() { _ = srv.Stop(context.Background()) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "wpphist_rows_indexed_total 3") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}
}
