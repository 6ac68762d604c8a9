package httpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jzucker2/ziggy/internal/conntrack"
	"github.com/jzucker2/ziggy/internal/metrics"
)

func newTestDeps(connected bool) Deps {
	reg := prometheus.NewRegistry()
	client := metrics.NewClient(reg, "localhost", 1883, "test-client", "test-bridge")
	tracker := conntrack.New(client, "localhost", 1883, "test-client", false)
	if connected {
		tracker.RecordConnectSuccess(nil)
	}
	return Deps{
		Registry:    reg,
		Environment: "test",
		Ready:       func(context.Context) bool { return connected },
		Connection:  tracker.Snapshot,
	}
}

func TestHealthz(t *testing.T) {
	handler := Handler(newTestDeps(false))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 200 {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body: got %q", rec.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	handler := Handler(newTestDeps(false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 503 {
		t.Fatalf("disconnected: got %d", rec.Code)
	}

	handler = Handler(newTestDeps(true))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 200 {
		t.Fatalf("connected: got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	handler := Handler(newTestDeps(true))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type: got %q", got)
	}

	var body struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		App         struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"app"`
		MQTT struct {
			Connected bool `json:"connected"`
		} `json:"mqtt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != "healthy" || body.Environment != "test" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.App.Name != "ziggy" || body.App.Version == "" {
		t.Fatalf("unexpected app info: %+v", body.App)
	}
	if !body.MQTT.Connected {
		t.Fatal("mqtt should report connected")
	}
}

func TestMQTTStatus(t *testing.T) {
	handler := Handler(newTestDeps(false))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/mqtt/status", nil))

	var body struct {
		Enabled        bool `json:"enabled"`
		Connected      bool `json:"connected"`
		ConnectionInfo struct {
			BrokerHost       string   `json:"broker_host"`
			BrokerPort       int      `json:"broker_port"`
			ClientID         string   `json:"client_id"`
			SubscribedTopics []string `json:"subscribed_topics"`
			HasCredentials   bool     `json:"has_credentials"`
		} `json:"connection_info"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !body.Enabled || body.Connected {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ConnectionInfo.BrokerHost != "localhost" || body.ConnectionInfo.BrokerPort != 1883 {
		t.Fatalf("unexpected connection info: %+v", body.ConnectionInfo)
	}
	if body.ConnectionInfo.HasCredentials {
		t.Fatal("credentials should not be reported")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	deps := newTestDeps(true)
	handler := Handler(deps)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ziggy_mqtt_connection_status") {
		t.Fatal("exposition should include the connection status metric")
	}
}
