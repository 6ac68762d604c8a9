package conntrack

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jzucker2/ziggy/internal/metrics"
)

func newTestTracker(t *testing.T) (*Tracker, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	client := metrics.NewClient(reg, "localhost", 1883, "test-client", "test-bridge")
	return New(client, "localhost", 1883, "test-client", true), reg
}

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if counter := metric.GetCounter(); counter != nil {
				total += counter.GetValue()
			}
			if gauge := metric.GetGauge(); gauge != nil {
				total += gauge.GetValue()
			}
		}
	}
	return total
}

func TestTracker_StartsDisconnected(t *testing.T) {
	tr, _ := newTestTracker(t)
	if tr.State() != Disconnected {
		t.Fatalf("expected Disconnected, got %v", tr.State())
	}
	if tr.Connected() {
		t.Fatal("fresh tracker must not report connected")
	}
}

func TestTracker_ConnectAttemptDoesNotChangeState(t *testing.T) {
	tr, reg := newTestTracker(t)

	tr.RecordConnectAttempt()

	if tr.State() != Disconnected {
		t.Fatalf("attempt alone must not change state, got %v", tr.State())
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_connection_attempts_total"); got != 1 {
		t.Fatalf("attempts: got %v", got)
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	tr, reg := newTestTracker(t)

	tr.RecordConnectAttempt()
	tr.RecordConnectSuccess(map[string]string{"keep_alive": "30"})
	if tr.State() != Connected {
		t.Fatalf("expected Connected, got %v", tr.State())
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_connection_status"); got != 1 {
		t.Fatalf("status after connect: got %v", got)
	}

	tr.RecordDisconnect()
	if tr.State() != Disconnected {
		t.Fatalf("expected Disconnected, got %v", tr.State())
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_connection_status"); got != 0 {
		t.Fatalf("status after disconnect: got %v", got)
	}

	tr.RecordReconnect()
	if tr.State() != Connecting {
		t.Fatalf("expected Connecting, got %v", tr.State())
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_connection_attempts_total"); got != 2 {
		t.Fatalf("reconnect should count as an attempt, got %v", got)
	}
}

func TestTracker_ConnectFailure(t *testing.T) {
	tr, reg := newTestTracker(t)

	tr.RecordReconnect()
	tr.RecordConnectFailure("network_error")

	if tr.State() != Disconnected {
		t.Fatalf("expected Disconnected after failure, got %v", tr.State())
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_connection_failures_total"); got != 1 {
		t.Fatalf("failures: got %v", got)
	}
}

func TestTracker_Subscriptions(t *testing.T) {
	tr, reg := newTestTracker(t)

	tr.RecordSubscribe("zigbee2mqtt/bridge/health")
	tr.RecordSubscribe("zigbee2mqtt/bridge/state")
	tr.RecordSubscribe("zigbee2mqtt/bridge/health")

	if got := gatherValue(t, reg, "ziggy_mqtt_subscriptions_active"); got != 2 {
		t.Fatalf("active subscriptions: got %v", got)
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_subscription_attempts_total"); got != 3 {
		t.Fatalf("subscription attempts: got %v", got)
	}

	tr.RecordSubscribeFailure("zigbee2mqtt/bridge/info")
	if got := gatherValue(t, reg, "ziggy_mqtt_subscription_failures_total"); got != 1 {
		t.Fatalf("subscription failures: got %v", got)
	}
	if got := gatherValue(t, reg, "ziggy_mqtt_subscriptions_active"); got != 2 {
		t.Fatalf("failed subscribe must not grow the active set, got %v", got)
	}
}

func TestTracker_Snapshot(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.RecordConnectSuccess(nil)
	tr.RecordSubscribe("zigbee2mqtt/bridge/state")
	tr.RecordSubscribe("zigbee2mqtt/bridge/health")

	snap := tr.Snapshot()
	if !snap.Connected {
		t.Fatal("snapshot should report connected")
	}
	if snap.BrokerHost != "localhost" || snap.BrokerPort != 1883 {
		t.Fatalf("unexpected broker identity: %+v", snap)
	}
	if snap.ClientID != "test-client" {
		t.Fatalf("unexpected client id: %q", snap.ClientID)
	}
	if !snap.HasCredentials {
		t.Fatal("snapshot should report credentials")
	}
	if len(snap.SubscribedTopics) != 2 ||
		snap.SubscribedTopics[0] != "zigbee2mqtt/bridge/health" ||
		snap.SubscribedTopics[1] != "zigbee2mqtt/bridge/state" {
		t.Fatalf("topics should be sorted: %v", snap.SubscribedTopics)
	}
}
