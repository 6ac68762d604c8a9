package conntrack

import (
	"sort"
	"sync"

	"github.com/jzucker2/ziggy/internal/metrics"
)

// State is the MQTT connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Snapshot is the connection view served by the status endpoint.
type Snapshot struct {
	Connected        bool     `json:"connected"`
	BrokerHost       string   `json:"broker_host"`
	BrokerPort       int      `json:"broker_port"`
	ClientID         string   `json:"client_id"`
	SubscribedTopics []string `json:"subscribed_topics"`
	HasCredentials   bool     `json:"has_credentials"`
}

// Tracker follows the MQTT connection and subscription lifecycle and
// keeps the derived metrics current. Safe for concurrent use; the paho
// client fires its callbacks from its own goroutines.
type Tracker struct {
	metrics        *metrics.Client
	brokerHost     string
	brokerPort     int
	clientID       string
	hasCredentials bool

	mu         sync.Mutex
	state      State
	subscribed map[string]struct{}
}

// New creates a Tracker in the Disconnected state.
func New(m *metrics.Client, brokerHost string, brokerPort int, clientID string, hasCredentials bool) *Tracker {
	return &Tracker{
		metrics:        m,
		brokerHost:     brokerHost,
		brokerPort:     brokerPort,
		clientID:       clientID,
		hasCredentials: hasCredentials,
		subscribed:     make(map[string]struct{}),
	}
}

// RecordConnectAttempt counts a connection attempt. The state only
// moves once the outcome is known.
func (t *Tracker) RecordConnectAttempt() {
	t.metrics.IncConnectionAttempts()
}

// RecordReconnect marks the client as reconnecting. The underlying
// client signals this while a connect is in flight, so it doubles as
// an attempt.
func (t *Tracker) RecordReconnect() {
	t.mu.Lock()
	t.state = Connecting
	t.mu.Unlock()
	t.metrics.IncConnectionAttempts()
}

// RecordConnectSuccess marks the connection established and publishes
// the client info metric.
func (t *Tracker) RecordConnectSuccess(clientInfo map[string]string) {
	t.mu.Lock()
	t.state = Connected
	t.mu.Unlock()
	t.metrics.SetConnectionStatus(true)
	t.metrics.SetClientInfo(clientInfo)
}

// RecordConnectFailure marks the connection down with a bounded reason
// label.
func (t *Tracker) RecordConnectFailure(reason string) {
	t.mu.Lock()
	t.state = Disconnected
	t.mu.Unlock()
	t.metrics.SetConnectionStatus(false)
	t.metrics.IncConnectionFailures(reason)
}

// RecordDisconnect marks the connection down.
func (t *Tracker) RecordDisconnect() {
	t.mu.Lock()
	t.state = Disconnected
	t.mu.Unlock()
	t.metrics.SetConnectionStatus(false)
}

// RecordSubscribe tracks a successful subscription and republishes the
// active-subscription gauge. Re-subscribing to a known topic does not
// grow the set.
func (t *Tracker) RecordSubscribe(topic string) {
	t.metrics.IncSubscriptionAttempts(topic)
	t.mu.Lock()
	t.subscribed[topic] = struct{}{}
	count := len(t.subscribed)
	t.mu.Unlock()
	t.metrics.SetSubscriptionsActive(count)
}

// RecordSubscribeFailure counts a failed subscription.
func (t *Tracker) RecordSubscribeFailure(topic string) {
	t.metrics.IncSubscriptionFailures(topic)
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connected reports whether the tracker currently sees an established
// connection.
func (t *Tracker) Connected() bool {
	return t.State() == Connected
}

// Snapshot returns the current connection view with topics in stable
// order.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	topics := make([]string, 0, len(t.subscribed))
	for topic := range t.subscribed {
		topics = append(topics, topic)
	}
	connected := t.state == Connected
	t.mu.Unlock()
	sort.Strings(topics)

	return Snapshot{
		Connected:        connected,
		BrokerHost:       t.brokerHost,
		BrokerPort:       t.brokerPort,
		ClientID:         t.clientID,
		SubscribedTopics: topics,
		HasCredentials:   t.hasCredentials,
	}
}
