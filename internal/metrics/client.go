package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client records the MQTT connection-layer metrics. It carries the
// broker identity so call sites only supply the varying dimensions.
type Client struct {
	brokerHost string
	brokerPort string
	clientID   string
	bridgeName string

	connectionStatus   *prometheus.GaugeVec
	connectionAttempts *prometheus.CounterVec
	connectionFailures *prometheus.CounterVec

	messagesReceived   *prometheus.CounterVec
	messagesPublished  *prometheus.CounterVec
	messageSize        *prometheus.HistogramVec
	processingDuration *prometheus.HistogramVec
	processingErrors   *prometheus.CounterVec

	subscriptionsActive  *prometheus.GaugeVec
	subscriptionAttempts *prometheus.CounterVec
	subscriptionFailures *prometheus.CounterVec

	clientInfo *Info
}

// NewClient creates and registers the MQTT connection metric set.
func NewClient(reg prometheus.Registerer, brokerHost string, brokerPort int, clientID, bridgeName string) *Client {
	factory := promauto.With(reg)
	connLabels := []string{"broker_host", "broker_port", "bridge_name"}
	topicLabels := []string{"topic", "broker_host", "bridge_name"}

	return &Client{
		brokerHost: brokerHost,
		brokerPort: strconv.Itoa(brokerPort),
		clientID:   clientID,
		bridgeName: bridgeName,
		connectionStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_mqtt_connection_status",
			Help: "MQTT connection status (1=connected, 0=disconnected)",
		}, connLabels),
		connectionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_connection_attempts_total",
			Help: "Total number of MQTT connection attempts",
		}, connLabels),
		connectionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_connection_failures_total",
			Help: "Total number of MQTT connection failures",
		}, []string{"broker_host", "broker_port", "reason", "bridge_name"}),
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_messages_received_total",
			Help: "Total number of MQTT messages received",
		}, topicLabels),
		messagesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_messages_published_total",
			Help: "Total number of MQTT messages published",
		}, topicLabels),
		messageSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ziggy_mqtt_message_size_bytes",
			Help:    "Size of MQTT messages in bytes",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}, topicLabels),
		processingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ziggy_mqtt_message_processing_duration_seconds",
			Help:    "Time spent processing MQTT messages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, topicLabels),
		processingErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_message_processing_errors_total",
			Help: "Total number of MQTT message processing errors",
		}, []string{"topic", "broker_host", "error_type", "bridge_name"}),
		subscriptionsActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_mqtt_subscriptions_active",
			Help: "Number of active MQTT subscriptions",
		}, []string{"broker_host", "bridge_name"}),
		subscriptionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_subscription_attempts_total",
			Help: "Total number of MQTT subscription attempts",
		}, topicLabels),
		subscriptionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_mqtt_subscription_failures_total",
			Help: "Total number of MQTT subscription failures",
		}, topicLabels),
		clientInfo: NewInfo(reg,
			"ziggy_mqtt_client_info",
			"MQTT client information"),
	}
}

func (c *Client) SetConnectionStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.connectionStatus.WithLabelValues(c.brokerHost, c.brokerPort, c.bridgeName).Set(value)
}

func (c *Client) IncConnectionAttempts() {
	c.connectionAttempts.WithLabelValues(c.brokerHost, c.brokerPort, c.bridgeName).Inc()
}

func (c *Client) IncConnectionFailures(reason string) {
	c.connectionFailures.WithLabelValues(c.brokerHost, c.brokerPort, reason, c.bridgeName).Inc()
}

func (c *Client) IncMessagesReceived(topic string) {
	c.messagesReceived.WithLabelValues(topic, c.brokerHost, c.bridgeName).Inc()
}

func (c *Client) IncMessagesPublished(topic string) {
	c.messagesPublished.WithLabelValues(topic, c.brokerHost, c.bridgeName).Inc()
}

func (c *Client) ObserveMessageSize(topic string, sizeBytes int) {
	c.messageSize.WithLabelValues(topic, c.brokerHost, c.bridgeName).Observe(float64(sizeBytes))
}

func (c *Client) ObserveProcessingDuration(topic string, seconds float64) {
	c.processingDuration.WithLabelValues(topic, c.brokerHost, c.bridgeName).Observe(seconds)
}

func (c *Client) IncProcessingErrors(topic, errorType string) {
	c.processingErrors.WithLabelValues(topic, c.brokerHost, errorType, c.bridgeName).Inc()
}

func (c *Client) SetSubscriptionsActive(count int) {
	c.subscriptionsActive.WithLabelValues(c.brokerHost, c.bridgeName).Set(float64(count))
}

func (c *Client) IncSubscriptionAttempts(topic string) {
	c.subscriptionAttempts.WithLabelValues(topic, c.brokerHost, c.bridgeName).Inc()
}

func (c *Client) IncSubscriptionFailures(topic string) {
	c.subscriptionFailures.WithLabelValues(topic, c.brokerHost, c.bridgeName).Inc()
}

func (c *Client) SetClientInfo(info map[string]string) {
	c.clientInfo.Set(prometheus.Labels{
		"client_id":   c.clientID,
		"broker_host": c.brokerHost,
		"broker_port": c.brokerPort,
		"bridge_name": c.bridgeName,
	}, info)
}
