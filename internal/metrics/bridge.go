package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InfoCategories are the bridge-info payload sections that get their
// own info metric.
var InfoCategories = []string{"version", "coordinator", "network", "bridge", "os", "mqtt"}

// Bridge holds every Zigbee2MQTT-derived collector. All collectors are
// registered on the registerer handed to NewBridge; nothing touches the
// default registry.
type Bridge struct {
	HealthTimestamp *prometheus.GaugeVec

	OSLoadAverage1m  *prometheus.GaugeVec
	OSLoadAverage5m  *prometheus.GaugeVec
	OSLoadAverage15m *prometheus.GaugeVec
	OSMemoryUsedMB   *prometheus.GaugeVec
	OSMemoryPercent  *prometheus.GaugeVec

	ProcessUptimeSeconds   *prometheus.GaugeVec
	ProcessMemoryUsedMB    *prometheus.GaugeVec
	ProcessMemoryPercent   *prometheus.GaugeVec

	MQTTConnected         *prometheus.GaugeVec
	MQTTQueuedMessages    *prometheus.GaugeVec
	MQTTPublishedMessages *prometheus.CounterVec
	MQTTReceivedMessages  *prometheus.CounterVec

	DeviceLeaveCount            *prometheus.GaugeVec
	DeviceNetworkAddressChanges *prometheus.GaugeVec
	DeviceMessages              *prometheus.GaugeVec
	DeviceMessagesPerSec        *prometheus.GaugeVec
	DeviceAppearances           *prometheus.CounterVec

	BridgeState          *prometheus.GaugeVec
	BridgeStateTimestamp *prometheus.GaugeVec
	BridgeInfoTimestamp  *prometheus.GaugeVec

	BridgeInfo    map[string]*Info
	BaseTopicInfo *Info
	AppInfo       *Info
}

// NewBridge creates and registers the Zigbee2MQTT metric set.
func NewBridge(reg prometheus.Registerer) *Bridge {
	factory := promauto.With(reg)
	bridgeLabels := []string{"bridge_name"}
	deviceLabels := []string{"bridge_name", "device_ieee"}

	b := &Bridge{
		HealthTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_bridge_health_timestamp",
			Help: "Timestamp of the last Zigbee2MQTT bridge health check",
		}, bridgeLabels),
		OSLoadAverage1m: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_os_load_average_1m",
			Help: "1-minute CPU load average",
		}, bridgeLabels),
		OSLoadAverage5m: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_os_load_average_5m",
			Help: "5-minute CPU load average",
		}, bridgeLabels),
		OSLoadAverage15m: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_os_load_average_15m",
			Help: "15-minute CPU load average",
		}, bridgeLabels),
		OSMemoryUsedMB: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_os_memory_used_mb",
			Help: "Amount of used memory in MB",
		}, bridgeLabels),
		OSMemoryPercent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_os_memory_percent",
			Help: "Amount of used memory in percentage",
		}, bridgeLabels),
		ProcessUptimeSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_process_uptime_seconds",
			Help: "Uptime of Zigbee2MQTT in seconds",
		}, bridgeLabels),
		ProcessMemoryUsedMB: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_process_memory_used_mb",
			Help: "Memory used by Zigbee2MQTT in MB",
		}, bridgeLabels),
		ProcessMemoryPercent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_process_memory_percent",
			Help: "Memory used by Zigbee2MQTT in percentage",
		}, bridgeLabels),
		MQTTConnected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_mqtt_connected",
			Help: "Whether Zigbee2MQTT is connected to MQTT",
		}, bridgeLabels),
		MQTTQueuedMessages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_mqtt_queued_messages",
			Help: "Amount of queued messages to be sent to MQTT",
		}, bridgeLabels),
		MQTTPublishedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_zigbee2mqtt_mqtt_published_messages_total",
			Help: "Amount of published MQTT messages",
		}, bridgeLabels),
		MQTTReceivedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_zigbee2mqtt_mqtt_received_messages_total",
			Help: "Amount of received MQTT messages",
		}, bridgeLabels),
		DeviceLeaveCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_device_leave_count",
			Help: "Amount of times the device left the network",
		}, deviceLabels),
		DeviceNetworkAddressChanges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_device_network_address_changes",
			Help: "Amount of times the device changed its network address",
		}, deviceLabels),
		DeviceMessages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_device_messages",
			Help: "Amount of messages received from the device",
		}, deviceLabels),
		DeviceMessagesPerSec: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_device_messages_per_sec",
			Help: "Amount of messages received from the device per second",
		}, deviceLabels),
		DeviceAppearances: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ziggy_zigbee2mqtt_device_appearances_total",
			Help: "Amount of health reports that included the device",
		}, deviceLabels),
		BridgeState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_bridge_state",
			Help: "Zigbee2MQTT bridge state (1=online, 0=offline)",
		}, bridgeLabels),
		BridgeStateTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_bridge_state_timestamp",
			Help: "Timestamp of the last Zigbee2MQTT bridge state update",
		}, bridgeLabels),
		BridgeInfoTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ziggy_zigbee2mqtt_bridge_info_timestamp",
			Help: "Timestamp of the last Zigbee2MQTT bridge info update",
		}, bridgeLabels),
		BaseTopicInfo: NewInfo(reg,
			"ziggy_zigbee2mqtt_base_topic_info",
			"Zigbee2MQTT topics this bridge is observed on"),
		AppInfo: NewInfo(reg,
			"ziggy_app_info",
			"Ziggy application information"),
	}

	b.BridgeInfo = make(map[string]*Info, len(InfoCategories))
	for _, category := range InfoCategories {
		b.BridgeInfo[category] = NewInfo(reg,
			"ziggy_zigbee2mqtt_bridge_info_"+category,
			"Zigbee2MQTT bridge "+category+" information")
	}

	return b
}
