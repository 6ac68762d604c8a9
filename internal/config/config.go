package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	LogLevel    string
	Environment string
	HTTPAddr    string
	BufferSize  int

	MQTT   MQTTConfig
	Bridge BridgeConfig
}

type MQTTConfig struct {
	BrokerHost   string
	BrokerPort   int
	Username     string
	Password     string
	UseTLS       bool
	CAFile       string
	ClientID     string
	QoS          byte
	SubscribeAll bool
	ExtraTopics  []string
}

type BridgeConfig struct {
	Name      string
	BaseTopic string
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{}
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Environment = getEnv("ENVIRONMENT", "development")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.BufferSize = getEnvInt("MESSAGE_BUFFER_SIZE", 1000)
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}

	cfg.MQTT = MQTTConfig{
		BrokerHost:   getEnv("MQTT_BROKER_HOST", "localhost"),
		BrokerPort:   getEnvInt("MQTT_BROKER_PORT", 1883),
		Username:     os.Getenv("MQTT_USERNAME"),
		Password:     os.Getenv("MQTT_PASSWORD"),
		UseTLS:       getEnvBool("MQTT_USE_TLS", false),
		CAFile:       os.Getenv("MQTT_CA_FILE"),
		ClientID:     getEnv("MQTT_CLIENT_ID", "ziggy"),
		QoS:          byte(getEnvInt("MQTT_QOS", 0)),
		SubscribeAll: getEnvBool("MQTT_SUBSCRIBE_ALL", false),
		ExtraTopics:  getEnvList("MQTT_EXTRA_TOPICS"),
	}

	cfg.Bridge = BridgeConfig{
		Name:      getEnv("ZIGBEE2MQTT_BRIDGE_NAME", "default"),
		BaseTopic: getEnv("ZIGBEE2MQTT_BASE_TOPIC", "zigbee2mqtt"),
	}

	if cfg.MQTT.BrokerHost == "" {
		return cfg, fmt.Errorf("MQTT_BROKER_HOST is required")
	}
	if cfg.Bridge.BaseTopic == "" {
		return cfg, fmt.Errorf("ZIGBEE2MQTT_BASE_TOPIC is required")
	}

	return cfg, nil
}

// HasCredentials reports whether both a username and password are
// configured.
func (c MQTTConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	topics := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	return topics
}
