package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Message is one inbound MQTT message.
type Message struct {
	Topic      string
	Payload    []byte
	QoS        byte
	ReceivedAt time.Time
}

// Config describes the broker connection and the topics to subscribe.
type Config struct {
	BrokerHost    string
	BrokerPort    int
	Username      string
	Password      string
	UseTLS        bool
	CAFile        string
	ClientID      string
	QoS           byte
	Subscriptions []string
}

// Handlers are the callbacks the shell wires into the client. All of
// them are invoked from the paho client's own goroutines.
type Handlers struct {
	OnMessage        func(Message)
	OnConnect        func()
	OnReconnecting   func()
	OnConnectionLost func(error)
	OnSubscribe      func(topic string, err error)
}

// Client wraps the paho MQTT client. Subscriptions are (re)established
// inside the connect callback so they survive reconnects.
type Client struct {
	client    paho.Client
	connected atomic.Bool
}

// New builds a Client from the configuration. Connect must be called
// before any messages arrive.
func New(cfg Config, handlers Handlers) (*Client, error) {
	opts := paho.NewClientOptions()
	protocol := "tcp"
	if cfg.UseTLS {
		protocol = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", protocol, cfg.BrokerHost, cfg.BrokerPort))
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	if cfg.UseTLS {
		tlsConfig, err := buildTLSConfig(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	client := &Client{}

	opts.OnConnect = func(c paho.Client) {
		client.connected.Store(true)
		for _, topic := range cfg.Subscriptions {
			token := c.Subscribe(topic, cfg.QoS, nil)
			token.Wait()
			if handlers.OnSubscribe != nil {
				handlers.OnSubscribe(topic, token.Error())
			}
		}
		if handlers.OnConnect != nil {
			handlers.OnConnect()
		}
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		if handlers.OnReconnecting != nil {
			handlers.OnReconnecting()
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		client.connected.Store(false)
		if handlers.OnConnectionLost != nil {
			handlers.OnConnectionLost(err)
		}
	}

	opts.SetDefaultPublishHandler(func(_ paho.Client, msg paho.Message) {
		if handlers.OnMessage != nil {
			handlers.OnMessage(Message{
				Topic:      msg.Topic(),
				Payload:    msg.Payload(),
				QoS:        msg.Qos(),
				ReceivedAt: time.Now().UTC(),
			})
		}
	})

	client.client = paho.NewClient(opts)
	return client, nil
}

// Connect establishes the broker connection. Subscriptions happen in
// the connect callback.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Disconnect cleanly shuts the connection down.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.connected.Store(false)
}

// Connected reports the client's view of the connection.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// FailureReason maps a connection error onto a bounded label value so
// failure counters do not explode in cardinality.
func FailureReason(err error) string {
	if err == nil {
		return "unknown"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not authorized"), strings.Contains(msg, "not authorised"),
		strings.Contains(msg, "bad user name or password"):
		return "auth_failure"
	case strings.Contains(msg, "identifier rejected"):
		return "identifier_rejected"
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "network error"):
		return "network_error"
	default:
		return "unknown"
	}
}

func buildTLSConfig(caFile string) (*tls.Config, error) {
	tlsConfig := &tls.Config{}
	if caFile == "" {
		return tlsConfig, nil
	}
	pemData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("failed to parse MQTT CA file")
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}
