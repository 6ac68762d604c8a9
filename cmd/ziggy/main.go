package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jzucker2/ziggy/internal/bridge"
	"github.com/jzucker2/ziggy/internal/config"
	"github.com/jzucker2/ziggy/internal/conntrack"
	"github.com/jzucker2/ziggy/internal/httpserver"
	"github.com/jzucker2/ziggy/internal/metrics"
	"github.com/jzucker2/ziggy/internal/mqtt"
	"github.com/jzucker2/ziggy/internal/topics"
	"github.com/jzucker2/ziggy/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting ziggy",
		slog.String("version", version.Version),
		slog.String("bridge_name", cfg.Bridge.Name),
		slog.String("base_topic", cfg.Bridge.BaseTopic))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bridgeMetrics := metrics.NewBridge(registry)
	clientMetrics := metrics.NewClient(registry,
		cfg.MQTT.BrokerHost, cfg.MQTT.BrokerPort, cfg.MQTT.ClientID, cfg.Bridge.Name)

	topicSet := topics.Derive(cfg.Bridge.BaseTopic)
	reconciler := bridge.New(bridgeMetrics, bridge.Identity{
		BridgeName: cfg.Bridge.Name,
		BaseTopic:  cfg.Bridge.BaseTopic,
	}, bridge.DefaultFieldPolicy(), logger)
	reconciler.SetTopicsInfo(topicSet)
	reconciler.UpdateAppInfo(version.Name, version.AppInfo(cfg.Environment, cfg.LogLevel))

	tracker := conntrack.New(clientMetrics,
		cfg.MQTT.BrokerHost, cfg.MQTT.BrokerPort, cfg.MQTT.ClientID, cfg.MQTT.HasCredentials())
	pipeline := bridge.NewPipeline(reconciler, clientMetrics, topicSet, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	incoming := make(chan mqtt.Message, cfg.BufferSize)

	subscriptions := []string{topicSet.Health, topicSet.State, topicSet.Info}
	if cfg.MQTT.SubscribeAll {
		subscriptions = append(subscriptions, "#")
	}
	subscriptions = append(subscriptions, cfg.MQTT.ExtraTopics...)

	client, err := mqtt.New(mqtt.Config{
		BrokerHost:    cfg.MQTT.BrokerHost,
		BrokerPort:    cfg.MQTT.BrokerPort,
		Username:      cfg.MQTT.Username,
		Password:      cfg.MQTT.Password,
		UseTLS:        cfg.MQTT.UseTLS,
		CAFile:        cfg.MQTT.CAFile,
		ClientID:      cfg.MQTT.ClientID,
		QoS:           cfg.MQTT.QoS,
		Subscriptions: subscriptions,
	}, mqtt.Handlers{
		OnMessage: func(msg mqtt.Message) {
			select {
			case incoming <- msg:
			case <-ctx.Done():
			}
		},
		OnConnect: func() {
			tracker.RecordConnectSuccess(map[string]string{
				"connected":       "true",
				"has_credentials": strconv.FormatBool(cfg.MQTT.HasCredentials()),
			})
			logger.Info("mqtt connected",
				slog.String("broker_host", cfg.MQTT.BrokerHost),
				slog.Int("broker_port", cfg.MQTT.BrokerPort))
		},
		OnReconnecting: func() {
			tracker.RecordReconnect()
			logger.Warn("mqtt reconnecting")
		},
		OnConnectionLost: func(err error) {
			tracker.RecordDisconnect()
			logger.Error("mqtt connection lost", slog.Any("error", err))
		},
		OnSubscribe: func(topic string, err error) {
			if err != nil {
				tracker.RecordSubscribeFailure(topic)
				logger.Error("failed to subscribe", slog.String("topic", topic), slog.Any("error", err))
				return
			}
			tracker.RecordSubscribe(topic)
			logger.Info("subscribed", slog.String("topic", topic))
		},
	})
	if err != nil {
		logger.Error("failed to create mqtt client", slog.Any("error", err))
		os.Exit(1)
	}

	tracker.RecordConnectAttempt()
	if err := client.Connect(); err != nil {
		tracker.RecordConnectFailure(mqtt.FailureReason(err))
		logger.Error("failed to connect to mqtt broker", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Disconnect()

	httpserver.Start(cfg.HTTPAddr, httpserver.Deps{
		Registry:    registry,
		Environment: cfg.Environment,
		Ready: func(context.Context) bool {
			return client.Connected()
		},
		Connection: tracker.Snapshot,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-incoming:
				pipeline.HandleMessage(msg.Topic, msg.Payload)
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	wg.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
