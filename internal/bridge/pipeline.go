package bridge

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jzucker2/ziggy/internal/metrics"
	"github.com/jzucker2/ziggy/internal/payload"
	"github.com/jzucker2/ziggy/internal/topics"
)

// Pipeline is the single inbound message path: decode, classify,
// dispatch. The handler table is built once at startup so the routing
// is inspectable without a running MQTT client. No failure escapes
// back into the client's callback; every failure mode ends in the
// processing-error counter.
type Pipeline struct {
	set      topics.Set
	handlers map[topics.Kind]func(payload.Object)
	client   *metrics.Client
	log      *slog.Logger
}

// NewPipeline wires the reconciler's handlers into a dispatch table.
func NewPipeline(r *Reconciler, client *metrics.Client, set topics.Set, log *slog.Logger) *Pipeline {
	return &Pipeline{
		set: set,
		handlers: map[topics.Kind]func(payload.Object){
			topics.Health: r.UpdateBridgeHealth,
			topics.State:  r.UpdateBridgeState,
			topics.Info:   r.UpdateBridgeInfo,
		},
		client: client,
		log:    log,
	}
}

// Kinds returns the payload kinds the dispatch table covers.
func (p *Pipeline) Kinds() []topics.Kind {
	kinds := make([]topics.Kind, 0, len(p.handlers))
	for kind := range p.handlers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// HandleMessage processes one inbound MQTT message to completion.
func (p *Pipeline) HandleMessage(topic string, raw []byte) {
	start := time.Now()
	p.client.IncMessagesReceived(topic)
	p.client.ObserveMessageSize(topic, len(raw))

	kind := topics.Classify(topic, p.set)
	p.log.Debug("processing message",
		slog.String("topic", topic),
		slog.String("kind", kind.String()),
		slog.Int("payload_size", len(raw)))

	if kind == topics.General {
		if !p.handleGeneral(topic, raw) {
			return
		}
	} else if !p.handleBridge(kind, topic, raw) {
		return
	}

	p.client.ObserveProcessingDuration(topic, time.Since(start).Seconds())
}

func (p *Pipeline) handleBridge(kind topics.Kind, topic string, raw []byte) (done bool) {
	data, err := payload.Decode(raw)
	if err != nil {
		errorType := "handler_error"
		var decodeErr *payload.DecodeError
		if errors.As(err, &decodeErr) {
			errorType = decodeErr.Kind
			p.log.Error("failed to parse bridge payload",
				slog.String("topic", topic),
				slog.String("kind", kind.String()),
				slog.String("payload_preview", decodeErr.RawPreview),
				slog.Any("error", err))
		} else {
			p.log.Error("failed to decode bridge payload",
				slog.String("topic", topic),
				slog.Any("error", err))
		}
		p.client.IncProcessingErrors(topic, errorType)
		return false
	}

	// A recovered panic here means a handler tripped over an
	// unexpected payload shape; the message is dropped and counted,
	// the subscription loop lives on.
	defer func() {
		if rec := recover(); rec != nil {
			p.client.IncProcessingErrors(topic, "handler_error")
			p.log.Error("bridge message handler failed",
				slog.String("topic", topic),
				slog.String("kind", kind.String()),
				slog.Any("panic", rec))
			done = false
		}
	}()
	p.handlers[kind](data)
	return true
}

// handleGeneral deals with topics outside the bridge set. Payloads
// here are opportunistically parsed for debug logging only; non-JSON
// content is expected and not an error.
func (p *Pipeline) handleGeneral(topic string, raw []byte) (done bool) {
	defer func() {
		if rec := recover(); rec != nil {
			p.client.IncProcessingErrors(topic, "general_error")
			p.log.Error("general message handling failed",
				slog.String("topic", topic),
				slog.Any("panic", rec))
			done = false
		}
	}()

	if data, err := payload.Decode(raw); err == nil {
		keys := make([]string, 0, len(data))
		for key := range data {
			keys = append(keys, key)
		}
		p.log.Debug("general message parsed",
			slog.String("topic", topic),
			slog.Any("keys", keys))
	} else {
		p.log.Debug("general message is not JSON", slog.String("topic", topic))
	}
	return true
}
