package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jzucker2/ziggy/internal/metrics"
	"github.com/jzucker2/ziggy/internal/payload"
	"github.com/jzucker2/ziggy/internal/topics"
)

// Identity names the single upstream bridge this process observes. It
// is attached as a label to every metric the reconciler emits.
type Identity struct {
	BridgeName string
	BaseTopic  string
}

// Reconciler turns decoded bridge payloads into metric updates. The
// upstream JSON has no fixed schema; every field is optional and an
// absent field simply leaves its metric untouched.
type Reconciler struct {
	metrics  *metrics.Bridge
	identity Identity
	fields   *FieldPolicy
	log      *slog.Logger
	now      func() time.Time

	// Upstream-reported cumulative totals, remembered so repeated
	// health ticks only add the delta to the local counters.
	mu            sync.Mutex
	prevPublished float64
	seenPublished bool
	prevReceived  float64
	seenReceived  bool
}

// New creates a Reconciler bound to one bridge identity.
func New(m *metrics.Bridge, identity Identity, fields *FieldPolicy, log *slog.Logger) *Reconciler {
	if fields == nil {
		fields = DefaultFieldPolicy()
	}
	return &Reconciler{
		metrics:  m,
		identity: identity,
		fields:   fields,
		log:      log,
		now:      time.Now,
	}
}

// Fields exposes the field inclusion policy for runtime mutation.
func (r *Reconciler) Fields() *FieldPolicy { return r.fields }

// UpdateBridgeHealth applies a bridge health payload.
func (r *Reconciler) UpdateBridgeHealth(data payload.Object) {
	name := r.identity.BridgeName

	if ts, ok := data.Float("response_time"); ok {
		// response_time is milliseconds since epoch.
		r.metrics.HealthTimestamp.WithLabelValues(name).Set(ts / 1000)
	}

	if osData, ok := data.Object("os"); ok {
		if loadAvg, ok := osData.Floats("load_average"); ok && len(loadAvg) >= 3 {
			r.metrics.OSLoadAverage1m.WithLabelValues(name).Set(loadAvg[0])
			r.metrics.OSLoadAverage5m.WithLabelValues(name).Set(loadAvg[1])
			r.metrics.OSLoadAverage15m.WithLabelValues(name).Set(loadAvg[2])
		}
		if v, ok := osData.Float("memory_used_mb"); ok {
			r.metrics.OSMemoryUsedMB.WithLabelValues(name).Set(v)
		}
		if v, ok := osData.Float("memory_percent"); ok {
			r.metrics.OSMemoryPercent.WithLabelValues(name).Set(v)
		}
	}

	if processData, ok := data.Object("process"); ok {
		if v, ok := processData.Float("uptime_sec"); ok {
			r.metrics.ProcessUptimeSeconds.WithLabelValues(name).Set(v)
		}
		if v, ok := processData.Float("memory_used_mb"); ok {
			r.metrics.ProcessMemoryUsedMB.WithLabelValues(name).Set(v)
		}
		if v, ok := processData.Float("memory_percent"); ok {
			r.metrics.ProcessMemoryPercent.WithLabelValues(name).Set(v)
		}
	}

	if mqttData, ok := data.Object("mqtt"); ok {
		if connected, ok := mqttData.Bool("connected"); ok {
			value := 0.0
			if connected {
				value = 1.0
			}
			r.metrics.MQTTConnected.WithLabelValues(name).Set(value)
		}
		if v, ok := mqttData.Float("queued"); ok {
			r.metrics.MQTTQueuedMessages.WithLabelValues(name).Set(v)
		}
		r.mu.Lock()
		if v, ok := mqttData.Float("published"); ok {
			add := reconcileTotal(&r.prevPublished, &r.seenPublished, v)
			if add > 0 {
				r.metrics.MQTTPublishedMessages.WithLabelValues(name).Add(add)
			}
		}
		if v, ok := mqttData.Float("received"); ok {
			add := reconcileTotal(&r.prevReceived, &r.seenReceived, v)
			if add > 0 {
				r.metrics.MQTTReceivedMessages.WithLabelValues(name).Add(add)
			}
		}
		r.mu.Unlock()
	}

	if devicesData, ok := data.Object("devices"); ok {
		r.updateDevices(devicesData)
	}
}

// reconcileTotal converts an upstream-reported cumulative total into
// the amount the local counter should grow by. The first observation
// seeds the full total; afterwards only the delta is added. A total
// lower than the previous one means the upstream bridge restarted, so
// everything counted since the reset is added and the baseline moves.
// Callers hold r.mu.
func reconcileTotal(prev *float64, seen *bool, current float64) float64 {
	add := current
	if *seen && current >= *prev {
		add = current - *prev
	}
	*prev = current
	*seen = true
	return add
}

// updateDevices handles the per-device section of a health payload.
// Some bridge versions publish summary counts ({"total": 10,
// "active": 8}) under the same key; those are not per-device data and
// are skipped entirely.
func (r *Reconciler) updateDevices(devices payload.Object) {
	if devices.Has("total") || devices.Has("active") {
		return
	}
	name := r.identity.BridgeName
	for ieee := range devices {
		device, ok := devices.Object(ieee)
		if !ok {
			continue
		}
		if v, ok := device.Float("leave_count"); ok {
			r.metrics.DeviceLeaveCount.WithLabelValues(name, ieee).Set(v)
		}
		if v, ok := device.Float("network_address_changes"); ok {
			r.metrics.DeviceNetworkAddressChanges.WithLabelValues(name, ieee).Set(v)
		}
		if v, ok := device.Float("messages"); ok {
			r.metrics.DeviceMessages.WithLabelValues(name, ieee).Set(v)
		}
		if v, ok := device.Float("messages_per_sec"); ok {
			r.metrics.DeviceMessagesPerSec.WithLabelValues(name, ieee).Set(v)
		}
		r.metrics.DeviceAppearances.WithLabelValues(name, ieee).Inc()
	}
}

// UpdateBridgeState applies a bridge availability payload. The update
// timestamp is stamped even when the payload carries no state field.
func (r *Reconciler) UpdateBridgeState(data payload.Object) {
	name := r.identity.BridgeName
	r.metrics.BridgeStateTimestamp.WithLabelValues(name).Set(unixSeconds(r.now()))

	state, ok := data.Str("state")
	if !ok {
		r.log.Warn("bridge state payload has no state field", slog.String("bridge_name", name))
		return
	}
	value := 0.0
	if state == "online" {
		value = 1.0
	}
	r.metrics.BridgeState.WithLabelValues(name).Set(value)
}

// UpdateBridgeInfo applies a bridge info payload, surfacing only
// allow-listed fields per category.
func (r *Reconciler) UpdateBridgeInfo(data payload.Object) {
	name := r.identity.BridgeName
	r.metrics.BridgeInfoTimestamp.WithLabelValues(name).Set(unixSeconds(r.now()))

	identity := prometheus.Labels{"bridge_name": name}
	for _, category := range metrics.InfoCategories {
		source, ok := infoSource(data, category)
		if !ok {
			continue
		}
		filtered := make(map[string]string)
		for _, field := range r.fields.Fields(category) {
			if v, present := source.Value(field); present {
				filtered[field] = stringify(v)
			}
		}
		if len(filtered) == 0 {
			continue
		}
		r.metrics.BridgeInfo[category].Set(identity, filtered)
	}
}

// infoSource locates the payload section a category reads from. The
// version and bridge categories are synthetic and read straight off
// the payload root.
func infoSource(data payload.Object, category string) (payload.Object, bool) {
	switch category {
	case "version", "bridge":
		return data, true
	default:
		return data.Object(category)
	}
}

// UpdateAppInfo publishes application metadata as a single info
// metric, flattening one level of nesting ({"a": {"b": c}} becomes
// "a_b").
func (r *Reconciler) UpdateAppInfo(appName string, appInfo map[string]any) {
	flattened := make(map[string]string, len(appInfo))
	for key, value := range appInfo {
		if nested, ok := value.(map[string]any); ok {
			for nestedKey, nestedValue := range nested {
				flattened[key+"_"+nestedKey] = stringify(nestedValue)
			}
			continue
		}
		flattened[key] = stringify(value)
	}
	r.metrics.AppInfo.Set(prometheus.Labels{
		"app_name":    appName,
		"bridge_name": r.identity.BridgeName,
	}, flattened)
}

// SetTopicsInfo publishes the derived topic set as an info metric.
func (r *Reconciler) SetTopicsInfo(set topics.Set) {
	r.metrics.BaseTopicInfo.Set(prometheus.Labels{"bridge_name": r.identity.BridgeName}, map[string]string{
		"base_topic":   set.Base,
		"health_topic": set.Health,
		"state_topic":  set.State,
		"info_topic":   set.Info,
	})
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		if raw, err := json.Marshal(t); err == nil {
			return string(raw)
		}
		return fmt.Sprint(t)
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
