package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Info is a metric whose value is a set of string key/value attributes
// carried as labels on a constant 1-valued sample, the usual Prometheus
// convention for descriptive metadata. Each identity label set keeps an
// independent snapshot; setting an empty snapshot is a no-op so a
// sparse upstream payload never wipes previously exported attributes.
type Info struct {
	name string
	help string

	mu      sync.RWMutex
	entries map[string]infoEntry
}

type infoEntry struct {
	identity prometheus.Labels
	values   map[string]string
}

// NewInfo creates an Info metric and registers it.
func NewInfo(reg prometheus.Registerer, name, help string) *Info {
	m := &Info{
		name:    name,
		help:    help,
		entries: make(map[string]infoEntry),
	}
	reg.MustRegister(m)
	return m
}

// Set replaces the attribute snapshot for the given identity labels.
// Attribute keys that collide with identity label names are dropped.
// An empty snapshot leaves the current one in place.
func (m *Info) Set(identity prometheus.Labels, values map[string]string) {
	filtered := make(map[string]string, len(values))
	for k, v := range values {
		if _, clash := identity[k]; clash {
			continue
		}
		filtered[k] = v
	}
	if len(filtered) == 0 {
		return
	}

	id := make(prometheus.Labels, len(identity))
	for k, v := range identity {
		id[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[identityKey(id)] = infoEntry{identity: id, values: filtered}
}

// Describe implements prometheus.Collector. The label set varies per
// snapshot, so Info registers as an unchecked collector.
func (m *Info) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (m *Info) Collect(ch chan<- prometheus.Metric) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.entries {
		labels := make(prometheus.Labels, len(entry.identity)+len(entry.values))
		for k, v := range entry.identity {
			labels[k] = v
		}
		for k, v := range entry.values {
			labels[k] = v
		}
		desc := prometheus.NewDesc(m.name, m.help, nil, labels)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 1)
	}
}

func identityKey(identity prometheus.Labels) string {
	keys := make([]string, 0, len(identity))
	for k := range identity {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(identity[k])
		b.WriteByte(',')
	}
	return b.String()
}
