package bridge

import "sync"

// FieldPolicy is the allow-list deciding which bridge-info payload
// fields may surface as info-metric attributes. It bounds metric
// cardinality: anything the upstream bridge adds to its JSON stays out
// of the scrape output until explicitly allowed. Safe for concurrent
// use; the message path reads it while an admin surface may mutate it.
type FieldPolicy struct {
	mu         sync.RWMutex
	categories map[string][]string
}

// DefaultFieldPolicy returns the allow-list matching the stock
// Zigbee2MQTT bridge info payload.
func DefaultFieldPolicy() *FieldPolicy {
	return &FieldPolicy{
		categories: map[string][]string{
			"version":     {"version", "commit"},
			"coordinator": {"ieee_address", "type"},
			"network":     {"channel", "pan_id", "extended_pan_id"},
			"bridge":      {"log_level", "permit_join", "permit_join_end", "restart_required"},
			"os":          {"version", "node_version", "cpus", "memory_mb"},
			"mqtt":        {"server", "version"},
		},
	}
}

// Fields returns a copy of the allowed field names for a category.
func (p *FieldPolicy) Fields(category string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fields := p.categories[category]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// AddField allows a field in a category. Adding an already-allowed
// field is a no-op; an unknown category is created.
func (p *FieldPolicy) AddField(category, field string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.categories[category] {
		if existing == field {
			return
		}
	}
	p.categories[category] = append(p.categories[category], field)
}

// RemoveField disallows a field in a category. Removing a field that
// is not allowed is a no-op.
func (p *FieldPolicy) RemoveField(category, field string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fields := p.categories[category]
	for i, existing := range fields {
		if existing == field {
			p.categories[category] = append(fields[:i], fields[i+1:]...)
			return
		}
	}
}
