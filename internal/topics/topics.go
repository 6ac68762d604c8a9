package topics

// Kind identifies which bridge feed a topic belongs to.
type Kind int

const (
	General Kind = iota
	Health
	State
	Info
)

func (k Kind) String() string {
	switch k {
	case Health:
		return "health"
	case State:
		return "state"
	case Info:
		return "info"
	default:
		return "general"
	}
}

// Set holds the bridge topics derived from a base topic. The three
// topics are always consistent with the base topic they were derived
// from.
type Set struct {
	Base   string
	Health string
	State  string
	Info   string
}

// Derive computes the bridge topic set for a base topic, e.g.
// "zigbee2mqtt" -> "zigbee2mqtt/bridge/health".
func Derive(baseTopic string) Set {
	return Set{
		Base:   baseTopic,
		Health: baseTopic + "/bridge/health",
		State:  baseTopic + "/bridge/state",
		Info:   baseTopic + "/bridge/info",
	}
}

// Classify maps an incoming topic to a Kind by exact match against the
// derived set. Wildcard matching is the MQTT subscription layer's job,
// not ours.
func Classify(topic string, set Set) Kind {
	switch topic {
	case set.Health:
		return Health
	case set.State:
		return State
	case set.Info:
		return Info
	default:
		return General
	}
}
