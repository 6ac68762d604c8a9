package version

import (
	"runtime"
	"strconv"
)

const (
	Name        = "ziggy"
	Version     = "1.0.0"
	Description = "Zigbee2MQTT Prometheus metrics exporter"
)

// AppInfo gathers the application metadata published through the app
// info metric. Nested maps are flattened one level by the reconciler.
func AppInfo(environment, logLevel string) map[string]any {
	return map[string]any{
		"name":        Name,
		"version":     Version,
		"description": Description,
		"go_version":  runtime.Version(),
		"platform": map[string]any{
			"system":  runtime.GOOS,
			"machine": runtime.GOARCH,
			"cpus":    strconv.Itoa(runtime.NumCPU()),
		},
		"environment": map[string]any{
			"environment": environment,
			"log_level":   logLevel,
		},
	}
}
