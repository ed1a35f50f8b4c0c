// Package plugin discovers external exporter programs and runs them. An
// exporter is an executable next to a plugin.json manifest; each call sends
// one JSON Request on stdin and reads one JSON Response from stdout.
package plugin

import "encoding/json"

// Exporter actions. A capture service must support both.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest lists every given action.
func (m Manifest) Supports(actions ...string) bool {
	for _, want := range actions {
		found := false
		for _, have := range m.Actions {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Request is sent to a plugin for one action.
type Request struct {
	Action    string          `json:"action"`
	Recording string          `json:"recording"`
	Kind      string          `json:"kind,omitempty"`
	ElapsedMs int64           `json:"elapsedMs"`
	Config    json.RawMessage `json:"config,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Response is the plugin's answer.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
