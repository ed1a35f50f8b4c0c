package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestPlugin_ClipExport_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pluginDir := findPluginDir("clip-export")
	if pluginDir == "" {
		t.Skip("clip-export plugin not found")
	}

	mgr := NewManager(filepath.Dir(pluginDir))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Exporter("clip-export")
	if err != nil {
		t.Fatalf("Exporter() error = %v", err)
	}
	if _, err := os.Stat(plug.Executable); err != nil {
		t.Skip("clip-export plugin not built")
	}

	params, _ := json.Marshal(map[string]any{"outputDir": t.TempDir(), "dryRun": true})
	executor := NewExecutor(5000)

	for _, action := range []string{ActionStart, ActionStop} {
		resp, err := executor.Execute(context.Background(), plug, &Request{
			Action:    action,
			Recording: "integration",
			Kind:      "full",
			Params:    params,
		})
		if err != nil {
			t.Fatalf("Execute(%s) error = %v", action, err)
		}
		if !resp.Success {
			t.Fatalf("expected %s to succeed, got %q", action, resp.Error)
		}
	}
}

func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		manifest := filepath.Join(dir, "plugin.json")
		if _, err := os.Stat(manifest); err == nil {
			return dir
		}
	}
	return ""
}
