package recording

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumiere-studio/lumiere/internal/plugin"
)

// PluginSink forwards start and stop to an exporter plugin.
type PluginSink struct {
	manager  *plugin.Manager
	executor *plugin.Executor
	name     string
	params   json.RawMessage
}

// NewPluginSink creates a sink over the named exporter. An empty name uses
// the first discovered plugin supporting start and stop.
func NewPluginSink(manager *plugin.Manager, executor *plugin.Executor, cfg Config) *PluginSink {
	params, _ := json.Marshal(map[string]any{
		"outputDir": cfg.OutputDir,
		"fps":       cfg.FPS,
		"dryRun":    cfg.DryRun,
	})
	return &PluginSink{
		manager:  manager,
		executor: executor,
		name:     cfg.Exporter,
		params:   params,
	}
}

// Start implements Sink.
func (s *PluginSink) Start(ctx context.Context, rec Recording) error {
	return s.call(ctx, plugin.ActionStart, rec)
}

// Stop implements Sink.
func (s *PluginSink) Stop(ctx context.Context, rec Recording) error {
	return s.call(ctx, plugin.ActionStop, rec)
}

func (s *PluginSink) call(ctx context.Context, action string, rec Recording) error {
	p, err := s.manager.Exporter(s.name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoExporter, err)
	}

	resp, err := s.executor.Execute(ctx, p, &plugin.Request{
		Action:    action,
		Recording: rec.ID,
		Kind:      string(rec.Kind),
		ElapsedMs: rec.Elapsed.Milliseconds(),
		Params:    s.params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("exporter %s %s: %s", p.Manifest.Name, action, resp.Error)
	}
	return nil
}
