package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/mudra/internal/input"
)

// Dispatcher injects input by running a plugin once per action.
type Dispatcher struct {
	executor *Executor
	plugin   *Plugin
	logger   *slog.Logger

	sizeOnce sync.Once
	width    int
	height   int
}

// NewDispatcher creates a Dispatcher that sends every action to p. A plugin
// without move is warned about once here; pointer motion is then dropped.
func NewDispatcher(executor *Executor, p *Plugin, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		executor: executor,
		plugin:   p,
		logger:   logger.With("plugin", p.Manifest.Name),
	}
	if !p.Manifest.Supports(ActionMove) {
		d.logger.Warn("plugin does not support move, pointer hand is ignored")
	}
	return d
}

var _ input.Dispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) Press(key string) error {
	return d.key(ActionPress, key)
}

func (d *Dispatcher) KeyDown(key string) error {
	return d.key(ActionKeyDown, key)
}

func (d *Dispatcher) KeyUp(key string) error {
	return d.key(ActionKeyUp, key)
}

func (d *Dispatcher) MoveRelative(dx, dy int) error {
	_, err := d.run(ActionMove, MoveParams{DX: dx, DY: dy})
	return err
}

// ScreenSize asks the plugin once and caches the answer. Plugins that cannot
// report it get input.DefaultScreenWidth x input.DefaultScreenHeight.
func (d *Dispatcher) ScreenSize() (int, int) {
	d.sizeOnce.Do(func() {
		d.width, d.height = input.DefaultScreenWidth, input.DefaultScreenHeight

		data, err := d.run(ActionScreenSize, nil)
		if err != nil {
			d.logger.Warn("screen size unavailable, using default", "error", err)
			return
		}
		var size ScreenSize
		if err := json.Unmarshal(data, &size); err != nil || size.Width <= 0 || size.Height <= 0 {
			d.logger.Warn("invalid screen size from plugin, using default", "data", string(data))
			return
		}
		d.width, d.height = size.Width, size.Height
	})
	return d.width, d.height
}

func (d *Dispatcher) key(action, key string) error {
	_, err := d.run(action, KeyParams{Key: key})
	return err
}

func (d *Dispatcher) run(action string, params any) (json.RawMessage, error) {
	if !d.plugin.Manifest.Supports(action) {
		return nil, fmt.Errorf("plugin %s does not support %s", d.plugin.Manifest.Name, action)
	}

	req := &Request{Action: action}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = raw
	}

	resp, err := d.executor.Execute(context.Background(), d.plugin, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("plugin %s %s: %s", d.plugin.Manifest.Name, action, resp.Error)
	}
	return resp.Data, nil
}
