// Package config holds the engine's tunable limits. Every hard
// number in the editing core — undo pruning, swap flushing, channel
// depths, rescan budgets — lives here so deployments can tune them
// without rebuilding.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine bounds the editing core's resource use.
type Engine struct {
	// Undo tree pruning.
	UndoMaxNodes int      `yaml:"undo_max_nodes"`
	UndoMaxBytes int      `yaml:"undo_max_bytes"`
	UndoMaxAge   Duration `yaml:"undo_max_age"`

	// Typing-merge heuristic window.
	UndoMergeWindow Duration `yaml:"undo_merge_window"`

	// Swap log flushing and backpressure.
	SwapFsyncInterval Duration `yaml:"swap_fsync_interval"`
	SwapIdleFlush     Duration `yaml:"swap_idle_flush"`
	SwapFsyncTimeout  Duration `yaml:"swap_fsync_timeout"`
	SwapQueueDepth    int      `yaml:"swap_queue_depth"`

	// Event fan-out.
	EventChannelDepth int `yaml:"event_channel_depth"`

	// Search.
	RegexRescanBudget int `yaml:"regex_rescan_budget"`

	// Load path.
	MmapThreshold int64 `yaml:"mmap_threshold"`

	// Save path.
	TrimTrailingWhitespace bool `yaml:"trim_trailing_whitespace"`

	// Logging.
	LogLevel string `yaml:"log_level"`
}

// Default returns the shipped configuration.
func Default() Engine {
	return Engine{
		UndoMaxNodes:      10_000,
		UndoMaxBytes:      50 << 20,
		UndoMaxAge:        Duration(7 * 24 * time.Hour),
		UndoMergeWindow:   Duration(500 * time.Millisecond),
		SwapFsyncInterval: Duration(30 * time.Second),
		SwapIdleFlush:     Duration(time.Second),
		SwapFsyncTimeout:  Duration(5 * time.Second),
		SwapQueueDepth:    256,
		EventChannelDepth: 1024,
		RegexRescanBudget: 4096,
		MmapThreshold:     10 << 20,
		LogLevel:          "info",
	}
}

// Load reads a YAML file over the defaults. A missing file returns
// the defaults unchanged.
func Load(path string) (Engine, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Engine) validate() error {
	if c.SwapQueueDepth <= 0 {
		return fmt.Errorf("swap_queue_depth must be positive, got %d", c.SwapQueueDepth)
	}
	if c.EventChannelDepth <= 0 {
		return fmt.Errorf("event_channel_depth must be positive, got %d", c.EventChannelDepth)
	}
	if c.RegexRescanBudget < 0 {
		return fmt.Errorf("regex_rescan_budget must not be negative, got %d", c.RegexRescanBudget)
	}
	return nil
}
