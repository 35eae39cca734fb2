// Package taskfile loads build tasks from JSON (or JSONC) descriptor files.
//
// A task file holds an array of tasks:
//
//	[
//	    {
//	        "size": [32, 128],
//	        "background": "#00000000",
//	        "output": "RP/textures/blocks/${name}.png",
//	        "operations": [
//	            {"type": "paste", "image": "data/src.png",
//	             "source_position": [0, 0], "source_size": [32, 32],
//	             "target_position": [0, 0]},
//	            {"type": "scale", "scale": [2, 2]},
//	            {"type": "set_tiles", "tiles": [1, 8]},
//	            {"type": "offset", "offset": [1, 0], "tile": 3}
//	        ]
//	    }
//	]
//
// Strings may reference scope variables as ${name}. Descriptors are plain
// data; nothing in them is evaluated.
package taskfile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Config locates task and scope files.
type Config struct {
	DataDir   string `json:"data_path"`
	TasksDir  string `json:"tasks_path"` // relative to DataDir
	ScopePath string `json:"scope_path"` // relative to DataDir
}

func DefaultConfig() Config {
	return Config{
		DataDir:   "data",
		TasksDir:  "tilebuilder",
		ScopePath: "tilebuilder/scope.json",
	}
}

// ParseConfig reads a JSON object over the defaults. An empty string yields
// the defaults.
func ParseConfig(s string) (Config, error) {
	cfg := DefaultConfig()
	if s == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load the config data: %w", err)
	}
	return cfg, nil
}

func (c Config) TasksPath() string { return filepath.Join(c.DataDir, c.TasksDir) }

func (c Config) ScopeFile() string { return filepath.Join(c.DataDir, c.ScopePath) }
