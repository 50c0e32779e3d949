package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tsume/pkg/shogi"
)

const FileName = "config.json"

// Config is the JSON file shared by the tools. Missing fields keep their
// defaults.
type Config struct {
	// Engine is the USI engine binary used to cross-check proofs.
	Engine string       `json:"engine"`
	Millis int          `json:"millis"`
	Solver SolverConfig `json:"solver"`
	State  StateConfig  `json:"state"`
	Log    string       `json:"log_level"`
}

type SolverConfig struct {
	MemoryMB int    `json:"memory_mb"`
	MaxNodes uint64 `json:"max_nodes"`
	MaxDepth uint64 `json:"max_depth"`
	Strict   bool   `json:"strict"`
}

type StateConfig struct {
	MaxPly         int     `json:"max_ply"`
	Rule           string  `json:"rule"`
	BlackDrawValue float64 `json:"black_draw_value"`
	WhiteDrawValue float64 `json:"white_draw_value"`
}

func Default() Config {
	st := shogi.DefaultStateConfig()
	return Config{
		Millis: 1000,
		Solver: SolverConfig{
			MemoryMB: 64,
			MaxNodes: 1_000_000,
		},
		State: StateConfig{
			MaxPly:         st.MaxPly,
			Rule:           "none",
			BlackDrawValue: st.BlackDrawValue,
			WhiteDrawValue: st.WhiteDrawValue,
		},
	}
}

// FindConfigPath walks up from the working directory to the first
// config.json. It returns the file and its directory.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	return FindConfigPathFrom(cwd)
}

func FindConfigPathFrom(start string) (string, string, error) {
	dir := start
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("%s not found from %s", FileName, start)
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.StateConfig(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional loads path, or the discovered config.json when path is
// empty. Without any file it returns the defaults.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		found, _, err := FindConfigPath()
		if err != nil {
			return Default(), nil
		}
		path = found
	}
	return LoadConfig(path)
}

// StateConfig converts the state section for shogi.NewState.
func (c Config) StateConfig() (shogi.StateConfig, error) {
	rule, err := shogi.ParseEndingRule(c.State.Rule)
	if err != nil {
		return shogi.StateConfig{}, err
	}
	return shogi.StateConfig{
		Rule:           rule,
		MaxPly:         c.State.MaxPly,
		BlackDrawValue: c.State.BlackDrawValue,
		WhiteDrawValue: c.State.WhiteDrawValue,
	}, nil
}
