package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults for analysis requests.
const (
	DefaultDepth   = 20
	DefaultMultiPV = 1

	QuickEvalDepth    = 10
	DeepAnalysisDepth = 25
	DeepAnalysisLines = 3

	MinDepth   = 1
	MaxDepth   = 40
	MinMultiPV = 1
	MaxMultiPV = 10
)

// Config describes how to run the engine. It is read from config.json and then overridden
// by ELUCIDATE_ENGINE_* environment variables.
type Config struct {
	Engine             string   `json:"engine" env:"ELUCIDATE_ENGINE_PATH"`
	Args               []string `json:"args" env:"ELUCIDATE_ENGINE_ARGS" envSeparator:" "`
	Depth              int      `json:"depth" env:"ELUCIDATE_ENGINE_DEPTH"`
	MultiPV            int      `json:"multipv" env:"ELUCIDATE_ENGINE_MULTIPV"`
	Threads            int      `json:"threads" env:"ELUCIDATE_ENGINE_THREADS"`
	HashMB             int      `json:"hash_mb" env:"ELUCIDATE_ENGINE_HASH_MB"`
	HandshakeTimeoutMs int      `json:"handshake_timeout_ms" env:"ELUCIDATE_ENGINE_HANDSHAKE_TIMEOUT_MS"`
	QuitTimeoutMs      int      `json:"quit_timeout_ms" env:"ELUCIDATE_ENGINE_QUIT_TIMEOUT_MS"`
}

// HandshakeTimeout bounds the uci/isready exchange at start.
func (c Config) HandshakeTimeout() time.Duration {
	if c.HandshakeTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HandshakeTimeoutMs) * time.Millisecond
}

// QuitTimeout bounds how long Stop waits for the process to exit before killing it.
func (c Config) QuitTimeout() time.Duration {
	if c.QuitTimeoutMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.QuitTimeoutMs) * time.Millisecond
}

// Request returns an analysis request for fen using the configured depth and line count.
func (c Config) Request(fen string) Request {
	r := Request{FEN: fen, Depth: c.Depth, MultiPV: c.MultiPV}
	if r.Depth == 0 {
		r.Depth = DefaultDepth
	}
	if r.MultiPV == 0 {
		r.MultiPV = DefaultMultiPV
	}
	return r
}

// FindConfigPath walks up from the working directory looking for config.json and returns
// its path and directory.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := cwd
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config.json not found from %s", cwd)
}

// LoadConfig reads a json config file and applies environment overrides. A relative engine
// path is resolved against the directory of the config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Engine = ResolveEnginePath(cfg.Engine, filepath.Dir(path))
	return cfg, nil
}

// LoadConfigFromEnv builds a config from environment variables only.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Engine == "" {
		return Config{}, errors.New("ELUCIDATE_ENGINE_PATH is not set")
	}
	return cfg, nil
}

// Discover loads config.json when one is found above the working directory and falls back
// to the environment otherwise.
func Discover() (Config, error) {
	path, _, err := FindConfigPath()
	if err != nil {
		return LoadConfigFromEnv()
	}
	return LoadConfig(path)
}

// ResolveEnginePath makes a relative engine path absolute against baseDir. Bare command
// names without a separator are left for PATH lookup.
func ResolveEnginePath(enginePath, baseDir string) string {
	if enginePath == "" || filepath.IsAbs(enginePath) {
		return enginePath
	}
	if filepath.Base(enginePath) == enginePath {
		return enginePath
	}
	return filepath.Clean(filepath.Join(baseDir, enginePath))
}
