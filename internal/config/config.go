// Package config provides the shell-process configuration: listen
// addresses, asset paths, and startup options sourced from the
// environment. Engine-level configuration lives in the cvar registry;
// nothing here reaches into simulation state.
package config

import (
	"os"
	"strconv"
)

// ServerConfig holds the dedicated-shell settings.
type ServerConfig struct {
	BasePath   string // root of the asset tree (maps/, vm/, *.cfg)
	StartMap   string // map to load at startup, empty for none
	FrameMsec  int    // scheduler sleep granularity
	ConfigFile string // archive cvars written here on exit
}

// DefaultServer returns the default shell configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		BasePath:   "baseq3",
		StartMap:   "",
		FrameMsec:  8,
		ConfigFile: "q3config.cfg",
	}
}

// ServerFromEnv applies environment overrides to the defaults.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if v := os.Getenv("ARENA_BASEPATH"); v != "" {
		cfg.BasePath = v
	}
	if v := os.Getenv("ARENA_MAP"); v != "" {
		cfg.StartMap = v
	}
	if v := getEnvInt("ARENA_FRAME_MSEC", 0); v > 0 {
		cfg.FrameMsec = v
	}
	return cfg
}

// DebugConfig holds the observability sidecar settings.
type DebugConfig struct {
	Enabled    bool
	StatusAddr string // chi status API + websocket stream
	DebugAddr  string // pprof + prometheus, localhost only
}

// DefaultDebug returns localhost-only defaults.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		StatusAddr: "127.0.0.1:8077",
		DebugAddr:  "127.0.0.1:6060",
	}
}

// DebugFromEnv applies environment overrides to the defaults.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if v := os.Getenv("ARENA_STATUS_ADDR"); v != "" {
		cfg.StatusAddr = v
	}
	if v := os.Getenv("ARENA_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
	return cfg
}

// AudioConfig holds music playback settings.
type AudioConfig struct {
	Enabled bool
	Volume  float64
}

// AudioFromEnv returns audio settings with environment overrides.
func AudioFromEnv() AudioConfig {
	cfg := AudioConfig{Enabled: true, Volume: 0.15}
	if v := getEnvFloat("MUSIC_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("MUSIC_ENABLED") == "false" {
		cfg.Enabled = false
	}
	return cfg
}

// VideoConfig feeds the glconfig the client modules query.
type VideoConfig struct {
	Width  int
	Height int
}

// VideoFromEnv returns video settings with environment overrides.
func VideoFromEnv() VideoConfig {
	cfg := VideoConfig{Width: 640, Height: 480}
	if v := getEnvInt("ARENA_VID_WIDTH", 0); v > 0 {
		cfg.Width = v
	}
	if v := getEnvInt("ARENA_VID_HEIGHT", 0); v > 0 {
		cfg.Height = v
	}
	return cfg
}

// AppConfig is the complete shell configuration.
type AppConfig struct {
	Server ServerConfig
	Debug  DebugConfig
	Audio  AudioConfig
	Video  VideoConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Debug:  DebugFromEnv(),
		Audio:  AudioFromEnv(),
		Video:  VideoFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
