package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable for the emulator's execution, debugger and
// host-server front ends.
type Config struct {
	Execution struct {
		MaxSteps     uint64 `toml:"max_steps"`
		MemorySize   uint32 `toml:"memory_size"`
		Origin       uint32 `toml:"origin"`
		StackTop     uint32 `toml:"stack_top"`
		StopOnTrap   bool   `toml:"stop_on_trap"`
		EnableTrace  bool   `toml:"enable_trace"`
		TraceEntries int    `toml:"trace_entries"`
	} `toml:"execution"`

	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		ShowRegisters  bool `toml:"show_registers"`
		ShowDisasm     bool `toml:"show_disassembly"`
		DisasmContext  int  `toml:"disasm_context"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
	} `toml:"debugger"`

	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		BytesPerLine int    `toml:"bytes_per_line"`
		NumberFormat string `toml:"number_format"` // hex, dec
		Theme        string `toml:"theme"`         // light, dark
	} `toml:"display"`

	Server struct {
		ListenAddr      string `toml:"listen_addr"`
		ReadTimeoutMs   int    `toml:"read_timeout_ms"`
		WriteTimeoutMs  int    `toml:"write_timeout_ms"`
		MaxSessions     int    `toml:"max_sessions"`
		BroadcastBuffer int    `toml:"broadcast_buffer"`
	} `toml:"server"`
}

// DefaultConfig returns a Config populated with the emulator's built-in
// defaults: a 1 MiB flat image, _start at the image origin.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxSteps = 1_000_000
	cfg.Execution.MemorySize = 1 << 20
	cfg.Execution.Origin = 0x0000
	cfg.Execution.StackTop = 1 << 20
	cfg.Execution.StopOnTrap = true
	cfg.Execution.EnableTrace = true
	cfg.Execution.TraceEntries = 256

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ShowDisasm = true
	cfg.Debugger.DisasmContext = 8
	cfg.Debugger.AutoSaveBreaks = true

	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16
	cfg.Display.NumberFormat = "hex"
	cfg.Display.Theme = "dark"

	cfg.Server.ListenAddr = ":8080"
	cfg.Server.ReadTimeoutMs = 10_000
	cfg.Server.WriteTimeoutMs = 10_000
	cfg.Server.MaxSessions = 64
	cfg.Server.BroadcastBuffer = 32

	return cfg
}

// GetConfigPath returns the platform-specific config file path, creating
// its directory if necessary.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rv32emu")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rv32emu")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back to
// DefaultConfig() if the file does not exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, overlaying it on the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes c to the default config file location.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes c as TOML to path.
func (c *Config) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
