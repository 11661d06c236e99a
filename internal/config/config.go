package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PublicConfig configures the listener clients connect to.
type PublicConfig struct {
	Address string
}

// ServerConfig describes the backend Minecraft server process and socket.
type ServerConfig struct {
	// Address is dialed both for the transparent proxy and the monitor's
	// status probes.
	Address string
	// Directory, if non-empty, becomes the spawned process's working directory.
	Directory string
	// Command is split on whitespace; quoted arguments are not supported.
	Command string
}

// TimeConfig controls the idle-sleep decision.
type TimeConfig struct {
	// SleepAfter is how long the server may sit empty before it is stopped.
	SleepAfter time.Duration
	// MinOnlineTime suppresses sleep for this long after the server comes online,
	// even with zero players.
	MinOnlineTime time.Duration
}

// RCONConfig configures the RCON stop strategy.
type RCONConfig struct {
	Enabled  bool
	Port     uint16
	Password string
}

// MessagesConfig controls the text the proxy shows clients while the backend
// is offline or starting, and the fallback version reported in a status
// response before any real probe has succeeded.
type MessagesConfig struct {
	LoginStarting      string
	MOTDStarting       string
	MOTDSleeping       string
	DefaultVersionName string
	DefaultProtocol    int32
}

// MonitorConfig controls the background probe loop.
type MonitorConfig struct {
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

type ReloadConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

type AdminLogBufferConfig struct {
	Enabled bool
	Size    int
}

type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string
	// Format is one of: json, text.
	Format string
	// Output is one of: stderr, stdout, discard; or a file path.
	Output string
	// AddSource enables source file/line reporting (slightly higher overhead).
	AddSource bool
	// AdminBuffer controls an in-memory log line ring buffer used by the admin server.
	AdminBuffer AdminLogBufferConfig
}

// Config is the fully-defaulted, in-memory configuration of one lazyward process.
type Config struct {
	Public  PublicConfig
	Server  ServerConfig
	Time    TimeConfig
	RCON    RCONConfig
	Messages MessagesConfig
	Monitor MonitorConfig

	// AdminAddr enables the admin HTTP server when non-empty.
	AdminAddr string
	Logging   LoggingConfig
	Reload    ReloadConfig
}

type ConfigProvider interface {
	Load(ctx context.Context) (*Config, error)
}

type FileConfigProvider struct {
	Path string
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{Path: path}
}

func (p *FileConfigProvider) WatchPath() string {
	return p.Path
}

type fileConfig struct {
	Public *struct {
		Address string `yaml:"address" toml:"address"`
	} `yaml:"public" toml:"public"`

	Server *struct {
		Address   string `yaml:"address" toml:"address"`
		Directory string `yaml:"directory" toml:"directory"`
		Command   string `yaml:"command" toml:"command"`
	} `yaml:"server" toml:"server"`

	Time *struct {
		SleepAfterSecs      int `yaml:"sleep_after_secs" toml:"sleep_after_secs"`
		MinOnlineTimeSecs   int `yaml:"min_online_time_secs" toml:"min_online_time_secs"`
	} `yaml:"time" toml:"time"`

	RCON *struct {
		Enabled  bool   `yaml:"enabled" toml:"enabled"`
		Port     int    `yaml:"port" toml:"port"`
		Password string `yaml:"password" toml:"password"`
	} `yaml:"rcon" toml:"rcon"`

	Messages *struct {
		LoginStarting      string `yaml:"login_starting" toml:"login_starting"`
		MOTDStarting       string `yaml:"motd_starting" toml:"motd_starting"`
		MOTDSleeping       string `yaml:"motd_sleeping" toml:"motd_sleeping"`
		DefaultVersionName string `yaml:"default_version_name" toml:"default_version_name"`
		DefaultProtocol    int    `yaml:"default_protocol" toml:"default_protocol"`
	} `yaml:"messages" toml:"messages"`

	Monitor *struct {
		ProbeIntervalMs int `yaml:"probe_interval_ms" toml:"probe_interval_ms"`
		ProbeTimeoutMs  int `yaml:"probe_timeout_ms" toml:"probe_timeout_ms"`
	} `yaml:"monitor" toml:"monitor"`

	AdminAddr *string `yaml:"admin_addr" toml:"admin_addr"`
	Logging   *struct {
		Level       string `yaml:"level" toml:"level"`
		Format      string `yaml:"format" toml:"format"`
		Output      string `yaml:"output" toml:"output"`
		AddSource   bool   `yaml:"add_source" toml:"add_source"`
		AdminBuffer *struct {
			Enabled bool `yaml:"enabled" toml:"enabled"`
			Size    int  `yaml:"size" toml:"size"`
		} `yaml:"admin_buffer" toml:"admin_buffer"`
	} `yaml:"logging" toml:"logging"`

	Reload *struct {
		Enabled        bool `yaml:"enabled" toml:"enabled"`
		PollIntervalMs int  `yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	} `yaml:"reload" toml:"reload"`
}

func (p *FileConfigProvider) Load(_ context.Context) (*Config, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := unmarshalConfigFile(p.Path, data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.Path, err)
	}

	cfg := &Config{
		Public: PublicConfig{Address: "0.0.0.0:25565"},
		Server: ServerConfig{Address: "127.0.0.1:25566"},
		Time: TimeConfig{
			SleepAfter:    10 * time.Minute,
			MinOnlineTime: 1 * time.Minute,
		},
		RCON: RCONConfig{Port: 25575},
		Messages: MessagesConfig{
			LoginStarting:      "Server is starting, please wait...",
			MOTDStarting:       "Server is starting...",
			MOTDSleeping:       "Server is sleeping, join to start it",
			DefaultVersionName: "1.16.5",
			DefaultProtocol:    754,
		},
		Monitor: MonitorConfig{
			ProbeInterval: 5 * time.Second,
			ProbeTimeout:  2 * time.Second,
		},
		AdminAddr: ":8081",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
			AdminBuffer: AdminLogBufferConfig{
				Enabled: false,
				Size:    1000,
			},
		},
		Reload: ReloadConfig{Enabled: true, PollInterval: time.Second},
	}

	if fc.Public != nil && strings.TrimSpace(fc.Public.Address) != "" {
		cfg.Public.Address = strings.TrimSpace(fc.Public.Address)
	}

	if fc.Server != nil {
		if strings.TrimSpace(fc.Server.Address) != "" {
			cfg.Server.Address = strings.TrimSpace(fc.Server.Address)
		}
		cfg.Server.Directory = strings.TrimSpace(fc.Server.Directory)
		cfg.Server.Command = strings.TrimSpace(fc.Server.Command)
	}
	if cfg.Server.Command == "" {
		return nil, fmt.Errorf("config: server.command is required")
	}

	if fc.Time != nil {
		if fc.Time.SleepAfterSecs > 0 {
			cfg.Time.SleepAfter = time.Duration(fc.Time.SleepAfterSecs) * time.Second
		}
		if fc.Time.MinOnlineTimeSecs > 0 {
			cfg.Time.MinOnlineTime = time.Duration(fc.Time.MinOnlineTimeSecs) * time.Second
		}
	}

	if fc.RCON != nil {
		cfg.RCON.Enabled = fc.RCON.Enabled
		if fc.RCON.Port > 0 {
			cfg.RCON.Port = uint16(fc.RCON.Port)
		}
		cfg.RCON.Password = fc.RCON.Password
	}

	if fc.Messages != nil {
		if fc.Messages.LoginStarting != "" {
			cfg.Messages.LoginStarting = fc.Messages.LoginStarting
		}
		if fc.Messages.MOTDStarting != "" {
			cfg.Messages.MOTDStarting = fc.Messages.MOTDStarting
		}
		if fc.Messages.MOTDSleeping != "" {
			cfg.Messages.MOTDSleeping = fc.Messages.MOTDSleeping
		}
		if fc.Messages.DefaultVersionName != "" {
			cfg.Messages.DefaultVersionName = fc.Messages.DefaultVersionName
		}
		if fc.Messages.DefaultProtocol != 0 {
			cfg.Messages.DefaultProtocol = int32(fc.Messages.DefaultProtocol)
		}
	}

	if fc.Monitor != nil {
		if fc.Monitor.ProbeIntervalMs > 0 {
			cfg.Monitor.ProbeInterval = time.Duration(fc.Monitor.ProbeIntervalMs) * time.Millisecond
		}
		if fc.Monitor.ProbeTimeoutMs > 0 {
			cfg.Monitor.ProbeTimeout = time.Duration(fc.Monitor.ProbeTimeoutMs) * time.Millisecond
		}
	}

	if fc.AdminAddr != nil {
		cfg.AdminAddr = strings.TrimSpace(*fc.AdminAddr)
	}

	if fc.Logging != nil {
		if fc.Logging.Level != "" {
			cfg.Logging.Level = fc.Logging.Level
		}
		if fc.Logging.Format != "" {
			cfg.Logging.Format = fc.Logging.Format
		}
		if fc.Logging.Output != "" {
			cfg.Logging.Output = fc.Logging.Output
		}
		cfg.Logging.AddSource = fc.Logging.AddSource
		if fc.Logging.AdminBuffer != nil {
			cfg.Logging.AdminBuffer.Enabled = fc.Logging.AdminBuffer.Enabled
			if fc.Logging.AdminBuffer.Size != 0 {
				cfg.Logging.AdminBuffer.Size = fc.Logging.AdminBuffer.Size
			}
		}
	}

	if fc.Reload != nil {
		cfg.Reload.Enabled = fc.Reload.Enabled
		if fc.Reload.PollIntervalMs > 0 {
			cfg.Reload.PollInterval = time.Duration(fc.Reload.PollIntervalMs) * time.Millisecond
		}
	}

	return cfg, nil
}

func unmarshalConfigFile(path string, data []byte, dst any) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(dst)
	case ".toml":
		md, err := toml.Decode(string(data), dst)
		if err != nil {
			return err
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return fmt.Errorf("unknown fields: %v", undec)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config extension %q (expected .toml or .yaml/.yml)", ext)
	}
}
