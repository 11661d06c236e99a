package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath is the environment variable used to override the config file path.
const EnvConfigPath = "LAZYWARD_CONFIG"

type ConfigPathSource string

const (
	ConfigPathSourceFlag    ConfigPathSource = "flag"
	ConfigPathSourceEnv     ConfigPathSource = "env"
	ConfigPathSourceCWD     ConfigPathSource = "cwd"
	ConfigPathSourceDefault ConfigPathSource = "default"
)

type ResolvedConfigPath struct {
	Path   string
	Source ConfigPathSource
}

// ResolveConfigPath resolves the effective configuration file path.
//
// Precedence:
//  1. explicitFlagPath (from -config)
//  2. LAZYWARD_CONFIG environment variable
//  3. Auto-discovery in the current working directory (lazyward.toml > lazyward.yaml > lazyward.yml)
//  4. OS-specific default user config location
func ResolveConfigPath(explicitFlagPath string) (ResolvedConfigPath, error) {
	if p := strings.TrimSpace(explicitFlagPath); p != "" {
		p, err := normalizeExplicitPath(p)
		if err != nil {
			return ResolvedConfigPath{}, err
		}
		return ResolvedConfigPath{Path: p, Source: ConfigPathSourceFlag}, nil
	}

	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		p, err := normalizeExplicitPath(p)
		if err != nil {
			return ResolvedConfigPath{}, err
		}
		return ResolvedConfigPath{Path: p, Source: ConfigPathSourceEnv}, nil
	}

	if p, err := DiscoverConfigPath("."); err == nil {
		return ResolvedConfigPath{Path: p, Source: ConfigPathSourceCWD}, nil
	}

	p, err := DefaultConfigPath()
	if err != nil {
		return ResolvedConfigPath{}, err
	}
	return ResolvedConfigPath{Path: p, Source: ConfigPathSourceDefault}, nil
}

func normalizeExplicitPath(p string) (string, error) {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return "", fmt.Errorf("config: empty config path")
	}

	fi, err := os.Stat(p)
	if err == nil {
		if fi.IsDir() {
			// If a directory is provided, try to discover lazyward.* inside it; otherwise
			// default to lazyward.toml within that directory.
			if discovered, derr := DiscoverConfigPath(p); derr == nil {
				return discovered, nil
			}
			return filepath.Join(p, "lazyward.toml"), nil
		}
		// Existing file path: keep as-is.
		return p, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("config: stat %s: %w", p, err)
	}

	// For a new (non-existing) file path without an extension, default to TOML.
	if filepath.Ext(p) == "" {
		p += ".toml"
	}
	return p, nil
}

// DefaultConfigPath returns lazyward's OS-specific default config file path.
//
// It uses os.UserConfigDir() (e.g. %AppData% on Windows, ~/.config on Linux,
// ~/Library/Application Support on macOS) and then appends lazyward/lazyward.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", fmt.Errorf("config: resolve user config dir: empty")
	}
	return filepath.Join(dir, "lazyward", "lazyward.toml"), nil
}

// EnsureConfigFile creates a new config file at path if it does not already exist.
// It never overwrites an existing regular file.
func EnsureConfigFile(path string) (created bool, err error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return false, fmt.Errorf("config: empty config path")
	}

	fi, statErr := os.Stat(path)
	if statErr == nil {
		if fi.Mode().IsRegular() {
			return false, nil
		}
		return false, fmt.Errorf("config: %s exists but is not a regular file", path)
	}
	if statErr != nil && !os.IsNotExist(statErr) {
		return false, fmt.Errorf("config: stat %s: %w", path, statErr)
	}

	tmpl, err := defaultConfigTemplateForPath(path)
	if err != nil {
		return false, err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}

	// Use O_EXCL to avoid clobbering files created concurrently.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.WriteString(f, tmpl); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

func defaultConfigTemplateForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		return defaultConfigTemplateTOML, nil
	case ".yaml", ".yml":
		return defaultConfigTemplateYAML, nil
	default:
		return "", fmt.Errorf("config: unsupported config extension %q (expected .toml or .yaml/.yml)", ext)
	}
}

const defaultConfigTemplateTOML = `# lazyward configuration (auto-generated)
#
# This file was created because lazyward could not find a configuration file
# at the resolved config path.
#
# lazyward listens on public.address and forwards to server.address once the
# backend process is up; until then it answers the handshake/status exchange
# itself and spawns server.command on the first join attempt.

admin_addr = ":8081"

[public]
address = "0.0.0.0:25565"

[server]
address = "127.0.0.1:25566"
directory = ""
command = "java -Xmx2G -jar server.jar nogui"

[time]
sleep_after_secs = 600
min_online_time_secs = 60

[rcon]
enabled = false
port = 25575
password = ""

[messages]
login_starting = "Server is starting, please wait..."
motd_starting = "Server is starting..."
motd_sleeping = "Server is sleeping, join to start it"
default_version_name = "1.16.5"
default_protocol = 754

[monitor]
probe_interval_ms = 5000
probe_timeout_ms = 2000

[logging]
level = "info"
format = "json"
output = "stderr"
add_source = false

[logging.admin_buffer]
enabled = true
size = 1000

[reload]
enabled = true
poll_interval_ms = 1000

`

const defaultConfigTemplateYAML = `# lazyward configuration (auto-generated)
#
# This file was created because lazyward could not find a configuration file
# at the resolved config path.
#
# lazyward listens on public.address and forwards to server.address once the
# backend process is up; until then it answers the handshake/status exchange
# itself and spawns server.command on the first join attempt.

public:
  address: "0.0.0.0:25565"

server:
  address: "127.0.0.1:25566"
  directory: ""
  command: "java -Xmx2G -jar server.jar nogui"

time:
  sleep_after_secs: 600
  min_online_time_secs: 60

rcon:
  enabled: false
  port: 25575
  password: ""

messages:
  login_starting: "Server is starting, please wait..."
  motd_starting: "Server is starting..."
  motd_sleeping: "Server is sleeping, join to start it"
  default_version_name: "1.16.5"
  default_protocol: 754

monitor:
  probe_interval_ms: 5000
  probe_timeout_ms: 2000

admin_addr: ":8081"

logging:

  level: "info"
  format: "json"
  output: "stderr"
  add_source: false
  admin_buffer:
    enabled: true
    size: 1000

reload:

  enabled: true
  poll_interval_ms: 1000

`
