package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		DataPath string `yaml:"data_path"`
	} `yaml:"storage"`
	Remote struct {
		BaseURL string `yaml:"base_url"`
		// Mode selects the fetcher implementation once at startup:
		// "real" or "mock".
		Mode string `yaml:"mode"`
		// Transport selects the HTTP stack for real mode:
		// "nethttp" or "fasthttp".
		Transport string  `yaml:"transport"`
		TimeoutMs int     `yaml:"timeout_ms"`
		RPS       float64 `yaml:"rps"`
		Burst     int     `yaml:"burst"`
	} `yaml:"remote"`
	Sync struct {
		// Cron schedule for background directory sync (gronx syntax).
		Cron      string `yaml:"cron"`
		PageLimit int    `yaml:"page_limit"`
	} `yaml:"sync"`
	Identity struct {
		ID     string `yaml:"id"`
		Handle string `yaml:"handle"`
	} `yaml:"identity"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads the YAML config file when present, then applies env overrides
// and defaults. A missing file is not an error; env and defaults suffice.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return c, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.applyEnv()
	c.applyDefaults()
	return c, nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyEnv() {
	envStr("MIRRORSYNC_ADDR", &c.Server.Address)
	if v := os.Getenv("MIRRORSYNC_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	envStr("MIRRORSYNC_DATA_PATH", &c.Storage.DataPath)
	envStr("MIRRORSYNC_REMOTE_URL", &c.Remote.BaseURL)
	envStr("MIRRORSYNC_REMOTE_MODE", &c.Remote.Mode)
	envStr("MIRRORSYNC_REMOTE_TRANSPORT", &c.Remote.Transport)
	if v := os.Getenv("MIRRORSYNC_REMOTE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Remote.TimeoutMs = ms
		}
	}
	envStr("MIRRORSYNC_SYNC_CRON", &c.Sync.Cron)
	envStr("MIRRORSYNC_IDENTITY_ID", &c.Identity.ID)
	envStr("MIRRORSYNC_IDENTITY_HANDLE", &c.Identity.Handle)
	envStr("MIRRORSYNC_LOG_LEVEL", &c.Logging.Level)
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 7411
	}
	if c.Storage.DataPath == "" {
		c.Storage.DataPath = "./data"
	}
	if c.Remote.Mode == "" {
		c.Remote.Mode = "real"
	}
	if c.Remote.Transport == "" {
		c.Remote.Transport = "nethttp"
	}
	if c.Remote.TimeoutMs == 0 {
		c.Remote.TimeoutMs = 8000
	}
	if c.Sync.Cron == "" {
		c.Sync.Cron = "*/5 * * * *"
	}
	if c.Sync.PageLimit == 0 {
		c.Sync.PageLimit = 20
	}
}

// Validate fails fast on configurations the app cannot start with.
func (c Config) Validate() error {
	switch c.Remote.Mode {
	case "real":
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote.base_url is required in real mode")
		}
	case "mock":
	default:
		return fmt.Errorf("remote.mode must be real or mock, got %q", c.Remote.Mode)
	}
	switch c.Remote.Transport {
	case "nethttp", "fasthttp":
	default:
		return fmt.Errorf("remote.transport must be nethttp or fasthttp, got %q", c.Remote.Transport)
	}
	if c.Remote.TimeoutMs < 0 {
		return fmt.Errorf("remote.timeout_ms must be positive")
	}
	return nil
}

// Addr returns the listen address for the local facade.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ParseCommandFlags centralizes flag parsing for the daemon. It returns the
// raw values plus which flags the user explicitly set, so explicit flags can
// win over env and file values.
func ParseCommandFlags() (addr, dataPath, cfgPath string, set map[string]bool) {
	addrFlag := flag.String("addr", "", "listen address (host:port) for the local facade")
	dataFlag := flag.String("data", "", "data directory for the local mirror")
	cfgFlag := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrFlag, *dataFlag, *cfgFlag, set
}

// ResolveConfigPath picks the config path: explicit flag wins, then env,
// then the conventional default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if v := os.Getenv("MIRRORSYNC_CONFIG"); v != "" {
		return v
	}
	return "mirrorsync.yaml"
}
