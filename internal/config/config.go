package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Auth struct {
	// SHA-256 hex of the UI password. Empty disables the cookie check
	// (local development). This guards the HTTP surface only; signaling
	// frames are intentionally unauthenticated.
	PasswordHash string `yaml:"passwordHash"`
	CookieName   string `yaml:"cookieName"`
	CookieDays   int    `yaml:"cookieDays"`
}

type Admin struct {
	AllowedIPs []string `yaml:"allowedIPs"`
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type Call struct {
	JoinBaseURL string `yaml:"joinBaseURL"`
}

type Directory struct {
	File       string `yaml:"file"`
	UploadsDir string `yaml:"uploadsDir"`
	StaticDir  string `yaml:"staticDir"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Auth      Auth      `yaml:"auth"`
	Admin     Admin     `yaml:"admin"`
	SMTP      SMTP      `yaml:"smtp"`
	Call      Call      `yaml:"call"`
	Directory Directory `yaml:"directory"`
	Logging   Logging   `yaml:"logging"`
}

// Load reads CONFIG_PATH (default ./config.yaml). A missing default file is
// not an error; the built-in defaults stand.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":4001"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "hearth_auth"
	}
	if c.Auth.CookieDays <= 0 {
		c.Auth.CookieDays = 30
	}
	if len(c.Admin.AllowedIPs) == 0 {
		c.Admin.AllowedIPs = []string{"127.0.0.1", "::1"}
	}
	if c.Call.JoinBaseURL == "" {
		c.Call.JoinBaseURL = "http://localhost:4001"
	}
	if c.Directory.File == "" {
		c.Directory.File = "./contacts.json"
	}
	if c.Directory.UploadsDir == "" {
		c.Directory.UploadsDir = "./uploads"
	}
	if c.Directory.StaticDir == "" {
		c.Directory.StaticDir = "./static"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
