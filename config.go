package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

const (
	configDirName  = "fourpda-dl"
	configFileName = "config.json"

	// clearanceCookie is the Cloudflare bypass token. It is the one cookie
	// that must survive resets: losing it means re-solving the challenge
	// in a real browser.
	clearanceCookie = "cf_clearance"
)

// Config is the persistent credential record: the forum username plus the
// session cookies. Every documented mutation writes straight through to disk.
type Config struct {
	Username string            `json:"username"`
	Cookies  map[string]string `json:"cookies"`

	path string
}

// DefaultConfigDir resolves the platform user-data directory for the config
// file: LOCALAPPDATA on Windows, ~/.fourpda-dl on Unix if it already exists,
// otherwise the XDG data directory.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()

	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, configDirName)
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, "Local Settings", configDirName)
		}
		return filepath.Join(home, configDirName)
	}

	legacy := filepath.Join(home, "."+configDirName)
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return legacy
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName)
	}
	return filepath.Join(home, ".local", "share", configDirName)
}

// LoadConfig reads the config file under dir, or returns an empty record if
// the file does not exist yet. An empty dir selects the platform default.
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		Cookies: map[string]string{},
		path:    filepath.Join(dir, configFileName),
	}

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Cookies == nil {
		cfg.Cookies = map[string]string{}
	}
	return cfg, nil
}

// Path returns the on-disk location of the config file.
func (c *Config) Path() string {
	return c.path
}

// IsAuthenticated reports whether the record holds a complete login: a
// username and both session cookies the forum issues on success.
func (c *Config) IsAuthenticated() bool {
	return c.Username != "" &&
		c.GetCookie("pass_hash", "") != "" &&
		c.GetCookie("member_id", "") != ""
}

// GetCookie returns the named cookie or def when absent.
func (c *Config) GetCookie(name, def string) string {
	if v, ok := c.Cookies[name]; ok {
		return v
	}
	return def
}

// SetCookie stores a single cookie value.
func (c *Config) SetCookie(name, value string) {
	c.Cookies[name] = value
}

// UpdateFromSession replaces the cookie map wholesale with the ones a login
// response returned. A stored clearance cookie is carried over unless the new
// set explicitly overwrites it.
func (c *Config) UpdateFromSession(sessionCookies map[string]string) {
	cf := c.GetCookie(clearanceCookie, "")

	merged := make(map[string]string, len(sessionCookies)+1)
	for k, v := range sessionCookies {
		merged[k] = v
	}
	if cf != "" {
		if _, overwritten := merged[clearanceCookie]; !overwritten {
			merged[clearanceCookie] = cf
		}
	}

	c.Cookies = merged
}

// StrippedCookies returns a copy of the cookie map without internal
// double-underscore entries, which are session bookkeeping and must not be
// replayed to the forum.
func (c *Config) StrippedCookies() map[string]string {
	out := make(map[string]string, len(c.Cookies))
	for k, v := range c.Cookies {
		if len(k) >= 2 && k[:2] == "__" {
			continue
		}
		out[k] = v
	}
	return out
}

// Clear resets the record to empty, keeping only the clearance cookie if one
// was present, and persists immediately.
func (c *Config) Clear() error {
	cf := c.GetCookie(clearanceCookie, "")

	c.Username = ""
	c.Cookies = map[string]string{}
	if cf != "" {
		c.Cookies[clearanceCookie] = cf
	}

	return c.Save()
}

// Save fully serializes the current record to disk, creating the config
// directory on first use.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0o600)
}
