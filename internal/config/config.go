// Package config assembles the engine's settings from defaults, an
// optional YAML file, and TRAWL_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config holds everything the engine needs to run. Zero values are filled
// in by Default; callers normally go through Load.
type Config struct {
	Cache struct {
		Dir string        `yaml:"dir"`
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Gate struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"gate"`

	Retry struct {
		Max int `yaml:"max"`
	} `yaml:"retry"`

	Fetch struct {
		UserAgent string `yaml:"userAgent"`
		Proxy     string `yaml:"proxy"`
	} `yaml:"fetch"`

	Batch struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"batch"`

	Searx struct {
		URL string `yaml:"url"`
		Key string `yaml:"key"`
	} `yaml:"searx"`

	Tavily struct {
		Key string `yaml:"key"`
	} `yaml:"tavily"`

	Browser struct {
		Bin string `yaml:"bin"`
	} `yaml:"browser"`
}

// Default returns the engine's built-in settings.
func Default() Config {
	var c Config
	c.Cache.Dir = ".trawl-cache"
	c.Cache.TTL = 24 * time.Hour
	c.Gate.Capacity = 5
	c.Retry.Max = 2
	c.Batch.Timeout = 60 * time.Second
	return c
}

// Load builds the effective configuration: defaults, then the YAML file at
// path when non-empty, then environment overrides. A missing file at an
// explicitly given path is an error; an unreadable default is not.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	c.applyEnv()
	return c, nil
}

// applyEnv overlays TRAWL_* variables onto the config. Unset and malformed
// values leave the existing setting alone.
func (c *Config) applyEnv() {
	setString(&c.Cache.Dir, "TRAWL_CACHE_DIR")
	setDuration(&c.Cache.TTL, "TRAWL_CACHE_TTL")
	setInt(&c.Gate.Capacity, "TRAWL_GATE_CAPACITY")
	setInt(&c.Retry.Max, "TRAWL_RETRY_MAX")
	setString(&c.Fetch.UserAgent, "TRAWL_USER_AGENT")
	setString(&c.Fetch.Proxy, "TRAWL_PROXY")
	setDuration(&c.Batch.Timeout, "TRAWL_BATCH_TIMEOUT")
	setString(&c.Searx.URL, "TRAWL_SEARX_URL")
	setString(&c.Searx.Key, "TRAWL_SEARX_KEY")
	setString(&c.Tavily.Key, "TRAWL_TAVILY_KEY")
	setString(&c.Browser.Bin, "TRAWL_BROWSER_BIN")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}

// setDuration accepts Go duration syntax ("90s", "24h") and bare seconds.
func setDuration(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}
