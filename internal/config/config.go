// Package config loads and persists the engine's YAML configuration. The
// file lives in the data dir, is seeded from the bundled default on first
// run, and is hot-reloadable through the /config endpoint.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Search struct {
		// Queries are the web searches run every cycle, e.g.
		// `site:jobs.lever.co "software engineer" "san francisco"`.
		Queries         []string `yaml:"queries" json:"queries"`
		IntervalSeconds int      `yaml:"interval_seconds" json:"interval_seconds"`
	} `yaml:"search" json:"search"`

	Validation struct {
		IntervalSeconds     int `yaml:"interval_seconds" json:"interval_seconds"`
		TimeoutSeconds      int `yaml:"timeout_seconds" json:"timeout_seconds"`
		RetryTimeoutSeconds int `yaml:"retry_timeout_seconds" json:"retry_timeout_seconds"`
		FetchDelayMillis    int `yaml:"fetch_delay_ms" json:"fetch_delay_ms"`
		BatchSize           int `yaml:"batch_size" json:"batch_size"`
		BatchDelayMillis    int `yaml:"batch_delay_ms" json:"batch_delay_ms"`
		BoardDelayMillis    int `yaml:"board_delay_ms" json:"board_delay_ms"`
	} `yaml:"validation" json:"validation"`

	Email struct {
		Enabled         bool   `yaml:"enabled" json:"enabled"`
		IMAPHost        string `yaml:"imap_host" json:"imap_host"`
		IMAPPort        int    `yaml:"imap_port" json:"imap_port"`
		Username        string `yaml:"username" json:"username"`
		Mailbox         string `yaml:"mailbox" json:"mailbox"`
		IntervalSeconds int    `yaml:"interval_seconds" json:"interval_seconds"`
		MaxMessages     int    `yaml:"max_messages" json:"max_messages"`
	} `yaml:"email" json:"email"`

	GitHub struct {
		// Repo is "owner/name" of the repository hosting the browser
		// validation workflow. Empty disables the dispatch trigger.
		Repo string `yaml:"repo" json:"repo"`
	} `yaml:"github" json:"github"`

	RateLimit struct {
		PerHostRPS float64 `yaml:"per_host_rps" json:"per_host_rps"`
		Burst      int     `yaml:"burst" json:"burst"`
	} `yaml:"rate_limit" json:"rate_limit"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) SearchInterval() time.Duration {
	return time.Duration(c.Search.IntervalSeconds) * time.Second
}

func (c Config) ValidationInterval() time.Duration {
	return time.Duration(c.Validation.IntervalSeconds) * time.Second
}

func (c Config) EmailInterval() time.Duration {
	return time.Duration(c.Email.IntervalSeconds) * time.Second
}
