package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Test     bool `yaml:"test"`
		Database struct {
			Type     string `yaml:"type"`
			Postgres struct {
				Host     string `yaml:"host"`
				Port     int    `yaml:"port"`
				User     string `yaml:"user"`
				Password string `yaml:"password"`
				DBName   string `yaml:"dbname"`
			} `yaml:"postgres"`
			SQLite struct {
				Path string `yaml:"path"`
			} `yaml:"sqlite"`
		} `yaml:"database"`
		Discord struct {
			Token         string `yaml:"token"`
			CommandPrefix string `yaml:"command_prefix"`
		} `yaml:"discord"`
		Strava struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			RedirectURI  string `yaml:"redirect_uri"`
		} `yaml:"strava"`
		Maps struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"maps"`
		Sync struct {
			MaxActivities int `yaml:"max_activities"`
		} `yaml:"sync"`
	} `yaml:"app"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.App.Discord.Token == "" {
		return fmt.Errorf("discord token is required")
	}
	if c.App.Strava.ClientID == "" || c.App.Strava.ClientSecret == "" {
		return fmt.Errorf("strava client_id and client_secret are required")
	}
	if c.App.Discord.CommandPrefix == "" {
		c.App.Discord.CommandPrefix = "$strava "
	}
	if c.App.Strava.RedirectURI == "" {
		c.App.Strava.RedirectURI = "https://localhost/exchange_token"
	}
	if c.App.Sync.MaxActivities <= 0 {
		c.App.Sync.MaxActivities = 99
	}
	return nil
}
