// Package config loads the non-secret tunables for both bots from a YAML
// file. Credentials never live here; they come from the environment at
// construction time.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM selects a model behind an OpenAI-compatible endpoint.
type LLM struct {
	Provider string `yaml:"provider"` // "openai", "gemini", ...
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"` // required for non-openai providers
}

// PostBot tunes the theme-posting pipeline and its slots.
type PostBot struct {
	SlotTimes           []string `yaml:"slot_times"` // "15:04" local times
	CatchUpMinutes      int      `yaml:"catch_up_minutes"`
	TweetLimit          int      `yaml:"tweet_limit"`
	MaxParts            int      `yaml:"max_parts"`
	MaxTotalChars       int      `yaml:"max_total_chars"`
	MinChars            int      `yaml:"min_chars"`
	MaxTries            int      `yaml:"max_tries"`
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	HistoryLookback     int      `yaml:"history_lookback"`
	HistoryCap          int      `yaml:"history_cap"`
	Forbidden           []string `yaml:"forbidden"`
	Angles              []string `yaml:"angles"`
	FallbackText        string   `yaml:"fallback_text"`
	ThemeTemperature    float64  `yaml:"theme_temperature"`
	WriterTemperature   float64  `yaml:"writer_temperature"`
	EditorTemperature   float64  `yaml:"editor_temperature"`
	Writer              LLM      `yaml:"writer_llm"`
	Editor              LLM      `yaml:"editor_llm"`
}

// ForecastBot tunes the daily pressure forecast.
type ForecastBot struct {
	Enabled        bool    `yaml:"enabled"`
	SlotTime       string  `yaml:"slot_time"`
	CatchUpMinutes int     `yaml:"catch_up_minutes"` // 0 = rest of day
	Latitude       float64 `yaml:"latitude"`
	Longitude      float64 `yaml:"longitude"`
	BannerPath     string  `yaml:"banner_path"`
	TweetLimit     int     `yaml:"tweet_limit"`
	Body           LLM     `yaml:"body_llm"`
}

// Config is the whole file. Loaded once, then passed by value into
// constructors.
type Config struct {
	Timezone  string      `yaml:"timezone"`
	StatePath string      `yaml:"state_path"`
	Post      PostBot     `yaml:"post"`
	Forecast  ForecastBot `yaml:"forecast"`
}

// Default returns the built-in configuration. Every field matches the
// values the bots ran with before they were configurable.
func Default() Config {
	return Config{
		Timezone:  "Asia/Tokyo",
		StatePath: "state.db",
		Post: PostBot{
			SlotTimes:           []string{"07:30", "12:30", "18:30", "21:30"},
			CatchUpMinutes:      45,
			TweetLimit:          130,
			MaxParts:            3,
			MaxTotalChars:       390,
			MinChars:            40,
			MaxTries:            10,
			SimilarityThreshold: 0.50,
			HistoryLookback:     30,
			HistoryCap:          200,
			Forbidden:           []string{"CS60", "#"},
			Angles:              []string{"思想", "症状", "自律神経"},
			ThemeTemperature:    1.2,
			WriterTemperature:   1.1,
			EditorTemperature:   0.7,
			Writer:              LLM{Provider: "gemini", Model: "gemini-2.0-flash", BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/"},
			Editor:              LLM{Provider: "openai", Model: "gpt-4o-mini"},
		},
		Forecast: ForecastBot{
			Enabled:    true,
			SlotTime:   "06:00",
			Latitude:   38.2682,
			Longitude:  140.8694,
			TweetLimit: 135,
			Body:       LLM{Provider: "gemini", Model: "gemini-2.0-flash", BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/"},
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned as-is so the bots run without any config file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if len(c.Post.SlotTimes) == 0 {
		return fmt.Errorf("post.slot_times must not be empty")
	}
	for _, s := range c.Post.SlotTimes {
		if _, err := time.Parse("15:04", s); err != nil {
			return fmt.Errorf("post.slot_times %q: %w", s, err)
		}
	}
	if _, err := time.Parse("15:04", c.Forecast.SlotTime); err != nil {
		return fmt.Errorf("forecast.slot_time %q: %w", c.Forecast.SlotTime, err)
	}
	if c.Post.TweetLimit <= 0 || c.Post.MaxTotalChars < c.Post.TweetLimit {
		return fmt.Errorf("post tweet_limit/max_total_chars out of range")
	}
	if c.Post.SimilarityThreshold < 0 || c.Post.SimilarityThreshold > 1 {
		return fmt.Errorf("post.similarity_threshold must be within [0,1]")
	}
	return nil
}

// Location resolves the configured timezone. Validate has already checked
// it, so this only fails when Load was bypassed.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
