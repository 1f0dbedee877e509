package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/discord"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
	Listen   string `json:"listen" yaml:"listen"`
	Layout   string `json:"layout" yaml:"layout"`
	Discord  struct {
		Token   string `json:"token" yaml:"token"`
		BaseURL string `json:"base_url" yaml:"base_url"`
	} `json:"discord" yaml:"discord"`
	Telegram struct {
		Token string `json:"token" yaml:"token"`
	} `json:"telegram" yaml:"telegram"`
	Notion struct {
		APIKey               string `json:"api_key" yaml:"api_key"`
		BaseURL              string `json:"base_url" yaml:"base_url"`
		Version              string `json:"version" yaml:"version"`
		StudentDatabaseID    string `json:"student_database_id" yaml:"student_database_id"`
		EventDatabaseID      string `json:"event_database_id" yaml:"event_database_id"`
		StudentIDProperty    string `json:"student_id_property" yaml:"student_id_property"`
		ParticipantsProperty string `json:"participants_property" yaml:"participants_property"`
	} `json:"notion" yaml:"notion"`
	Roster struct {
		MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
	} `json:"roster" yaml:"roster"`
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".notion-discord-bot", "config.json")
}

// Defaults returns the configuration written on first run.
func Defaults() *Config {
	cfg := &Config{
		LogLevel: "info",
		Listen:   ":8080",
		Layout:   string(compose.LayoutText),
	}
	cfg.Discord.BaseURL = discord.DefaultBaseURL
	cfg.Notion.BaseURL = notion.DefaultBaseURL
	cfg.Notion.Version = notion.DefaultVersion
	cfg.Notion.StudentIDProperty = "LステップID"
	cfg.Notion.ParticipantsProperty = "参加者"
	cfg.Roster.MaxConcurrent = 4
	return cfg
}

// Load reads the config at path over the defaults. A missing file is
// created with the defaults. Files ending in .yaml or .yml are YAML,
// anything else JSON. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	overrides := []struct {
		env string
		dst *string
	}{
		{"DISCORD_BOT_TOKEN", &cfg.Discord.Token},
		{"TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token},
		{"NOTION_API_KEY", &cfg.Notion.APIKey},
		{"STUDENT_DATABASE_ID", &cfg.Notion.StudentDatabaseID},
		{"EVENT_DATABASE_ID", &cfg.Notion.EventDatabaseID},
		{"LISTEN_ADDR", &cfg.Listen},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}

	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (want debug, info, warn or error)", c.LogLevel)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is empty")
	}
	if _, err := compose.ParseLayout(c.Layout); err != nil {
		return err
	}
	if c.Roster.MaxConcurrent < 1 {
		return fmt.Errorf("roster.max_concurrent must be at least 1, got %d", c.Roster.MaxConcurrent)
	}
	return nil
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	return writeFile(path, cfg)
}

// ToMap converts cfg into a nested map keyed by the JSON field names.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// ListValues returns every setting of cfg under its dot-separated key,
// with secrets masked when mask is set.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue returns the value stored in the file at path under the
// dot-separated key. The file is created with defaults if missing.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	m, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	v, ok := Flatten(m)[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue stores value under the dot-separated key in the existing file at
// path, converted by ParseValue. The file is left untouched if the result
// would no longer load.
func SetValue(path, key, value string) error {
	m, err := readRaw(path)
	if err != nil {
		return err
	}

	parsed, err := ParseValue(key, value)
	if err != nil {
		return err
	}

	flat := Flatten(m)
	flat[key] = parsed
	tree := Unflatten(flat)
	if err := checkTree(tree); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return writeFile(path, tree)
}

// readRaw reads the file at path into a generic map, with numbers as
// float64 whatever the format.
func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if isYAML(path) {
		var y map[string]any
		if err := yaml.Unmarshal(data, &y); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if data, err = json.Marshal(y); err != nil {
			return nil, fmt.Errorf("normalize config: %w", err)
		}
	}
	m := make(map[string]any)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return m, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func writeFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
