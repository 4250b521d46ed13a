package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	z "github.com/Oudwins/zog"

	"github.com/PhantomStrikers/sanguoxianhua/internals/version"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

const fileName = "config.json"

type Config struct {
	Version string
	DataDir string
	API     APIConfig
	Pacing  PacingConfig
	Tasks   TasksConfig
	History HistoryConfig
}

type APIConfig struct {
	BaseURL          string `zog:"base_url"`
	ForumURL         string `zog:"forum_url"`
	GameID           string `zog:"game_id"`
	TimeoutMS        int    `zog:"timeout_ms"`
	MaxRetries       int    `zog:"max_retries"`
	RetryBaseDelayMS int    `zog:"retry_base_delay_ms"`
}

type PacingConfig struct {
	RequestIntervalMS int `zog:"request_interval_ms"`
	AccountIntervalMS int `zog:"account_interval_ms"`
	StageIntervalMS   int `zog:"stage_interval_ms"`
}

type TasksConfig struct {
	LikeTaskID     int `zog:"like_task_id"`
	ViewTaskID     int `zog:"view_task_id"`
	ShareTaskID    int `zog:"share_task_id"`
	PoolSize       int `zog:"pool_size"`
	LikeCap        int `zog:"like_cap"`
	ViewStartIndex int `zog:"view_start_index"`
	MinPool        int `zog:"min_pool"`
}

type HistoryConfig struct {
	Disabled bool   `zog:"disabled"`
	Path     string `zog:"path"`
}

var apiSchema = z.Struct(z.Shape{
	"BaseURL":          z.String().Default(sdk.DefaultAPIBaseURL).Trim(),
	"ForumURL":         z.String().Default(sdk.DefaultForumBaseURL).Trim(),
	"GameID":           z.String().Default(sdk.DefaultGameID).Trim(),
	"TimeoutMS":        z.Int().Default(20000).GT(0),
	"MaxRetries":       z.Int().Default(3).GTE(0),
	"RetryBaseDelayMS": z.Int().Default(800).GTE(0),
})

var pacingSchema = z.Struct(z.Shape{
	"RequestIntervalMS": z.Int().Default(2000).GTE(0),
	"AccountIntervalMS": z.Int().Default(3000).GTE(0),
	"StageIntervalMS":   z.Int().Default(400).GTE(0),
})

var tasksSchema = z.Struct(z.Shape{
	"LikeTaskID":     z.Int().Default(1001),
	"ViewTaskID":     z.Int().Default(1003),
	"ShareTaskID":    z.Int().Default(1004),
	"PoolSize":       z.Int().Default(15).GT(0),
	"LikeCap":        z.Int().Default(10).GT(0),
	"ViewStartIndex": z.Int().Default(10).GTE(0),
	"MinPool":        z.Int().Default(5).GTE(0),
})

var historySchema = z.Struct(z.Shape{
	"Disabled": z.Bool().Optional(),
	"Path":     z.String().Optional().Trim().Transform(expandPathTransform),
})

// Load parses the JSON config at configPath, or <dataDir>/config.json when
// configPath is empty. A missing or blank file yields the defaults.
func Load(dataDir, configPath string) (*Config, error) {
	dataDir, err := expandPath(dataDir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = filepath.Join(dataDir, fileName)
	}
	configPath, err = expandPath(configPath)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	case strings.TrimSpace(string(data)) != "":
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	parsed := &Config{}
	sections := []struct {
		key    string
		schema *z.StructSchema
		dest   any
	}{
		{"api", apiSchema, &parsed.API},
		{"pacing", pacingSchema, &parsed.Pacing},
		{"tasks", tasksSchema, &parsed.Tasks},
		{"history", historySchema, &parsed.History},
	}
	for _, s := range sections {
		data, _ := payload[s.key].(map[string]any)
		if data == nil {
			data = map[string]any{}
		}
		if errs := s.schema.Parse(data, s.dest); errs != nil {
			return nil, fmt.Errorf("invalid config %s (%s): %v", configPath, s.key, z.Issues.FlattenAndCollect(errs))
		}
	}
	parsed.Version = version.Version()
	parsed.DataDir = filepath.Clean(dataDir)
	if parsed.History.Path == "" {
		parsed.History.Path = filepath.Join(parsed.DataDir, "history.db")
	}
	return parsed, nil
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

func (a APIConfig) RetryBaseDelay() time.Duration {
	return time.Duration(a.RetryBaseDelayMS) * time.Millisecond
}

func (p PacingConfig) RequestInterval() time.Duration {
	return time.Duration(p.RequestIntervalMS) * time.Millisecond
}

func (p PacingConfig) AccountInterval() time.Duration {
	return time.Duration(p.AccountIntervalMS) * time.Millisecond
}

func (p PacingConfig) StageInterval() time.Duration {
	return time.Duration(p.StageIntervalMS) * time.Millisecond
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
