package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"lockstep/server/domain"
	"lockstep/utils"
)

// Config はノードの起動設定
type Config struct {
	LogLevel              string `yaml:"log_level"`
	InputDelayFrames      uint32 `yaml:"input_delay_frames"`
	ScheduleHorizonFrames uint32 `yaml:"schedule_horizon_frames"`
	RecordDir             string `yaml:"record_dir"`
	ControllableSide      string `yaml:"controllable_side"`
	BotCount              int    `yaml:"bot_count"`
	Username              string `yaml:"username"`
}

func Default() Config {
	return Config{
		LogLevel:              "info",
		InputDelayFrames:      3,
		ScheduleHorizonFrames: 64,
		ControllableSide:      "yellow",
		BotCount:              1,
		Username:              "player",
	}
}

// Load はデフォルト値にYAMLファイルと環境変数を順に上書きした設定を返します。
// pathが空ならファイルは読みません。
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	delay, err := envFrames("LOCKSTEP_INPUT_DELAY", c.InputDelayFrames)
	if err != nil {
		return err
	}
	horizon, err := envFrames("LOCKSTEP_SCHEDULE_HORIZON", c.ScheduleHorizonFrames)
	if err != nil {
		return err
	}
	c.InputDelayFrames = delay
	c.ScheduleHorizonFrames = horizon
	c.LogLevel = utils.GetEnvDefault("LOCKSTEP_LOG_LEVEL", c.LogLevel)
	c.RecordDir = utils.GetEnvDefault("LOCKSTEP_RECORD_DIR", c.RecordDir)
	c.ControllableSide = utils.GetEnvDefault("LOCKSTEP_SIDE", c.ControllableSide)
	c.BotCount = utils.GetEnvInt("LOCKSTEP_BOT_COUNT", c.BotCount)
	c.Username = utils.GetEnvDefault("LOCKSTEP_USERNAME", c.Username)
	return nil
}

// envFrames はフレーム数を環境変数から読む。u32に収まらない値はエラーにする
func envFrames(key string, defaultValue uint32) (uint32, error) {
	n := utils.GetEnvInt(key, int(defaultValue))
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%s: %d frames out of range", key, n)
	}
	return uint32(n), nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := c.Side(); err != nil {
		errs = append(errs, fmt.Errorf("controllable_side: %w", err))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.BotCount < 0 || c.BotCount > domain.MaxSideCount-1 {
		errs = append(errs, fmt.Errorf("bot_count: %d not in 0..%d", c.BotCount, domain.MaxSideCount-1))
	}
	if c.ScheduleHorizonFrames > 0 && c.InputDelayFrames > c.ScheduleHorizonFrames {
		errs = append(errs, fmt.Errorf("input_delay_frames: %d exceeds schedule_horizon_frames %d", c.InputDelayFrames, c.ScheduleHorizonFrames))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username: required"))
	}
	return errors.Join(errs...)
}

func (c Config) Side() (domain.SideID, error) {
	return domain.ParseSideID(c.ControllableSide)
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
