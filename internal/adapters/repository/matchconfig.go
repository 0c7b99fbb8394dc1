package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/pkg/logger"
)

// DefaultConfigKey is the key the match configuration is stored under.
const DefaultConfigKey = "combat-score-config"

// LoadMatchConfig reads the match configuration under key. Any problem, a
// missing key, unreadable JSON, or a field that is absent, not a number or
// not a positive integer, yields the default rules with a warning. It never
// fails.
func LoadMatchConfig(ctx context.Context, s Store, key string, log logger.Logger) model.MatchConfig {
	if log == nil {
		log = logger.Nop()
	}
	defaults := model.DefaultMatchConfig()

	raw, err := s.Get(ctx, key)
	if isNotFound(err) {
		log.Debug(ctx, "no stored match config, using defaults", logger.String("key", key))
		return defaults
	}
	if err != nil {
		log.Warn(ctx, "reading match config failed, using defaults", logger.String("key", key), logger.Error(err))
		return defaults
	}

	cfg, err := decodeMatchConfig(raw)
	if err != nil {
		log.Warn(ctx, "stored match config is invalid, using defaults", logger.String("key", key), logger.Error(err))
		return defaults
	}
	return cfg
}

// SaveMatchConfig validates cfg and stores it as JSON under key.
func SaveMatchConfig(ctx context.Context, s Store, key string, cfg model.MatchConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("save match config: %w", err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode match config: %w", err)
	}
	if err := s.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save match config: %w", err)
	}
	return nil
}

// decodeMatchConfig requires all four fields as positive whole numbers.
func decodeMatchConfig(raw string) (model.MatchConfig, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return model.MatchConfig{}, fmt.Errorf("decode match config: %w", err)
	}

	get := func(name string) (int, error) {
		v, ok := fields[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s is missing", model.ErrInvalidMatchConfig, name)
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("%w: %s is not a number", model.ErrInvalidMatchConfig, name)
		}
		if f != math.Trunc(f) || f > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %s is not an integer", model.ErrInvalidMatchConfig, name)
		}
		return int(f), nil
	}

	var cfg model.MatchConfig
	var err error
	if cfg.PointsToWin, err = get("pointsToWin"); err != nil {
		return model.MatchConfig{}, err
	}
	if cfg.FoulsForPoint, err = get("foulsForPoint"); err != nil {
		return model.MatchConfig{}, err
	}
	if cfg.ExitsForWarning, err = get("exitsForWarning"); err != nil {
		return model.MatchConfig{}, err
	}
	if cfg.MaxTimeInSeconds, err = get("maxTimeInSeconds"); err != nil {
		return model.MatchConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return model.MatchConfig{}, err
	}
	return cfg, nil
}
