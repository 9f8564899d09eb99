package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend-ridetracker/internal/ride"

	"github.com/redis/go-redis/v9"
)

const (
	autoPauseKey = "settings:autopause"
	unitsKey     = "settings:units"
)

// DefaultAutoPause applies when nothing was ever stored.
var DefaultAutoPause = ride.AutoPauseConfig{Enabled: false, ThresholdSeconds: 10}

var ErrInvalidSetting = errors.New("invalid setting")

// Service stores user settings in redis so every process sees changes
// immediately. It is the engine's ConfigSource: the detector re-reads the
// auto-pause config on every fix, so mid-session changes apply live.
type Service struct {
	redis *redis.Client
}

func NewService(redisClient *redis.Client) *Service {
	return &Service{redis: redisClient}
}

func (s *Service) AutoPause(ctx context.Context) (ride.AutoPauseConfig, error) {
	if s.redis == nil {
		return DefaultAutoPause, nil
	}
	raw, err := s.redis.Get(ctx, autoPauseKey).Result()
	if errors.Is(err, redis.Nil) {
		return DefaultAutoPause, nil
	}
	if err != nil {
		return DefaultAutoPause, err
	}
	var cfg ride.AutoPauseConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return DefaultAutoPause, err
	}
	return cfg, nil
}

func (s *Service) SetAutoPause(ctx context.Context, cfg ride.AutoPauseConfig) error {
	if !ride.ValidThreshold(cfg.ThresholdSeconds) {
		return fmt.Errorf("%w: threshold %d not in %v", ErrInvalidSetting, cfg.ThresholdSeconds, ride.AllowedThresholds)
	}
	if s.redis == nil {
		return errors.New("settings store unavailable")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, autoPauseKey, raw, 0).Err()
}

// Units is a display preference only; the engine computes in SI regardless.
func (s *Service) Units(ctx context.Context) (string, error) {
	if s.redis == nil {
		return "metric", nil
	}
	units, err := s.redis.Get(ctx, unitsKey).Result()
	if errors.Is(err, redis.Nil) {
		return "metric", nil
	}
	if err != nil {
		return "metric", err
	}
	return units, nil
}

func (s *Service) SetUnits(ctx context.Context, units string) error {
	if units != "metric" && units != "imperial" {
		return fmt.Errorf("%w: units %q", ErrInvalidSetting, units)
	}
	if s.redis == nil {
		return errors.New("settings store unavailable")
	}
	return s.redis.Set(ctx, unitsKey, units, 0).Err()
}
