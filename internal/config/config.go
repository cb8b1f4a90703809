package config

import (
	"github.com/caarlos0/env/v10"

	"planning-poker/internal/domain"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort            string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL         string `env:"DATABASE_URL,required,notEmpty"`
	PointScaleRaw       string `env:"POINT_SCALE" envDefault:"1,2,4,8,16"`
	ConsensusMaxSpread  int    `env:"CONSENSUS_MAX_SPREAD" envDefault:"2"`
	AdminConflictSpread int    `env:"ADMIN_CONFLICT_SPREAD" envDefault:"4"`
	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"30"`
	RedisAddr           string `env:"REDIS_ADDR"`
	RedisPassword       string `env:"REDIS_PASSWORD"`
	RedisDB             int    `env:"REDIS_DB" envDefault:"0"`
	ItemLockTTLMillis   int    `env:"ITEM_LOCK_TTL_MS" envDefault:"5000"`

	PointScale domain.PointScale
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	scale, err := domain.ParsePointScale(cfg.PointScaleRaw)
	if err != nil {
		return nil, err
	}
	cfg.PointScale = scale
	return &cfg, nil
}
