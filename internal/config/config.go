package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

type AnalyticsConfig struct {
	DefaultRangeDays   int
	MaxRangeDays       int
	HistoryDays        int
	MaxPredictionCount int
	HeatmapPrecision   int
}

// FactorConfig overrides the conversion constants. Zero keeps the built-in value.
type FactorConfig struct {
	GridEmission   float64
	ICEBaseline    float64
	FuelLiter      float64
	TreeAbsorption float64
	Credit         float64
	PricePerKg     float64
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Analytics   AnalyticsConfig
	Factors     FactorConfig
	Kafka       KafkaConfig
	MQTT        MQTTConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("ANALYTICS_HEATMAP_PRECISION", -1)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Analytics: AnalyticsConfig{
			DefaultRangeDays:   v.GetInt("ANALYTICS_DEFAULT_RANGE_DAYS"),
			MaxRangeDays:       v.GetInt("ANALYTICS_MAX_RANGE_DAYS"),
			HistoryDays:        v.GetInt("ANALYTICS_HISTORY_DAYS"),
			MaxPredictionCount: v.GetInt("ANALYTICS_MAX_PREDICTION_COUNT"),
			HeatmapPrecision:   v.GetInt("ANALYTICS_HEATMAP_PRECISION"),
		},
		Factors: FactorConfig{
			GridEmission:   v.GetFloat64("FACTOR_GRID_EMISSION"),
			ICEBaseline:    v.GetFloat64("FACTOR_ICE_BASELINE"),
			FuelLiter:      v.GetFloat64("FACTOR_FUEL_LITER"),
			TreeAbsorption: v.GetFloat64("FACTOR_TREE_ABSORPTION"),
			Credit:         v.GetFloat64("FACTOR_CREDIT"),
			PricePerKg:     v.GetFloat64("FACTOR_PRICE_PER_KG"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("MQTT_BROKER"),
			ClientID: v.GetString("MQTT_CLIENT_ID"),
			Topic:    v.GetString("MQTT_TOPIC"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7086
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.DB.MaxOpenConns <= 0 {
		cfg.DB.MaxOpenConns = 20
	}
	if cfg.DB.MaxIdleConns <= 0 {
		cfg.DB.MaxIdleConns = 5
	}
	if cfg.DB.ConnMaxLifetime == "" {
		cfg.DB.ConnMaxLifetime = "30m"
	}
	if cfg.Analytics.DefaultRangeDays <= 0 {
		cfg.Analytics.DefaultRangeDays = 7
	}
	if cfg.Analytics.MaxRangeDays <= 0 {
		cfg.Analytics.MaxRangeDays = 366
	}
	if cfg.Analytics.HistoryDays <= 0 {
		cfg.Analytics.HistoryDays = 30
	}
	if cfg.Analytics.MaxPredictionCount <= 0 {
		cfg.Analytics.MaxPredictionCount = 365
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "trip-reports"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "carbon-analytics"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "carbon-analytics"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "fleet/vehicle/+/trip"
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if _, err := time.ParseDuration(cfg.DB.ConnMaxLifetime); err != nil {
		return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.Analytics.DefaultRangeDays > cfg.Analytics.MaxRangeDays {
		return fmt.Errorf("ANALYTICS_DEFAULT_RANGE_DAYS (%d) exceeds ANALYTICS_MAX_RANGE_DAYS (%d)",
			cfg.Analytics.DefaultRangeDays, cfg.Analytics.MaxRangeDays)
	}
	if cfg.Analytics.HeatmapPrecision > 10 {
		return fmt.Errorf("ANALYTICS_HEATMAP_PRECISION must be at most 10")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
