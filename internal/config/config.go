package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roamstay/service-booking/internal/pkg/database"
)

// RedisConfig holds connection settings for the hold/session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds broker and consumer-group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// StripeConfig holds payment processor credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// ReconcileConfig controls the orphaned-intent sweep.
type ReconcileConfig struct {
	Interval time.Duration
	MinAge   time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	DBConfig        database.PostgresConfig
	RedisConfig     RedisConfig
	KafkaConfig     KafkaConfig
	StripeConfig    StripeConfig
	JWTConfig       JWTConfig
	Reconcile       ReconcileConfig
	HoldExpiryGrace time.Duration
	NotifyQueueSize int
	NotifyWorkers   int
}

// Load reads configuration from the environment (BOOKING_ prefix) with
// development defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVICE_PORT", ":8084")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "roamstay.")

	v.SetDefault("JWT_ACCESS_TTL", "15m")

	v.SetDefault("RECONCILE_INTERVAL", "1m")
	v.SetDefault("RECONCILE_MIN_AGE", "10m")
	v.SetDefault("HOLD_EXPIRY_GRACE", "30s")
	v.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	v.SetDefault("NOTIFY_WORKERS", 2)

	cfg := &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		StripeConfig: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		JWTConfig: JWTConfig{
			Secret:    v.GetString("JWT_SECRET"),
			AccessTTL: v.GetDuration("JWT_ACCESS_TTL"),
		},
		Reconcile: ReconcileConfig{
			Interval: v.GetDuration("RECONCILE_INTERVAL"),
			MinAge:   v.GetDuration("RECONCILE_MIN_AGE"),
		},
		HoldExpiryGrace: v.GetDuration("HOLD_EXPIRY_GRACE"),
		NotifyQueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
		NotifyWorkers:   v.GetInt("NOTIFY_WORKERS"),
	}

	return cfg, nil
}
