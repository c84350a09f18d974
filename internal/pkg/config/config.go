package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Engine  EngineConfig
	Tracker TrackerConfig
	Alerts  AlertConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// EngineConfig holds the cost constants shared by matching and routing.
// All values are overridable per call through the request options.
type EngineConfig struct {
	AvgSpeedKmh         float64 `env:"AVG_SPEED_KMH,          default=60"`
	FuelPricePerLiter   float64 `env:"FUEL_PRICE_PER_LITER,   default=1500"`
	ConsumptionPer100Km float64 `env:"CONSUMPTION_PER_100KM,  default=12"`
	RatePerKm           float64 `env:"RATE_PER_KM,            default=1200"`
	WeightPerUnitKg     float64 `env:"WEIGHT_PER_UNIT_KG,     default=25"`
	WorkingHours        float64 `env:"WORKING_HOURS,          default=8"`
}

// TrackerConfig tunes trip evaluation cadence and thresholds.
type TrackerConfig struct {
	TickSeconds           int     `env:"TRACKER_TICK_SECONDS,     default=60"`
	DelayThresholdMinutes int     `env:"DELAY_THRESHOLD_MINUTES,  default=15"`
	HeartbeatMinutes      int     `env:"HEARTBEAT_MINUTES,        default=5"`
	ArrivingSoonKm        float64 `env:"ARRIVING_SOON_KM,         default=5"`
	ArrivalKm             float64 `env:"ARRIVAL_KM,               default=0.1"`
}

// AlertConfig tunes the outbound alert pipeline.
type AlertConfig struct {
	Workers int `env:"ALERT_WORKERS, default=4"`
	// Dedup enables the Redis-backed cross-instance duplicate guard.
	Dedup bool `env:"ALERT_DEDUP, default=false"`
}

// MongoConfig selects the trip store backend. With an empty URI the engine
// falls back to the in-memory store.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=logistics_engine"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
