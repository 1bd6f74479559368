package config

import (
	"time" // Durations

	"github.com/caarlos0/env/v6" // Struct tag based environment parsing
	"github.com/joho/godotenv"   // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string        `env:"APP_PORT" envDefault:"8080"`             // Application port
	DBUser     string        `env:"DB_USER"`                                // Database user
	DBPassword string        `env:"DB_PASSWORD"`                            // Database password
	DBHost     string        `env:"DB_HOST" envDefault:"127.0.0.1"`         // Database host
	DBPort     string        `env:"DB_PORT" envDefault:"3306"`              // Database port
	DBName     string        `env:"DB_NAME" envDefault:"shinsen"`           // Database name
	JWTSecret  string        `env:"JWT_SECRET"`                             // JWT secret key
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`               // Token lifetime
	RedisAddr  string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"` // Redis server address
	RedisPass  string        `env:"REDIS_PASS"`                             // Redis password
	RedisDB    int           `env:"REDIS_DB" envDefault:"0"`                // Redis database number
	CacheTTL   time.Duration `env:"CACHE_TTL" envDefault:"60s"`             // Read cache lifetime
	IsProd     bool          `env:"IS_PROD" envDefault:"false"`             // Is production environment

	DrawTimeout     time.Duration `env:"DRAW_TIMEOUT" envDefault:"5s"`                // Upper bound for one draw transaction
	WelcomeTickets  int64         `env:"WELCOME_SPIN_TICKETS" envDefault:"1"`         // Spin tickets given at registration
	AllowanceSpec   string        `env:"DAILY_ALLOWANCE_SPEC" envDefault:"0 0 * * *"` // Cron expression for the daily allowance
	AllowanceAmount int64         `env:"DAILY_SPIN_ALLOWANCE" envDefault:"0"`         // Spin tickets per run, 0 disables
}

// LoadConfig loads configuration from the environment, reading .env first if present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
