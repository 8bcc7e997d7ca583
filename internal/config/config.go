package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Mongo    MongoConfig    `env:",prefix=MONGO_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	Cache    CacheConfig    `env:",prefix=CACHE_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	SMTP     SMTPConfig     `env:",prefix=SMTP_"`
	Version  VersionConfig  `env:",prefix="`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type MongoConfig struct {
	URI      string   `env:"URI,default=mongodb://localhost:27017"`
	Database string   `env:"DATABASE,default=user_auth_service"`
	Timeout  Duration `env:"TIMEOUT,default=10s"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret string   `env:"SECRET,required"`
	Expiry Duration `env:"EXPIRY,default=1d"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	CheckIP           bool     `env:"CHECK_IP,default=false"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=100"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CacheConfig struct {
	TTL Duration `env:"TTL,default=10s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization,x-access-token"`
}

type SMTPConfig struct {
	Host     string `env:"HOST,default="`
	Port     int    `env:"PORT,default=587"`
	User     string `env:"USER,default="`
	Password string `env:"PASSWORD,default="`
	From     string `env:"FROM,default=no-reply@localhost"`
}

// VersionConfig is echoed in every response envelope
type VersionConfig struct {
	API string `env:"API_VERSION,default=1.0.0"`
	Mod string `env:"MOD,default=development"`
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Enabled reports whether enough SMTP settings are present to send mail
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Port > 0
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if config.Security.BCryptCost < 4 || config.Security.BCryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", config.Security.BCryptCost)
	}

	return &config, nil
}
