package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server Server `yaml:"server"`
	Mongo  Mongo  `yaml:"mongo"`
	Auth   Auth   `yaml:"auth"`
	Cache  Cache  `yaml:"cache"`
	Trace  Trace  `yaml:"trace"`
}

type Server struct {
	Port          int      `yaml:"port"`
	LambdaRuntime bool     `yaml:"lambdaRuntime"`
	CORSOrigins   []string `yaml:"corsOrigins"`
	LogLevel      string   `yaml:"logLevel"`
}

type Mongo struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type Auth struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type Cache struct {
	Backend        string        `yaml:"backend"` // none, memory, mongo, redis, dynamodb
	TTL            time.Duration `yaml:"ttl"`
	RedisAddr      string        `yaml:"redisAddr"`
	RedisPassword  string        `yaml:"redisPassword"`
	RedisDB        int           `yaml:"redisDB"`
	DynamoRegion   string        `yaml:"dynamoRegion"`
	DynamoTable    string        `yaml:"dynamoTable"`
	DynamoEndpoint string        `yaml:"dynamoEndpoint"` // DynamoDB Local or compatible
}

type Trace struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

func Default() Config {
	return Config{
		Server: Server{Port: 8080, LogLevel: "info"},
		Mongo:  Mongo{Host: "localhost", Port: 27017, Database: "reviewpress"},
		Cache: Cache{
			Backend:     "none",
			TTL:         30 * time.Second,
			RedisAddr:   "localhost:6379",
			DynamoTable: "reviewpress_cache",
		},
		Trace: Trace{Endpoint: "localhost:4318"},
	}
}

// Load builds the configuration from defaults, an optional .env file, an optional
// YAML file named by CONFIG_FILE and finally the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if cfg.Cache.TTL <= 0 {
		return Config{}, fmt.Errorf("cache ttl must be positive, got %s", cfg.Cache.TTL)
	}
	switch cfg.Cache.Backend {
	case "none", "memory", "mongo", "redis", "dynamodb":
	default:
		return Config{}, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getInt("PORT", cfg.Server.Port)
	cfg.Server.LambdaRuntime = getBool("LAMBDA_RUNTIME", cfg.Server.LambdaRuntime)
	cfg.Server.CORSOrigins = getList("CORS_ORIGINS", cfg.Server.CORSOrigins)
	cfg.Server.LogLevel = getString("LOG_LEVEL", cfg.Server.LogLevel)

	cfg.Mongo.Host = getString("MONGO_HOST", cfg.Mongo.Host)
	cfg.Mongo.Port = getInt("MONGO_PORT", cfg.Mongo.Port)
	cfg.Mongo.Username = getString("MONGO_USERNAME", cfg.Mongo.Username)
	cfg.Mongo.Password = getString("MONGO_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.Database = getString("MONGO_DATABASE", cfg.Mongo.Database)

	cfg.Auth.JWTSecret = getString("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.Cache.Backend = getString("CACHE_BACKEND", cfg.Cache.Backend)
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTL = time.Duration(n) * time.Second
		}
	}
	cfg.Cache.RedisAddr = getString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.DynamoRegion = getString("DYNAMODB_REGION", cfg.Cache.DynamoRegion)
	cfg.Cache.DynamoTable = getString("DYNAMODB_TABLE", cfg.Cache.DynamoTable)
	cfg.Cache.DynamoEndpoint = getString("DYNAMODB_ENDPOINT", cfg.Cache.DynamoEndpoint)

	cfg.Trace.Enabled = getBool("TRACE_ENABLED", cfg.Trace.Enabled)
	cfg.Trace.Endpoint = getString("TRACE_ENDPOINT", cfg.Trace.Endpoint)
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
