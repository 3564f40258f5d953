package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	SQLite      SQLiteConfig
	Redis       RedisConfig
	Dataset     DatasetConfig
	AI          AIConfig
	Recommender RecommenderConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type DatasetConfig struct {
	CSVPath   string
	ModelPath string
}

type AIConfig struct {
	Enabled     bool
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
	BatchSize   int
	CacheTTLSec int
}

type RecommenderConfig struct {
	SimilarityWeight float64
	AIWeight         float64
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ai-recommender")

	viper.SetEnvPrefix("AI_RECOMMENDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/recommendations.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("dataset.csvPath", "./data/products.csv")
	viper.SetDefault("dataset.modelPath", "./ml_models/content_model.gob")

	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-3.5-turbo")
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.maxTokens", 1000)
	viper.SetDefault("ai.timeoutSec", 30)
	viper.SetDefault("ai.batchSize", 10)
	viper.SetDefault("ai.cacheTTLSec", 3600)

	viper.SetDefault("recommender.similarityWeight", 0.6)
	viper.SetDefault("recommender.aiWeight", 0.4)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requestsPerMinute", 60)
	viper.SetDefault("ratelimit.requestsPerHour", 1000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
